package adapter

import (
	"errors"
	"fmt"

	"github.com/KevinKickass/OpenGroveCore/internal/spec"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

var (
	ErrInvalidSpec        = spec.ErrInvalidSpec
	ErrModuleNotFound     = errors.New("capability module not found")
	ErrUnsupportedAddress = errors.New("module does not support opening at an address")
	ErrIllegalChain       = errors.New("illegal device chain")
	ErrBindingFailed      = errors.New("failed to initialise port")
	ErrUnknownPort        = errors.New("unknown port")
	ErrUnknownVariant     = errors.New("unknown adapter variant")
)

// ModuleError reports a module the firmware image cannot provide.
type ModuleError struct {
	Module string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s not found", e.Module)
}

func (e *ModuleError) Is(target error) bool { return target == ErrModuleNotFound }

// BindError is returned for every failure while binding a port. Kind is one
// of ErrUnsupportedAddress, ErrIllegalChain, ErrBindingFailed or
// ErrInvalidSpec; Err carries the underlying cause, if any.
type BindError struct {
	Kind   error
	Port   types.Port
	Module string
	Err    error
}

func (e *BindError) Error() string {
	msg := fmt.Sprintf("port %s", e.Port)
	if e.Module != "" {
		msg += fmt.Sprintf(" (module %s)", e.Module)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BindError) Unwrap() error { return e.Err }

func (e *BindError) Is(target error) bool { return target == e.Kind }
