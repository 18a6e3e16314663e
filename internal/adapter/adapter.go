// Package adapter binds Grove modules plugged into an adapter board to device
// handles on an I/O coprocessor.
//
// Construction is all-or-nothing: the capability modules needed by every
// requested device are resolved and loaded once, then the ports are bound in
// the order the variant declares them. The first failure aborts construction
// and closes whatever was already opened.
package adapter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"go.uber.org/zap"
)

type Adapter struct {
	variant  Variant
	iop      firmware.IOP
	lib      firmware.Library
	modules  types.ModuleSet
	bindings map[types.Port]types.Binding // fixed once New returns
	logger   *zap.Logger

	closeMu sync.Mutex
	closed  bool
}

type Option func(*options)

type options struct {
	logger *zap.Logger
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New constructs an adapter of the given variant on iop.
func New(iop firmware.IOP, variant Variant, assignment types.Assignment, opts ...Option) (*Adapter, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := variant.checkPorts(assignment); err != nil {
		return nil, err
	}

	var specs []string
	for _, p := range variant.Ports {
		specs = append(specs, assignment[p].Specs...)
	}

	modules, lib, err := loadModules(iop, specs)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		variant:  variant,
		iop:      iop,
		lib:      lib,
		modules:  modules,
		bindings: make(map[types.Port]types.Binding),
		logger:   o.logger,
	}

	binder := NewBinder(lib, o.logger)
	for _, p := range variant.Ports {
		value, ok := assignment[p]
		if !ok || value.IsAbsent() {
			continue
		}

		portID, err := lib.Port(variant.FirmwarePort(p))
		if err != nil {
			a.Close()
			return nil, &BindError{Kind: ErrBindingFailed, Port: p, Err: err}
		}

		binding, err := binder.Bind(p, portID, value)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.bindings[p] = binding
	}

	o.logger.Info("Adapter constructed",
		zap.String("variant", variant.Name),
		zap.String("iop", iop.Name()),
		zap.Strings("modules", modules),
		zap.Int("ports", len(a.bindings)))

	return a, nil
}

func (a *Adapter) Variant() Variant { return a.variant }

func (a *Adapter) IOP() firmware.IOP { return a.iop }

func (a *Adapter) Library() firmware.Library { return a.lib }

// Modules returns the capability module set loaded for this adapter.
func (a *Adapter) Modules() types.ModuleSet {
	return append(types.ModuleSet(nil), a.modules...)
}

// Port returns the binding of a port. ok is false for ports that were not
// requested.
func (a *Adapter) Port(p types.Port) (types.Binding, bool) {
	b, ok := a.bindings[p]
	return b, ok
}

// Bindings returns the bound ports in variant declaration order.
func (a *Adapter) Bindings() []types.Binding {
	out := make([]types.Binding, 0, len(a.bindings))
	for _, p := range a.variant.Ports {
		if b, ok := a.bindings[p]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Close closes every bound device through its module's close primitive,
// ports in reverse declaration order. The adapter never closes devices on
// its own; the host calls Close when it is done with the handles. Only the
// first call closes anything. Bindings stay readable afterwards, but their
// handles are no longer valid.
func (a *Adapter) Close() error {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	binder := NewBinder(a.lib, a.logger)
	var errs []error
	for i := len(a.variant.Ports) - 1; i >= 0; i-- {
		b, ok := a.bindings[a.variant.Ports[i]]
		if !ok {
			continue
		}
		for j := len(b.Devices) - 1; j >= 0; j-- {
			if err := binder.closeDevice(b.Devices[j]); err != nil {
				errs = append(errs, fmt.Errorf("port %s: %w", b.Port, err))
			}
		}
	}
	return errors.Join(errs...)
}

// checkPorts rejects port names the variant does not declare.
func (v Variant) checkPorts(assignment types.Assignment) error {
	var unknown []string
	for p := range assignment {
		if !v.HasPort(p) {
			unknown = append(unknown, string(p))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w %q for %s adapter", ErrUnknownPort, unknown[0], v.Name)
}
