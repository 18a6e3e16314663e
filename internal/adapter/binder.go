package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/spec"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"go.uber.org/zap"
)

var ErrPrimitiveNotFound = errors.New("primitive not found")

// Binder opens the devices requested for a port against a loaded library.
type Binder struct {
	lib    firmware.Library
	logger *zap.Logger
}

func NewBinder(lib firmware.Library, logger *zap.Logger) *Binder {
	return &Binder{lib: lib, logger: logger}
}

// Bind opens every device requested for one port, preserving input order.
// On error, devices already opened for this port are closed again.
func (b *Binder) Bind(port types.Port, portID firmware.PortID, value types.PortValue) (types.Binding, error) {
	binding := types.Binding{Port: port, Multi: value.Multi}
	if value.IsAbsent() {
		return binding, nil
	}

	binding.Devices = make([]types.BoundDevice, 0, len(value.Specs))
	for _, s := range value.Specs {
		dev, err := b.open(port, portID, s)
		if err != nil {
			b.release(binding.Devices)
			return types.Binding{}, err
		}
		binding.Devices = append(binding.Devices, dev)
	}

	b.logger.Debug("Port bound",
		zap.String("port", string(port)),
		zap.Stringer("port_id", portID),
		zap.Strings("specs", value.Specs))

	return binding, nil
}

func (b *Binder) open(port types.Port, portID firmware.PortID, s string) (types.BoundDevice, error) {
	ds, err := spec.Parse(s)
	if err != nil {
		return types.BoundDevice{}, &BindError{Kind: ErrInvalidSpec, Port: port, Err: err}
	}
	if ds.IsChained() {
		return b.openChain(port, portID, ds)
	}
	return b.openDirect(port, portID, ds)
}

func (b *Binder) openDirect(port types.Port, portID firmware.PortID, ds types.DeviceSpec) (types.BoundDevice, error) {
	capability, ok := b.lib.Capability(ds.Basename)
	if !ok {
		return types.BoundDevice{}, &BindError{Kind: ErrModuleNotFound, Port: port, Module: ds.Basename}
	}

	var (
		h   firmware.Handle
		err error
	)
	switch {
	case ds.HasAddress():
		if capability.OpenAtAddress == nil {
			return types.BoundDevice{}, &BindError{Kind: ErrUnsupportedAddress, Port: port, Module: ds.Basename}
		}
		h, err = capability.OpenAtAddress(portID, *ds.Address)
		err = wrapPrimitive(ds.Basename+"_open_at_address", err)

	case usesGroveOpen(ds.Basename):
		if capability.OpenGrove == nil {
			return types.BoundDevice{}, missingPrimitive(port, ds.Basename, "_open_grove")
		}
		h, err = capability.OpenGrove(portID)
		err = wrapPrimitive(ds.Basename+"_open_grove", err)

	default:
		if capability.Open == nil {
			return types.BoundDevice{}, missingPrimitive(port, ds.Basename, "_open")
		}
		h, err = capability.Open(portID)
		err = wrapPrimitive(ds.Basename+"_open", err)
	}
	if err != nil {
		return types.BoundDevice{}, &BindError{Kind: ErrBindingFailed, Port: port, Module: ds.Basename, Err: err}
	}

	return types.BoundDevice{Spec: ds.Raw, Module: ds.Basename, Handle: h}, nil
}

// openChain opens an ADC on the port and hands its handle to the consumer.
// Each chain opens its own ADC; handles are never shared between chains.
func (b *Binder) openChain(port types.Port, portID firmware.PortID, ds types.DeviceSpec) (types.BoundDevice, error) {
	adcCap, ok := b.lib.Capability(ds.Basename)
	if !ok {
		return types.BoundDevice{}, &BindError{Kind: ErrModuleNotFound, Port: port, Module: ds.Basename}
	}
	if adcCap.Class != firmware.ClassADC {
		return types.BoundDevice{}, &BindError{
			Kind:   ErrIllegalChain,
			Port:   port,
			Module: ds.Basename,
			Err:    fmt.Errorf("only ADC modules can start a chain, %s is %s", ds.Basename, adcCap.Class),
		}
	}

	consumer := ds.Chain
	if strings.ContainsRune(consumer, '@') {
		return types.BoundDevice{}, &BindError{
			Kind:   ErrIllegalChain,
			Port:   port,
			Module: consumer,
			Err:    errors.New("chain consumers cannot be opened at an address"),
		}
	}
	consCap, ok := b.lib.Capability(consumer)
	if !ok || consCap.OpenADC == nil {
		return types.BoundDevice{}, &BindError{
			Kind:   ErrIllegalChain,
			Port:   port,
			Module: consumer,
			Err:    fmt.Errorf("%s should not be connected to an ADC", consumer),
		}
	}

	head := ds
	head.Chain = ""
	head.Raw = head.String()
	adc, err := b.openDirect(port, portID, head)
	if err != nil {
		return types.BoundDevice{}, err
	}

	h, err := consCap.OpenADC(adc.Handle)
	if err != nil {
		b.closeDevice(adc)
		return types.BoundDevice{}, &BindError{
			Kind:   ErrBindingFailed,
			Port:   port,
			Module: consumer,
			Err:    wrapPrimitive(consumer+"_open_adc", err),
		}
	}

	return types.BoundDevice{Spec: ds.Raw, Module: consumer, Handle: h, ADC: &adc}, nil
}

func (b *Binder) release(devices []types.BoundDevice) {
	for i := len(devices) - 1; i >= 0; i-- {
		b.closeDevice(devices[i])
	}
}

// closeDevice closes a device and then the ADC it was opened through.
func (b *Binder) closeDevice(d types.BoundDevice) error {
	var errs []error
	if err := closeHandle(b.lib, d.Module, d.Handle); err != nil {
		b.logger.Warn("Failed to close device",
			zap.String("module", d.Module),
			zap.Int("handle", int(d.Handle)),
			zap.Error(err))
		errs = append(errs, err)
	}
	if d.ADC != nil {
		if err := b.closeDevice(*d.ADC); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeHandle(lib firmware.Library, module string, h firmware.Handle) error {
	capability, ok := lib.Capability(module)
	if !ok || capability.Close == nil {
		return fmt.Errorf("%s_close: %w", module, ErrPrimitiveNotFound)
	}
	if err := capability.Close(h); err != nil {
		return fmt.Errorf("%s_close(%d): %w", module, h, err)
	}
	return nil
}

func usesGroveOpen(basename string) bool {
	switch basename {
	case firmware.ModuleI2C, firmware.ModuleGPIO, firmware.ModuleAnalog:
		return true
	}
	return false
}

func wrapPrimitive(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func missingPrimitive(port types.Port, module, suffix string) error {
	return &BindError{
		Kind:   ErrBindingFailed,
		Port:   port,
		Module: module,
		Err:    fmt.Errorf("%s%s: %w", module, suffix, ErrPrimitiveNotFound),
	}
}
