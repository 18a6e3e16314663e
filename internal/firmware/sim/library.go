package sim

import (
	"fmt"

	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

const maxI2CAddress = 0x7F

type library struct {
	iop   *IOP
	defs  map[string]*types.ModuleDefinition
	names []string
}

func (l *library) Port(name string) (firmware.PortID, error) {
	return firmware.LookupPort(name)
}

func (l *library) Modules() []string {
	return append([]string(nil), l.names...)
}

func (l *library) Capability(basename string) (firmware.Capability, bool) {
	def, ok := l.defs[basename]
	if !ok {
		return firmware.Capability{}, false
	}

	c := firmware.Capability{
		Name:  def.Module.ID,
		Class: firmware.Class(def.Module.Class),
	}
	if def.Primitives.Open {
		c.Open = func(port firmware.PortID) (firmware.Handle, error) {
			var addr *uint32
			if def.DefaultAddress != nil {
				a := uint32(*def.DefaultAddress)
				addr = &a
			}
			return l.openOnPort(def, port, addr)
		}
	}
	if def.Primitives.OpenGrove {
		c.OpenGrove = func(port firmware.PortID) (firmware.Handle, error) {
			if !groveCompatible(firmware.Class(def.Module.Class), port) {
				return 0, firmware.ENODEV
			}
			return l.openOnPort(def, port, nil)
		}
	}
	if def.Primitives.OpenAtAddress {
		c.OpenAtAddress = func(port firmware.PortID, address uint32) (firmware.Handle, error) {
			if address > maxI2CAddress {
				return 0, firmware.EINVAL
			}
			return l.openOnPort(def, port, &address)
		}
	}
	if def.Primitives.OpenADC {
		c.OpenADC = func(adc firmware.Handle) (firmware.Handle, error) {
			return l.openOnADC(def, adc)
		}
	}
	if def.Primitives.Close {
		c.Close = func(h firmware.Handle) error {
			return l.iop.close(def.Module.ID, h)
		}
	}
	return c, true
}

func (l *library) openOnPort(def *types.ModuleDefinition, port firmware.PortID, address *uint32) (firmware.Handle, error) {
	if !portAllowed(def, port) {
		return 0, firmware.EIO
	}

	l.iop.mu.Lock()
	defer l.iop.mu.Unlock()
	return l.iop.open(def, port, address, nil)
}

func (l *library) openOnADC(def *types.ModuleDefinition, h firmware.Handle) (firmware.Handle, error) {
	l.iop.mu.Lock()
	defer l.iop.mu.Unlock()

	adc, ok := l.iop.devices[h]
	if !ok {
		return 0, firmware.EBADF
	}
	adcDef, ok := l.iop.loaded[adc.module]
	if !ok || firmware.Class(adcDef.Module.Class) != firmware.ClassADC {
		return 0, fmt.Errorf("handle %d is not an ADC: %w", h, firmware.EINVAL)
	}
	return l.iop.open(def, adc.port, nil, adc)
}

func portAllowed(def *types.ModuleDefinition, port firmware.PortID) bool {
	if len(def.Ports) == 0 {
		return true
	}
	for _, name := range def.Ports {
		id, err := firmware.LookupPort(name)
		if err == nil && id == port {
			return true
		}
	}
	return false
}

// groveCompatible mirrors the *_open_grove helpers, which return -1 for
// connectors that are not wired for the interface.
func groveCompatible(class firmware.Class, port firmware.PortID) bool {
	switch class {
	case firmware.ClassBus:
		return firmware.IsI2CPort(port)
	case firmware.ClassAnalog:
		return firmware.IsAnalogPort(port)
	case firmware.ClassGPIO, firmware.ClassTimer:
		return port <= firmware.ArduinoSeeedD8
	case firmware.ClassUART:
		return port <= firmware.ArduinoSeeedUART
	default:
		return true
	}
}
