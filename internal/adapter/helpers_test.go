package adapter

import (
	"testing"

	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/firmware/sim"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"go.uber.org/zap/zaptest"
)

func intPtr(v int) *int { return &v }

func module(id, class string, prims types.PrimitiveFlags, ports ...string) *types.ModuleDefinition {
	return &types.ModuleDefinition{
		Module:     types.ModuleInfo{ID: id, Class: class},
		Primitives: prims,
		Ports:      ports,
	}
}

var i2cPorts = []string{"PMOD_G3", "PMOD_G4", "GROVE1", "GROVE2", "ARDUINO_SEEED_I2C", "ARDUINO_DIGILENT_I2C"}

func testCatalog() sim.StaticCatalog {
	adc := module("grove_adc", "adc",
		types.PrimitiveFlags{Open: true, OpenAtAddress: true, Close: true}, i2cPorts...)
	adc.DefaultAddress = intPtr(0x50)

	oled := module("grove_oled", "peripheral",
		types.PrimitiveFlags{Open: true, Close: true}, i2cPorts...)
	oled.DefaultAddress = intPtr(0x3C)

	light := module("grove_light", "peripheral",
		types.PrimitiveFlags{Open: true, OpenAtAddress: true, OpenADC: true, Close: true})
	light.DefaultAddress = intPtr(0x29)

	return sim.NewStaticCatalog(
		adc,
		oled,
		light,
		module("grove_servo", "peripheral", types.PrimitiveFlags{Open: true, Close: true}),
		module("grove_led_stick", "peripheral", types.PrimitiveFlags{Open: true, Close: true}),
		module("grove_buzzer", "peripheral", types.PrimitiveFlags{Open: true, Close: true}),
		module("grove_potentiometer", "peripheral",
			types.PrimitiveFlags{Open: true, OpenAtAddress: true, OpenADC: true, Close: true}),
		module("i2c", "bus", types.PrimitiveFlags{OpenGrove: true, Close: true}),
		module("gpio", "gpio", types.PrimitiveFlags{OpenGrove: true, Close: true}),
		module("analog", "analog", types.PrimitiveFlags{OpenGrove: true, Close: true}),
		module("grove_interfaces", "interface", types.PrimitiveFlags{}),
	)
}

func newTestIOP(t *testing.T) *sim.IOP {
	t.Helper()
	return sim.New("PMODA", testCatalog(), zaptest.NewLogger(t))
}

// recordingIOP records the module sets passed to Load and counts the open
// calls made through the returned library.
type recordingIOP struct {
	*sim.IOP
	loads [][]string
	opens map[string]int
}

func (r *recordingIOP) Load(modules []string) (firmware.Library, error) {
	r.loads = append(r.loads, append([]string(nil), modules...))
	lib, err := r.IOP.Load(modules)
	if err != nil {
		return nil, err
	}
	if r.opens == nil {
		r.opens = make(map[string]int)
	}
	return &recordingLibrary{Library: lib, opens: r.opens}, nil
}

type recordingLibrary struct {
	firmware.Library
	opens map[string]int
}

func (r *recordingLibrary) Capability(basename string) (firmware.Capability, bool) {
	c, ok := r.Library.Capability(basename)
	if !ok {
		return c, ok
	}
	if open := c.Open; open != nil {
		c.Open = func(port firmware.PortID) (firmware.Handle, error) {
			r.opens[basename]++
			return open(port)
		}
	}
	if open := c.OpenGrove; open != nil {
		c.OpenGrove = func(port firmware.PortID) (firmware.Handle, error) {
			r.opens[basename]++
			return open(port)
		}
	}
	if open := c.OpenAtAddress; open != nil {
		c.OpenAtAddress = func(port firmware.PortID, address uint32) (firmware.Handle, error) {
			r.opens[basename]++
			return open(port, address)
		}
	}
	if open := c.OpenADC; open != nil {
		c.OpenADC = func(adc firmware.Handle) (firmware.Handle, error) {
			r.opens[basename]++
			return open(adc)
		}
	}
	return c, ok
}
