package adapter

import (
	"fmt"

	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

// Port labels used across the adapter boards.
const (
	PortUART types.Port = "UART"
	PortI2C  types.Port = "I2C"
	PortG0   types.Port = "G0"
	PortG1   types.Port = "G1"
	PortG2   types.Port = "G2"
	PortG3   types.Port = "G3"
	PortG4   types.Port = "G4"
	PortG5   types.Port = "G5"
	PortG6   types.Port = "G6"
	PortG7   types.Port = "G7"
	PortD2   types.Port = "D2"
	PortD3   types.Port = "D3"
	PortD4   types.Port = "D4"
	PortD5   types.Port = "D5"
	PortD6   types.Port = "D6"
	PortD7   types.Port = "D7"
	PortD8   types.Port = "D8"
	PortA0   types.Port = "A0"
	PortA1   types.Port = "A1"
	PortA2   types.Port = "A2"
	PortA3   types.Port = "A3"
	PortA4   types.Port = "A4"
)

// Variant is the fixed port table of one adapter board family.
type Variant struct {
	Name        string       `json:"name"`
	Prefix      string       `json:"prefix"`
	Description string       `json:"description"`
	Ports       []types.Port `json:"ports"`
}

func (v Variant) HasPort(p types.Port) bool {
	for _, q := range v.Ports {
		if q == p {
			return true
		}
	}
	return false
}

// FirmwarePort returns the firmware port name for a board port.
func (v Variant) FirmwarePort(p types.Port) string {
	return v.Prefix + "_" + string(p)
}

var (
	Pmod = Variant{
		Name:        "pmod",
		Prefix:      "PMOD",
		Description: "Grove adapter on a PMOD connector",
		Ports:       []types.Port{PortG1, PortG2, PortG3, PortG4},
	}
	ArduinoSeeed = Variant{
		Name:        "arduino_seeed",
		Prefix:      "ARDUINO_SEEED",
		Description: "Seeed Grove base shield on the Arduino header",
		Ports: []types.Port{
			PortUART, PortD2, PortD3, PortD4, PortD5, PortD6, PortD7, PortD8,
			PortA0, PortA1, PortA2, PortA3, PortI2C,
		},
	}
	ArduinoDigilent = Variant{
		Name:        "arduino_digilent",
		Prefix:      "ARDUINO_DIGILENT",
		Description: "Digilent Grove shield on the Arduino header",
		Ports: []types.Port{
			PortUART, PortG1, PortG2, PortG3, PortG4, PortG5, PortG6, PortG7,
			PortA1, PortA2, PortA3, PortA4, PortI2C,
		},
	}
	GroveG0 = Variant{
		Name:        "grove_g0",
		Prefix:      "GROVE0",
		Description: "Grove G0 connector on ZU boards",
		Ports:       []types.Port{PortG0},
	}
	GroveG1 = Variant{
		Name:        "grove_g1",
		Prefix:      "GROVE1",
		Description: "Grove G1 connector on ZU boards",
		Ports:       []types.Port{PortG1},
	}
)

// Variants lists every known adapter board.
func Variants() []Variant {
	return []Variant{Pmod, ArduinoSeeed, ArduinoDigilent, GroveG0, GroveG1}
}

func LookupVariant(name string) (Variant, error) {
	for _, v := range Variants() {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
}

// Typed port sets, one field per connector.

type PmodPorts struct {
	G1, G2, G3, G4 types.PortValue
}

func (p PmodPorts) assignment() types.Assignment {
	return collect(map[types.Port]types.PortValue{
		PortG1: p.G1,
		PortG2: p.G2,
		PortG3: p.G3,
		PortG4: p.G4,
	})
}

type ArduinoSeeedPorts struct {
	UART                       types.PortValue
	D2, D3, D4, D5, D6, D7, D8 types.PortValue
	A0, A1, A2, A3             types.PortValue
	I2C                        types.PortValue
}

func (p ArduinoSeeedPorts) assignment() types.Assignment {
	return collect(map[types.Port]types.PortValue{
		PortUART: p.UART,
		PortD2:   p.D2,
		PortD3:   p.D3,
		PortD4:   p.D4,
		PortD5:   p.D5,
		PortD6:   p.D6,
		PortD7:   p.D7,
		PortD8:   p.D8,
		PortA0:   p.A0,
		PortA1:   p.A1,
		PortA2:   p.A2,
		PortA3:   p.A3,
		PortI2C:  p.I2C,
	})
}

type ArduinoDigilentPorts struct {
	UART                       types.PortValue
	G1, G2, G3, G4, G5, G6, G7 types.PortValue
	A1, A2, A3, A4             types.PortValue
	I2C                        types.PortValue
}

func (p ArduinoDigilentPorts) assignment() types.Assignment {
	return collect(map[types.Port]types.PortValue{
		PortUART: p.UART,
		PortG1:   p.G1,
		PortG2:   p.G2,
		PortG3:   p.G3,
		PortG4:   p.G4,
		PortG5:   p.G5,
		PortG6:   p.G6,
		PortG7:   p.G7,
		PortA1:   p.A1,
		PortA2:   p.A2,
		PortA3:   p.A3,
		PortA4:   p.A4,
		PortI2C:  p.I2C,
	})
}

func collect(m map[types.Port]types.PortValue) types.Assignment {
	a := make(types.Assignment, len(m))
	for p, v := range m {
		if !v.IsAbsent() {
			a[p] = v
		}
	}
	return a
}

func NewPmod(iop firmware.IOP, ports PmodPorts, opts ...Option) (*Adapter, error) {
	return New(iop, Pmod, ports.assignment(), opts...)
}

func NewArduinoSeeed(iop firmware.IOP, ports ArduinoSeeedPorts, opts ...Option) (*Adapter, error) {
	return New(iop, ArduinoSeeed, ports.assignment(), opts...)
}

func NewArduinoDigilent(iop firmware.IOP, ports ArduinoDigilentPorts, opts ...Option) (*Adapter, error) {
	return New(iop, ArduinoDigilent, ports.assignment(), opts...)
}

func NewGroveG0(iop firmware.IOP, g0 types.PortValue, opts ...Option) (*Adapter, error) {
	return New(iop, GroveG0, collect(map[types.Port]types.PortValue{PortG0: g0}), opts...)
}

func NewGroveG1(iop firmware.IOP, g1 types.PortValue, opts ...Option) (*Adapter, error) {
	return New(iop, GroveG1, collect(map[types.Port]types.PortValue{PortG1: g1}), opts...)
}
