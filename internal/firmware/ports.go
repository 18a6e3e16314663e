package firmware

import "fmt"

// Port identifiers in firmware enum order.
const (
	PmodG1 PortID = iota
	PmodG2
	PmodG3
	PmodG4
	Grove1
	Grove2
	ArduinoDigilentUART
	ArduinoDigilentG1
	ArduinoDigilentG2
	ArduinoDigilentG3
	ArduinoDigilentG4
	ArduinoDigilentG5
	ArduinoDigilentG6
	ArduinoDigilentG7
	ArduinoSeeedUART
	ArduinoSeeedD2
	ArduinoSeeedD3
	ArduinoSeeedD4
	ArduinoSeeedD5
	ArduinoSeeedD6
	ArduinoSeeedD7
	ArduinoSeeedD8
	ArduinoDigilentA1
	ArduinoDigilentA2
	ArduinoDigilentA3
	ArduinoDigilentA4
	ArduinoSeeedA0
	ArduinoSeeedA1
	ArduinoSeeedA2
	ArduinoSeeedA3
	ArduinoSeeedI2C
	ArduinoDigilentI2C
)

var portNames = map[string]PortID{
	"PMOD_G1":               PmodG1,
	"PMOD_G2":               PmodG2,
	"PMOD_G3":               PmodG3,
	"PMOD_G4":               PmodG4,
	"GROVE1":                Grove1,
	"GROVE2":                Grove2,
	"ARDUINO_DIGILENT_UART": ArduinoDigilentUART,
	"ARDUINO_DIGILENT_G1":   ArduinoDigilentG1,
	"ARDUINO_DIGILENT_G2":   ArduinoDigilentG2,
	"ARDUINO_DIGILENT_G3":   ArduinoDigilentG3,
	"ARDUINO_DIGILENT_G4":   ArduinoDigilentG4,
	"ARDUINO_DIGILENT_G5":   ArduinoDigilentG5,
	"ARDUINO_DIGILENT_G6":   ArduinoDigilentG6,
	"ARDUINO_DIGILENT_G7":   ArduinoDigilentG7,
	"ARDUINO_SEEED_UART":    ArduinoSeeedUART,
	"ARDUINO_SEEED_D2":      ArduinoSeeedD2,
	"ARDUINO_SEEED_D3":      ArduinoSeeedD3,
	"ARDUINO_SEEED_D4":      ArduinoSeeedD4,
	"ARDUINO_SEEED_D5":      ArduinoSeeedD5,
	"ARDUINO_SEEED_D6":      ArduinoSeeedD6,
	"ARDUINO_SEEED_D7":      ArduinoSeeedD7,
	"ARDUINO_SEEED_D8":      ArduinoSeeedD8,
	"ARDUINO_DIGILENT_A1":   ArduinoDigilentA1,
	"ARDUINO_DIGILENT_A2":   ArduinoDigilentA2,
	"ARDUINO_DIGILENT_A3":   ArduinoDigilentA3,
	"ARDUINO_DIGILENT_A4":   ArduinoDigilentA4,
	"ARDUINO_SEEED_A0":      ArduinoSeeedA0,
	"ARDUINO_SEEED_A1":      ArduinoSeeedA1,
	"ARDUINO_SEEED_A2":      ArduinoSeeedA2,
	"ARDUINO_SEEED_A3":      ArduinoSeeedA3,
	"ARDUINO_SEEED_I2C":     ArduinoSeeedI2C,
	"ARDUINO_DIGILENT_I2C":  ArduinoDigilentI2C,

	// ZU boards label their two Grove connectors G0 and G1.
	"GROVE0_G0": Grove1,
	"GROVE1_G1": Grove2,
}

// LookupPort resolves a firmware port name.
func LookupPort(name string) (PortID, error) {
	id, ok := portNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown firmware port %q", name)
	}
	return id, nil
}

// IsAnalogPort reports whether the port is wired to the analog front end.
func IsAnalogPort(id PortID) bool {
	return id >= ArduinoDigilentA1 && id <= ArduinoSeeedA3
}

// IsI2CPort reports whether the port can carry an I2C bus.
func IsI2CPort(id PortID) bool {
	return id <= Grove2 || id == ArduinoSeeedI2C || id == ArduinoDigilentI2C
}

func (p PortID) String() string {
	for name, id := range portNames {
		if id == p && name != "GROVE0_G0" && name != "GROVE1_G1" {
			return name
		}
	}
	return fmt.Sprintf("PORT(%d)", int(p))
}
