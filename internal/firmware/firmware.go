// Package firmware describes the primitives an I/O coprocessor exposes once its
// capability modules are loaded. Implementations live elsewhere (see sim).
package firmware

import "fmt"

// Handle is an opaque device identifier returned by an open primitive.
type Handle int

// PortID is a firmware-side connector identifier (GROVE_INTERFACE enum value).
type PortID int

// Class groups capability modules by what they drive.
type Class string

const (
	ClassBus        Class = "bus"
	ClassGPIO       Class = "gpio"
	ClassAnalog     Class = "analog"
	ClassADC        Class = "adc"
	ClassInterface  Class = "interface"
	ClassUART       Class = "uart"
	ClassTimer      Class = "timer"
	ClassPeripheral Class = "peripheral"
)

// Reserved basenames.
const (
	ModuleI2C        = "i2c"
	ModuleGPIO       = "gpio"
	ModuleAnalog     = "analog"
	ModuleInterfaces = "grove_interfaces"
)

// Capability is the registry entry for one loaded module. A nil function
// means the module does not provide that primitive.
type Capability struct {
	Name  string
	Class Class

	Open          func(port PortID) (Handle, error)
	OpenGrove     func(port PortID) (Handle, error)
	OpenAtAddress func(port PortID, address uint32) (Handle, error)
	OpenADC       func(adc Handle) (Handle, error)
	Close         func(h Handle) error
}

// IOP is one I/O coprocessor context.
type IOP interface {
	Name() string
	// HasModule reports whether the firmware image can provide the module.
	HasModule(name string) bool
	// Load makes the given modules callable. Loading the same set again
	// returns an equivalent library.
	Load(modules []string) (Library, error)
}

// Library is the callable view of a loaded module set.
type Library interface {
	Port(name string) (PortID, error)
	Capability(basename string) (Capability, bool)
	Modules() []string
}

// Errno mirrors the negative return codes of the firmware primitives.
type Errno int

const (
	EIO    Errno = 5
	EBADF  Errno = 9
	ENOMEM Errno = 12
	ENODEV Errno = 19
	EINVAL Errno = 22
)

func (e Errno) Error() string {
	switch e {
	case EIO:
		return "EIO: device not present or I/O error"
	case EBADF:
		return "EBADF: bad device handle"
	case ENOMEM:
		return "ENOMEM: no free device slot"
	case ENODEV:
		return "ENODEV: no such device"
	case EINVAL:
		return "EINVAL: invalid argument"
	default:
		return fmt.Sprintf("errno %d", int(e))
	}
}
