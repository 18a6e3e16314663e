package types

import "github.com/KevinKickass/OpenGroveCore/internal/firmware"

// BoundDevice is one opened device. ADC is set for chained devices and holds
// the converter the consumer was opened through.
type BoundDevice struct {
	Spec   string          `json:"spec"`
	Module string          `json:"module"`
	Handle firmware.Handle `json:"handle"`
	ADC    *BoundDevice    `json:"adc,omitempty"`
}

// Binding is the result of binding one port.
type Binding struct {
	Port    Port          `json:"port"`
	Multi   bool          `json:"multi"`
	Devices []BoundDevice `json:"devices"`
}

// Handle returns the single handle of a port bound with one specification.
func (b Binding) Handle() (firmware.Handle, bool) {
	if b.Multi || len(b.Devices) != 1 {
		return 0, false
	}
	return b.Devices[0].Handle, true
}

// Handles returns all handles in binding order.
func (b Binding) Handles() []firmware.Handle {
	out := make([]firmware.Handle, 0, len(b.Devices))
	for _, d := range b.Devices {
		out = append(out, d.Handle)
	}
	return out
}

// ModuleSet is a sorted, duplicate free list of capability module basenames.
type ModuleSet []string

func (s ModuleSet) Contains(name string) bool {
	for _, m := range s {
		if m == name {
			return true
		}
	}
	return false
}
