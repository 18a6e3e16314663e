package types

// ModuleDefinition is a capability module manifest from the catalog.
type ModuleDefinition struct {
	Module         ModuleInfo     `json:"module" yaml:"module"`
	Primitives     PrimitiveFlags `json:"primitives" yaml:"primitives"`
	DefaultAddress *int           `json:"default_address,omitempty" yaml:"default_address,omitempty"`
	MaxDevices     int            `json:"max_devices,omitempty" yaml:"max_devices,omitempty"`
	Ports          []string       `json:"ports,omitempty" yaml:"ports,omitempty"`
}

type ModuleInfo struct {
	ID          string `json:"id" yaml:"id"`
	Class       string `json:"class" yaml:"class"` // bus, gpio, analog, adc, interface, uart, timer, peripheral
	Vendor      string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PrimitiveFlags lists which open/close entry points the module exports.
type PrimitiveFlags struct {
	Open          bool `json:"open" yaml:"open"`
	OpenGrove     bool `json:"open_grove,omitempty" yaml:"open_grove,omitempty"`
	OpenAtAddress bool `json:"open_at_address,omitempty" yaml:"open_at_address,omitempty"`
	OpenADC       bool `json:"open_adc,omitempty" yaml:"open_adc,omitempty"`
	Close         bool `json:"close" yaml:"close"`
}
