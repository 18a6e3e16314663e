package types

import "fmt"

// DeviceSpec is the parsed form of "basename[@hex][.consumer]".
type DeviceSpec struct {
	Raw      string
	Basename string
	Address  *uint32 // nil when no @ suffix was given
	Chain    string  // consumer spec after the first '.', empty if unchained
}

func (s DeviceSpec) HasAddress() bool { return s.Address != nil }

func (s DeviceSpec) IsChained() bool { return s.Chain != "" }

func (s DeviceSpec) String() string {
	out := s.Basename
	if s.Address != nil {
		out += fmt.Sprintf("@%x", *s.Address)
	}
	if s.Chain != "" {
		out += "." + s.Chain
	}
	return out
}
