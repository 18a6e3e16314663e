package types

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Port is a connector label on an adapter board (G1, D3, A0, I2C ...).
type Port string

// PortValue is what the host asks for on one port: nothing, a single device
// specification, or an ordered list of them.
type PortValue struct {
	Specs []string
	Multi bool
}

// One requests a single device on a port.
func One(spec string) PortValue {
	return PortValue{Specs: []string{spec}}
}

// Many requests an ordered list of devices on a port.
func Many(specs ...string) PortValue {
	return PortValue{Specs: append([]string(nil), specs...), Multi: true}
}

func (v PortValue) IsAbsent() bool {
	return !v.Multi && len(v.Specs) == 0
}

func (v PortValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Multi:
		specs := v.Specs
		if specs == nil {
			specs = []string{}
		}
		return json.Marshal(specs)
	case len(v.Specs) == 0:
		return []byte("null"), nil
	default:
		return json.Marshal(v.Specs[0])
	}
}

func (v *PortValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		*v = PortValue{}
	case string:
		*v = One(val)
	case []interface{}:
		specs := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("port value item %d: expected string, got %T", i, item)
			}
			specs = append(specs, s)
		}
		*v = Many(specs...)
	default:
		return fmt.Errorf("port value: expected string or list, got %T", raw)
	}
	return nil
}

func (v *PortValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = PortValue{}
			return nil
		}
		*v = One(node.Value)
	case yaml.SequenceNode:
		var specs []string
		if err := node.Decode(&specs); err != nil {
			return fmt.Errorf("port value: %w", err)
		}
		*v = Many(specs...)
	default:
		return fmt.Errorf("port value at line %d: expected string or list", node.Line)
	}
	return nil
}

// Assignment maps port labels to requested devices.
type Assignment map[Port]PortValue

// BoardAssignment is the declarative form of one adapter attached to one IOP,
// as stored in board files and in the assignment store.
type BoardAssignment struct {
	Name    string     `json:"name" yaml:"name"`
	IOP     string     `json:"iop" yaml:"iop"`
	Variant string     `json:"variant" yaml:"variant"`
	Ports   Assignment `json:"ports" yaml:"ports"`
}
