package devices

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/capability-module-v1.json
var capabilityModuleSchemaJSON string

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("capability-module-v1.json",
		strings.NewReader(capabilityModuleSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("capability-module-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateManifest validates a JSON manifest.
func (v *Validator) ValidateManifest(data []byte) error {
	var manifest interface{}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(manifest); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// ValidateYAMLManifest converts a YAML manifest to its JSON form and
// validates that. The JSON form is returned so callers decode exactly what
// was validated.
func (v *Validator) ValidateYAMLManifest(data []byte) ([]byte, error) {
	var manifest interface{}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	out, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to convert manifest: %w", err)
	}

	if err := v.ValidateManifest(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *Validator) ValidateDefinition(def *types.ModuleDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return v.ValidateManifest(data)
}
