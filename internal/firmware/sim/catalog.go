package sim

import (
	"fmt"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

// StaticCatalog serves manifests from memory.
type StaticCatalog map[string]*types.ModuleDefinition

func NewStaticCatalog(defs ...*types.ModuleDefinition) StaticCatalog {
	c := make(StaticCatalog, len(defs))
	for _, def := range defs {
		c[def.Module.ID] = def
	}
	return c
}

func (c StaticCatalog) Lookup(name string) (*types.ModuleDefinition, error) {
	def, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("module not found: %s", name)
	}
	return def, nil
}
