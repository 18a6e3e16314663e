package adapter

import (
	"fmt"
	"sort"

	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/spec"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

// ResolveModules computes the capability modules needed by specs. Every
// requested module must be available, and the first missing one in spec
// order is reported; grove_interfaces is added whenever one
// of the raw interface modules is requested.
func ResolveModules(iop firmware.IOP, specs []string) (types.ModuleSet, error) {
	seen := make(map[string]struct{})
	set := make(types.ModuleSet, 0, len(specs)+1)
	for _, s := range specs {
		names, err := spec.Modules(s)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			if !iop.HasModule(name) {
				return nil, &ModuleError{Module: name}
			}
			seen[name] = struct{}{}
			set = append(set, name)
		}
	}
	sort.Strings(set)

	if needsInterfaces(seen) {
		if _, ok := seen[firmware.ModuleInterfaces]; !ok {
			set = append(set, firmware.ModuleInterfaces)
			sort.Strings(set)
		}
	}
	return set, nil
}

func needsInterfaces(seen map[string]struct{}) bool {
	for _, name := range []string{firmware.ModuleI2C, firmware.ModuleGPIO, firmware.ModuleAnalog} {
		if _, ok := seen[name]; ok {
			return true
		}
	}
	return false
}

// loadModules resolves and loads in one step.
func loadModules(iop firmware.IOP, specs []string) (types.ModuleSet, firmware.Library, error) {
	set, err := ResolveModules(iop, specs)
	if err != nil {
		return nil, nil, err
	}
	lib, err := iop.Load(set)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load modules on %s: %w", iop.Name(), err)
	}
	return set, lib, nil
}
