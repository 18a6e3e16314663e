package devices

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

var ErrModuleNotFound = errors.New("capability module not found")

var manifestExts = []string{".json", ".yaml", ".yml"}

// CatalogLoader finds capability module manifests by basename. Sources are
// searched in order; the first one holding a manifest wins.
type CatalogLoader struct {
	cache     sync.Map
	validator *Validator
	sources   []fs.FS
	names     []string
}

// NewCatalogLoader searches the given directories, then the built-in catalog.
func NewCatalogLoader(searchPaths []string) (*CatalogLoader, error) {
	sources := make([]fs.FS, 0, len(searchPaths)+1)
	for _, p := range searchPaths {
		sources = append(sources, os.DirFS(p))
	}
	sources = append(sources, BuiltinCatalog())

	names := append(append([]string(nil), searchPaths...), "builtin")
	return newCatalogLoader(sources, names)
}

// NewCatalogLoaderFS searches the given file systems only.
func NewCatalogLoaderFS(sources ...fs.FS) (*CatalogLoader, error) {
	names := make([]string, len(sources))
	for i := range sources {
		names[i] = fmt.Sprintf("fs#%d", i)
	}
	return newCatalogLoader(sources, names)
}

func newCatalogLoader(sources []fs.FS, names []string) (*CatalogLoader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &CatalogLoader{
		validator: validator,
		sources:   sources,
		names:     names,
	}, nil
}

// Lookup returns the manifest of a capability module.
func (l *CatalogLoader) Lookup(name string) (*types.ModuleDefinition, error) {
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*types.ModuleDefinition), nil
	}

	if name == "" || strings.Contains(name, "/") || !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}

	for i, src := range l.sources {
		for _, ext := range manifestExts {
			file := name + ext
			data, err := fs.ReadFile(src, file)
			if err != nil {
				continue
			}

			def, err := l.decode(file, data)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", l.names[i], file, err)
			}
			if def.Module.ID != name {
				return nil, fmt.Errorf("%s/%s: manifest declares module %q", l.names[i], file, def.Module.ID)
			}

			l.cache.Store(name, def)
			return def, nil
		}
	}

	return nil, fmt.Errorf("%w: %s (searched in: %v)", ErrModuleNotFound, name, l.names)
}

// List returns every manifest visible through the loader, sorted by id.
// Manifests that fail validation are skipped.
func (l *CatalogLoader) List() []*types.ModuleDefinition {
	seen := make(map[string]bool)
	var defs []*types.ModuleDefinition

	for _, src := range l.sources {
		entries, err := fs.ReadDir(src, ".")
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := path.Ext(e.Name())
			if !isManifestExt(ext) {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ext)
			if seen[name] {
				continue
			}
			seen[name] = true

			def, err := l.Lookup(name)
			if err != nil {
				continue
			}
			defs = append(defs, def)
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Module.ID < defs[j].Module.ID })
	return defs
}

func (l *CatalogLoader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}

func (l *CatalogLoader) decode(file string, data []byte) (*types.ModuleDefinition, error) {
	if path.Ext(file) != ".json" {
		converted, err := l.validator.ValidateYAMLManifest(data)
		if err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		data = converted
	} else if err := l.validator.ValidateManifest(data); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var def types.ModuleDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &def, nil
}

func isManifestExt(ext string) bool {
	for _, e := range manifestExts {
		if e == ext {
			return true
		}
	}
	return false
}
