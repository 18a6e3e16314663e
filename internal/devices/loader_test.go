package devices

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestBuiltinCatalogValidates(t *testing.T) {
	loader, err := NewCatalogLoader(nil)
	if err != nil {
		t.Fatalf("NewCatalogLoader: %v", err)
	}

	entries, err := builtinFS.ReadDir("catalog")
	if err != nil {
		t.Fatalf("read builtin catalog: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("builtin catalog is empty")
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yaml")
		if _, err := loader.Lookup(name); err != nil {
			t.Errorf("builtin manifest %s: %v", name, err)
		}
	}

	if got := len(loader.List()); got != len(entries) {
		t.Fatalf("List returned %d manifests, want %d", got, len(entries))
	}
}

func TestLookupBuiltinADC(t *testing.T) {
	loader, err := NewCatalogLoader(nil)
	if err != nil {
		t.Fatalf("NewCatalogLoader: %v", err)
	}

	def, err := loader.Lookup("grove_adc")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if def.Module.Class != "adc" {
		t.Errorf("class = %q, want adc", def.Module.Class)
	}
	if def.DefaultAddress == nil || *def.DefaultAddress != 0x50 {
		t.Errorf("default address = %v, want 0x50", def.DefaultAddress)
	}
	if !def.Primitives.Open || !def.Primitives.OpenAtAddress || def.Primitives.OpenADC {
		t.Errorf("unexpected primitives %+v", def.Primitives)
	}

	again, _ := loader.Lookup("grove_adc")
	if again != def {
		t.Error("second lookup should be served from the cache")
	}
}

func TestLookupSearchOrder(t *testing.T) {
	override := fstest.MapFS{
		"grove_buzzer.json": {Data: []byte(`{
			"module": {"id": "grove_buzzer", "class": "peripheral", "description": "override"},
			"primitives": {"open": true, "close": true},
			"max_devices": 1
		}`)},
	}
	fallback := fstest.MapFS{
		"grove_buzzer.yaml": {Data: []byte("module:\n  id: grove_buzzer\n  class: peripheral\nprimitives:\n  open: true\n  close: true\n")},
		"grove_pir.yml":     {Data: []byte("module:\n  id: grove_pir\n  class: peripheral\nprimitives:\n  open: true\n  close: true\n")},
	}

	loader, err := NewCatalogLoaderFS(override, fallback)
	if err != nil {
		t.Fatalf("NewCatalogLoaderFS: %v", err)
	}

	def, err := loader.Lookup("grove_buzzer")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if def.Module.Description != "override" || def.MaxDevices != 1 {
		t.Fatalf("first source should win, got %+v", def)
	}

	if _, err := loader.Lookup("grove_pir"); err != nil {
		t.Fatalf("Lookup .yml: %v", err)
	}

	list := loader.List()
	if len(list) != 2 || list[0].Module.ID != "grove_buzzer" || list[1].Module.ID != "grove_pir" {
		t.Fatalf("List = %+v", list)
	}
}

func TestLookupErrors(t *testing.T) {
	src := fstest.MapFS{
		"bad_class.yaml": {Data: []byte("module:\n  id: bad_class\n  class: motor\nprimitives:\n  open: true\n")},
		"bad_addr.yaml":  {Data: []byte("module:\n  id: bad_addr\n  class: peripheral\nprimitives:\n  open: true\ndefault_address: 0x90\n")},
		"renamed.yaml":   {Data: []byte("module:\n  id: something_else\n  class: peripheral\nprimitives:\n  open: true\n")},
		"broken.json":    {Data: []byte(`{"module": `)},
	}
	loader, err := NewCatalogLoaderFS(src)
	if err != nil {
		t.Fatalf("NewCatalogLoaderFS: %v", err)
	}

	tests := []struct {
		name     string
		notFound bool
	}{
		{"missing", true},
		{"", true},
		{"../catalog", true},
		{"dir/grove_adc", true},
		{"bad_class", false},
		{"bad_addr", false},
		{"renamed", false},
		{"broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Lookup(tt.name)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrModuleNotFound); got != tt.notFound {
				t.Fatalf("errors.Is(ErrModuleNotFound) = %v for %v", got, err)
			}
		})
	}

	if got := loader.List(); len(got) != 0 {
		t.Fatalf("invalid manifests should not be listed, got %d", len(got))
	}
}

func TestClearCache(t *testing.T) {
	src := fstest.MapFS{
		"gpio.yaml": {Data: []byte("module:\n  id: gpio\n  class: gpio\nprimitives:\n  open_grove: true\n  close: true\n")},
	}
	loader, err := NewCatalogLoaderFS(src)
	if err != nil {
		t.Fatalf("NewCatalogLoaderFS: %v", err)
	}

	if _, err := loader.Lookup("gpio"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	delete(src, "gpio.yaml")

	if _, err := loader.Lookup("gpio"); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	loader.ClearCache()
	if _, err := loader.Lookup("gpio"); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("after ClearCache: %v", err)
	}
}
