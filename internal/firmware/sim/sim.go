// Package sim is a host-side stand-in for an I/O coprocessor. It serves the
// primitives described by catalog manifests and keeps the per-module slot
// tables and per-port bus reference counts a real firmware image would.
package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"go.uber.org/zap"
)

const defaultMaxDevices = 4

// Catalog provides capability module manifests.
type Catalog interface {
	Lookup(name string) (*types.ModuleDefinition, error)
}

type device struct {
	handle  firmware.Handle
	module  string
	port    firmware.PortID
	address *uint32
	adc     *device
	refs    int
}

type IOP struct {
	name    string
	catalog Catalog
	logger  *zap.Logger

	mu         sync.Mutex
	loaded     map[string]*types.ModuleDefinition
	devices    map[firmware.Handle]*device
	buses      map[firmware.PortID]int
	nextHandle firmware.Handle
}

func New(name string, catalog Catalog, logger *zap.Logger) *IOP {
	return &IOP{
		name:    name,
		catalog: catalog,
		logger:  logger,
		loaded:  make(map[string]*types.ModuleDefinition),
		devices: make(map[firmware.Handle]*device),
		buses:   make(map[firmware.PortID]int),
	}
}

func (p *IOP) Name() string { return p.name }

func (p *IOP) HasModule(name string) bool {
	_, err := p.catalog.Lookup(name)
	return err == nil
}

// Load validates every module before loading any of them.
func (p *IOP) Load(modules []string) (firmware.Library, error) {
	defs := make(map[string]*types.ModuleDefinition, len(modules))
	for _, name := range modules {
		def, err := p.catalog.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("iop %s: cannot load %s: %w", p.name, name, err)
		}
		defs[name] = def
	}

	p.mu.Lock()
	for name, def := range defs {
		p.loaded[name] = def
	}
	p.mu.Unlock()

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	p.logger.Debug("Modules loaded",
		zap.String("iop", p.name),
		zap.Strings("modules", names))

	return &library{iop: p, defs: defs, names: names}, nil
}

// open allocates a slot, or aliases the live slot driving the same physical
// device. Caller holds p.mu.
func (p *IOP) open(def *types.ModuleDefinition, port firmware.PortID, address *uint32, adc *device) (firmware.Handle, error) {
	for _, d := range p.devices {
		if d.module == def.Module.ID && d.port == port && d.adc == adc && sameAddress(d.address, address) {
			d.refs++
			return d.handle, nil
		}
	}

	limit := def.MaxDevices
	if limit <= 0 {
		limit = defaultMaxDevices
	}
	live := 0
	for _, d := range p.devices {
		if d.module == def.Module.ID {
			live++
		}
	}
	if live >= limit {
		return 0, firmware.ENOMEM
	}

	p.nextHandle++
	d := &device{
		handle:  p.nextHandle,
		module:  def.Module.ID,
		port:    port,
		address: address,
		adc:     adc,
		refs:    1,
	}
	if adc != nil {
		adc.refs++
	} else {
		p.buses[port]++
	}
	p.devices[d.handle] = d

	p.logger.Debug("Device slot opened",
		zap.String("iop", p.name),
		zap.String("module", d.module),
		zap.Stringer("port", port),
		zap.Int("handle", int(d.handle)))

	return d.handle, nil
}

func (p *IOP) close(module string, h firmware.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.devices[h]
	if !ok || d.module != module {
		return firmware.EBADF
	}
	p.release(d)
	return nil
}

// release drops one reference. Caller holds p.mu.
func (p *IOP) release(d *device) {
	d.refs--
	if d.refs > 0 {
		return
	}
	delete(p.devices, d.handle)
	if d.adc != nil {
		p.release(d.adc)
	} else {
		p.buses[d.port]--
		if p.buses[d.port] == 0 {
			delete(p.buses, d.port)
		}
	}

	p.logger.Debug("Device slot freed",
		zap.String("iop", p.name),
		zap.String("module", d.module),
		zap.Int("handle", int(d.handle)))
}

func sameAddress(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeviceStat describes one live slot.
type DeviceStat struct {
	Handle  firmware.Handle `json:"handle"`
	Module  string          `json:"module"`
	Port    string          `json:"port"`
	Address *uint32         `json:"address,omitempty"`
	Refs    int             `json:"refs"`
}

type Stats struct {
	Name    string         `json:"name"`
	Loaded  []string       `json:"loaded_modules"`
	Devices []DeviceStat   `json:"devices"`
	Buses   map[string]int `json:"buses"`
}

func (p *IOP) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{
		Name:    p.name,
		Loaded:  make([]string, 0, len(p.loaded)),
		Devices: make([]DeviceStat, 0, len(p.devices)),
		Buses:   make(map[string]int, len(p.buses)),
	}
	for name := range p.loaded {
		st.Loaded = append(st.Loaded, name)
	}
	sort.Strings(st.Loaded)

	for _, d := range p.devices {
		st.Devices = append(st.Devices, DeviceStat{
			Handle:  d.handle,
			Module:  d.module,
			Port:    d.port.String(),
			Address: d.address,
			Refs:    d.refs,
		})
	}
	sort.Slice(st.Devices, func(i, j int) bool { return st.Devices[i].Handle < st.Devices[j].Handle })

	for port, n := range p.buses {
		st.Buses[port.String()] = n
	}
	return st
}
