package devices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KevinKickass/OpenGroveCore/internal/adapter"
	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownIOP      = errors.New("unknown IOP")
	ErrIOPInUse        = errors.New("IOP already has an adapter attached")
	ErrDuplicateName   = errors.New("adapter name already in use")
	ErrAdapterNotFound = errors.New("adapter not found")
)

// Attached is one adapter board constructed on an IOP.
type Attached struct {
	ID         uuid.UUID
	Board      types.BoardAssignment
	Adapter    *adapter.Adapter
	AttachedAt time.Time
}

type Manager struct {
	iops     map[string]firmware.IOP
	adapters map[uuid.UUID]*Attached
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewManager(iops []firmware.IOP, logger *zap.Logger) *Manager {
	m := &Manager{
		iops:     make(map[string]firmware.IOP, len(iops)),
		adapters: make(map[uuid.UUID]*Attached),
		logger:   logger,
	}
	for _, iop := range iops {
		m.iops[iop.Name()] = iop
	}
	return m
}

// IOP returns a registered IOP by name.
func (m *Manager) IOP(name string) (firmware.IOP, bool) {
	iop, ok := m.iops[name]
	return iop, ok
}

// IOPs returns the registered IOPs sorted by name.
func (m *Manager) IOPs() []firmware.IOP {
	out := make([]firmware.IOP, 0, len(m.iops))
	for _, iop := range m.iops {
		out = append(out, iop)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Attach constructs the adapter described by board and registers it.
func (m *Manager) Attach(board types.BoardAssignment) (*Attached, error) {
	iop, ok := m.iops[board.IOP]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIOP, board.IOP)
	}

	variant, err := adapter.LookupVariant(board.Variant)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.adapters {
		if a.Board.IOP == board.IOP {
			return nil, fmt.Errorf("%w: %s (adapter %s)", ErrIOPInUse, board.IOP, a.Board.Name)
		}
		if board.Name != "" && a.Board.Name == board.Name {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, board.Name)
		}
	}

	ad, err := adapter.New(iop, variant, board.Ports, adapter.WithLogger(m.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to attach %s: %w", board.Name, err)
	}

	attached := &Attached{
		ID:         uuid.New(),
		Board:      board,
		Adapter:    ad,
		AttachedAt: time.Now(),
	}
	m.adapters[attached.ID] = attached

	m.logger.Info("Adapter attached",
		zap.String("id", attached.ID.String()),
		zap.String("name", board.Name),
		zap.String("iop", board.IOP),
		zap.String("variant", variant.Name))

	return attached, nil
}

// Detach closes every device bound by the adapter and forgets it.
func (m *Manager) Detach(id uuid.UUID) error {
	m.mu.Lock()
	attached, exists := m.adapters[id]
	if exists {
		delete(m.adapters, id)
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrAdapterNotFound, id)
	}

	if err := attached.Adapter.Close(); err != nil {
		m.logger.Error("Failed to close adapter devices",
			zap.String("name", attached.Board.Name),
			zap.Error(err))
		return err
	}

	m.logger.Info("Adapter detached",
		zap.String("id", id.String()),
		zap.String("name", attached.Board.Name))
	return nil
}

// Get returns adapter by ID
func (m *Manager) Get(id uuid.UUID) (*Attached, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, exists := m.adapters[id]
	return a, exists
}

// GetByName returns adapter by name
func (m *Manager) GetByName(name string) (*Attached, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.adapters {
		if a.Board.Name == name {
			return a, true
		}
	}

	return nil, false
}

// List returns all attached adapters, oldest first.
func (m *Manager) List() []*Attached {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Attached, 0, len(m.adapters))
	for _, a := range m.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AttachedAt.Equal(out[j].AttachedAt) {
			return out[i].Board.Name < out[j].Board.Name
		}
		return out[i].AttachedAt.Before(out[j].AttachedAt)
	})

	return out
}

// StopAll detaches every adapter.
func (m *Manager) StopAll(ctx context.Context) error {
	var errs []error
	for _, a := range m.List() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Detach(a.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
