package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/OpenGroveCore/internal/api/rest"
	"github.com/KevinKickass/OpenGroveCore/internal/config"
	"github.com/KevinKickass/OpenGroveCore/internal/devices"
	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/firmware/sim"
	"github.com/KevinKickass/OpenGroveCore/internal/interfaces"
	"github.com/KevinKickass/OpenGroveCore/internal/storage"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
	"go.uber.org/zap"
)

type LifecycleManager struct {
	config        *config.Config
	catalog       *devices.CatalogLoader
	storage       storage.AssignmentStore
	deviceManager *devices.Manager
	logger        *zap.Logger

	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownOnce sync.Once
}

// NewLifecycleManager wires catalog, IOPs and device manager. store may be
// nil, in which case attached adapters are not persisted.
func NewLifecycleManager(
	store storage.AssignmentStore,
	cfg *config.Config,
	logger *zap.Logger,
) (*LifecycleManager, error) {
	catalog, err := devices.NewCatalogLoader(cfg.Catalog.SearchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog loader: %w", err)
	}

	iops := make([]firmware.IOP, 0, len(cfg.IOPs))
	for _, ic := range cfg.IOPs {
		iops = append(iops, sim.New(ic.Name, catalog, logger.With(zap.String("iop", ic.Name))))
	}

	return &LifecycleManager{
		config:        cfg,
		catalog:       catalog,
		storage:       store,
		deviceManager: devices.NewManager(iops, logger),
		logger:        logger,
		currentState:  StateInitializing,
	}, nil
}

// Start attaches configured boards and starts the REST API.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenGroveCore",
		zap.Int("iops", len(lm.config.IOPs)))

	if err := lm.loadBoardFiles(); err != nil {
		lm.logger.Warn("Failed to load board files", zap.Error(err))
	}

	if err := lm.loadAssignmentsFromDB(); err != nil {
		lm.logger.Warn("Failed to load assignments from database", zap.Error(err))
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Int("adapters", len(lm.deviceManager.List())))

	return nil
}

func (lm *LifecycleManager) loadBoardFiles() error {
	boards, err := devices.LoadBoardFiles(lm.config.Boards.SearchPaths)
	if err != nil {
		return err
	}

	lm.logger.Info("Attaching boards from files", zap.Int("count", len(boards)))
	lm.attachAll(boards)
	return nil
}

func (lm *LifecycleManager) loadAssignmentsFromDB() error {
	if lm.storage == nil {
		return nil
	}

	boards, err := lm.storage.LoadAllAssignments(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}

	lm.logger.Info("Attaching boards from database", zap.Int("count", len(boards)))
	lm.attachAll(boards)
	return nil
}

// attachAll attaches every board, logging failures. A board already
// attached under the same name is skipped.
func (lm *LifecycleManager) attachAll(boards []types.BoardAssignment) {
	for _, board := range boards {
		if _, exists := lm.deviceManager.GetByName(board.Name); exists {
			lm.logger.Debug("Board already attached", zap.String("name", board.Name))
			continue
		}

		if _, err := lm.deviceManager.Attach(board); err != nil {
			lm.logger.Error("Failed to attach board",
				zap.String("name", board.Name),
				zap.String("iop", board.IOP),
				zap.Error(err))
			continue
		}
	}
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var errs []error

	// REST first so no attach races the teardown
	if lm.restServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("rest api shutdown failed: %w", err))
		}
		cancel()
	}

	if err := lm.deviceManager.StopAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("device manager stop failed: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	lm.logger.Info("Graceful shutdown completed")
	return nil
}

func (lm *LifecycleManager) startRESTServer() error {
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger)
	return lm.restServer.Start()
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Unexpected state transition", zap.Error(err))
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System error", zap.Error(err))
	lm.setState(StateError)
}

// State returns the current system state.
func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	attached := lm.deviceManager.List()
	deviceCount := 0
	for _, a := range attached {
		for _, b := range a.Adapter.Bindings() {
			deviceCount += len(b.Devices)
		}
	}

	return interfaces.SystemStatus{
		State:        lm.State().String(),
		IOPCount:     len(lm.deviceManager.IOPs()),
		AdapterCount: len(attached),
		DeviceCount:  deviceCount,
		Persistent:   lm.storage != nil,
	}
}

// DeviceManager returns the device manager
func (lm *LifecycleManager) DeviceManager() *devices.Manager {
	return lm.deviceManager
}

// Catalog returns the capability module catalog
func (lm *LifecycleManager) Catalog() *devices.CatalogLoader {
	return lm.catalog
}

// Storage returns the assignment store, or nil
func (lm *LifecycleManager) Storage() storage.AssignmentStore {
	return lm.storage
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}
