package interfaces

import (
	"context"

	"github.com/KevinKickass/OpenGroveCore/internal/config"
	"github.com/KevinKickass/OpenGroveCore/internal/devices"
	"github.com/KevinKickass/OpenGroveCore/internal/storage"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State        string `json:"state"`
	IOPCount     int    `json:"iop_count"`
	AdapterCount int    `json:"adapter_count"`
	DeviceCount  int    `json:"device_count"`
	Persistent   bool   `json:"persistent"`
}

type LifecycleManager interface {
	Config() *config.Config
	Catalog() *devices.CatalogLoader
	// Storage returns nil when assignments are not persisted.
	Storage() storage.AssignmentStore
	DeviceManager() *devices.Manager
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
