package storage

import (
	"fmt"

	"github.com/KevinKickass/OpenGroveCore/internal/config"
)

// Open returns the store selected by cfg.Storage.Driver, or nil for "none".
func Open(cfg *config.Config) (AssignmentStore, error) {
	switch cfg.Storage.Driver {
	case "", "none":
		return nil, nil
	case "postgres":
		client, err := NewPostgresClient(cfg.Database)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "sqlite":
		store, err := NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
