package settings

import (
	"context"
	"fmt"

	"github.com/oshokin/lightshow/internal/config"
)

// Store reads and writes string settings by key.
type Store interface {
	// Get returns the value stored under key, or fallback when it is absent.
	Get(ctx context.Context, key, fallback string) (string, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
	// Close releases the backend.
	Close() error
}

// Open creates the store configured by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.SettingsBackend {
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.SettingsPath)
	case config.BackendFile:
		return NewFileStore(cfg.SettingsPath), nil
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
	}
}
