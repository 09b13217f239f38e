// Package storage selects and opens the configured StorageManager backend.
package storage

import (
	"fmt"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/storage/memory"
	"github.com/bobmcallan/tracket/internal/storage/sqlite"
	"github.com/bobmcallan/tracket/internal/storage/surrealdb"
)

// NewStorageManager creates a storage manager based on the configuration.
// Supported backends: "sqlite" (default), "memory", "surrealdb".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = common.BackendSQLite
	}

	switch backend {
	case common.BackendMemory:
		logger.Warn().Msg("Using in-memory storage; data is lost on exit")
		return memory.NewStore(logger), nil

	case common.BackendSQLite:
		store, err := sqlite.NewStore(config.Storage.SQLite.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, nil

	case common.BackendSurrealDB:
		manager, err := surrealdb.NewManager(logger, config)
		if err != nil {
			return nil, fmt.Errorf("failed to open surrealdb storage: %w", err)
		}
		return manager, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: memory, sqlite, surrealdb)", backend)
	}
}
