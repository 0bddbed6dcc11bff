package core

import (
	"context"
	"fmt"

	"rotacore/internal/infra/persistence/memory"
	"rotacore/internal/infra/persistence/postgres"
	"rotacore/internal/infra/persistence/sqlite"
	"rotacore/pkg/domain"
)

// StorageDriver identifies a concrete row storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects the row store backend. An empty driver means sqlite.
type StorageConfig struct {
	Driver      StorageDriver `yaml:"driver"`
	SQLitePath  string        `yaml:"sqlite_path"`
	PostgresDSN string        `yaml:"postgres_dsn"`
}

// RowStore is a domain.RowStore that may hold an external resource.
type RowStore interface {
	domain.RowStore
	Close() error
}

type memoryRowStore struct{ *memory.Store }

func (memoryRowStore) Close() error { return nil }

// OpenRowStore opens the backend named by cfg.Driver.
func OpenRowStore(ctx context.Context, cfg StorageConfig) (RowStore, error) {
	switch cfg.Driver {
	case StorageMemory:
		return memoryRowStore{memory.NewStore()}, nil
	case "", StorageSQLite:
		return sqlite.NewStore(ctx, cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
