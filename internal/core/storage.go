package core

import (
	"context"
	"fmt"
	"strings"

	"lostfound/internal/blob"
	"lostfound/internal/infra/persistence/memory"
	"lostfound/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageDocument StorageDriver = "document" // one JSON object in a blob store
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// ParseStorageDriver validates a driver name. Empty selects sqlite.
func ParseStorageDriver(raw string) (StorageDriver, error) {
	switch d := StorageDriver(strings.ToLower(strings.TrimSpace(raw))); d {
	case "":
		return StorageSQLite, nil
	case StorageMemory, StorageSQLite, StoragePostgres, StorageDocument:
		return d, nil
	default:
		return "", fmt.Errorf("unknown storage driver %s", raw)
	}
}

// StorageConfig selects and configures the persistent backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	// Blob configures the blob store used by the document driver.
	Blob blob.Config
}

// OpenPersistentStore opens the backend described by cfg. The sqlite and
// postgres stores hold a database handle and implement io.Closer.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine, opts ...memory.Option) (PersistentStore, error) {
	driver, err := ParseStorageDriver(string(cfg.Driver))
	if err != nil {
		return nil, err
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case StorageSQLite:
		return NewSQLiteStore(cfg.SQLitePath, engine, opts...)
	case StoragePostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN, engine, opts...)
	default:
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, err
		}
		return NewDocumentStore(ctx, blobs, engine, opts...)
	}
}

// MemoryStore is the in-memory store every durable backend builds on.
type MemoryStore = memory.Store

// NewMemoryStore constructs an in-memory store.
func NewMemoryStore(engine *RulesEngine, opts ...memory.Option) *MemoryStore {
	return memory.NewStore(engine, opts...)
}
