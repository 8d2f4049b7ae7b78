package core

import (
	"lostfound/internal/infra/persistence/memory"
	"lostfound/internal/infra/persistence/sqlite"
)

// NewSQLiteStore opens the SQLite-backed store at path (empty for the default file).
func NewSQLiteStore(path string, engine *RulesEngine, opts ...memory.Option) (*sqlite.Store, error) {
	return sqlite.NewStore(path, engine, opts...)
}
