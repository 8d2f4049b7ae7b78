// Package sqlite persists the lost-and-found aggregate to an embedded SQLite
// database as a single JSON document.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"lostfound/internal/infra/persistence/memory"
	"lostfound/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "lostfound.db"

// Store keeps the aggregate in memory and snapshots it to SQLite after
// every successful transaction.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the store
// from the persisted document.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine, opts...), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE bucket = ?`, domain.SnapshotKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		s.Logger().Info("no persisted snapshot, starting from defaults", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	s.ImportDocument(payload)
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.ExportDocument()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, domain.SnapshotKey, data); err != nil {
		return fmt.Errorf("upsert %s: %w", domain.SnapshotKey, err)
	}
	return tx.Commit()
}

// RunInTransaction applies the provided function within a transaction, then snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		s.Logger().Error("persist snapshot", zap.String("path", s.path), zap.Error(pErr))
		return res, pErr
	}
	return res, nil
}

// ImportState replaces the state and persists it immediately. When the
// write fails the previous state is restored and the error returned.
func (s *Store) ImportState(snapshot domain.Snapshot) error {
	previous := s.Store.ExportState()
	_ = s.Store.ImportState(snapshot)
	if err := s.persist(context.Background()); err != nil {
		s.Logger().Error("persist imported snapshot", zap.String("path", s.path), zap.Error(err))
		_ = s.Store.ImportState(previous)
		return fmt.Errorf("persist imported snapshot: %w", err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
