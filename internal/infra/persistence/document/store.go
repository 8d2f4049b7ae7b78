// Package document persists the lost-and-found aggregate as one JSON object
// in a blob store, the way a browser keeps it under a single storage key.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"lostfound/internal/blob"
	"lostfound/internal/infra/persistence/memory"
	"lostfound/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// KeyPrefix is the blob prefix snapshot documents are written under.
const KeyPrefix = "state/"

// Key returns the blob key of the snapshot document.
func Key() string { return KeyPrefix + domain.SnapshotKey + ".json" }

// Store keeps the aggregate in memory and rewrites the blob document after
// every successful transaction.
type Store struct {
	*memory.Store
	blobs blob.Store
	mu    sync.Mutex
	key   string
}

// NewStore hydrates a store from the snapshot document in blobs, if any.
func NewStore(ctx context.Context, blobs blob.Store, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("document store requires a blob store")
	}
	s := &Store{Store: memory.NewStore(engine, opts...), blobs: blobs, key: Key()}
	_, rc, err := blobs.Get(ctx, s.key)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		s.Logger().Info("no persisted snapshot, starting from defaults",
			zap.String("driver", string(blobs.Driver())), zap.String("key", s.key))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	s.ImportDocument(data)
	return s, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.ExportDocument()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Overwrite:   true,
	}); err != nil {
		return fmt.Errorf("put %s: %w", s.key, err)
	}
	return nil
}

// RunInTransaction applies fn and rewrites the document when it commits.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		s.Logger().Error("persist snapshot", zap.String("key", s.key), zap.Error(pErr))
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
		s.Logger().Error("persist imported snapshot", zap.String("key", s.key), zap.Error(err))
		_ = s.Store.ImportState(previous)
		return fmt.Errorf("persist imported snapshot: %w", err)
	}
	return nil
}

// Blobs returns the backing blob store.
func (s *Store) Blobs() blob.Store { return s.blobs }
