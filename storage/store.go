package storage

import (
	"fmt"
	"log/slog"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// Store ties a snapshot backend to the live models restored from it.
type Store struct {
	backend Storage
	snap    *Snapshot
	catalog *Catalog
	opts    []nanomodel.Option
	locks   *LockManager
	logger  *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithModelOptions passes options to every model restored by the store.
func WithModelOptions(opts ...nanomodel.Option) StoreOption {
	return func(s *Store) { s.opts = append(s.opts, opts...) }
}

// WithStoreLogger sets the logger for load and save events.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open loads the snapshot from backend and restores its models.
func Open(backend Storage, opts ...StoreOption) (*Store, error) {
	s := &Store{
		backend: backend,
		locks:   NewLockManager(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Catalog returns the live models. Callers on several goroutines must wrap
// access in Locks().Execute.
func (s *Store) Catalog() *Catalog { return s.catalog }

// Snapshot returns the metadata and documents as last loaded or saved.
func (s *Store) Snapshot() *Snapshot { return s.snap }

// Locks returns the lock manager guarding the catalog.
func (s *Store) Locks() *LockManager { return s.locks }

// Model returns a live model by name.
func (s *Store) Model(name string) (*nanomodel.Model, bool) {
	return s.catalog.Get(name)
}

// Reload replaces the live models with the backend's current snapshot.
func (s *Store) Reload() error {
	return s.locks.Execute(WriteOperation, func() error {
		snap, err := s.backend.Load()
		if err != nil {
			return err
		}
		catalog, err := Restore(snap, s.opts...)
		if err != nil {
			return err
		}
		s.snap, s.catalog = snap, catalog
		s.logger.Debug("snapshot loaded", "store_id", snap.StoreID, "collections", catalog.Len())
		return nil
	})
}

// Define adds a new model to the catalog. It fails when the name is taken.
func (s *Store) Define(m *nanomodel.Model) error {
	return s.locks.Execute(WriteOperation, func() error {
		if _, ok := s.catalog.byName[m.Name()]; ok {
			return fmt.Errorf("collection %s already exists", m.Name())
		}
		s.catalog.Add(m)
		return nil
	})
}

// Commit captures the live models and writes them to the backend.
func (s *Store) Commit() error {
	return s.locks.Execute(WriteOperation, func() error {
		if err := Capture(s.snap, s.catalog); err != nil {
			return err
		}
		if err := s.backend.Save(s.snap); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		s.logger.Debug("snapshot saved", "store_id", s.snap.StoreID, "collections", len(s.snap.Collections))
		return nil
	})
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
