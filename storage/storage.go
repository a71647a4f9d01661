// Package storage provides the persistence layer for nanomodel.
// It defines the snapshot format that holds several models in one file and
// the file backends that read and write it.
package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// SnapshotVersion is the format version written into new snapshots.
const SnapshotVersion = "1.0"

// Snapshot is the complete data structure stored in the backend: the schema
// and rows of every model, in dependency order.
type Snapshot struct {
	Version     string               `json:"version" yaml:"version"`
	StoreID     string               `json:"store_id" yaml:"store_id"`
	CreatedAt   time.Time            `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" yaml:"updated_at"`
	Collections []nanomodel.Document `json:"collections" yaml:"collections"`
}

// NewSnapshot returns an empty snapshot with a fresh store id.
func NewSnapshot() *Snapshot {
	now := time.Now().UTC()
	return &Snapshot{
		Version:     SnapshotVersion,
		StoreID:     uuid.New().String(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Collections: []nanomodel.Document{},
	}
}

// Collection returns the document of the named collection.
func (s *Snapshot) Collection(name string) (nanomodel.Document, bool) {
	for _, doc := range s.Collections {
		if doc.Name == name {
			return doc, true
		}
	}
	return nanomodel.Document{}, false
}

// touch fills missing metadata and bumps UpdatedAt.
func (s *Snapshot) touch() {
	now := time.Now().UTC()
	if s.Version == "" {
		s.Version = SnapshotVersion
	}
	if s.StoreID == "" {
		s.StoreID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// Storage defines the low-level interface for batch persistence.
// A snapshot is loaded and saved as a single unit.
type Storage interface {
	// Load reads the entire snapshot from the backend
	Load() (*Snapshot, error)

	// Save writes the entire snapshot to the backend
	Save(snap *Snapshot) error

	// Close releases any resources held by the storage
	Close() error
}

// Capture serializes every model of the catalog into snap, replacing its
// collections. Models are written in dependency order.
func Capture(snap *Snapshot, catalog *Catalog) error {
	ordered, err := catalog.Ordered()
	if err != nil {
		return err
	}
	docs := make([]nanomodel.Document, len(ordered))
	for i, m := range ordered {
		docs[i] = m.Serialize()
	}
	snap.Collections = docs
	return nil
}

// Restore rebuilds every collection of the snapshot. Documents are
// deserialized in dependency order and each rebuilt model is bound for the
// ones that follow, so REF fields resolve against the restored models.
func Restore(snap *Snapshot, opts ...nanomodel.Option) (*Catalog, error) {
	deps := make(map[string][]string, len(snap.Collections))
	byName := make(map[string]nanomodel.Document, len(snap.Collections))
	names := make([]string, 0, len(snap.Collections))
	for _, doc := range snap.Collections {
		if _, dup := byName[doc.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate collection %q", nanomodel.ErrInvalidDocument, doc.Name)
		}
		byName[doc.Name] = doc
		names = append(names, doc.Name)
		deps[doc.Name] = documentDependencies(doc)
	}

	order, err := dependencyOrder(names, deps)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog()
	for _, name := range order {
		m, err := nanomodel.Deserialize(byName[name], catalog.Bindings(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to restore collection %s: %w", name, err)
		}
		catalog.Add(m)
	}
	// keep the file's order for listing
	catalog.reorder(names)
	return catalog, nil
}

// documentDependencies lists the lookup keys of the bound arguments in doc.
func documentDependencies(doc nanomodel.Document) []string {
	var out []string
	for _, nd := range doc.Fields {
		if nd.Description.Name != nanomodel.KindRef.String() {
			continue
		}
		for _, arg := range nd.Description.Args {
			if key, ok := arg.(string); ok && key != doc.Name {
				out = append(out, key)
			}
		}
	}
	return out
}
