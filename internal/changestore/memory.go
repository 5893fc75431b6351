package changestore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dshills/docforge/internal/transaction"
)

// MemoryStore is an in-memory Store for tests and embedded use.
// It is safe for concurrent access.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*memDoc
}

type memDoc struct {
	info    DocumentInfo
	changes []transaction.Change
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*memDoc)}
}

// CreateDocument implements Store.
func (m *MemoryStore) CreateDocument(ctx context.Context, id, schemaName, schemaID string, seed SeedFunc) (int, error) {
	initial, err := seed()
	if err != nil {
		return 0, fmt.Errorf("seed document %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[id]; exists {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}
	now := time.Now().UTC()
	m.docs[id] = &memDoc{
		info: DocumentInfo{
			ID:         id,
			SchemaName: schemaName,
			SchemaID:   schemaID,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		changes: []transaction.Change{cloneChange(initial)},
	}
	return 1, nil
}

// GetDocument implements Store.
func (m *MemoryStore) GetDocument(ctx context.Context, id string) (DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return DocumentInfo{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc.info, nil
}

// GetChanges implements Store.
func (m *MemoryStore) GetChanges(ctx context.Context, id string, sinceVersion int) ([]transaction.Change, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if sinceVersion < 0 {
		sinceVersion = 0
	}
	if sinceVersion > len(doc.changes) {
		sinceVersion = len(doc.changes)
	}
	out := make([]transaction.Change, 0, len(doc.changes)-sinceVersion)
	for _, c := range doc.changes[sinceVersion:] {
		out = append(out, cloneChange(c))
	}
	return out, doc.info.Version, nil
}

// AddChange implements Store.
func (m *MemoryStore) AddChange(ctx context.Context, id string, baseVersion int, c transaction.Change) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if doc.info.Version != baseVersion {
		return 0, fmt.Errorf("%w: document at %d, change against %d", ErrVersionConflict, doc.info.Version, baseVersion)
	}
	doc.changes = append(doc.changes, cloneChange(c))
	doc.info.Version++
	doc.info.UpdatedAt = time.Now().UTC()
	return doc.info.Version, nil
}

// GetVersion implements Store.
func (m *MemoryStore) GetVersion(ctx context.Context, id string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc.info.Version, nil
}

// ListDocuments implements Store.
func (m *MemoryStore) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DocumentInfo, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, doc.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteDocument implements Store.
func (m *MemoryStore) DeleteDocument(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.docs, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

func cloneChange(c transaction.Change) transaction.Change {
	c.Ops = c.Ops.Clone()
	return c
}
