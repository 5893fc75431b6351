// Package changestore persists documents as append-only change logs.
//
// A document is never stored as a snapshot: its state is the replay of every
// change since creation, and its version is the change count. Changes are
// immutable once written; the log only grows. Two implementations exist, an
// in-memory store for tests and embedding, and a SQLite store for durable
// storage.
package changestore

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
	"github.com/dshills/docforge/internal/transaction"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists prevents creating a document under a taken id.
	ErrAlreadyExists = errors.New("document already exists")

	// ErrVersionConflict indicates a change appended against a version that
	// is no longer current.
	ErrVersionConflict = errors.New("version conflict")
)

// DocumentInfo is the stored metadata of a document.
type DocumentInfo struct {
	ID         string
	SchemaName string
	SchemaID   string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SeedFunc produces the initial change of a new document. CreateDocument
// stores it as change 1, so a freshly created document is at version 1.
type SeedFunc func() (transaction.Change, error)

// Store is the persistence contract for change logs.
type Store interface {
	// CreateDocument creates a document and stores the seed change as its
	// first entry. Returns the resulting version (always 1).
	CreateDocument(ctx context.Context, id, schemaName, schemaID string, seed SeedFunc) (int, error)

	// GetDocument returns a document's metadata.
	GetDocument(ctx context.Context, id string) (DocumentInfo, error)

	// GetChanges returns the changes after sinceVersion in order, plus the
	// current version. sinceVersion 0 returns the full log.
	GetChanges(ctx context.Context, id string, sinceVersion int) ([]transaction.Change, int, error)

	// AddChange appends a change produced against baseVersion and returns
	// the new version. A stale baseVersion fails with ErrVersionConflict.
	AddChange(ctx context.Context, id string, baseVersion int, c transaction.Change) (int, error)

	// GetVersion returns a document's current version.
	GetVersion(ctx context.Context, id string) (int, error)

	// ListDocuments returns metadata for every stored document.
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)

	// DeleteDocument removes a document and its whole change log.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases backing resources.
	Close() error
}

// DefaultSeed returns a seed producing the minimal valid document for a
// schema: the root container holding one empty node of the default text
// type, with the cursor at its start.
func DefaultSeed(sc *schema.Schema) SeedFunc {
	return func() (transaction.Change, error) {
		root := model.NewNode(sc.RootType(), map[string]any{
			sc.ContentProperty(sc.RootType()): []model.NodeID{},
		})
		para := model.NewNode(sc.DefaultTextType(), map[string]any{
			model.PropContent: "",
		})
		ops := operation.List{
			operation.Create(root),
			operation.Create(para),
			operation.Update(
				model.PropertyPath(root.ID, sc.ContentProperty(sc.RootType())),
				operation.InsertAt(0, para.ID),
			),
		}
		after := transaction.State{
			Selection: model.CursorAt(model.PropertyPath(para.ID, model.PropContent), 0).WithContainer(root.ID),
		}
		return transaction.NewChange(ops, transaction.State{}, after), nil
	}
}
