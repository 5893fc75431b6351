package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
)

// State captures the document-adjacent state frozen with a change.
type State struct {
	Selection model.Selection
}

// Change is an immutable, ordered batch of operations plus the before/after
// selection state. It is the unit of history, undo, and persistence: once
// persisted it is never mutated or deleted, and a document's version equals
// the count of changes applied since creation.
type Change struct {
	ID        string
	Ops       operation.List
	Before    State
	After     State
	CreatedAt time.Time
}

// NewChange freezes an operation sequence into a change.
func NewChange(ops operation.List, before, after State) Change {
	return Change{
		ID:        uuid.NewString(),
		Ops:       ops.Clone(),
		Before:    before,
		After:     after,
		CreatedAt: time.Now().UTC(),
	}
}

// IsEmpty reports whether the change carries no operations.
func (c Change) IsEmpty() bool {
	return len(c.Ops) == 0
}

// Invert returns a change that undoes this one: the inverse operations in
// reverse order, with before/after state swapped.
func (c Change) Invert() Change {
	return Change{
		ID:        uuid.NewString(),
		Ops:       c.Ops.Invert(),
		Before:    c.After,
		After:     c.Before,
		CreatedAt: time.Now().UTC(),
	}
}
