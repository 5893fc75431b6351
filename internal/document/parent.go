package document

import (
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
)

// ParentTracker maintains the derived child→parent side table.
//
// Parent links are never authoritative document state: they are rebuilt from
// structure on load and kept in sync by observing applied operations. The
// tracker never mutates the document itself.
type ParentTracker struct {
	schema  *schema.Schema
	parents map[model.NodeID]model.NodeID
}

func newParentTracker(s *schema.Schema) *ParentTracker {
	return &ParentTracker{
		schema:  s,
		parents: make(map[model.NodeID]model.NodeID),
	}
}

// Parent returns the recorded parent of a node, or "" if none.
func (t *ParentTracker) Parent(id model.NodeID) model.NodeID {
	return t.parents[id]
}

// Rebuild recomputes the whole side table from document structure.
func (t *ParentTracker) Rebuild(nodes map[model.NodeID]*model.Node) {
	t.parents = make(map[model.NodeID]model.NodeID, len(nodes))
	for _, n := range nodes {
		prop := t.schema.ContentProperty(n.Type)
		if prop == "" {
			continue
		}
		for _, child := range n.Children(prop) {
			t.parents[child] = n.ID
		}
	}
}

// observe updates the side table from one applied operation.
func (t *ParentTracker) observe(op operation.Operation) {
	switch op.Kind {
	case operation.OpCreate:
		t.attachChildren(op.Node)

	case operation.OpDelete:
		// The payload is the node state at deletion time.
		prop := t.schema.ContentProperty(op.Node.Type)
		if prop != "" {
			for _, child := range op.Node.Children(prop) {
				if t.parents[child] == op.Node.ID {
					delete(t.parents, child)
				}
			}
		}
		delete(t.parents, op.Node.ID)

	case operation.OpUpdate:
		// List diffs only ever target child sequences.
		owner := op.Path.NodeID()
		switch op.Diff.Kind {
		case operation.ListInsert:
			t.parents[op.Diff.ID] = owner
		case operation.ListDelete:
			if t.parents[op.Diff.ID] == owner {
				delete(t.parents, op.Diff.ID)
			}
		}

	case operation.OpSet:
		owner := op.Path.NodeID()
		if old, ok := op.Old.([]model.NodeID); ok {
			for _, child := range old {
				if t.parents[child] == owner {
					delete(t.parents, child)
				}
			}
		}
		if ids, ok := op.Value.([]model.NodeID); ok {
			for _, child := range ids {
				t.parents[child] = owner
			}
		}
	}
}

func (t *ParentTracker) attachChildren(n *model.Node) {
	prop := t.schema.ContentProperty(n.Type)
	if prop == "" {
		return
	}
	for _, child := range n.Children(prop) {
		t.parents[child] = n.ID
	}
}
