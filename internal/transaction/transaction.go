// Package transaction implements staged document mutation: a Transaction
// records every operation applied to a private staging copy so a failed
// transformation can be rolled back by replaying inverses in reverse order,
// and a Session serializes transactions against one document, freezing each
// successful transformation into an immutable Change.
package transaction

import (
	"fmt"

	"github.com/dshills/docforge/internal/document"
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
)

// Transaction is the mutable view handed to a transformation. All mutation
// goes through the typed mutators, which record operations for commit or
// rollback. A Transaction is single-use and not safe for concurrent access.
type Transaction struct {
	doc       *document.Document
	ops       operation.List
	selection model.Selection
	before    State
}

func newTransaction(doc *document.Document, sel model.Selection) *Transaction {
	return &Transaction{
		doc:       doc,
		selection: sel,
		before:    State{Selection: sel},
	}
}

// Document returns the staging document. Callers must not mutate it except
// through the transaction's mutators.
func (tx *Transaction) Document() *document.Document { return tx.doc }

// Schema returns the document schema.
func (tx *Transaction) Schema() *schema.Schema { return tx.doc.Schema() }

// Get returns a node by id, or nil.
func (tx *Transaction) Get(id model.NodeID) *model.Node { return tx.doc.Get(id) }

// Parent returns the derived parent of a node.
func (tx *Transaction) Parent(id model.NodeID) model.NodeID { return tx.doc.Parent(id) }

// Text returns the string content of a property path.
func (tx *Transaction) Text(path model.Path) (string, error) { return tx.doc.Text(path) }

// Annotations returns the annotations anchored on a property path.
func (tx *Transaction) Annotations(path model.Path) []*model.Node {
	return tx.doc.Annotations(path)
}

// Selection returns the transaction's current selection.
func (tx *Transaction) Selection() model.Selection { return tx.selection }

// SetSelection updates the transaction's selection. The selection must
// resolve against the staged document.
func (tx *Transaction) SetSelection(sel model.Selection) error {
	if err := validateSelection(tx.doc, sel); err != nil {
		return err
	}
	tx.selection = sel
	return nil
}

// Ops returns the operations recorded so far.
func (tx *Transaction) Ops() operation.List { return tx.ops.Clone() }

// ============================================================================
// Mutators
// ============================================================================

// CreateNode builds a node of the given type with schema defaults applied,
// creates it in the staged document, and returns it.
func (tx *Transaction) CreateNode(typ string, props map[string]any) (*model.Node, error) {
	merged := make(map[string]any)
	if spec, ok := tx.Schema().Spec(typ); ok {
		for k, v := range spec.Defaults {
			merged[k] = v
		}
	}
	for k, v := range props {
		merged[k] = v
	}
	node := model.NewNode(typ, merged)
	if err := tx.Add(node); err != nil {
		return nil, err
	}
	return tx.doc.Get(node.ID), nil
}

// Add creates a prepared node in the staged document.
func (tx *Transaction) Add(node *model.Node) error {
	op, err := tx.doc.Create(node)
	if err != nil {
		return err
	}
	tx.ops = append(tx.ops, op)
	return nil
}

// Delete removes a single node. Structural cleanup (detaching from
// containers, deleting anchored annotations) is the editing layer's job.
func (tx *Transaction) Delete(id model.NodeID) error {
	op, err := tx.doc.DeleteNode(id)
	if err != nil {
		return err
	}
	tx.ops = append(tx.ops, op)
	return nil
}

// Update applies a diff to a property.
func (tx *Transaction) Update(path model.Path, diff operation.Diff) error {
	op, err := tx.doc.Update(path, diff)
	if err != nil {
		return err
	}
	tx.ops = append(tx.ops, op)
	return nil
}

// Set replaces a property value.
func (tx *Transaction) Set(path model.Path, value any) error {
	op, err := tx.doc.Set(path, value)
	if err != nil {
		return err
	}
	tx.ops = append(tx.ops, op)
	return nil
}

// rollback undoes every recorded operation in reverse order (LIFO), leaving
// the staging document exactly as it was when the transaction began.
func (tx *Transaction) rollback() error {
	for i := len(tx.ops) - 1; i >= 0; i-- {
		inv := tx.ops[i].Invert()
		if err := tx.doc.Apply(inv); err != nil {
			return fmt.Errorf("%w: inverse of %s: %v", ErrRollbackFailed, tx.ops[i], err)
		}
	}
	tx.ops = nil
	return nil
}

// validateSelection checks that every node a selection references resolves.
func validateSelection(doc *document.Document, sel model.Selection) error {
	check := func(id model.NodeID) error {
		if id.IsZero() {
			return nil
		}
		if !doc.Has(id) {
			return fmt.Errorf("%w: %s", ErrStaleSelection, id)
		}
		return nil
	}

	switch s := sel.(type) {
	case nil:
		return nil
	case model.PropertySelection:
		if err := check(s.Start.NodeID()); err != nil {
			return err
		}
		return check(s.ContainerID)
	case model.ContainerSelection:
		if err := check(s.ContainerID); err != nil {
			return err
		}
		if err := check(s.Start.NodeID()); err != nil {
			return err
		}
		return check(s.End.NodeID())
	case model.NodeSelection:
		if err := check(s.NodeID); err != nil {
			return err
		}
		return check(s.ContainerID)
	default:
		// Custom selections are validated by their behavior.
		return nil
	}
}
