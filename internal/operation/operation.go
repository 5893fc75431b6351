// Package operation defines the primitive, invertible document mutations.
//
// An Operation is a closed variant: create, delete, update, or set. Every
// operation carries enough state to compute its own inverse, so applying an
// operation followed by its inverse is the identity. This is what makes
// transaction rollback a pure replay of inverses in reverse order, with no
// separate undo log.
package operation

import (
	"fmt"

	"github.com/dshills/docforge/internal/model"
)

// Kind identifies the operation variant.
type Kind uint8

const (
	// OpCreate adds a node to the document.
	OpCreate Kind = iota

	// OpDelete removes a node from the document.
	OpDelete

	// OpUpdate applies an incremental diff to a node property.
	OpUpdate

	// OpSet replaces a node property wholesale.
	OpSet
)

// String returns the kind tag used in serialized form.
func (k Kind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	case OpUpdate:
		return "update"
	case OpSet:
		return "set"
	default:
		return "unknown"
	}
}

// Operation is a primitive document mutation.
//
// Which fields are populated depends on Kind:
//   - OpCreate: Path (node path), Node (the created node)
//   - OpDelete: Path (node path), Node (snapshot at deletion, for inversion)
//   - OpUpdate: Path (property path), Diff
//   - OpSet:    Path (property path), Value, Old
type Operation struct {
	Kind  Kind
	Path  model.Path
	Node  *model.Node
	Diff  Diff
	Value any
	Old   any
}

// Create returns an operation adding the given node.
// The node is snapshotted; later mutations of the original do not leak in.
func Create(node *model.Node) Operation {
	return Operation{
		Kind: OpCreate,
		Path: model.NodePath(node.ID),
		Node: node.Clone(),
	}
}

// Delete returns an operation removing a node. The passed node must be the
// state at deletion time; it becomes the payload of the inverse create.
func Delete(node *model.Node) Operation {
	return Operation{
		Kind: OpDelete,
		Path: model.NodePath(node.ID),
		Node: node.Clone(),
	}
}

// Update returns an operation applying a diff to a property.
func Update(path model.Path, diff Diff) Operation {
	return Operation{
		Kind: OpUpdate,
		Path: path.Clone(),
		Diff: diff,
	}
}

// Set returns an operation replacing a property value. The old value must be
// the property state before the operation; it feeds the inverse.
func Set(path model.Path, value, old any) Operation {
	return Operation{
		Kind:  OpSet,
		Path:  path.Clone(),
		Value: value,
		Old:   old,
	}
}

// Invert returns the operation that undoes this one.
func (op Operation) Invert() Operation {
	switch op.Kind {
	case OpCreate:
		return Operation{Kind: OpDelete, Path: op.Path.Clone(), Node: op.Node.Clone()}
	case OpDelete:
		return Operation{Kind: OpCreate, Path: op.Path.Clone(), Node: op.Node.Clone()}
	case OpUpdate:
		return Operation{Kind: OpUpdate, Path: op.Path.Clone(), Diff: op.Diff.Invert()}
	case OpSet:
		return Operation{Kind: OpSet, Path: op.Path.Clone(), Value: op.Old, Old: op.Value}
	default:
		return op
	}
}

// NodeID returns the node the operation targets.
func (op Operation) NodeID() model.NodeID {
	return op.Path.NodeID()
}

// String returns a human-readable representation.
func (op Operation) String() string {
	switch op.Kind {
	case OpCreate, OpDelete:
		return fmt.Sprintf("%s(%s %s)", op.Kind, op.Node.Type, op.Path)
	case OpUpdate:
		return fmt.Sprintf("update(%s %s)", op.Path, op.Diff)
	case OpSet:
		return fmt.Sprintf("set(%s)", op.Path)
	default:
		return "unknown"
	}
}

// List is an ordered sequence of operations.
type List []Operation

// Invert returns the inverse operations in reverse order, suitable for
// rolling back the whole sequence.
func (l List) Invert() List {
	out := make(List, len(l))
	for i, op := range l {
		out[len(l)-1-i] = op.Invert()
	}
	return out
}

// Clone returns an independent copy of the list.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}
