package editing

import (
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/transaction"
)

// Direction distinguishes backward from forward deletion and merging.
type Direction uint8

const (
	// DirLeft deletes or merges toward the document start (backspace).
	DirLeft Direction = iota

	// DirRight deletes or merges toward the document end (forward delete).
	DirRight
)

// String returns a human-readable representation.
func (d Direction) String() string {
	if d == DirLeft {
		return "left"
	}
	return "right"
}

// SplitOptions controls SplitNode.
type SplitOptions struct {
	// MustSplit forces production of both a before and an after part, filling
	// a missing side with an empty default text node.
	MustSplit bool

	// AtCoordinate keeps the child exactly at the split point in the original
	// node during a structural container split.
	AtCoordinate bool
}

// SplitResult is the outcome of SplitNode. A behavior either returns node
// parts for the caller to splice (Before goes in front of the split node,
// After behind it, Replace substitutes it), or handles the split internally
// and returns only the resulting Selection.
type SplitResult struct {
	Before    *model.Node
	After     *model.Node
	Replace   *model.Node
	Selection model.Selection
}

// Handled reports whether the behavior performed the split internally,
// leaving nothing for the caller to splice.
func (r SplitResult) Handled() bool {
	return r.Before == nil && r.After == nil && r.Replace == nil
}

// DeleteOptions controls DeleteRange.
type DeleteOptions struct {
	// NoMerge suppresses the boundary merge after a cross-node deletion.
	NoMerge bool
}

// Behavior is the per-node-type editing contract. Implementations receive the
// node they operate on plus the transaction; structural context (the
// enclosing container) is passed where an operation needs it.
//
// The four merge methods form the negotiation protocol. MergeAsTypes and
// SelectMergeType are pure queries; ConvertForMerge and ConvertForMerge's
// counterpart MergeNode mutate. A nil type list, an empty selected type, and
// a nil merge selection all mean "cannot" and are not errors.
type Behavior interface {
	// SplitNode splits the node at a coordinate inside it.
	SplitNode(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, opts SplitOptions) (SplitResult, error)

	// Break performs an editorial line break at a coordinate inside the node.
	// Only container-like behaviors support it.
	Break(tx *transaction.Transaction, node *model.Node, coord model.Coordinate) (model.Selection, error)

	// DeleteRange deletes between two coordinates inside the node. A nil
	// start means "from the node's beginning", a nil end "to its end"; both
	// nil is invalid. Returns the collapsed selection after the deletion.
	DeleteRange(tx *transaction.Transaction, node *model.Node, start, end *model.Coordinate, opts DeleteOptions) (model.Selection, error)

	// DeleteCharacter deletes one grapheme cluster adjacent to a collapsed
	// coordinate. container is the node's enclosing container (nil if
	// unattached); boundary deletions delegate to its merge.
	DeleteCharacter(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, dir Direction, container *model.Node) (model.Selection, error)

	// MergeAsTypes returns the types this node can present itself as when it
	// is the source of a merge, most preferred first. Nil means the node
	// cannot merge. The pseudo-type "remove" offers plain removal.
	MergeAsTypes(tx *transaction.Transaction, node *model.Node, coord model.Coordinate) []string

	// SelectMergeType picks one of the source's offered types when this node
	// is the merge target, or "" to refuse.
	SelectMergeType(tx *transaction.Transaction, node *model.Node, offered []string, coord model.Coordinate) string

	// ConvertForMerge detaches the source node from its container and
	// converts it to the accepted type, returning the node to hand to the
	// target's MergeNode.
	ConvertForMerge(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, typ string, container *model.Node, ops ContainerOps) (*model.Node, error)

	// MergeNode absorbs a converted source node into this target node and
	// returns the selection at the merge seam.
	MergeNode(tx *transaction.Transaction, node *model.Node, typ string, source *model.Node, coord model.Coordinate, container *model.Node, ops ContainerOps) (model.Selection, error)

	// ReplaceText replaces the text between two coordinates on the same
	// property with new text, adjusting annotation anchors. An empty
	// replacement is a range deletion; equal coordinates are an insertion.
	ReplaceText(tx *transaction.Transaction, node *model.Node, start, end model.Coordinate, text string) (model.Selection, error)

	// InsertText inserts text at a collapsed coordinate.
	InsertText(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, text string) (model.Selection, error)

	// InsertNode inserts a child node at a coordinate inside this node.
	InsertNode(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, child *model.Node) (model.Selection, error)
}

// ContainerOps extends Behavior with child-sequence manipulation. Children
// are hidden (detached) and shown (attached), never implicitly deleted:
// hiding leaves the child in the document, and a shown id must resolve.
type ContainerOps interface {
	Behavior

	// Show attaches existing nodes at a position in the child sequence.
	// A negative position appends.
	Show(tx *transaction.Transaction, container *model.Node, ids []model.NodeID, position int) error

	// Hide detaches a child by id. Absent ids are a no-op.
	Hide(tx *transaction.Transaction, container *model.Node, id model.NodeID) error

	// HideAt detaches the child at a position.
	HideAt(tx *transaction.Transaction, container *model.Node, position int) error

	// Merge merges the child at a coordinate with its sibling in the given
	// direction, running the negotiation protocol. A nil selection with nil
	// error means the merge was refused or there is no sibling.
	Merge(tx *transaction.Transaction, container *model.Node, coord model.Coordinate, dir Direction) (model.Selection, error)

	// CreateFromNodes builds an uncommitted container node of the given type
	// holding the ids as children. The caller decides whether to add it.
	CreateFromNodes(tx *transaction.Transaction, typ string, ids []model.NodeID) (*model.Node, error)
}
