package editing

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/transaction"
)

// NodeBehavior is the default behavior for leaf-like nodes. Such nodes are
// atomic for splitting (they end up wholly on one side), support text edits
// only on string properties, and decline to merge.
type NodeBehavior struct {
	reg *Registry
}

// textPath returns the content property path of a node.
func textPath(node *model.Node) model.Path {
	return model.PropertyPath(node.ID, model.PropContent)
}

// SplitNode treats the node as atomic: a coordinate at its start puts it
// entirely in the after part, anything else in the before part. MustSplit
// fills the missing side with an empty default text node.
func (nb *NodeBehavior) SplitNode(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, opts SplitOptions) (SplitResult, error) {
	var res SplitResult
	if coord.Offset == 0 {
		res.After = node
	} else {
		res.Before = node
	}
	if opts.MustSplit {
		filler, err := tx.CreateNode(tx.Schema().DefaultTextType(), map[string]any{model.PropContent: ""})
		if err != nil {
			return SplitResult{}, err
		}
		if res.Before == nil {
			res.Before = filler
		} else {
			res.After = filler
		}
	}
	return res, nil
}

// Break is not supported on leaf nodes.
func (nb *NodeBehavior) Break(tx *transaction.Transaction, node *model.Node, coord model.Coordinate) (model.Selection, error) {
	return nil, unsupported("break", node.Type)
}

// DeleteRange deletes inside a string property of the node. Nil bounds
// default to the property's start and end respectively.
func (nb *NodeBehavior) DeleteRange(tx *transaction.Transaction, node *model.Node, start, end *model.Coordinate, opts DeleteOptions) (model.Selection, error) {
	if start == nil && end == nil {
		return nil, ErrInvalidRange
	}
	var path model.Path
	if start != nil {
		path = start.Path
	} else {
		path = end.Path
	}
	if !path.IsProperty() {
		return nil, unsupported("delete range", node.Type)
	}

	startOff := 0
	if start != nil {
		startOff = start.Offset
	}
	endOff := -1
	if end != nil {
		endOff = end.Offset
	} else {
		content, err := tx.Text(path)
		if err != nil {
			return nil, err
		}
		endOff = len(content)
	}
	return replaceTextRange(tx, path, startOff, endOff, "")
}

// DeleteCharacter removes one grapheme cluster next to the coordinate.
// Deleting at the property boundary is a no-op for leaf nodes.
func (nb *NodeBehavior) DeleteCharacter(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, dir Direction, container *model.Node) (model.Selection, error) {
	if !coord.IsProperty() {
		return nil, unsupported("delete character", node.Type)
	}
	content, err := tx.Text(coord.Path)
	if err != nil {
		return nil, err
	}

	var startOff, endOff int
	switch dir {
	case DirLeft:
		if coord.Offset == 0 {
			return model.Cursor(coord), nil
		}
		startOff, endOff = prevGraphemeBoundary(content, coord.Offset), coord.Offset
	default:
		if coord.Offset >= len(content) {
			return model.Cursor(coord), nil
		}
		startOff, endOff = coord.Offset, nextGraphemeBoundary(content, coord.Offset)
	}
	return replaceTextRange(tx, coord.Path, startOff, endOff, "")
}

// MergeAsTypes: leaf nodes do not offer themselves for merging.
func (nb *NodeBehavior) MergeAsTypes(tx *transaction.Transaction, node *model.Node, coord model.Coordinate) []string {
	return nil
}

// SelectMergeType: leaf nodes refuse every offer.
func (nb *NodeBehavior) SelectMergeType(tx *transaction.Transaction, node *model.Node, offered []string, coord model.Coordinate) string {
	return ""
}

// ConvertForMerge detaches the node and hands it over unchanged.
func (nb *NodeBehavior) ConvertForMerge(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, typ string, container *model.Node, ops ContainerOps) (*model.Node, error) {
	if ops != nil && container != nil {
		if err := ops.Hide(tx, container, node.ID); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// MergeNode: leaf nodes cannot absorb anything.
func (nb *NodeBehavior) MergeNode(tx *transaction.Transaction, node *model.Node, typ string, source *model.Node, coord model.Coordinate, container *model.Node, ops ContainerOps) (model.Selection, error) {
	return nil, unsupported("merge into", node.Type)
}

// ReplaceText edits a string property of the node.
func (nb *NodeBehavior) ReplaceText(tx *transaction.Transaction, node *model.Node, start, end model.Coordinate, text string) (model.Selection, error) {
	if !start.IsProperty() || !start.Path.Equal(end.Path) {
		return nil, unsupported("replace text", node.Type)
	}
	return replaceTextRange(tx, start.Path, start.Offset, end.Offset, text)
}

// InsertText inserts at a collapsed coordinate.
func (nb *NodeBehavior) InsertText(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, text string) (model.Selection, error) {
	return nb.ReplaceText(tx, node, coord, coord, text)
}

// InsertNode is not supported on leaf nodes.
func (nb *NodeBehavior) InsertNode(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, child *model.Node) (model.Selection, error) {
	return nil, unsupported("insert node", node.Type)
}

// prevGraphemeBoundary returns the byte offset of the grapheme cluster
// boundary preceding off.
func prevGraphemeBoundary(text string, off int) int {
	pos := 0
	state := -1
	for pos < off {
		cluster, _, _, next := uniseg.FirstGraphemeClusterInString(text[pos:], state)
		if pos+len(cluster) >= off {
			return pos
		}
		pos += len(cluster)
		state = next
	}
	return pos
}

// nextGraphemeBoundary returns the byte offset of the grapheme cluster
// boundary following off.
func nextGraphemeBoundary(text string, off int) int {
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(text[off:], -1)
	return off + len(cluster)
}
