package editing

import (
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/transaction"
)

// TextBehavior edits nodes with text content. It refines the default
// behavior with real splitting, boundary merging, and the text side of the
// merge negotiation.
type TextBehavior struct {
	*NodeBehavior
}

// SplitNode splits the node's text at the coordinate.
//
// A split at offset 0 yields an empty before node of the same type and
// leaves the original untouched. A split in the middle moves the suffix and
// its annotations into a new node of the same type. A split at the end
// yields an empty after node of the schema's default text type, so breaking
// at the end of a heading produces a paragraph.
func (tb *TextBehavior) SplitNode(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, opts SplitOptions) (SplitResult, error) {
	content := node.Text()
	off := coord.Offset
	if coord.IsNode() && off > 0 {
		off = len(content)
	}
	if off < 0 || off > len(content) {
		return SplitResult{}, ErrInvalidRange
	}

	if off == 0 {
		before, err := tx.CreateNode(node.Type, map[string]any{model.PropContent: ""})
		if err != nil {
			return SplitResult{}, err
		}
		return SplitResult{Before: before}, nil
	}

	afterType := node.Type
	if off == len(content) {
		afterType = tx.Schema().DefaultTextType()
	}
	suffix := content[off:]
	after, err := tx.CreateNode(afterType, map[string]any{model.PropContent: suffix})
	if err != nil {
		return SplitResult{}, err
	}
	if err := splitAnnotations(tx, textPath(node), off, textPath(after)); err != nil {
		return SplitResult{}, err
	}
	if suffix != "" {
		if err := tx.Update(textPath(node), operation.DeleteText(off, suffix)); err != nil {
			return SplitResult{}, err
		}
	}
	return SplitResult{After: after}, nil
}

// MergeAsTypes offers the node as text; an empty node additionally offers
// plain removal.
func (tb *TextBehavior) MergeAsTypes(tx *transaction.Transaction, node *model.Node, coord model.Coordinate) []string {
	if node.Text() == "" {
		return []string{"text", "remove"}
	}
	return []string{"text"}
}

// SelectMergeType accepts a text offer and refuses everything else.
func (tb *TextBehavior) SelectMergeType(tx *transaction.Transaction, node *model.Node, offered []string, coord model.Coordinate) string {
	for _, t := range offered {
		if t == "text" {
			return t
		}
	}
	return ""
}

// MergeNode absorbs a text source: its content is appended and its
// annotations carried over rebased to the seam. An empty target is replaced
// wholesale by the source instead.
func (tb *TextBehavior) MergeNode(tx *transaction.Transaction, node *model.Node, typ string, source *model.Node, coord model.Coordinate, container *model.Node, ops ContainerOps) (model.Selection, error) {
	if typ != "text" {
		return nil, unsupported("merge as "+typ, node.Type)
	}

	if node.Text() == "" && container != nil && ops != nil {
		prop := tx.Schema().ContentProperty(container.Type)
		pos := container.ChildPosition(prop, node.ID)
		if pos >= 0 {
			if err := ops.HideAt(tx, container, pos); err != nil {
				return nil, err
			}
			if err := ops.Show(tx, container, []model.NodeID{source.ID}, pos); err != nil {
				return nil, err
			}
		}
		if err := deleteNodeDeep(tx, tb.reg, node); err != nil {
			return nil, err
		}
		return model.CursorAt(textPath(source), 0), nil
	}

	seam := node.TextLen()
	if src := source.Text(); src != "" {
		if err := tx.Update(textPath(node), operation.InsertText(seam, src)); err != nil {
			return nil, err
		}
	}
	if err := carryAnnotations(tx, textPath(source), textPath(node), seam); err != nil {
		return nil, err
	}
	if err := deleteNodeDeep(tx, tb.reg, source); err != nil {
		return nil, err
	}
	return model.CursorAt(textPath(node), seam), nil
}

// DeleteCharacter deletes one grapheme, or delegates to the enclosing
// container's merge when the cursor sits exactly on the node boundary in the
// deletion direction.
func (tb *TextBehavior) DeleteCharacter(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, dir Direction, container *model.Node) (model.Selection, error) {
	content, err := tx.Text(coord.Path)
	if err != nil {
		return nil, err
	}
	atBoundary := (dir == DirLeft && coord.Offset == 0) ||
		(dir == DirRight && coord.Offset >= len(content))
	if !atBoundary {
		return tb.NodeBehavior.DeleteCharacter(tx, node, coord, dir, container)
	}

	// Climb the ancestor chain until some container agrees to merge; a list
	// refusing at its edge still lets the enclosing container negotiate
	// across the list boundary.
	for c := container; c != nil; c = tx.Get(tx.Parent(c.ID)) {
		ops, ok := tb.reg.Container(c)
		if !ok {
			break
		}
		sel, err := ops.Merge(tx, c, coord, dir)
		if err != nil {
			return nil, err
		}
		if sel != nil {
			return sel, nil
		}
	}
	return model.Cursor(coord), nil
}
