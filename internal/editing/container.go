package editing

import (
	"fmt"

	"github.com/dshills/docforge/internal/document"
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/transaction"
)

// ContainerBehavior edits nodes holding an ordered child sequence. Children
// are attached (shown) and detached (hidden) through list diffs on the
// content property; structural edits compose these with node creation and
// deep deletion. It also drives the merge negotiation between adjacent
// children.
type ContainerBehavior struct {
	*NodeBehavior
}

func (cb *ContainerBehavior) contentProp(tx *transaction.Transaction, node *model.Node) (string, error) {
	prop := tx.Schema().ContentProperty(node.Type)
	if prop == "" {
		return "", fmt.Errorf("%w: %s", ErrNotContainer, node.Type)
	}
	return prop, nil
}

// childAt resolves a coordinate to the direct child of the container it lies
// in (or on). A node coordinate on the container itself addresses a child by
// index; any other coordinate is resolved by climbing the parent chain.
func (cb *ContainerBehavior) childAt(tx *transaction.Transaction, container *model.Node, coord model.Coordinate) (*model.Node, int, error) {
	prop, err := cb.contentProp(tx, container)
	if err != nil {
		return nil, 0, err
	}

	if coord.NodeID() == container.ID {
		if !coord.IsNode() {
			return nil, 0, fmt.Errorf("%w: coordinate on container property", ErrInvalidRange)
		}
		ids := container.Children(prop)
		if coord.Offset < 0 || coord.Offset >= len(ids) {
			return nil, 0, fmt.Errorf("%w: child index %d of %d", ErrInvalidRange, coord.Offset, len(ids))
		}
		return tx.Get(ids[coord.Offset]), coord.Offset, nil
	}

	for id := coord.NodeID(); !id.IsZero(); id = tx.Parent(id) {
		if tx.Parent(id) == container.ID {
			pos := container.ChildPosition(prop, id)
			node := tx.Get(id)
			if pos < 0 || node == nil {
				return nil, 0, fmt.Errorf("%w: %s tracked under %s but not listed", ErrInternalInconsistency, id, container.ID)
			}
			return node, pos, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %s is not inside %s", ErrNoContainer, coord.NodeID(), container.ID)
}

// ============================================================================
// Child sequence operations
// ============================================================================

// Show attaches existing nodes at a position. A negative or out-of-range
// position appends. Every id must resolve and must not already be a child.
func (cb *ContainerBehavior) Show(tx *transaction.Transaction, container *model.Node, ids []model.NodeID, position int) error {
	prop, err := cb.contentProp(tx, container)
	if err != nil {
		return err
	}
	count := container.ChildCount(prop)
	if position < 0 || position > count {
		position = count
	}
	path := model.PropertyPath(container.ID, prop)
	for _, id := range ids {
		if tx.Get(id) == nil {
			return fmt.Errorf("%w: cannot show %s", document.ErrNodeNotFound, id)
		}
		if container.ChildPosition(prop, id) >= 0 {
			return fmt.Errorf("%w: %s already in %s", document.ErrNodeExists, id, container.ID)
		}
		if err := tx.Update(path, operation.InsertAt(position, id)); err != nil {
			return err
		}
		position++
	}
	return nil
}

// Hide detaches a child by id. Absent ids are a no-op.
func (cb *ContainerBehavior) Hide(tx *transaction.Transaction, container *model.Node, id model.NodeID) error {
	prop, err := cb.contentProp(tx, container)
	if err != nil {
		return err
	}
	pos := container.ChildPosition(prop, id)
	if pos < 0 {
		return nil
	}
	return tx.Update(model.PropertyPath(container.ID, prop), operation.DeleteAt(pos, id))
}

// HideAt detaches the child at a position.
func (cb *ContainerBehavior) HideAt(tx *transaction.Transaction, container *model.Node, position int) error {
	prop, err := cb.contentProp(tx, container)
	if err != nil {
		return err
	}
	ids := container.Children(prop)
	if position < 0 || position >= len(ids) {
		return fmt.Errorf("%w: hide at %d of %d", ErrInvalidRange, position, len(ids))
	}
	return tx.Update(model.PropertyPath(container.ID, prop), operation.DeleteAt(position, ids[position]))
}

// CreateFromNodes builds an uncommitted container node holding the ids.
func (cb *ContainerBehavior) CreateFromNodes(tx *transaction.Transaction, typ string, ids []model.NodeID) (*model.Node, error) {
	prop := tx.Schema().ContentProperty(typ)
	if prop == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, typ)
	}
	children := make([]model.NodeID, len(ids))
	copy(children, ids)
	return model.NewNode(typ, map[string]any{prop: children}), nil
}

// ============================================================================
// Split and break
// ============================================================================

// SplitNode splits the container. A node coordinate on the container splits
// the child sequence at that index; any deeper coordinate first splits the
// child it lies in, then either splices the parts back (returning the caller
// a finished selection) or, under MustSplit, divides the container in two
// around the split point.
func (cb *ContainerBehavior) SplitNode(tx *transaction.Transaction, container *model.Node, coord model.Coordinate, opts SplitOptions) (SplitResult, error) {
	prop, err := cb.contentProp(tx, container)
	if err != nil {
		return SplitResult{}, err
	}

	if coord.NodeID() == container.ID && coord.IsNode() {
		return cb.splitAtIndex(tx, container, prop, coord.Offset, opts)
	}

	child, pos, err := cb.childAt(tx, container, coord)
	if err != nil {
		return SplitResult{}, err
	}
	res, err := cb.reg.For(child).SplitNode(tx, child, coord, SplitOptions{})
	if err != nil {
		return SplitResult{}, err
	}
	if res.Handled() {
		return res, nil
	}

	if opts.MustSplit {
		return cb.divideAround(tx, container, prop, child, pos, res)
	}

	sel, err := cb.spliceSplit(tx, container, child, pos, res)
	if err != nil {
		return SplitResult{}, err
	}
	return SplitResult{Selection: sel}, nil
}

// splitAtIndex divides the child sequence at an index, moving the tail into
// a fresh container of the same type. AtCoordinate keeps the child exactly
// at the index in the original.
func (cb *ContainerBehavior) splitAtIndex(tx *transaction.Transaction, container *model.Node, prop string, idx int, opts SplitOptions) (SplitResult, error) {
	ids := container.Children(prop)
	if idx < 0 || idx > len(ids) {
		return SplitResult{}, fmt.Errorf("%w: split index %d of %d", ErrInvalidRange, idx, len(ids))
	}
	moveFrom := idx
	if opts.AtCoordinate && idx < len(ids) {
		moveFrom = idx + 1
	}
	tail, err := tx.CreateNode(container.Type, map[string]any{prop: []model.NodeID{}})
	if err != nil {
		return SplitResult{}, err
	}
	moving := ids[moveFrom:]
	for i := len(ids) - 1; i >= moveFrom; i-- {
		if err := cb.HideAt(tx, container, i); err != nil {
			return SplitResult{}, err
		}
	}
	if err := cb.Show(tx, tail, moving, 0); err != nil {
		return SplitResult{}, err
	}
	return SplitResult{Before: container, After: tail}, nil
}

// divideAround turns a child's split parts into a full container split: the
// before part (and everything preceding it) stays, the after part and the
// remaining children move into a fresh container.
func (cb *ContainerBehavior) divideAround(tx *transaction.Transaction, container *model.Node, prop string, child *model.Node, pos int, res SplitResult) (SplitResult, error) {
	var head []model.NodeID
	moveFrom := pos + 1
	switch {
	case res.After != nil && res.After.ID != child.ID:
		head = []model.NodeID{res.After.ID}
	case res.After != nil:
		// whole child belongs after the split
		moveFrom = pos
	case res.Before != nil && res.Before.ID != child.ID:
		// empty prefix stays; the child itself moves
		if err := cb.Show(tx, container, []model.NodeID{res.Before.ID}, pos); err != nil {
			return SplitResult{}, err
		}
	}

	tail, err := tx.CreateNode(container.Type, map[string]any{prop: []model.NodeID{}})
	if err != nil {
		return SplitResult{}, err
	}
	ids := container.Children(prop)
	moving := append(head, ids[moveFrom:]...)
	for i := len(ids) - 1; i >= moveFrom; i-- {
		if err := cb.HideAt(tx, container, i); err != nil {
			return SplitResult{}, err
		}
	}
	if err := cb.Show(tx, tail, moving, 0); err != nil {
		return SplitResult{}, err
	}
	return SplitResult{Before: container, After: tail}, nil
}

// spliceSplit materializes a child's split parts inside this container and
// returns the selection at the split point.
func (cb *ContainerBehavior) spliceSplit(tx *transaction.Transaction, container *model.Node, child *model.Node, pos int, res SplitResult) (model.Selection, error) {
	insert := pos
	if res.Before != nil && res.Before.ID != child.ID {
		if err := cb.Show(tx, container, []model.NodeID{res.Before.ID}, insert); err != nil {
			return nil, err
		}
		insert++
	}
	cur := child
	if res.Replace != nil {
		if err := cb.HideAt(tx, container, insert); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, cb.reg, child); err != nil {
			return nil, err
		}
		if err := cb.Show(tx, container, []model.NodeID{res.Replace.ID}, insert); err != nil {
			return nil, err
		}
		cur = res.Replace
	}

	switch {
	case res.After != nil && res.After.ID != child.ID:
		if err := cb.Show(tx, container, []model.NodeID{res.After.ID}, insert+1); err != nil {
			return nil, err
		}
		return nodeStartSelection(tx, res.After, container.ID), nil
	case res.After != nil:
		// atomic child wholly after the split point
		return nodeStartSelection(tx, cur, container.ID), nil
	case res.Before != nil && res.Before.ID != child.ID:
		// split at the child's start: cursor stays on the child
		return nodeStartSelection(tx, cur, container.ID), nil
	default:
		return nodeEndSelection(tx, cur, container.ID), nil
	}
}

// Break performs an editorial break: split the child under the coordinate
// and splice the parts, or insert a fresh text node when the coordinate
// addresses the container itself.
func (cb *ContainerBehavior) Break(tx *transaction.Transaction, container *model.Node, coord model.Coordinate) (model.Selection, error) {
	if coord.NodeID() == container.ID && coord.IsNode() {
		para, err := tx.CreateNode(tx.Schema().DefaultTextType(), map[string]any{model.PropContent: ""})
		if err != nil {
			return nil, err
		}
		if err := cb.Show(tx, container, []model.NodeID{para.ID}, coord.Offset); err != nil {
			return nil, err
		}
		return model.CursorAt(textPath(para), 0).WithContainer(container.ID), nil
	}

	child, pos, err := cb.childAt(tx, container, coord)
	if err != nil {
		return nil, err
	}
	res, err := cb.reg.For(child).SplitNode(tx, child, coord, SplitOptions{})
	if err != nil {
		return nil, err
	}
	if res.Handled() {
		return res.Selection, nil
	}
	return cb.spliceSplit(tx, container, child, pos, res)
}

// ============================================================================
// Range deletion
// ============================================================================

// DeleteRange deletes between two coordinates that may lie in different
// children. Entirely covered children are removed wholesale, partially
// covered boundary children are trimmed, and the surviving boundary nodes
// are merged unless NoMerge is set. Deleting every child leaves the
// container with one fresh empty text node rather than nothing.
func (cb *ContainerBehavior) DeleteRange(tx *transaction.Transaction, container *model.Node, start, end *model.Coordinate, opts DeleteOptions) (model.Selection, error) {
	prop, err := cb.contentProp(tx, container)
	if err != nil {
		return nil, err
	}
	ids := container.Children(prop)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty container", ErrInvalidRange)
	}

	startC := model.NodeCoordinate(container.ID, 0)
	if start != nil {
		startC = *start
	}
	endC := model.NodeCoordinate(container.ID, len(ids)-1)
	if end != nil {
		endC = *end
	}

	first, firstPos, err := cb.childAt(tx, container, startC)
	if err != nil {
		return nil, err
	}
	last, lastPos, err := cb.childAt(tx, container, endC)
	if err != nil {
		return nil, err
	}
	if firstPos > lastPos {
		return nil, fmt.Errorf("%w: start after end", ErrInvalidRange)
	}

	if firstPos == lastPos {
		return cb.deleteWithinChild(tx, container, prop, first, firstPos, startC, endC, opts)
	}

	firstEntire := coversFromStart(tx, startC)
	lastEntire := coversToEnd(tx, endC)

	if lastEntire {
		if err := cb.HideAt(tx, container, lastPos); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, cb.reg, last); err != nil {
			return nil, err
		}
	} else {
		if _, err := cb.reg.For(last).DeleteRange(tx, last, nil, &endC, DeleteOptions{NoMerge: true}); err != nil {
			return nil, err
		}
	}

	for i := lastPos - 1; i > firstPos; i-- {
		mid := tx.Get(container.Children(prop)[i])
		if err := cb.HideAt(tx, container, i); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, cb.reg, mid); err != nil {
			return nil, err
		}
	}

	if firstEntire {
		if err := cb.HideAt(tx, container, firstPos); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, cb.reg, first); err != nil {
			return nil, err
		}
	} else {
		if _, err := cb.reg.For(first).DeleteRange(tx, first, &startC, nil, DeleteOptions{NoMerge: true}); err != nil {
			return nil, err
		}
	}

	switch {
	case firstEntire && lastEntire:
		fresh, err := tx.CreateNode(tx.Schema().DefaultTextType(), map[string]any{model.PropContent: ""})
		if err != nil {
			return nil, err
		}
		if err := cb.Show(tx, container, []model.NodeID{fresh.ID}, firstPos); err != nil {
			return nil, err
		}
		return model.CursorAt(textPath(fresh), 0).WithContainer(container.ID), nil
	case firstEntire:
		return nodeStartSelection(tx, last, container.ID), nil
	case lastEntire:
		return nodeEndSelection(tx, first, container.ID), nil
	default:
		if !opts.NoMerge {
			sel, err := cb.Merge(tx, container, startC, DirRight)
			if err != nil {
				return nil, err
			}
			if sel != nil {
				return sel, nil
			}
		}
		return model.Cursor(startC).WithContainer(container.ID), nil
	}
}

// deleteWithinChild handles a range confined to one child.
func (cb *ContainerBehavior) deleteWithinChild(tx *transaction.Transaction, container *model.Node, prop string, child *model.Node, pos int, startC, endC model.Coordinate, opts DeleteOptions) (model.Selection, error) {
	if coversFromStart(tx, startC) && coversToEnd(tx, endC) {
		if err := cb.HideAt(tx, container, pos); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, cb.reg, child); err != nil {
			return nil, err
		}
		if container.ChildCount(prop) == 0 {
			fresh, err := tx.CreateNode(tx.Schema().DefaultTextType(), map[string]any{model.PropContent: ""})
			if err != nil {
				return nil, err
			}
			if err := cb.Show(tx, container, []model.NodeID{fresh.ID}, 0); err != nil {
				return nil, err
			}
			return model.CursorAt(textPath(fresh), 0).WithContainer(container.ID), nil
		}
		return collapsedAt(tx, model.NodeCoordinate(container.ID, min(pos, container.ChildCount(prop)-1)), container.ID), nil
	}
	return cb.reg.For(child).DeleteRange(tx, child, &startC, &endC, opts)
}

// coversFromStart reports whether a coordinate covers its node from the very
// beginning: node coordinates always do, property coordinates at offset 0 do.
func coversFromStart(tx *transaction.Transaction, c model.Coordinate) bool {
	if c.IsNode() {
		return true
	}
	return c.Offset == 0
}

// coversToEnd reports whether a coordinate covers its node to the very end.
func coversToEnd(tx *transaction.Transaction, c model.Coordinate) bool {
	if c.IsNode() {
		return true
	}
	content, err := tx.Text(c.Path)
	if err != nil {
		return false
	}
	return c.Offset >= len(content)
}

// ============================================================================
// Merge negotiation
// ============================================================================

// Merge merges the child under the coordinate with its sibling in the given
// direction. The right-hand node is always the source and the left-hand node
// the target. Returns (nil, nil) when there is no sibling or the negotiation
// is refused without a removal offer.
func (cb *ContainerBehavior) Merge(tx *transaction.Transaction, container *model.Node, coord model.Coordinate, dir Direction) (model.Selection, error) {
	prop, err := cb.contentProp(tx, container)
	if err != nil {
		return nil, err
	}
	child, pos, err := cb.childAt(tx, container, coord)
	if err != nil {
		return nil, err
	}

	// Try the nested container first when the coordinate lies deeper.
	if child.ID != coord.NodeID() {
		if inner, ok := cb.reg.Container(child); ok {
			sel, err := inner.Merge(tx, child, coord, dir)
			if err != nil {
				return nil, err
			}
			if sel != nil {
				return sel, nil
			}
		}
	}

	ids := container.Children(prop)
	var target, source *model.Node
	var sourcePos int
	if dir == DirLeft {
		if pos == 0 {
			return nil, nil
		}
		target, source, sourcePos = tx.Get(ids[pos-1]), child, pos
	} else {
		if pos >= len(ids)-1 {
			return nil, nil
		}
		target, source, sourcePos = child, tx.Get(ids[pos+1]), pos+1
	}

	srcB, tgtB := cb.reg.For(source), cb.reg.For(target)
	offered := srcB.MergeAsTypes(tx, source, coord)
	if len(offered) == 0 {
		return nil, nil
	}
	typ := tgtB.SelectMergeType(tx, target, offered, coord)

	if typ == "" || typ == "remove" {
		if !containsType(offered, "remove") {
			return nil, nil
		}
		if err := cb.HideAt(tx, container, sourcePos); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, cb.reg, source); err != nil {
			return nil, err
		}
		if dir == DirRight && coord.IsProperty() {
			return model.Cursor(coord).WithContainer(container.ID), nil
		}
		return nodeEndSelection(tx, target, container.ID), nil
	}

	ops, _ := cb.reg.Container(container)
	converted, err := srcB.ConvertForMerge(tx, source, coord, typ, container, ops)
	if err != nil {
		return nil, err
	}
	return tgtB.MergeNode(tx, target, typ, converted, coord, container, ops)
}

// MergeAsTypes offers the container's first child's types plus the container
// itself; an empty container offers plain removal.
func (cb *ContainerBehavior) MergeAsTypes(tx *transaction.Transaction, node *model.Node, coord model.Coordinate) []string {
	prop, err := cb.contentProp(tx, node)
	if err != nil {
		return nil
	}
	ids := node.Children(prop)
	if len(ids) == 0 {
		return []string{"container", "remove"}
	}
	first := tx.Get(ids[0])
	return append(cb.reg.For(first).MergeAsTypes(tx, first, coord), "container")
}

// SelectMergeType lets the last child pick first, then falls back to
// absorbing whole containers.
func (cb *ContainerBehavior) SelectMergeType(tx *transaction.Transaction, node *model.Node, offered []string, coord model.Coordinate) string {
	prop, err := cb.contentProp(tx, node)
	if err != nil {
		return ""
	}
	ids := node.Children(prop)
	if len(ids) > 0 {
		last := tx.Get(ids[len(ids)-1])
		if typ := cb.reg.For(last).SelectMergeType(tx, last, offered, coord); typ != "" {
			return typ
		}
	}
	if containsType(offered, "container") {
		return "container"
	}
	return ""
}

// ConvertForMerge hands over either the whole container or its converted
// first child, dropping the shell if that empties it.
func (cb *ContainerBehavior) ConvertForMerge(tx *transaction.Transaction, node *model.Node, coord model.Coordinate, typ string, container *model.Node, ops ContainerOps) (*model.Node, error) {
	if typ == "container" {
		return cb.NodeBehavior.ConvertForMerge(tx, node, coord, typ, container, ops)
	}
	prop, err := cb.contentProp(tx, node)
	if err != nil {
		return nil, err
	}
	ids := node.Children(prop)
	if len(ids) == 0 {
		return nil, unsupported("convert as "+typ, node.Type)
	}
	first := tx.Get(ids[0])
	self, _ := cb.reg.Container(node)
	converted, err := cb.reg.For(first).ConvertForMerge(tx, first, coord, typ, node, self)
	if err != nil {
		return nil, err
	}
	if node.ChildCount(prop) == 0 {
		if ops != nil && container != nil {
			if err := ops.Hide(tx, container, node.ID); err != nil {
				return nil, err
			}
		}
		if err := deleteNodeDeep(tx, cb.reg, node); err != nil {
			return nil, err
		}
	}
	return converted, nil
}

// MergeNode absorbs a whole container by adopting its children, or forwards
// other types to the last child.
func (cb *ContainerBehavior) MergeNode(tx *transaction.Transaction, node *model.Node, typ string, source *model.Node, coord model.Coordinate, container *model.Node, ops ContainerOps) (model.Selection, error) {
	prop, err := cb.contentProp(tx, node)
	if err != nil {
		return nil, err
	}
	self, _ := cb.reg.Container(node)

	if typ == "container" {
		srcOps, ok := cb.reg.Container(source)
		if !ok {
			return nil, unsupported("merge as container", source.Type)
		}
		srcProp := tx.Schema().ContentProperty(source.Type)
		moving := source.Children(srcProp)
		for i := len(moving) - 1; i >= 0; i-- {
			if err := srcOps.HideAt(tx, source, i); err != nil {
				return nil, err
			}
		}
		if err := self.Show(tx, node, moving, -1); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, cb.reg, source); err != nil {
			return nil, err
		}
		if len(moving) > 0 {
			return nodeStartSelection(tx, tx.Get(moving[0]), node.ID), nil
		}
		ids := node.Children(prop)
		if len(ids) > 0 {
			return nodeEndSelection(tx, tx.Get(ids[len(ids)-1]), node.ID), nil
		}
		return model.NewNodeSelection(node.ID, container.ID), nil
	}

	ids := node.Children(prop)
	if len(ids) == 0 {
		return nil, unsupported("merge as "+typ, node.Type)
	}
	last := tx.Get(ids[len(ids)-1])
	return cb.reg.For(last).MergeNode(tx, last, typ, source, coord, node, self)
}

// DeleteCharacter forwards to the child owning the coordinate, or merges at
// a child boundary when the coordinate addresses the container itself.
func (cb *ContainerBehavior) DeleteCharacter(tx *transaction.Transaction, container *model.Node, coord model.Coordinate, dir Direction, parent *model.Node) (model.Selection, error) {
	if coord.NodeID() != container.ID {
		child, _, err := cb.childAt(tx, container, coord)
		if err != nil {
			return nil, err
		}
		return cb.reg.For(child).DeleteCharacter(tx, child, coord, dir, container)
	}
	sel, err := cb.Merge(tx, container, coord, dir)
	if err != nil {
		return nil, err
	}
	if sel == nil {
		return collapsedAt(tx, coord, container.ID), nil
	}
	return sel, nil
}

// InsertNode attaches a child at the coordinate: directly at a child index,
// or after the child a deeper coordinate lies in. Uncommitted payloads are
// created first.
func (cb *ContainerBehavior) InsertNode(tx *transaction.Transaction, container *model.Node, coord model.Coordinate, child *model.Node) (model.Selection, error) {
	pos := -1
	if coord.NodeID() == container.ID && coord.IsNode() {
		pos = coord.Offset
	} else if !coord.IsZero() {
		_, at, err := cb.childAt(tx, container, coord)
		if err != nil {
			return nil, err
		}
		pos = at + 1
	}
	if tx.Get(child.ID) == nil {
		if err := tx.Add(child); err != nil {
			return nil, err
		}
	}
	if err := cb.Show(tx, container, []model.NodeID{child.ID}, pos); err != nil {
		return nil, err
	}
	return nodeEndSelection(tx, tx.Get(child.ID), container.ID), nil
}
