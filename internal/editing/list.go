package editing

import (
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/transaction"
)

// ListBehavior edits list nodes. It inherits the container machinery over
// the item sequence and specializes splitting (Enter on an empty item exits
// the list), sibling merging (items concatenate), and the negotiation so
// adjacent lists join and boundary items flow into neighboring text.
type ListBehavior struct {
	*ContainerBehavior
}

// SplitNode splits a list at an item.
//
// Splitting an empty item removes it and exits the list: a fresh text node
// is placed before the list (first item), after it (last item), or between
// the two halves of the list (middle item, splitting the list). Splitting a
// non-empty item splits its text and keeps both halves as items, carrying
// the indentation level onto the new half.
func (lb *ListBehavior) SplitNode(tx *transaction.Transaction, list *model.Node, coord model.Coordinate, opts SplitOptions) (SplitResult, error) {
	prop, err := lb.contentProp(tx, list)
	if err != nil {
		return SplitResult{}, err
	}
	if coord.NodeID() == list.ID && coord.IsNode() {
		return lb.splitAtIndex(tx, list, prop, coord.Offset, opts)
	}
	item, pos, err := lb.childAt(tx, list, coord)
	if err != nil {
		return SplitResult{}, err
	}

	if item.Text() == "" {
		return lb.exitList(tx, list, prop, item, pos)
	}

	res, err := lb.reg.For(item).SplitNode(tx, item, coord, SplitOptions{})
	if err != nil {
		return SplitResult{}, err
	}
	if res.Handled() {
		return res, nil
	}
	if lvl := item.Int(model.PropLevel); lvl > 0 {
		for _, part := range []*model.Node{res.Before, res.After} {
			if part != nil && part.ID != item.ID {
				if err := tx.Set(model.PropertyPath(part.ID, model.PropLevel), lvl); err != nil {
					return SplitResult{}, err
				}
			}
		}
	}
	sel, err := lb.spliceSplit(tx, list, item, pos, res)
	if err != nil {
		return SplitResult{}, err
	}
	return SplitResult{Selection: sel}, nil
}

// exitList removes an empty item and places a fresh text node outside the
// list, splitting the list when the item was in the middle.
func (lb *ListBehavior) exitList(tx *transaction.Transaction, list *model.Node, prop string, item *model.Node, pos int) (SplitResult, error) {
	parent := tx.Get(tx.Parent(list.ID))
	pops, ok := lb.reg.Container(parent)
	if !ok {
		// detached list: just drop the empty item
		if err := lb.HideAt(tx, list, pos); err != nil {
			return SplitResult{}, err
		}
		if err := deleteNodeDeep(tx, lb.reg, item); err != nil {
			return SplitResult{}, err
		}
		return SplitResult{Selection: model.NewNodeSelection(list.ID, "")}, nil
	}
	parentProp := tx.Schema().ContentProperty(parent.Type)
	listPos := parent.ChildPosition(parentProp, list.ID)

	para, err := tx.CreateNode(tx.Schema().DefaultTextType(), map[string]any{model.PropContent: ""})
	if err != nil {
		return SplitResult{}, err
	}

	count := list.ChildCount(prop)
	switch {
	case pos == count-1:
		if err := lb.removeItem(tx, list, item, pos); err != nil {
			return SplitResult{}, err
		}
		if err := pops.Show(tx, parent, []model.NodeID{para.ID}, listPos+1); err != nil {
			return SplitResult{}, err
		}
	case pos == 0:
		if err := lb.removeItem(tx, list, item, pos); err != nil {
			return SplitResult{}, err
		}
		if err := pops.Show(tx, parent, []model.NodeID{para.ID}, listPos); err != nil {
			return SplitResult{}, err
		}
	default:
		half, err := lb.splitAtIndex(tx, list, prop, pos+1, SplitOptions{})
		if err != nil {
			return SplitResult{}, err
		}
		if err := lb.removeItem(tx, list, item, pos); err != nil {
			return SplitResult{}, err
		}
		if err := pops.Show(tx, parent, []model.NodeID{para.ID, half.After.ID}, listPos+1); err != nil {
			return SplitResult{}, err
		}
	}

	if list.ChildCount(prop) == 0 {
		if err := pops.Hide(tx, parent, list.ID); err != nil {
			return SplitResult{}, err
		}
		if err := deleteNodeDeep(tx, lb.reg, list); err != nil {
			return SplitResult{}, err
		}
	}
	return SplitResult{Selection: model.CursorAt(textPath(para), 0).WithContainer(parent.ID)}, nil
}

// Break routes through the list's own splitting rules, so an empty item
// exits the list and split halves keep their indentation level.
func (lb *ListBehavior) Break(tx *transaction.Transaction, list *model.Node, coord model.Coordinate) (model.Selection, error) {
	if coord.NodeID() == list.ID && coord.IsNode() {
		return lb.ContainerBehavior.Break(tx, list, coord)
	}
	res, err := lb.SplitNode(tx, list, coord, SplitOptions{})
	if err != nil {
		return nil, err
	}
	return res.Selection, nil
}

func (lb *ListBehavior) removeItem(tx *transaction.Transaction, list *model.Node, item *model.Node, pos int) error {
	if err := lb.HideAt(tx, list, pos); err != nil {
		return err
	}
	return deleteNodeDeep(tx, lb.reg, item)
}

// Merge merges adjacent items by concatenation. At the list edge it returns
// nil so the enclosing container can negotiate across the list boundary.
func (lb *ListBehavior) Merge(tx *transaction.Transaction, list *model.Node, coord model.Coordinate, dir Direction) (model.Selection, error) {
	item, pos, err := lb.childAt(tx, list, coord)
	if err != nil {
		return nil, err
	}
	prop, err := lb.contentProp(tx, list)
	if err != nil {
		return nil, err
	}
	ids := list.Children(prop)

	var target, source *model.Node
	var sourcePos int
	if dir == DirLeft {
		if pos == 0 {
			return nil, nil
		}
		target, source, sourcePos = tx.Get(ids[pos-1]), item, pos
	} else {
		if pos >= len(ids)-1 {
			return nil, nil
		}
		target, source, sourcePos = item, tx.Get(ids[pos+1]), pos+1
	}

	if err := lb.HideAt(tx, list, sourcePos); err != nil {
		return nil, err
	}
	sel, err := lb.absorbText(tx, target, source)
	if err != nil {
		return nil, err
	}
	return sel.(model.PropertySelection).WithContainer(list.ID), nil
}

// absorbText appends a detached text node's content and annotations to an
// item and deletes it.
func (lb *ListBehavior) absorbText(tx *transaction.Transaction, item, source *model.Node) (model.Selection, error) {
	seam := item.TextLen()
	if src := source.Text(); src != "" {
		if err := tx.Update(textPath(item), operation.InsertText(seam, src)); err != nil {
			return nil, err
		}
	}
	if err := carryAnnotations(tx, textPath(source), textPath(item), seam); err != nil {
		return nil, err
	}
	if err := deleteNodeDeep(tx, lb.reg, source); err != nil {
		return nil, err
	}
	return model.CursorAt(textPath(item), seam), nil
}

// MergeAsTypes offers the list as a whole and its first item as text.
func (lb *ListBehavior) MergeAsTypes(tx *transaction.Transaction, list *model.Node, coord model.Coordinate) []string {
	prop, err := lb.contentProp(tx, list)
	if err != nil {
		return nil
	}
	if list.ChildCount(prop) == 0 {
		return []string{"remove"}
	}
	return []string{"list", "text"}
}

// SelectMergeType prefers joining lists, then absorbing text into the last
// item.
func (lb *ListBehavior) SelectMergeType(tx *transaction.Transaction, list *model.Node, offered []string, coord model.Coordinate) string {
	for _, want := range []string{"list", "text"} {
		if containsType(offered, want) {
			return want
		}
	}
	return ""
}

// ConvertForMerge hands over the whole list, or extracts the first item as
// text (dropping its indentation level and, if emptied, the list itself).
func (lb *ListBehavior) ConvertForMerge(tx *transaction.Transaction, list *model.Node, coord model.Coordinate, typ string, container *model.Node, ops ContainerOps) (*model.Node, error) {
	switch typ {
	case "list":
		return lb.NodeBehavior.ConvertForMerge(tx, list, coord, typ, container, ops)
	case "text":
		prop, err := lb.contentProp(tx, list)
		if err != nil {
			return nil, err
		}
		ids := list.Children(prop)
		if len(ids) == 0 {
			return nil, unsupported("convert as text", list.Type)
		}
		first := tx.Get(ids[0])
		if err := lb.HideAt(tx, list, 0); err != nil {
			return nil, err
		}
		if _, ok := first.Props[model.PropLevel]; ok {
			if err := tx.Set(model.PropertyPath(first.ID, model.PropLevel), nil); err != nil {
				return nil, err
			}
		}
		if list.ChildCount(prop) == 0 {
			if ops != nil && container != nil {
				if err := ops.Hide(tx, container, list.ID); err != nil {
					return nil, err
				}
			}
			if err := deleteNodeDeep(tx, lb.reg, list); err != nil {
				return nil, err
			}
		}
		return first, nil
	default:
		return nil, unsupported("convert as "+typ, list.Type)
	}
}

// MergeNode joins another list by adopting its items, or absorbs a text
// source into the last item.
func (lb *ListBehavior) MergeNode(tx *transaction.Transaction, list *model.Node, typ string, source *model.Node, coord model.Coordinate, container *model.Node, ops ContainerOps) (model.Selection, error) {
	prop, err := lb.contentProp(tx, list)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "list":
		srcOps, ok := lb.reg.Container(source)
		if !ok {
			return nil, unsupported("merge as list", source.Type)
		}
		srcProp := tx.Schema().ContentProperty(source.Type)
		moving := source.Children(srcProp)
		for i := len(moving) - 1; i >= 0; i-- {
			if err := srcOps.HideAt(tx, source, i); err != nil {
				return nil, err
			}
		}
		if err := lb.Show(tx, list, moving, -1); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, lb.reg, source); err != nil {
			return nil, err
		}
		if len(moving) > 0 {
			return model.CursorAt(textPath(tx.Get(moving[0])), 0).WithContainer(list.ID), nil
		}
		return nodeEndSelection(tx, list, container.ID), nil
	case "text":
		ids := list.Children(prop)
		if len(ids) == 0 {
			return nil, unsupported("merge as text", list.Type)
		}
		last := tx.Get(ids[len(ids)-1])
		sel, err := lb.absorbText(tx, last, source)
		if err != nil {
			return nil, err
		}
		return sel.(model.PropertySelection).WithContainer(list.ID), nil
	default:
		return nil, unsupported("merge as "+typ, list.Type)
	}
}
