package editing

import (
	"fmt"
	"log/slog"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/schema"
	"github.com/dshills/docforge/internal/transaction"
)

// inlineAnchor is the placeholder character an inline node occupies in text
// (zero-width no-break space).
const inlineAnchor = "\uFEFF"

// Editor dispatches document-level editing operations on the current
// selection. It owns a behavior registry; all state lives in the transaction
// it is handed, so one editor can serve many sessions over the same schema.
type Editor struct {
	schema *schema.Schema
	reg    *Registry
	logger *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger attaches a structured logger for editing diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBehavior installs a behavior for a capability, overriding the built-in
// registration. Used to plug in custom node behaviors.
func WithBehavior(cap schema.Capability, b Behavior) Option {
	return func(e *Editor) {
		e.reg.Register(cap, b)
	}
}

// New creates an editor for a schema.
func New(s *schema.Schema, opts ...Option) *Editor {
	e := &Editor{
		schema: s,
		reg:    NewRegistry(s),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the editor's behavior registry.
func (e *Editor) Registry() *Registry { return e.reg }

// containerOf returns the nearest container-like ancestor of a node.
func (e *Editor) containerOf(tx *transaction.Transaction, node *model.Node) (*model.Node, ContainerOps, error) {
	for id := tx.Parent(node.ID); !id.IsZero(); id = tx.Parent(id) {
		p := tx.Get(id)
		if p == nil {
			break
		}
		if ops, ok := e.reg.Container(p); ok {
			return p, ops, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrNoContainer, node.ID)
}

// selected resolves the node a property selection addresses.
func (e *Editor) selected(tx *transaction.Transaction, sel model.PropertySelection) (*model.Node, error) {
	node := tx.Get(sel.Start.NodeID())
	if node == nil {
		return nil, fmt.Errorf("%w: %s does not resolve", ErrInvalidSelection, sel.Start.NodeID())
	}
	return node, nil
}

func (e *Editor) commitSelection(tx *transaction.Transaction, sel model.Selection) (model.Selection, error) {
	if sel == nil {
		return tx.Selection(), nil
	}
	if err := tx.SetSelection(sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// ============================================================================
// Text input
// ============================================================================

// InsertText types text at the current selection. Range selections are
// replaced (typeover); node selections are replaced by, or extended with, a
// fresh text node carrying the text.
func (e *Editor) InsertText(tx *transaction.Transaction, text string) (model.Selection, error) {
	switch sel := tx.Selection().(type) {
	case nil:
		return nil, ErrNoSelection
	case model.PropertySelection:
		node, err := e.selected(tx, sel)
		if err != nil {
			return nil, err
		}
		out, err := e.reg.For(node).ReplaceText(tx, node, sel.Start, sel.End, text)
		if err != nil {
			return nil, err
		}
		if ps, ok := out.(model.PropertySelection); ok {
			out = ps.WithContainer(sel.ContainerID)
		}
		return e.commitSelection(tx, out)
	case model.ContainerSelection:
		cur, err := e.deleteContainerRange(tx, sel)
		if err != nil {
			return nil, err
		}
		if _, ok := cur.(model.PropertySelection); ok && text != "" {
			if _, err := e.commitSelection(tx, cur); err != nil {
				return nil, err
			}
			return e.InsertText(tx, text)
		}
		return e.commitSelection(tx, cur)
	case model.NodeSelection:
		return e.insertTextAtNode(tx, sel, text)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSelection, sel.Kind())
	}
}

func (e *Editor) insertTextAtNode(tx *transaction.Transaction, sel model.NodeSelection, text string) (model.Selection, error) {
	container := tx.Get(sel.ContainerID)
	ops, ok := e.reg.Container(container)
	if !ok {
		return nil, fmt.Errorf("%w: node selection without container", ErrInvalidSelection)
	}
	prop := e.schema.ContentProperty(container.Type)
	pos := container.ChildPosition(prop, sel.NodeID)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s not in %s", ErrInvalidSelection, sel.NodeID, container.ID)
	}

	textNode, err := tx.CreateNode(e.schema.DefaultTextType(), map[string]any{model.PropContent: text})
	if err != nil {
		return nil, err
	}
	switch sel.Mode {
	case model.NodeModeFull:
		node := tx.Get(sel.NodeID)
		if err := ops.HideAt(tx, container, pos); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, e.reg, node); err != nil {
			return nil, err
		}
		if err := ops.Show(tx, container, []model.NodeID{textNode.ID}, pos); err != nil {
			return nil, err
		}
	case model.NodeModeBefore:
		if err := ops.Show(tx, container, []model.NodeID{textNode.ID}, pos); err != nil {
			return nil, err
		}
	default:
		if err := ops.Show(tx, container, []model.NodeID{textNode.ID}, pos+1); err != nil {
			return nil, err
		}
	}
	out := model.CursorAt(textPath(textNode), len(text)).WithContainer(container.ID)
	return e.commitSelection(tx, out)
}

// ============================================================================
// Deletion
// ============================================================================

// Delete removes the selection, or one grapheme next to a collapsed cursor.
func (e *Editor) Delete(tx *transaction.Transaction, dir Direction) (model.Selection, error) {
	switch sel := tx.Selection().(type) {
	case nil:
		return nil, ErrNoSelection
	case model.PropertySelection:
		node, err := e.selected(tx, sel)
		if err != nil {
			return nil, err
		}
		b := e.reg.For(node)
		var out model.Selection
		if sel.IsCollapsed() {
			container, _, _ := e.containerOf(tx, node)
			out, err = b.DeleteCharacter(tx, node, sel.Start, dir, container)
		} else {
			start, end := sel.Start, sel.End
			out, err = b.DeleteRange(tx, node, &start, &end, DeleteOptions{})
		}
		if err != nil {
			return nil, err
		}
		return e.commitSelection(tx, out)
	case model.ContainerSelection:
		out, err := e.deleteContainerRange(tx, sel)
		if err != nil {
			return nil, err
		}
		return e.commitSelection(tx, out)
	case model.NodeSelection:
		return e.deleteNodeSelection(tx, sel, dir)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSelection, sel.Kind())
	}
}

func (e *Editor) deleteContainerRange(tx *transaction.Transaction, sel model.ContainerSelection) (model.Selection, error) {
	container := tx.Get(sel.ContainerID)
	ops, ok := e.reg.Container(container)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, sel.ContainerID)
	}
	start, end := sel.Start, sel.End
	return ops.DeleteRange(tx, container, &start, &end, DeleteOptions{})
}

func (e *Editor) deleteNodeSelection(tx *transaction.Transaction, sel model.NodeSelection, dir Direction) (model.Selection, error) {
	container := tx.Get(sel.ContainerID)
	ops, ok := e.reg.Container(container)
	if !ok {
		return nil, fmt.Errorf("%w: node selection without container", ErrInvalidSelection)
	}
	prop := e.schema.ContentProperty(container.Type)
	pos := container.ChildPosition(prop, sel.NodeID)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s not in %s", ErrInvalidSelection, sel.NodeID, container.ID)
	}
	nc := model.NodeCoordinate(container.ID, pos)

	// A boundary cursor deletes the node itself when the deletion points at
	// it, and merges with the neighbor otherwise.
	deletesNode := sel.Mode == model.NodeModeFull ||
		(sel.Mode == model.NodeModeAfter && dir == DirLeft) ||
		(sel.Mode == model.NodeModeBefore && dir == DirRight)
	if deletesNode {
		out, err := ops.DeleteRange(tx, container, &nc, &nc, DeleteOptions{})
		if err != nil {
			return nil, err
		}
		return e.commitSelection(tx, out)
	}
	out, err := ops.Merge(tx, container, nc, dir)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return tx.Selection(), nil
	}
	return e.commitSelection(tx, out)
}

// ============================================================================
// Break
// ============================================================================

// Break splits the node under the cursor at the cursor, the editorial Enter.
// Range selections are deleted first.
func (e *Editor) Break(tx *transaction.Transaction) (model.Selection, error) {
	switch sel := tx.Selection().(type) {
	case nil:
		return nil, ErrNoSelection
	case model.PropertySelection:
		node, err := e.selected(tx, sel)
		if err != nil {
			return nil, err
		}
		start := sel.Start
		if !sel.IsCollapsed() {
			s, en := sel.Start, sel.End
			cur, err := e.reg.For(node).DeleteRange(tx, node, &s, &en, DeleteOptions{})
			if err != nil {
				return nil, err
			}
			if ps, ok := cur.(model.PropertySelection); ok {
				start = ps.Start
			}
		}
		container, ops, err := e.containerOf(tx, node)
		if err != nil {
			return nil, err
		}
		out, err := ops.Break(tx, container, start)
		if err != nil {
			return nil, err
		}
		return e.commitSelection(tx, out)
	case model.ContainerSelection:
		cur, err := e.deleteContainerRange(tx, sel)
		if err != nil {
			return nil, err
		}
		if _, err := e.commitSelection(tx, cur); err != nil {
			return nil, err
		}
		if _, ok := cur.(model.PropertySelection); ok {
			return e.Break(tx)
		}
		return cur, nil
	case model.NodeSelection:
		return e.breakAtNode(tx, sel)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSelection, sel.Kind())
	}
}

func (e *Editor) breakAtNode(tx *transaction.Transaction, sel model.NodeSelection) (model.Selection, error) {
	container := tx.Get(sel.ContainerID)
	ops, ok := e.reg.Container(container)
	if !ok {
		return nil, fmt.Errorf("%w: node selection without container", ErrInvalidSelection)
	}
	prop := e.schema.ContentProperty(container.Type)
	pos := container.ChildPosition(prop, sel.NodeID)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s not in %s", ErrInvalidSelection, sel.NodeID, container.ID)
	}
	at := pos + 1
	if sel.Mode == model.NodeModeBefore {
		at = pos
	}
	out, err := ops.Break(tx, container, model.NodeCoordinate(container.ID, at))
	if err != nil {
		return nil, err
	}
	return e.commitSelection(tx, out)
}

// ============================================================================
// Annotations and inline nodes
// ============================================================================

// Annotate lays an annotation of the given type over the selected text range
// and returns the created node.
func (e *Editor) Annotate(tx *transaction.Transaction, typ string, props map[string]any) (*model.Node, error) {
	sel, ok := tx.Selection().(model.PropertySelection)
	if !ok {
		return nil, fmt.Errorf("%w: annotation needs a property selection", ErrInvalidSelection)
	}
	if sel.IsCollapsed() {
		return nil, fmt.Errorf("%w: annotation needs a non-collapsed range", ErrInvalidSelection)
	}
	if !e.schema.IsAnnotation(typ) {
		return nil, fmt.Errorf("%w: %q has no annotation capability", schema.ErrUnknownType, typ)
	}
	start, end := sel.Start.Offset, sel.End.Offset
	if start > end {
		start, end = end, start
	}
	anno := model.NewAnnotation(typ, sel.ContainerID, sel.Path(), start, end)
	for k, v := range props {
		anno.Set(k, v)
	}
	if err := tx.Add(anno); err != nil {
		return nil, err
	}
	e.logger.Debug("annotated", "type", typ, "path", sel.Path().String(), "start", start, "end", end)
	return tx.Get(anno.ID), nil
}

// InsertInlineNode replaces the selection with the inline anchor character
// and lays an inline annotation of the given type over it.
func (e *Editor) InsertInlineNode(tx *transaction.Transaction, typ string, props map[string]any) (*model.Node, error) {
	sel, ok := tx.Selection().(model.PropertySelection)
	if !ok {
		return nil, fmt.Errorf("%w: inline node needs a property selection", ErrInvalidSelection)
	}
	spec, ok := e.schema.Spec(typ)
	if !ok || spec.Capability != schema.CapAnnotation || !spec.InlineNode {
		return nil, fmt.Errorf("%w: %q is not an inline node type", schema.ErrUnknownType, typ)
	}
	node, err := e.selected(tx, sel)
	if err != nil {
		return nil, err
	}
	cur, err := e.reg.For(node).ReplaceText(tx, node, sel.Start, sel.End, inlineAnchor)
	if err != nil {
		return nil, err
	}
	ps := cur.(model.PropertySelection)
	anno := model.NewAnnotation(typ, sel.ContainerID, sel.Path(), ps.Start.Offset-len(inlineAnchor), ps.Start.Offset)
	for k, v := range props {
		anno.Set(k, v)
	}
	if err := tx.Add(anno); err != nil {
		return nil, err
	}
	if _, err := e.commitSelection(tx, ps.WithContainer(sel.ContainerID)); err != nil {
		return nil, err
	}
	return tx.Get(anno.ID), nil
}

// ============================================================================
// Block insertion and paste
// ============================================================================

// InsertBlockNode inserts a block node at the cursor: before the current
// node at its start, after it at its end, and between the halves of a break
// in the middle. The inserted node becomes the selection.
func (e *Editor) InsertBlockNode(tx *transaction.Transaction, block *model.Node) (model.Selection, error) {
	if tx.Get(block.ID) == nil {
		if err := tx.Add(block); err != nil {
			return nil, err
		}
	}

	switch sel := tx.Selection().(type) {
	case nil:
		return nil, ErrNoSelection
	case model.PropertySelection:
		node, err := e.selected(tx, sel)
		if err != nil {
			return nil, err
		}
		container, ops, err := e.containerOf(tx, node)
		if err != nil {
			return nil, err
		}
		child, pos, err := directChild(tx, container, node.ID)
		if err != nil {
			return nil, err
		}
		at := pos
		switch {
		case sel.Start.Offset == 0:
			// before the current node
		case sel.Start.Offset >= child.TextLen():
			at = pos + 1
		default:
			if _, err := ops.Break(tx, container, sel.Start); err != nil {
				return nil, err
			}
			at = pos + 1
		}
		if err := ops.Show(tx, container, []model.NodeID{block.ID}, at); err != nil {
			return nil, err
		}
		return e.commitSelection(tx, model.NewNodeSelection(block.ID, container.ID))
	case model.NodeSelection:
		container := tx.Get(sel.ContainerID)
		ops, ok := e.reg.Container(container)
		if !ok {
			return nil, fmt.Errorf("%w: node selection without container", ErrInvalidSelection)
		}
		prop := e.schema.ContentProperty(container.Type)
		pos := container.ChildPosition(prop, sel.NodeID)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %s not in %s", ErrInvalidSelection, sel.NodeID, container.ID)
		}
		at := pos + 1
		if sel.Mode == model.NodeModeBefore {
			at = pos
		}
		if err := ops.Show(tx, container, []model.NodeID{block.ID}, at); err != nil {
			return nil, err
		}
		return e.commitSelection(tx, model.NewNodeSelection(block.ID, container.ID))
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSelection, sel.Kind())
	}
}

// Snippet is pasteable content: plain text, block nodes, or both. When both
// are present the text is ignored in favor of the nodes.
type Snippet struct {
	Text  string
	Nodes []*model.Node
}

// Paste inserts a snippet at the selection. The first node's text flows into
// the current text node when both are text; remaining nodes are inserted as
// blocks after it.
func (e *Editor) Paste(tx *transaction.Transaction, sn Snippet) (model.Selection, error) {
	if len(sn.Nodes) == 0 {
		return e.InsertText(tx, sn.Text)
	}

	nodes := sn.Nodes
	out := tx.Selection()
	if _, ok := out.(model.PropertySelection); ok && e.schema.Capability(nodes[0].Type) == schema.CapText {
		var err error
		out, err = e.InsertText(tx, nodes[0].Text())
		if err != nil {
			return nil, err
		}
		nodes = nodes[1:]
	}
	for _, n := range nodes {
		var err error
		out, err = e.InsertBlockNode(tx, n)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ============================================================================
// Type switching and lists
// ============================================================================

// SwitchTextType replaces the current text node with a new node of another
// text type, carrying content, annotations, and cursor position over.
func (e *Editor) SwitchTextType(tx *transaction.Transaction, typ string, props map[string]any) (*model.Node, error) {
	sel, ok := tx.Selection().(model.PropertySelection)
	if !ok {
		return nil, fmt.Errorf("%w: type switch needs a property selection", ErrInvalidSelection)
	}
	node, err := e.selected(tx, sel)
	if err != nil {
		return nil, err
	}
	if e.schema.Capability(typ) != schema.CapText {
		return nil, fmt.Errorf("%w: %q is not a text type", schema.ErrUnknownType, typ)
	}
	container, ops, err := e.containerOf(tx, node)
	if err != nil {
		return nil, err
	}
	prop := e.schema.ContentProperty(container.Type)
	pos := container.ChildPosition(prop, node.ID)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s not a direct child of %s", ErrInvalidSelection, node.ID, container.ID)
	}

	merged := map[string]any{model.PropContent: node.Text()}
	for k, v := range props {
		merged[k] = v
	}
	fresh, err := tx.CreateNode(typ, merged)
	if err != nil {
		return nil, err
	}
	if err := carryAnnotations(tx, textPath(node), textPath(fresh), 0); err != nil {
		return nil, err
	}
	if err := ops.HideAt(tx, container, pos); err != nil {
		return nil, err
	}
	if err := ops.Show(tx, container, []model.NodeID{fresh.ID}, pos); err != nil {
		return nil, err
	}
	if err := tx.Delete(node.ID); err != nil {
		return nil, err
	}

	out := model.NewPropertySelection(textPath(fresh), sel.Start.Offset, sel.End.Offset).WithContainer(container.ID)
	if _, err := e.commitSelection(tx, out); err != nil {
		return nil, err
	}
	return tx.Get(fresh.ID), nil
}

// Indent raises the indentation level of the current list item.
func (e *Editor) Indent(tx *transaction.Transaction) error { return e.changeLevel(tx, 1) }

// Dedent lowers the indentation level of the current list item.
func (e *Editor) Dedent(tx *transaction.Transaction) error { return e.changeLevel(tx, -1) }

// Levels are clamped to [1, 3].
const (
	minListLevel = 1
	maxListLevel = 3
)

func (e *Editor) changeLevel(tx *transaction.Transaction, delta int) error {
	sel, ok := tx.Selection().(model.PropertySelection)
	if !ok {
		return fmt.Errorf("%w: indent needs a property selection", ErrInvalidSelection)
	}
	node, err := e.selected(tx, sel)
	if err != nil {
		return err
	}
	parent := tx.Get(tx.Parent(node.ID))
	if parent == nil || e.schema.Capability(parent.Type) != schema.CapList {
		return ErrNotListItem
	}
	lvl := node.Int(model.PropLevel)
	if lvl < minListLevel {
		lvl = minListLevel
	}
	next := lvl + delta
	if next < minListLevel {
		next = minListLevel
	}
	if next > maxListLevel {
		next = maxListLevel
	}
	if next == lvl {
		return nil
	}
	return tx.Set(model.PropertyPath(node.ID, model.PropLevel), next)
}

// ToggleList converts the current text node into an item of a list of the
// given type, joining an adjacent list of that type when present, or
// extracts the current item back out of its list.
func (e *Editor) ToggleList(tx *transaction.Transaction, listType string) (model.Selection, error) {
	sel, ok := tx.Selection().(model.PropertySelection)
	if !ok {
		return nil, fmt.Errorf("%w: list toggle needs a property selection", ErrInvalidSelection)
	}
	node, err := e.selected(tx, sel)
	if err != nil {
		return nil, err
	}
	parent := tx.Get(tx.Parent(node.ID))
	if parent != nil && e.schema.Capability(parent.Type) == schema.CapList {
		return e.extractFromList(tx, parent, node, sel)
	}
	if e.schema.Capability(listType) != schema.CapList {
		return nil, fmt.Errorf("%w: %q is not a list type", schema.ErrUnknownType, listType)
	}
	return e.wrapIntoList(tx, listType, node, sel)
}

func (e *Editor) wrapIntoList(tx *transaction.Transaction, listType string, node *model.Node, sel model.PropertySelection) (model.Selection, error) {
	container, ops, err := e.containerOf(tx, node)
	if err != nil {
		return nil, err
	}
	prop := e.schema.ContentProperty(container.Type)
	pos := container.ChildPosition(prop, node.ID)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s not a direct child of %s", ErrInvalidSelection, node.ID, container.ID)
	}

	if err := tx.Set(model.PropertyPath(node.ID, model.PropLevel), minListLevel); err != nil {
		return nil, err
	}
	if err := ops.HideAt(tx, container, pos); err != nil {
		return nil, err
	}

	// Join the preceding list of the same type instead of starting a new one.
	if pos > 0 {
		prev := tx.Get(container.Children(prop)[pos-1])
		if prev != nil && prev.Type == listType {
			lops, _ := e.reg.Container(prev)
			if err := lops.Show(tx, prev, []model.NodeID{node.ID}, -1); err != nil {
				return nil, err
			}
			return e.commitSelection(tx, sel)
		}
	}

	list, err := ops.CreateFromNodes(tx, listType, []model.NodeID{node.ID})
	if err != nil {
		return nil, err
	}
	if err := tx.Add(list); err != nil {
		return nil, err
	}
	if err := ops.Show(tx, container, []model.NodeID{list.ID}, pos); err != nil {
		return nil, err
	}
	return e.commitSelection(tx, sel)
}

func (e *Editor) extractFromList(tx *transaction.Transaction, list, item *model.Node, sel model.PropertySelection) (model.Selection, error) {
	parent, pops, err := e.containerOf(tx, list)
	if err != nil {
		return nil, err
	}
	lops, ok := e.reg.Container(list)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, list.Type)
	}
	listProp := e.schema.ContentProperty(list.Type)
	parentProp := e.schema.ContentProperty(parent.Type)
	pos := list.ChildPosition(listProp, item.ID)
	listPos := parent.ChildPosition(parentProp, list.ID)
	if pos < 0 || listPos < 0 {
		return nil, fmt.Errorf("%w: list structure does not resolve", ErrInternalInconsistency)
	}

	count := list.ChildCount(listProp)
	switch {
	case pos == count-1:
		if err := lops.HideAt(tx, list, pos); err != nil {
			return nil, err
		}
		if err := pops.Show(tx, parent, []model.NodeID{item.ID}, listPos+1); err != nil {
			return nil, err
		}
	case pos == 0:
		if err := lops.HideAt(tx, list, 0); err != nil {
			return nil, err
		}
		if err := pops.Show(tx, parent, []model.NodeID{item.ID}, listPos); err != nil {
			return nil, err
		}
	default:
		half, err := lops.SplitNode(tx, list, model.NodeCoordinate(list.ID, pos+1), SplitOptions{})
		if err != nil {
			return nil, err
		}
		if err := lops.HideAt(tx, list, pos); err != nil {
			return nil, err
		}
		if err := pops.Show(tx, parent, []model.NodeID{item.ID, half.After.ID}, listPos+1); err != nil {
			return nil, err
		}
	}
	if err := tx.Set(model.PropertyPath(item.ID, model.PropLevel), nil); err != nil {
		return nil, err
	}
	if list.ChildCount(listProp) == 0 {
		if err := pops.Hide(tx, parent, list.ID); err != nil {
			return nil, err
		}
		if err := deleteNodeDeep(tx, e.reg, list); err != nil {
			return nil, err
		}
	}
	return e.commitSelection(tx, sel)
}
