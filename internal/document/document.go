package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
)

// Observer is notified after an operation has been applied.
// Observers must not mutate the document; they maintain derived state only.
type Observer func(op operation.Operation)

// Document is the in-memory state of a structured document.
// It is not safe for concurrent use; the transaction layer serializes access.
type Document struct {
	schema    *schema.Schema
	nodes     map[model.NodeID]*model.Node
	parents   *ParentTracker
	observers []Observer
}

// New creates an empty document for the given schema.
func New(s *schema.Schema) *Document {
	d := &Document{
		schema: s,
		nodes:  make(map[model.NodeID]*model.Node),
	}
	d.parents = newParentTracker(s)
	d.Observe(d.parents.observe)
	return d
}

// FromOperations materializes a document by applying every operation in
// order, starting from an empty instance.
func FromOperations(s *schema.Schema, ops []operation.Operation) (*Document, error) {
	d := New(s)
	for i, op := range ops {
		if err := d.Apply(op); err != nil {
			return nil, fmt.Errorf("apply operation %d (%s): %w", i, op, err)
		}
	}
	return d, nil
}

// Schema returns the document's schema.
func (d *Document) Schema() *schema.Schema { return d.schema }

// Observe registers an observer for applied operations.
func (d *Document) Observe(fn Observer) {
	d.observers = append(d.observers, fn)
}

// Get returns a node by id, or nil if absent.
func (d *Document) Get(id model.NodeID) *model.Node {
	return d.nodes[id]
}

// Has reports whether a node id resolves.
func (d *Document) Has(id model.NodeID) bool {
	_, ok := d.nodes[id]
	return ok
}

// Len returns the number of nodes in the document.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Parent returns the derived structural parent of a node, or "" if the node
// is unattached or the root.
func (d *Document) Parent(id model.NodeID) model.NodeID {
	return d.parents.Parent(id)
}

// RebuildParents recomputes the parent side table from document structure.
// Used after bulk loads; incremental maintenance covers normal operation.
func (d *Document) RebuildParents() {
	d.parents.Rebuild(d.nodes)
}

// Root returns the document's root container node, or nil if the document is
// empty. The root is the unique node of the schema's root type.
func (d *Document) Root() *model.Node {
	for _, n := range d.nodes {
		if n.Type == d.schema.RootType() {
			return n
		}
	}
	return nil
}

// Resolve returns the node addressed by a path.
func (d *Document) Resolve(path model.Path) (*model.Node, error) {
	n := d.nodes[path.NodeID()]
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path.NodeID())
	}
	return n, nil
}

// Text returns the string content of a property path.
func (d *Document) Text(path model.Path) (string, error) {
	n, err := d.Resolve(path)
	if err != nil {
		return "", err
	}
	s, ok := n.Props[path.Property()].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not text", ErrPropertyType, path)
	}
	return s, nil
}

// Annotations returns all annotation nodes anchored on the given property
// path, ordered by start offset (ties broken by id for determinism).
func (d *Document) Annotations(path model.Path) []*model.Node {
	var out []*model.Node
	for _, n := range d.nodes {
		if !d.schema.IsAnnotation(n.Type) {
			continue
		}
		if model.IsAnnotationOn(n, path) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := model.AnnotationStart(out[i]).Offset, model.AnnotationStart(out[j]).Offset
		if si != sj {
			return si < sj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Clone returns a deep copy of the document, including derived parent state.
// Observers are not carried over.
func (d *Document) Clone() *Document {
	c := New(d.schema)
	for id, n := range d.nodes {
		c.nodes[id] = n.Clone()
	}
	c.RebuildParents()
	return c
}

// ContentHash returns a deterministic fingerprint of document content,
// used by tests to assert rollback atomicity.
func (d *Document) ContentHash() string {
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		n := d.nodes[model.NodeID(id)]
		fmt.Fprintf(&b, "%s|%s|%v;", n.ID, n.Type, sortedProps(n))
	}
	return b.String()
}

func sortedProps(n *model.Node) string {
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v,", k, n.Props[k])
	}
	return b.String()
}

// ============================================================================
// Operation application
// ============================================================================

// Apply performs an operation against the document and notifies observers.
// The operation must be valid for the current state; on error the document is
// unchanged.
func (d *Document) Apply(op operation.Operation) error {
	var err error
	switch op.Kind {
	case operation.OpCreate:
		err = d.applyCreate(op)
	case operation.OpDelete:
		err = d.applyDelete(op)
	case operation.OpUpdate:
		err = d.applyUpdate(op)
	case operation.OpSet:
		err = d.applySet(op)
	default:
		err = fmt.Errorf("unknown operation kind %d", op.Kind)
	}
	if err != nil {
		return err
	}
	for _, fn := range d.observers {
		fn(op)
	}
	return nil
}

func (d *Document) applyCreate(op operation.Operation) error {
	if op.Node == nil || !op.Path.IsNode() {
		return fmt.Errorf("%w: create needs a node path and payload", ErrNotNodePath)
	}
	if _, exists := d.nodes[op.Node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrNodeExists, op.Node.ID)
	}
	d.nodes[op.Node.ID] = op.Node.Clone()
	return nil
}

func (d *Document) applyDelete(op operation.Operation) error {
	id := op.Path.NodeID()
	if _, exists := d.nodes[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	delete(d.nodes, id)
	return nil
}

func (d *Document) applyUpdate(op operation.Operation) error {
	if !op.Path.IsProperty() {
		return fmt.Errorf("%w: update needs a property path", ErrNotNodePath)
	}
	n := d.nodes[op.Path.NodeID()]
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, op.Path.NodeID())
	}
	prop := op.Path.Property()

	switch op.Diff.Kind {
	case operation.TextInsert, operation.TextDelete:
		return applyTextDiff(n, prop, op.Diff)
	case operation.ListInsert, operation.ListDelete:
		return applyListDiff(n, prop, op.Diff)
	default:
		return fmt.Errorf("unknown diff kind %d", op.Diff.Kind)
	}
}

func applyTextDiff(n *model.Node, prop string, diff operation.Diff) error {
	text, ok := n.Props[prop].(string)
	if !ok {
		if _, present := n.Props[prop]; present {
			return fmt.Errorf("%w: %s.%s", ErrPropertyType, n.ID, prop)
		}
		text = ""
	}

	switch diff.Kind {
	case operation.TextInsert:
		if diff.Offset < 0 || diff.Offset > len(text) {
			return fmt.Errorf("%w: insert at %d in %d bytes", ErrOffsetOutOfRange, diff.Offset, len(text))
		}
		n.Props[prop] = text[:diff.Offset] + diff.Text + text[diff.Offset:]
	case operation.TextDelete:
		end := diff.Offset + len(diff.Text)
		if diff.Offset < 0 || end > len(text) {
			return fmt.Errorf("%w: delete [%d:%d) in %d bytes", ErrOffsetOutOfRange, diff.Offset, end, len(text))
		}
		if text[diff.Offset:end] != diff.Text {
			return fmt.Errorf("%w: at %s.%s offset %d", ErrTextMismatch, n.ID, prop, diff.Offset)
		}
		n.Props[prop] = text[:diff.Offset] + text[end:]
	}
	return nil
}

func applyListDiff(n *model.Node, prop string, diff operation.Diff) error {
	ids, ok := n.Props[prop].([]model.NodeID)
	if !ok {
		if _, present := n.Props[prop]; present {
			return fmt.Errorf("%w: %s.%s", ErrPropertyType, n.ID, prop)
		}
		ids = nil
	}

	switch diff.Kind {
	case operation.ListInsert:
		if diff.Offset < 0 || diff.Offset > len(ids) {
			return fmt.Errorf("%w: insert at %d in %d children", ErrOffsetOutOfRange, diff.Offset, len(ids))
		}
		out := make([]model.NodeID, 0, len(ids)+1)
		out = append(out, ids[:diff.Offset]...)
		out = append(out, diff.ID)
		out = append(out, ids[diff.Offset:]...)
		n.Props[prop] = out
	case operation.ListDelete:
		if diff.Offset < 0 || diff.Offset >= len(ids) {
			return fmt.Errorf("%w: delete at %d in %d children", ErrOffsetOutOfRange, diff.Offset, len(ids))
		}
		if ids[diff.Offset] != diff.ID {
			return fmt.Errorf("%w: child at %d is %s, not %s", ErrTextMismatch, diff.Offset, ids[diff.Offset], diff.ID)
		}
		out := make([]model.NodeID, 0, len(ids)-1)
		out = append(out, ids[:diff.Offset]...)
		out = append(out, ids[diff.Offset+1:]...)
		n.Props[prop] = out
	}
	return nil
}

func (d *Document) applySet(op operation.Operation) error {
	if !op.Path.IsProperty() {
		return fmt.Errorf("%w: set needs a property path", ErrNotNodePath)
	}
	n := d.nodes[op.Path.NodeID()]
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, op.Path.NodeID())
	}
	if op.Value == nil {
		delete(n.Props, op.Path.Property())
	} else {
		n.Props[op.Path.Property()] = op.Value
	}
	return nil
}

// ============================================================================
// Typed mutators — build the operation, apply it, and return it for recording
// ============================================================================

// Create adds a node and returns the recorded operation.
func (d *Document) Create(node *model.Node) (operation.Operation, error) {
	op := operation.Create(node)
	if err := d.Apply(op); err != nil {
		return operation.Operation{}, err
	}
	return op, nil
}

// DeleteNode removes a node and returns the recorded operation.
func (d *Document) DeleteNode(id model.NodeID) (operation.Operation, error) {
	n := d.nodes[id]
	if n == nil {
		return operation.Operation{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	op := operation.Delete(n)
	if err := d.Apply(op); err != nil {
		return operation.Operation{}, err
	}
	return op, nil
}

// Update applies a diff to a property and returns the recorded operation.
func (d *Document) Update(path model.Path, diff operation.Diff) (operation.Operation, error) {
	op := operation.Update(path, diff)
	if err := d.Apply(op); err != nil {
		return operation.Operation{}, err
	}
	return op, nil
}

// Set replaces a property value and returns the recorded operation.
// The previous value is captured for inversion.
func (d *Document) Set(path model.Path, value any) (operation.Operation, error) {
	n := d.nodes[path.NodeID()]
	if n == nil {
		return operation.Operation{}, fmt.Errorf("%w: %s", ErrNodeNotFound, path.NodeID())
	}
	old := n.Props[path.Property()]
	op := operation.Set(path, value, old)
	if err := d.Apply(op); err != nil {
		return operation.Operation{}, err
	}
	return op, nil
}
