package docforge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/docforge/internal/changestore"
	"github.com/dshills/docforge/internal/document"
	"github.com/dshills/docforge/internal/editing"
	"github.com/dshills/docforge/internal/event"
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
	"github.com/dshills/docforge/internal/transaction"
)

// Re-export commonly used types for convenience.
type (
	// NodeID identifies a node.
	NodeID = model.NodeID

	// Node is a typed record with a property bag.
	Node = model.Node

	// Path addresses a node or one of its properties.
	Path = model.Path

	// Coordinate is a position inside a document.
	Coordinate = model.Coordinate

	// Selection is the closed set of selection variants.
	Selection = model.Selection

	// PropertySelection is a range inside one node property.
	PropertySelection = model.PropertySelection

	// ContainerSelection is a range across children of a container.
	ContainerSelection = model.ContainerSelection

	// NodeSelection addresses a whole node within a container.
	NodeSelection = model.NodeSelection

	// Schema describes the node types a document may contain.
	Schema = schema.Schema

	// NodeSpec describes one node type.
	NodeSpec = schema.NodeSpec

	// Capability classifies a node type for behavior dispatch.
	Capability = schema.Capability

	// Operation is a primitive, invertible document mutation.
	Operation = operation.Operation

	// Diff is an incremental change to a property.
	Diff = operation.Diff

	// Document is the in-memory state of a structured document.
	Document = document.Document

	// Transaction is the mutable view handed to a transformation.
	Transaction = transaction.Transaction

	// Session serializes transactions against one document.
	Session = transaction.Session

	// Change is an immutable batch of operations, the unit of history.
	Change = transaction.Change

	// Editor dispatches editing operations on the current selection.
	Editor = editing.Editor

	// Direction distinguishes backward from forward deletion.
	Direction = editing.Direction

	// Behavior is the per-node-type editing contract.
	Behavior = editing.Behavior

	// Snippet is pasteable content.
	Snippet = editing.Snippet

	// Store persists documents as append-only change logs.
	Store = changestore.Store

	// DocumentInfo is the stored metadata of a document.
	DocumentInfo = changestore.DocumentInfo

	// ChangeEvent is a committed change published on the engine's bus.
	ChangeEvent = event.ChangeEvent

	// Subscription is an active change-event registration.
	Subscription = event.Subscription
)

// Re-export constants.
const (
	CapDefault    = schema.CapDefault
	CapText       = schema.CapText
	CapContainer  = schema.CapContainer
	CapList       = schema.CapList
	CapAnnotation = schema.CapAnnotation
	CapCustom     = schema.CapCustom

	DirLeft  = editing.DirLeft
	DirRight = editing.DirRight

	PropContent = model.PropContent
	PropLevel   = model.PropLevel
)

// Re-export constructors.
var (
	// NewSchema creates an empty schema.
	NewSchema = schema.New

	// LoadSchema reads a schema definition from a reader.
	LoadSchema = schema.Load

	// LoadSchemaFile reads a schema definition from a YAML file.
	LoadSchemaFile = schema.LoadFile

	// NewNode creates a node with a fresh id.
	NewNode = model.NewNode

	// Cursor creates a collapsed selection at a coordinate.
	Cursor = model.Cursor

	// CursorAt creates a collapsed selection at path:offset.
	CursorAt = model.CursorAt

	// NewMemoryStore creates an in-memory change store.
	NewMemoryStore = changestore.NewMemory

	// OpenStore opens a SQLite-backed change store.
	OpenStore = changestore.Open
)

// Engine ties a schema, an editor, and a change store together. One engine
// serves any number of documents of its schema; per-document state lives in
// the Handle.
type Engine struct {
	schema     *schema.Schema
	editor     *editing.Editor
	store      changestore.Store
	events     *event.Bus
	logger     *slog.Logger
	editorOpts []editing.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the change store. The default is an in-memory store.
func WithStore(st changestore.Store) Option {
	return func(e *Engine) {
		if st != nil {
			e.store = st
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEditorOptions passes options through to the engine's editor.
func WithEditorOptions(opts ...editing.Option) Option {
	return func(e *Engine) {
		e.editorOpts = append(e.editorOpts, opts...)
	}
}

// New creates an engine for a schema.
func New(sc *Schema, opts ...Option) *Engine {
	e := &Engine{
		schema: sc,
		store:  changestore.NewMemory(),
		events: event.NewBus(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.editor = editing.New(sc, append(e.editorOpts, editing.WithLogger(e.logger))...)
	return e
}

// Schema returns the engine's schema.
func (e *Engine) Schema() *Schema { return e.schema }

// Editor returns the engine's editor.
func (e *Engine) Editor() *Editor { return e.editor }

// Store returns the engine's change store.
func (e *Engine) Store() Store { return e.store }

// Subscribe registers a handler for a document's committed changes, or for
// every document's when docID is empty. Handlers run on the committing
// goroutine and must not block.
func (e *Engine) Subscribe(docID string, h func(ChangeEvent)) (*Subscription, error) {
	return e.events.Subscribe(docID, h)
}

// Close releases the change store and cancels every subscription.
func (e *Engine) Close() error {
	e.events.Close()
	return e.store.Close()
}

// CreateDocument creates a document in the store, seeds it with the minimal
// valid state (root container plus one empty text node), and returns an open
// handle at version 1.
func (e *Engine) CreateDocument(ctx context.Context, id string) (*Handle, error) {
	if _, err := e.store.CreateDocument(ctx, id, e.schema.Name(), e.schema.ID(), changestore.DefaultSeed(e.schema)); err != nil {
		return nil, err
	}
	return e.OpenDocument(ctx, id)
}

// OpenDocument replays a document's change log into a fresh session.
func (e *Engine) OpenDocument(ctx context.Context, id string) (*Handle, error) {
	changes, version, err := e.store.GetChanges(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	session, err := transaction.FromChanges(e.schema, changes, transaction.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", id, err)
	}
	if len(changes) > 0 {
		if sel := changes[len(changes)-1].After.Selection; sel != nil {
			if err := session.SetSelection(sel); err != nil {
				return nil, fmt.Errorf("open %s: %w", id, err)
			}
		}
	}
	if session.Version() != version {
		return nil, fmt.Errorf("open %s: replayed %d changes but store is at %d", id, session.Version(), version)
	}
	return &Handle{id: id, engine: e, session: session}, nil
}

// Materialize replays a change log into a bare document, without a session.
func Materialize(sc *Schema, changes []Change) (*Document, error) {
	var ops []operation.Operation
	for _, c := range changes {
		ops = append(ops, c.Ops...)
	}
	return document.FromOperations(sc, ops)
}

// Handle is an open document: a session over the replayed state plus the
// store binding that persists each committed change.
type Handle struct {
	id      string
	engine  *Engine
	session *transaction.Session
}

// ID returns the document id.
func (h *Handle) ID() string { return h.id }

// Version returns the current version (the change count).
func (h *Handle) Version() int { return h.session.Version() }

// Document returns the authoritative in-memory document.
func (h *Handle) Document() *Document { return h.session.Document() }

// Session returns the underlying session.
func (h *Handle) Session() *Session { return h.session }

// Selection returns the current selection.
func (h *Handle) Selection() Selection { return h.session.Selection() }

// SetSelection replaces the current selection.
func (h *Handle) SetSelection(sel Selection) error { return h.session.SetSelection(sel) }

// Edit runs a transformation in a transaction and, on success, appends the
// resulting change to the store. Empty transformations are not persisted and
// do not advance the version.
func (h *Handle) Edit(ctx context.Context, fn func(tx *Transaction, ed *Editor) error) (Change, error) {
	change, err := h.session.Transact(func(tx *Transaction) error {
		return fn(tx, h.engine.editor)
	})
	if err != nil {
		return Change{}, err
	}
	if change.IsEmpty() {
		return change, nil
	}
	if _, err := h.engine.store.AddChange(ctx, h.id, h.session.Version()-1, change); err != nil {
		// Keep the session consistent with the store: undo the local commit.
		if rerr := h.session.Revert(change); rerr != nil {
			h.engine.logger.Error("revert after failed persist", "doc", h.id, "error", rerr)
		}
		return Change{}, fmt.Errorf("persist change: %w", err)
	}
	h.engine.events.Publish(event.ChangeEvent{
		DocID:   h.id,
		Version: h.session.Version(),
		Change:  change,
		Time:    change.CreatedAt,
	})
	return change, nil
}

// Pull applies changes other writers have appended since this handle's
// version. Returns the number of changes applied.
func (h *Handle) Pull(ctx context.Context) (int, error) {
	changes, _, err := h.engine.store.GetChanges(ctx, h.id, h.session.Version())
	if err != nil {
		return 0, err
	}
	for i, c := range changes {
		if err := h.session.ApplyRemote(c); err != nil {
			return i, fmt.Errorf("apply change %s: %w", c.ID, err)
		}
	}
	return len(changes), nil
}

// History returns the full change log and the current stored version.
func (h *Handle) History(ctx context.Context) ([]Change, int, error) {
	return h.engine.store.GetChanges(ctx, h.id, 0)
}

// PlainText flattens the document to text: the content of the root's text
// children joined by newlines, list items prefixed by indented bullets.
func (h *Handle) PlainText() string {
	doc := h.session.Document()
	root := doc.Root()
	if root == nil {
		return ""
	}
	var b strings.Builder
	sc := h.engine.schema
	for _, id := range root.Children(sc.ContentProperty(root.Type)) {
		node := doc.Get(id)
		if node == nil {
			continue
		}
		if prop := sc.ContentProperty(node.Type); prop != "" {
			for _, itemID := range node.Children(prop) {
				item := doc.Get(itemID)
				if item == nil {
					continue
				}
				lvl := item.Int(model.PropLevel)
				if lvl < 1 {
					lvl = 1
				}
				b.WriteString(strings.Repeat("  ", lvl-1))
				b.WriteString("- ")
				b.WriteString(item.Text())
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteString(node.Text())
		b.WriteByte('\n')
	}
	return b.String()
}
