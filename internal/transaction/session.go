package transaction

import (
	"fmt"
	"log/slog"

	"github.com/dshills/docforge/internal/document"
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
)

// Session owns exclusive access to one document: the authoritative copy, a
// private staging copy for transactions, and the current selection.
//
// Sessions are single-threaded and non-reentrant. Operations applied to the
// authoritative document from outside a transaction (remote changes) are
// queued and replayed into the staging copy before the next transaction
// begins, so the stage always starts consistent with the authoritative state.
type Session struct {
	schema    *schema.Schema
	doc       *document.Document
	stage     *document.Document
	pending   operation.List
	selection model.Selection
	version   int
	inTx      bool
	logger    *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger attaches a structured logger for session diagnostics.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates a session over an empty document.
func NewSession(sc *schema.Schema, opts ...SessionOption) *Session {
	s := &Session{
		schema: sc,
		doc:    document.New(sc),
		stage:  document.New(sc),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromChanges creates a session by replaying a change history from version 0.
func FromChanges(sc *schema.Schema, changes []Change, opts ...SessionOption) (*Session, error) {
	s := NewSession(sc, opts...)
	for i, c := range changes {
		for _, op := range c.Ops {
			if err := s.doc.Apply(op); err != nil {
				return nil, fmt.Errorf("replay change %d: %w", i, err)
			}
			if err := s.stage.Apply(op); err != nil {
				return nil, fmt.Errorf("replay change %d into stage: %w", i, err)
			}
		}
		s.version++
	}
	return s, nil
}

// Document returns the authoritative document. Callers must treat it as
// read-only; all mutation goes through Transact or ApplyRemote.
func (s *Session) Document() *document.Document { return s.doc }

// Schema returns the session's schema.
func (s *Session) Schema() *schema.Schema { return s.schema }

// Version returns the number of changes applied since creation.
func (s *Session) Version() int { return s.version }

// Selection returns the current selection.
func (s *Session) Selection() model.Selection { return s.selection }

// SetSelection replaces the current selection. Stale selections referencing
// deleted nodes are rejected.
func (s *Session) SetSelection(sel model.Selection) error {
	if err := validateSelection(s.doc, sel); err != nil {
		return err
	}
	s.selection = sel
	return nil
}

// ApplyRemote applies a change produced elsewhere to the authoritative
// document. The operations are queued for replay into the staging copy
// before the next transaction.
func (s *Session) ApplyRemote(c Change) error {
	if s.inTx {
		return fmt.Errorf("%w: remote change during active transaction", ErrNestedTransaction)
	}
	for i, op := range c.Ops {
		if err := s.doc.Apply(op); err != nil {
			return fmt.Errorf("apply remote op %d: %w", i, err)
		}
	}
	s.pending = append(s.pending, c.Ops...)
	s.version++
	return nil
}

// Revert undoes a change just committed by Transact, restoring the previous
// version, document state, and selection. Intended for callers that persist
// committed changes externally and must fall back when persistence fails.
func (s *Session) Revert(c Change) error {
	if s.inTx {
		return fmt.Errorf("%w: revert during active transaction", ErrNestedTransaction)
	}
	if err := s.Sync(); err != nil {
		return err
	}
	for i, op := range c.Ops.Invert() {
		if err := s.doc.Apply(op); err != nil {
			return fmt.Errorf("revert op %d: %w", i, err)
		}
		if err := s.stage.Apply(op); err != nil {
			return fmt.Errorf("revert op %d in stage: %w", i, err)
		}
	}
	s.version--
	s.selection = nil
	if sel := c.Before.Selection; sel != nil && validateSelection(s.doc, sel) == nil {
		s.selection = sel
	}
	return nil
}

// Sync folds queued remote operations into the staging copy. Transact calls
// this automatically; it is exported for callers that want a consistent
// stage without transacting.
func (s *Session) Sync() error {
	for i, op := range s.pending {
		if err := s.stage.Apply(op); err != nil {
			return fmt.Errorf("sync op %d into stage: %w", i, err)
		}
	}
	s.pending = nil
	return nil
}

// Transact runs a transformation against the staging copy. On success the
// recorded operations are applied to the authoritative document and frozen
// into a Change; the session selection becomes the transaction's selection.
// On error or panic every recorded operation is undone in reverse order and
// the document is left exactly as it was.
//
// Starting a transaction while one is active fails with
// ErrNestedTransaction. An empty transformation yields an empty Change and
// does not advance the version.
func (s *Session) Transact(fn func(*Transaction) error) (Change, error) {
	if s.inTx {
		return Change{}, ErrNestedTransaction
	}
	s.inTx = true
	defer func() { s.inTx = false }()

	if err := s.Sync(); err != nil {
		return Change{}, err
	}

	tx := newTransaction(s.stage, s.selection)
	if err := runTransform(fn, tx); err != nil {
		if rbErr := tx.rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
			return Change{}, rbErr
		}
		return Change{}, err
	}

	if len(tx.ops) == 0 {
		s.selection = tx.selection
		return Change{}, nil
	}

	for i, op := range tx.ops {
		if err := s.doc.Apply(op); err != nil {
			// Stage and authoritative copy have diverged; this is not
			// recoverable by rollback.
			return Change{}, fmt.Errorf("commit op %d (%s): %w", i, op, err)
		}
	}

	s.selection = tx.selection
	s.version++

	change := NewChange(tx.ops, tx.before, State{Selection: tx.selection})
	s.logger.Debug("transaction committed",
		"ops", len(change.Ops),
		"version", s.version,
	)
	return change, nil
}

// runTransform executes the transformation, converting panics into errors so
// the caller's rollback path always runs.
func runTransform(fn func(*Transaction) error, tx *Transaction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTransformPanic, r)
		}
	}()
	return fn(tx)
}
