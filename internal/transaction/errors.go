package transaction

import "errors"

// Errors returned by the transaction layer.
var (
	// ErrNestedTransaction indicates Transact was called while a transaction
	// was already active on the same session.
	ErrNestedTransaction = errors.New("nested transactions are not supported")

	// ErrTransformPanic wraps a panic raised inside a transformation.
	// The transaction has been rolled back when this is returned.
	ErrTransformPanic = errors.New("transformation panicked")

	// ErrRollbackFailed indicates an inverse operation failed during
	// rollback, leaving the staging document in an undefined state.
	ErrRollbackFailed = errors.New("rollback failed")

	// ErrStaleSelection indicates a selection referencing nodes that no
	// longer exist in the document.
	ErrStaleSelection = errors.New("selection references missing nodes")
)
