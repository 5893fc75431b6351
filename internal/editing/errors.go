package editing

import (
	"errors"
	"fmt"
)

// Errors returned by editing operations.
var (
	// ErrUnsupportedOperation indicates an operation a node type does not
	// support (e.g. break on a node without break support).
	ErrUnsupportedOperation = errors.New("operation not supported by node type")

	// ErrNoSelection indicates an operation that requires a selection was
	// called without one.
	ErrNoSelection = errors.New("no selection")

	// ErrInvalidSelection indicates a selection kind the operation cannot
	// dispatch on.
	ErrInvalidSelection = errors.New("selection not applicable to operation")

	// ErrInvalidRange indicates a delete range with no usable bounds.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNotContainer indicates a container operation on a node without a
	// child sequence.
	ErrNotContainer = errors.New("node is not a container")

	// ErrNoContainer indicates a node with no enclosing container.
	ErrNoContainer = errors.New("node has no enclosing container")

	// ErrNotListItem indicates an indent/dedent outside a list item.
	ErrNotListItem = errors.New("selection is not inside a list item")

	// ErrInternalInconsistency indicates an invariant breach inside the
	// editing core, such as an annotation falling outside the exhaustive
	// shift case analysis.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// unsupported builds a capability error naming the offending node type.
func unsupported(op, nodeType string) error {
	return fmt.Errorf("%w: %s on %q", ErrUnsupportedOperation, op, nodeType)
}
