package document

import "errors"

// Errors returned by document operations.
var (
	// ErrNodeNotFound indicates a node id that does not resolve.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNodeExists indicates a create for an id already in the document.
	ErrNodeExists = errors.New("node already exists")

	// ErrPropertyType indicates a diff applied to a property of the wrong type.
	ErrPropertyType = errors.New("property has wrong type for diff")

	// ErrOffsetOutOfRange indicates an offset outside the valid range of the
	// targeted property.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrTextMismatch indicates a text deletion whose recorded text does not
	// match the property content, which would make the diff non-invertible.
	ErrTextMismatch = errors.New("deleted text does not match property content")

	// ErrNotNodePath indicates an operation whose path shape does not match
	// its kind (e.g. create with a property path).
	ErrNotNodePath = errors.New("operation path does not address expected target")
)
