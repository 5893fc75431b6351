package operation

import (
	"fmt"

	"github.com/dshills/docforge/internal/model"
)

// DiffKind identifies the diff variant of an update operation.
type DiffKind uint8

const (
	// TextInsert inserts text into a string property.
	TextInsert DiffKind = iota

	// TextDelete removes text from a string property.
	TextDelete

	// ListInsert inserts a node id into a child sequence.
	ListInsert

	// ListDelete removes a node id from a child sequence.
	ListDelete
)

// String returns the diff kind tag used in serialized form.
func (k DiffKind) String() string {
	switch k {
	case TextInsert:
		return "text+"
	case TextDelete:
		return "text-"
	case ListInsert:
		return "list+"
	case ListDelete:
		return "list-"
	default:
		return "unknown"
	}
}

// Diff is an invertible incremental change to a property.
// Text diffs carry the affected text (deletions record what was removed so
// the inverse can restore it); list diffs carry the affected node id.
type Diff struct {
	Kind   DiffKind
	Offset int
	Text   string
	ID     model.NodeID
}

// InsertText returns a diff inserting text at a byte offset.
func InsertText(offset int, text string) Diff {
	return Diff{Kind: TextInsert, Offset: offset, Text: text}
}

// DeleteText returns a diff removing the given text at a byte offset.
// The text must match the property content at that offset.
func DeleteText(offset int, text string) Diff {
	return Diff{Kind: TextDelete, Offset: offset, Text: text}
}

// InsertAt returns a diff inserting a node id at a sequence position.
func InsertAt(position int, id model.NodeID) Diff {
	return Diff{Kind: ListInsert, Offset: position, ID: id}
}

// DeleteAt returns a diff removing a node id at a sequence position.
func DeleteAt(position int, id model.NodeID) Diff {
	return Diff{Kind: ListDelete, Offset: position, ID: id}
}

// Invert returns the diff that undoes this one.
func (d Diff) Invert() Diff {
	switch d.Kind {
	case TextInsert:
		return Diff{Kind: TextDelete, Offset: d.Offset, Text: d.Text}
	case TextDelete:
		return Diff{Kind: TextInsert, Offset: d.Offset, Text: d.Text}
	case ListInsert:
		return Diff{Kind: ListDelete, Offset: d.Offset, ID: d.ID}
	case ListDelete:
		return Diff{Kind: ListInsert, Offset: d.Offset, ID: d.ID}
	default:
		return d
	}
}

// Delta returns the change in text length caused by the diff, in bytes.
// List diffs report the change in sequence length instead.
func (d Diff) Delta() int {
	switch d.Kind {
	case TextInsert:
		return len(d.Text)
	case TextDelete:
		return -len(d.Text)
	case ListInsert:
		return 1
	case ListDelete:
		return -1
	default:
		return 0
	}
}

// String returns a human-readable representation.
func (d Diff) String() string {
	switch d.Kind {
	case TextInsert, TextDelete:
		return fmt.Sprintf("%s@%d %q", d.Kind, d.Offset, d.Text)
	case ListInsert, ListDelete:
		return fmt.Sprintf("%s@%d %s", d.Kind, d.Offset, d.ID)
	default:
		return "unknown"
	}
}
