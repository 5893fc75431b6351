package model

import "fmt"

// SelectionKind identifies the variant of a Selection.
type SelectionKind uint8

const (
	// SelectionNone is the absence of a selection.
	SelectionNone SelectionKind = iota

	// SelectionProperty is a range inside a single node property.
	SelectionProperty

	// SelectionContainer is a range spanning children of a container.
	SelectionContainer

	// SelectionNode addresses a whole node (or one of its boundaries).
	SelectionNode

	// SelectionCustom is an opaque, behavior-defined selection.
	SelectionCustom
)

// String returns a human-readable representation of the kind.
func (k SelectionKind) String() string {
	switch k {
	case SelectionNone:
		return "none"
	case SelectionProperty:
		return "property"
	case SelectionContainer:
		return "container"
	case SelectionNode:
		return "node"
	case SelectionCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Selection is the closed set of selection variants. A selection is only
// meaningful against the document it was created for; selections referencing
// deleted nodes are stale and must be replaced before further edits.
type Selection interface {
	Kind() SelectionKind
	IsCollapsed() bool

	isSelection()
}

// PropertySelection selects a range inside one node property.
// Start and End share the same path. Reverse records selection direction
// (head before anchor) and does not affect editing semantics.
type PropertySelection struct {
	Start       Coordinate
	End         Coordinate
	ContainerID NodeID
	Reverse     bool
}

// NewPropertySelection creates a range selection on a property path.
func NewPropertySelection(path Path, startOffset, endOffset int) PropertySelection {
	return PropertySelection{
		Start: NewCoordinate(path, startOffset),
		End:   NewCoordinate(path.Clone(), endOffset),
	}
}

// Cursor creates a collapsed property selection at the given coordinate.
func Cursor(c Coordinate) PropertySelection {
	return PropertySelection{Start: c, End: c.Clone()}
}

// CursorAt creates a collapsed property selection at path:offset.
func CursorAt(path Path, offset int) PropertySelection {
	return NewPropertySelection(path, offset, offset)
}

// Kind implements Selection.
func (s PropertySelection) Kind() SelectionKind { return SelectionProperty }

// IsCollapsed returns true when start equals end.
func (s PropertySelection) IsCollapsed() bool { return s.Start.Offset == s.End.Offset }

// Path returns the shared property path.
func (s PropertySelection) Path() Path { return s.Start.Path }

// WithContainer returns a copy carrying the enclosing container id.
func (s PropertySelection) WithContainer(id NodeID) PropertySelection {
	s.ContainerID = id
	return s
}

// String returns a human-readable representation.
func (s PropertySelection) String() string {
	return fmt.Sprintf("property(%s[%d:%d])", s.Start.Path, s.Start.Offset, s.End.Offset)
}

func (PropertySelection) isSelection() {}

// ContainerSelection selects a range across (possibly different) children of
// a container.
type ContainerSelection struct {
	ContainerID NodeID
	Start       Coordinate
	End         Coordinate
	Reverse     bool
}

// NewContainerSelection creates a container selection between two coordinates.
func NewContainerSelection(containerID NodeID, start, end Coordinate) ContainerSelection {
	return ContainerSelection{ContainerID: containerID, Start: start, End: end}
}

// Kind implements Selection.
func (s ContainerSelection) Kind() SelectionKind { return SelectionContainer }

// IsCollapsed returns true when start and end address the same position.
func (s ContainerSelection) IsCollapsed() bool { return s.Start.Equal(s.End) }

// String returns a human-readable representation.
func (s ContainerSelection) String() string {
	return fmt.Sprintf("container(%s: %s..%s)", s.ContainerID, s.Start, s.End)
}

func (ContainerSelection) isSelection() {}

// NodeSelectionMode describes which part of a node a NodeSelection addresses.
type NodeSelectionMode uint8

const (
	// NodeModeFull selects the whole node.
	NodeModeFull NodeSelectionMode = iota

	// NodeModeBefore is a collapsed position before the node.
	NodeModeBefore

	// NodeModeAfter is a collapsed position after the node.
	NodeModeAfter
)

// String returns a human-readable representation of the mode.
func (m NodeSelectionMode) String() string {
	switch m {
	case NodeModeFull:
		return "full"
	case NodeModeBefore:
		return "before"
	case NodeModeAfter:
		return "after"
	default:
		return "unknown"
	}
}

// NodeSelection addresses a whole node within a container.
type NodeSelection struct {
	NodeID      NodeID
	ContainerID NodeID
	Mode        NodeSelectionMode
}

// NewNodeSelection creates a full node selection.
func NewNodeSelection(nodeID, containerID NodeID) NodeSelection {
	return NodeSelection{NodeID: nodeID, ContainerID: containerID, Mode: NodeModeFull}
}

// Kind implements Selection.
func (s NodeSelection) Kind() SelectionKind { return SelectionNode }

// IsCollapsed returns true for the before/after boundary modes.
func (s NodeSelection) IsCollapsed() bool { return s.Mode != NodeModeFull }

// String returns a human-readable representation.
func (s NodeSelection) String() string {
	return fmt.Sprintf("node(%s, %s)", s.NodeID, s.Mode)
}

func (NodeSelection) isSelection() {}

// CustomSelection is an opaque selection interpreted only by a registered
// custom behavior.
type CustomSelection struct {
	CustomKind string
	NodeID     NodeID
	Data       map[string]any
}

// Kind implements Selection.
func (s CustomSelection) Kind() SelectionKind { return SelectionCustom }

// IsCollapsed always reports false; custom behaviors own the semantics.
func (s CustomSelection) IsCollapsed() bool { return false }

func (CustomSelection) isSelection() {}
