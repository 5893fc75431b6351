package model

import "fmt"

// Coordinate is a position inside a document: a character offset inside a
// text property (path = [nodeID, "content"]) or a child index inside a
// container (path = [nodeID]).
//
// Offsets into text properties are byte offsets into the UTF-8 encoded
// content; all coordinate arithmetic in the engine uses the same unit.
type Coordinate struct {
	Path   Path
	Offset int
}

// NewCoordinate creates a coordinate at the given path and offset.
func NewCoordinate(path Path, offset int) Coordinate {
	return Coordinate{Path: path, Offset: offset}
}

// NodeCoordinate creates a coordinate addressing a child index of a node.
func NodeCoordinate(id NodeID, index int) Coordinate {
	return Coordinate{Path: NodePath(id), Offset: index}
}

// PropertyCoordinate creates a coordinate inside a node property.
func PropertyCoordinate(id NodeID, property string, offset int) Coordinate {
	return Coordinate{Path: PropertyPath(id, property), Offset: offset}
}

// NodeID returns the node the coordinate is anchored on.
func (c Coordinate) NodeID() NodeID {
	return c.Path.NodeID()
}

// IsNode returns true if the coordinate addresses a child index.
func (c Coordinate) IsNode() bool {
	return c.Path.IsNode()
}

// IsProperty returns true if the coordinate addresses a position inside a
// node property.
func (c Coordinate) IsProperty() bool {
	return c.Path.IsProperty()
}

// IsZero returns true for the zero coordinate.
func (c Coordinate) IsZero() bool {
	return c.Path.IsZero()
}

// Equal reports whether two coordinates address the same position.
func (c Coordinate) Equal(o Coordinate) bool {
	return c.Offset == o.Offset && c.Path.Equal(o.Path)
}

// WithOffset returns a copy of the coordinate at a different offset.
func (c Coordinate) WithOffset(offset int) Coordinate {
	return Coordinate{Path: c.Path.Clone(), Offset: offset}
}

// Shift returns a copy of the coordinate moved by delta.
func (c Coordinate) Shift(delta int) Coordinate {
	return Coordinate{Path: c.Path.Clone(), Offset: c.Offset + delta}
}

// Clone returns an independent copy of the coordinate.
func (c Coordinate) Clone() Coordinate {
	return Coordinate{Path: c.Path.Clone(), Offset: c.Offset}
}

// String returns a human-readable representation.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%s:%d)", c.Path, c.Offset)
}
