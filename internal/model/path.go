package model

import "strings"

// Path addresses a node or one of its properties.
// A one-element path ["n1"] addresses the node itself; a two-element path
// ["n1", "content"] addresses a property of the node.
type Path []string

// NodePath returns a path addressing the node itself.
func NodePath(id NodeID) Path {
	return Path{string(id)}
}

// PropertyPath returns a path addressing a property of a node.
func PropertyPath(id NodeID, property string) Path {
	return Path{string(id), property}
}

// NodeID returns the node component of the path.
func (p Path) NodeID() NodeID {
	if len(p) == 0 {
		return ""
	}
	return NodeID(p[0])
}

// Property returns the property component, or "" for a node path.
func (p Path) Property() string {
	if len(p) < 2 {
		return ""
	}
	return p[1]
}

// IsNode returns true if the path addresses a node rather than a property.
func (p Path) IsNode() bool {
	return len(p) == 1
}

// IsProperty returns true if the path addresses a node property.
func (p Path) IsProperty() bool {
	return len(p) >= 2
}

// IsZero returns true for the empty path.
func (p Path) IsZero() bool {
	return len(p) == 0
}

// Equal reports whether two paths address the same target.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// String returns a dotted representation, e.g. "n1.content".
func (p Path) String() string {
	return strings.Join(p, ".")
}
