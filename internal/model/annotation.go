package model

// Annotation accessors. An annotation is an ordinary node whose start and end
// properties anchor it on a text property; capability flags (inline,
// auto-expand-right) live in the schema, not on the node.

// AnnotationStart returns the annotation's start anchor.
func AnnotationStart(n *Node) Coordinate {
	c, _ := n.Coordinate(PropStart)
	return c
}

// AnnotationEnd returns the annotation's end anchor.
func AnnotationEnd(n *Node) Coordinate {
	c, _ := n.Coordinate(PropEnd)
	return c
}

// IsAnnotationOn reports whether the annotation is anchored on the given
// property path.
func IsAnnotationOn(n *Node, path Path) bool {
	start, ok := n.Coordinate(PropStart)
	if !ok {
		return false
	}
	return start.Path.Equal(path)
}

// NewAnnotation builds an annotation node of the given type over a range of
// a text property.
func NewAnnotation(typ string, containerID NodeID, path Path, startOffset, endOffset int) *Node {
	n := NewNode(typ, map[string]any{
		PropStart:     NewCoordinate(path.Clone(), startOffset),
		PropEnd:       NewCoordinate(path.Clone(), endOffset),
		PropContainer: containerID,
	})
	return n
}
