package model

// Well-known property names shared across node types.
const (
	// PropContent holds the text of a text node.
	PropContent = "content"

	// PropStart and PropEnd anchor an annotation on a text property.
	PropStart = "start"
	PropEnd   = "end"

	// PropContainer names the container an annotation belongs to.
	PropContainer = "container"

	// PropLevel holds the indentation level of a list item.
	PropLevel = "level"
)

// Node is a typed record with a stable id and a property bag.
// Property values are restricted to the document value set: string, bool,
// int, float64, []NodeID, Coordinate, and map[string]any compositions of
// those. The structural parent of a node is not stored on the node itself;
// it is derived state maintained by the document's parent tracker.
type Node struct {
	ID    NodeID
	Type  string
	Props map[string]any
}

// NewNode creates a node of the given type, assigning a fresh id.
func NewNode(typ string, props map[string]any) *Node {
	if props == nil {
		props = make(map[string]any)
	}
	return &Node{ID: NewNodeID(), Type: typ, Props: props}
}

// Get returns a property value.
func (n *Node) Get(key string) (any, bool) {
	v, ok := n.Props[key]
	return v, ok
}

// Set assigns a property value.
func (n *Node) Set(key string, value any) {
	n.Props[key] = value
}

// Text returns the node's text content, or "" if it has none.
func (n *Node) Text() string {
	s, _ := n.Props[PropContent].(string)
	return s
}

// SetText assigns the node's text content.
func (n *Node) SetText(s string) {
	n.Props[PropContent] = s
}

// TextLen returns the byte length of the node's text content.
func (n *Node) TextLen() int {
	return len(n.Text())
}

// StringValue returns a string-typed property, or "" if absent.
func (n *Node) StringValue(key string) string {
	s, _ := n.Props[key].(string)
	return s
}

// Int returns an int-typed property, or 0 if absent.
func (n *Node) Int(key string) int {
	switch v := n.Props[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Children returns the child id sequence stored under the given property.
// The returned slice is a copy; mutating it does not affect the node.
func (n *Node) Children(property string) []NodeID {
	ids, _ := n.Props[property].([]NodeID)
	out := make([]NodeID, len(ids))
	copy(out, ids)
	return out
}

// SetChildren replaces the child id sequence under the given property.
func (n *Node) SetChildren(property string, ids []NodeID) {
	n.Props[property] = ids
}

// ChildCount returns the number of children under the given property.
func (n *Node) ChildCount(property string) int {
	ids, _ := n.Props[property].([]NodeID)
	return len(ids)
}

// ChildPosition returns the index of a child id, or -1 if absent.
func (n *Node) ChildPosition(property string, id NodeID) int {
	ids, _ := n.Props[property].([]NodeID)
	for i, c := range ids {
		if c == id {
			return i
		}
	}
	return -1
}

// Coordinate returns a coordinate-typed property and whether it was present.
func (n *Node) Coordinate(key string) (Coordinate, bool) {
	c, ok := n.Props[key].(Coordinate)
	return c, ok
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = cloneValue(v)
	}
	return &Node{ID: n.ID, Type: n.Type, Props: props}
}

// cloneValue deep-copies a document property value.
func cloneValue(v any) any {
	switch t := v.(type) {
	case []NodeID:
		c := make([]NodeID, len(t))
		copy(c, t)
		return c
	case []string:
		c := make([]string, len(t))
		copy(c, t)
		return c
	case Coordinate:
		return t.Clone()
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}
