package model

import "github.com/google/uuid"

// NodeID uniquely identifies a node within a document.
type NodeID string

// NewNodeID returns a fresh random node id.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// IsZero returns true if the id is empty.
func (id NodeID) IsZero() bool {
	return id == ""
}

// String returns the id as a plain string.
func (id NodeID) String() string {
	return string(id)
}
