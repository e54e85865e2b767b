package graph

import (
	"time"
)

// NewNode creates a node with the given type and canonical value and
// sensible defaults. Timestamps are set to the current time.
func NewNode(nodeType, value string) *Node {
	now := time.Now()
	return &Node{
		Value:     value,
		Type:      nodeType,
		Status:    StatusUnverified,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateNode checks that a node carries the fields every store requires.
func ValidateNode(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if n.Value == "" {
		return ErrMissingValue
	}
	if n.Type == "" {
		return ErrMissingNodeType
	}
	if n.ProjectID == "" {
		return ErrMissingProjectID
	}
	return nil
}

// IsEvidence reports whether the node belongs to the evidence class
// (raw source/aggregator results).
func IsEvidence(n *Node) bool {
	return n.Type == NodeTypeSourceResult
}

// FindEdge returns the first edge pointing at the given target id, or nil.
func FindEdge(n *Node, targetID string) *Edge {
	for i := range n.Edges {
		if n.Edges[i].TargetID == targetID {
			return &n.Edges[i]
		}
	}
	return nil
}
