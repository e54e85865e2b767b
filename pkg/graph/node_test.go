package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeDefaults(t *testing.T) {
	node := NewNode(NodeTypeEntity, "alice@example.com")

	assert.Equal(t, "alice@example.com", node.Value)
	assert.Equal(t, NodeTypeEntity, node.Type)
	assert.Equal(t, StatusUnverified, node.Status)
	assert.False(t, node.CreatedAt.IsZero())
	assert.Equal(t, node.CreatedAt, node.UpdatedAt)
}

func TestValidateNode(t *testing.T) {
	valid := func() *Node {
		return &Node{ID: "n-1", Value: "alice@example.com", Type: NodeTypeEntity, ProjectID: "p1"}
	}

	assert.NoError(t, ValidateNode(valid()))

	tests := []struct {
		name   string
		mutate func(*Node)
		want   error
	}{
		{"missing id", func(n *Node) { n.ID = "" }, ErrInvalidNodeID},
		{"missing value", func(n *Node) { n.Value = "" }, ErrMissingValue},
		{"missing type", func(n *Node) { n.Type = "" }, ErrMissingNodeType},
		{"missing project", func(n *Node) { n.ProjectID = "" }, ErrMissingProjectID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := valid()
			tt.mutate(node)
			assert.ErrorIs(t, ValidateNode(node), tt.want)
		})
	}
}

func TestIsEvidence(t *testing.T) {
	assert.True(t, IsEvidence(&Node{Type: NodeTypeSourceResult}))
	assert.False(t, IsEvidence(&Node{Type: NodeTypeEntity}))
	assert.False(t, IsEvidence(&Node{Type: NodeTypeLocation}))
}

func TestFindEdge(t *testing.T) {
	node := &Node{Edges: []Edge{
		{TargetID: "a", Relation: "mentions"},
		{TargetID: "b", Relation: "mentions"},
	}}

	edge := FindEdge(node, "b")
	require.NotNil(t, edge)
	assert.Equal(t, "b", edge.TargetID)

	// The returned pointer aliases the node's slice so callers can
	// mutate in place.
	edge.Status = StatusVerified
	assert.Equal(t, StatusVerified, node.Edges[1].Status)

	assert.Nil(t, FindEdge(node, "missing"))
}
