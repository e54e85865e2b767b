package scheduler

import (
	"context"
	"errors"

	"github.com/tagus/trailhound/pkg/graph"
)

// fakeStore is an in-memory GraphStore with deterministic ordering and
// per-operation error injection.
type fakeStore struct {
	order []string
	nodes map[string]*graph.Node

	queryErr    error
	evidenceErr error
	getErr      error
	updateErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nodes: make(map[string]*graph.Node)}
}

func (s *fakeStore) add(node graph.Node) {
	if _, exists := s.nodes[node.ID]; !exists {
		s.order = append(s.order, node.ID)
	}
	copied := node
	copied.Edges = append([]graph.Edge(nil), node.Edges...)
	s.nodes[node.ID] = &copied
}

func (s *fakeStore) node(id string) *graph.Node {
	return s.nodes[id]
}

func (s *fakeStore) QueryNodesWithEdges(ctx context.Context, projectID string) ([]graph.Node, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := []graph.Node{}
	for _, id := range s.order {
		node := s.nodes[id]
		if node.ProjectID != projectID || len(node.Edges) == 0 {
			continue
		}
		copied := *node
		copied.Edges = append([]graph.Edge(nil), node.Edges...)
		out = append(out, copied)
	}
	return out, nil
}

func (s *fakeStore) QueryEvidenceNodesReferencing(ctx context.Context, projectID, targetID string) ([]graph.Node, error) {
	if s.evidenceErr != nil {
		return nil, s.evidenceErr
	}
	out := []graph.Node{}
	for _, id := range s.order {
		node := s.nodes[id]
		if node.ProjectID != projectID || !graph.IsEvidence(node) {
			continue
		}
		if graph.FindEdge(node, targetID) == nil {
			continue
		}
		copied := *node
		copied.Edges = append([]graph.Edge(nil), node.Edges...)
		out = append(out, copied)
	}
	return out, nil
}

func (s *fakeStore) GetNodeByValue(ctx context.Context, projectID, value string) (*graph.Node, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, id := range s.order {
		node := s.nodes[id]
		if node.ProjectID == projectID && node.Value == value {
			copied := *node
			copied.Edges = append([]graph.Edge(nil), node.Edges...)
			return &copied, nil
		}
	}
	return nil, graph.ErrNodeNotFound
}

func (s *fakeStore) UpdateNode(ctx context.Context, nodeID string, patch graph.NodePatch) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	node, ok := s.nodes[nodeID]
	if !ok {
		return graph.ErrNodeNotFound
	}
	if patch.Edges != nil {
		node.Edges = append([]graph.Edge(nil), (*patch.Edges)...)
	}
	if patch.Label != nil {
		node.Label = *patch.Label
	}
	if patch.Status != nil {
		node.Status = *patch.Status
	}
	return nil
}

// scriptedExecutor records search calls and optionally mutates the
// store the way a real executor would.
type scriptedExecutor struct {
	calls    []string
	onSearch func(value string) error
}

func (e *scriptedExecutor) Search(ctx context.Context, value string) error {
	e.calls = append(e.calls, value)
	if e.onSearch != nil {
		return e.onSearch(value)
	}
	return nil
}

var errStoreDown = errors.New("store unavailable")
