package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tagus/trailhound/pkg/graph"
)

func TestBuildPartitionsQueues(t *testing.T) {
	store := newFakeStore()
	store.add(graph.Node{ID: "bob-1", Value: "bob_phone", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{ID: "carol-1", Value: "carol_user", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{
		ID: "ev-1", Value: "breach_db:1", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{
			{TargetID: "bob-1", Status: graph.StatusVerified, Metadata: map[string]interface{}{"target_value": "bob_phone"}},
			{TargetID: "carol-1", Status: graph.StatusUnverified, QuerySequenceTag: "carol_user_1"},
		},
	})

	verified, unverified := NewQueueBuilder(store).Build(context.Background(), "p1")

	assert.Equal(t, []string{"bob_phone"}, verified)
	assert.Equal(t, []UnverifiedItem{{Value: "carol_user", Tag: "carol_user_1"}}, unverified)
}

func TestBuildSkipsSearchedVerifiedEdges(t *testing.T) {
	store := newFakeStore()
	store.add(graph.Node{ID: "bob-1", Value: "bob_phone", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{
		ID: "ev-1", Value: "breach_db:1", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{
			{TargetID: "bob-1", Status: graph.StatusVerified, AlreadySearched: true},
		},
	})

	verified, unverified := NewQueueBuilder(store).Build(context.Background(), "p1")

	assert.Empty(t, verified)
	assert.Empty(t, unverified)
}

func TestBuildAdmitsOnlyFirstIterationTags(t *testing.T) {
	store := newFakeStore()
	store.add(graph.Node{ID: "a-1", Value: "alpha", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{ID: "b-1", Value: "beta", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{
		ID: "ev-1", Value: "breach_db:1", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{
			{TargetID: "a-1", Status: graph.StatusUnverified, QuerySequenceTag: "alpha_1"},
			{TargetID: "b-1", Status: graph.StatusUnverified, QuerySequenceTag: "beta_2"},
		},
	})

	_, unverified := NewQueueBuilder(store).Build(context.Background(), "p1")

	// Chains advanced past the first iteration wait for an out-of-band
	// workflow; only alpha is admitted.
	assert.Equal(t, []UnverifiedItem{{Value: "alpha", Tag: "alpha_1"}}, unverified)
}

func TestBuildDedupsFirstSeen(t *testing.T) {
	store := newFakeStore()
	store.add(graph.Node{ID: "bob-1", Value: "bob_phone", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{
		ID: "ev-1", Value: "breach_db:1", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{{TargetID: "bob-1", Status: graph.StatusVerified, Metadata: map[string]interface{}{"target_value": "bob_phone"}}},
	})
	store.add(graph.Node{
		ID: "ev-2", Value: "breach_db:2", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{{TargetID: "bob-1", Status: graph.StatusVerified, Metadata: map[string]interface{}{"target_value": "bob_phone"}}},
	})

	verified, _ := NewQueueBuilder(store).Build(context.Background(), "p1")

	assert.Equal(t, []string{"bob_phone"}, verified)
}

func TestBuildResolvesValueFromTagWhenTargetUnknown(t *testing.T) {
	store := newFakeStore()
	store.add(graph.Node{
		ID: "ev-1", Value: "breach_db:1", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{
			// The target node does not exist yet; only the tag names the chain.
			{TargetID: "ghost-1", Status: graph.StatusUnverified, QuerySequenceTag: "carol_user_1"},
		},
	})

	_, unverified := NewQueueBuilder(store).Build(context.Background(), "p1")

	assert.Equal(t, []UnverifiedItem{{Value: "carol_user", Tag: "carol_user_1"}}, unverified)
}

func TestBuildResolvesVerifiedValueThroughFetchOrMetadata(t *testing.T) {
	store := newFakeStore()
	// dora-1 is itself in the fetch (it holds an edge), so the id->value
	// map resolves it without a metadata stamp.
	store.add(graph.Node{
		ID: "dora-1", Value: "dora@example.com", Type: graph.NodeTypeEntity, ProjectID: "p1",
		Edges: []graph.Edge{{TargetID: "ev-1", Status: graph.StatusUnverified}},
	})
	store.add(graph.Node{
		ID: "ev-1", Value: "breach_db:1", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{
			{TargetID: "dora-1", Status: graph.StatusVerified},
			// bob-1 holds no edges; only the stamp names its value.
			{TargetID: "bob-1", Status: graph.StatusVerified, Metadata: map[string]interface{}{"target_value": "bob_phone"}},
			// Neither resolvable nor stamped: silently skipped.
			{TargetID: "ghost-1", Status: graph.StatusVerified},
		},
	})

	verified, _ := NewQueueBuilder(store).Build(context.Background(), "p1")

	assert.Equal(t, []string{"dora@example.com", "bob_phone"}, verified)
}

func TestBuildStoreErrorYieldsEmptyQueues(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errStoreDown

	verified, unverified := NewQueueBuilder(store).Build(context.Background(), "p1")

	assert.Empty(t, verified)
	assert.Empty(t, unverified)
}
