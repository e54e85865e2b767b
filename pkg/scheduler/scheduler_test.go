package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagus/trailhound/pkg/graph"
)

func TestNewRequiresExecutor(t *testing.T) {
	s, err := New(newFakeStore(), nil)

	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNoExecutor)
}

func TestRunSeedSearchFailure(t *testing.T) {
	seedErr := errors.New("all sources unreachable")
	exec := &scriptedExecutor{onSearch: func(value string) error { return seedErr }}
	s, err := New(newFakeStore(), exec)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), "alice@example.com", "p1", 3)

	assert.ErrorIs(t, err, seedErr)
	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, []string{"alice@example.com"}, exec.calls)
}

func TestRunEmptyGraphStopsAfterSeed(t *testing.T) {
	exec := &scriptedExecutor{}
	s, err := New(newFakeStore(), exec)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), "alice@example.com", "p1", 3)

	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, []string{"alice@example.com"}, exec.calls)
}

func TestRunStoreErrorDoesNotAbortRun(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errStoreDown
	exec := &scriptedExecutor{}
	s, err := New(store, exec)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), "alice@example.com", "p1", 3)

	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, []string{"alice@example.com"}, exec.calls)
}

// seedAliceGraph mirrors the state a seed search leaves behind: one
// evidence record connecting the seed to a confirmed phone number and an
// unconfirmed username.
func seedAliceGraph(store *fakeStore) {
	store.add(graph.Node{ID: "alice-1", Value: "alice@example.com", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{ID: "bob-1", Value: "bob_phone", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{ID: "carol-1", Value: "carol_user", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	store.add(graph.Node{
		ID: "ev-1", Value: "breach_db:1", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Status: graph.StatusUnverified,
		Edges: []graph.Edge{
			{
				TargetID: "bob-1", Relation: "mentions", Status: graph.StatusVerified,
				Metadata: map[string]interface{}{"target_value": "bob_phone"},
			},
			{
				TargetID: "carol-1", Relation: "mentions", Status: graph.StatusUnverified,
				QuerySequenceTag: "carol_user_1",
			},
		},
	})
}

func TestRunEndToEnd(t *testing.T) {
	store := newFakeStore()
	exec := &scriptedExecutor{}
	exec.onSearch = func(value string) error {
		if value == "alice@example.com" && store.node("ev-1") == nil {
			seedAliceGraph(store)
		}
		return nil
	}
	s, err := New(store, exec)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), "alice@example.com", "p1", 3)
	require.NoError(t, err)

	// Depth 1: the confirmed lead starves the unconfirmed one. Depth 2:
	// the username is searched, corroborated by co-occurrence, promoted,
	// and immediately re-searched. Depth 3: nothing left.
	assert.Equal(t, []string{"alice@example.com", "bob_phone", "carol_user", "carol_user"}, exec.calls)
	assert.Equal(t, Summary{
		TotalSearches:      3,
		VerifiedSearches:   2,
		UnverifiedSearches: 1,
		UpgradedCount:      1,
		FinalDepth:         2,
	}, summary)

	evidence := store.node("ev-1")
	assert.True(t, evidence.Edges[0].AlreadySearched)
	assert.Equal(t, graph.StatusVerified, evidence.Edges[1].Status)
	assert.True(t, evidence.Edges[1].AlreadySearched)
	assert.Empty(t, evidence.Edges[1].QuerySequenceTag)
	assert.Equal(t, "found_with_verified_entities:1x", evidence.Edges[1].UpgradeReason)
}

func TestRunTerminatesBeforeMaxDepth(t *testing.T) {
	store := newFakeStore()
	seedAliceGraph(store)
	exec := &scriptedExecutor{}
	s, err := New(store, exec)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), "alice@example.com", "p1", 5)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.FinalDepth)
}

func TestRunVerifiedPrecedence(t *testing.T) {
	store := newFakeStore()
	seedAliceGraph(store)
	exec := &scriptedExecutor{}
	s, err := New(store, exec)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), "alice@example.com", "p1", 1)
	require.NoError(t, err)

	// With a single depth the confirmed lead claims the whole round and
	// the unconfirmed one is never touched.
	assert.Equal(t, []string{"alice@example.com", "bob_phone"}, exec.calls)
}

func TestRunCascadeSearchesLastPromotedFirst(t *testing.T) {
	store := newFakeStore()
	for _, id := range []string{"a", "b", "c"} {
		store.add(graph.Node{ID: id + "-1", Value: id + "_val", Type: graph.NodeTypeEntity, ProjectID: "p1"})
	}
	store.add(graph.Node{
		ID: "ev-hub", Value: "breach_db:hub", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Edges: []graph.Edge{
			{TargetID: "a-1", Status: graph.StatusUnverified, QuerySequenceTag: "a_val_1"},
			{TargetID: "b-1", Status: graph.StatusUnverified, QuerySequenceTag: "b_val_1"},
			{TargetID: "c-1", Status: graph.StatusUnverified, QuerySequenceTag: "c_val_1"},
		},
	})
	// Confirmed records corroborate b and c but not a. Their edges are
	// untagged so they only feed the evaluator, never the queues.
	store.add(graph.Node{
		ID: "ev-b", Value: "breach_db:b", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Status: graph.StatusVerified,
		Edges:  []graph.Edge{{TargetID: "b-1", Status: graph.StatusUnverified}},
	})
	store.add(graph.Node{
		ID: "ev-c", Value: "breach_db:c", Type: graph.NodeTypeSourceResult, ProjectID: "p1",
		Status: graph.StatusVerified,
		Edges:  []graph.Edge{{TargetID: "c-1", Status: graph.StatusUnverified}},
	})

	exec := &scriptedExecutor{}
	s, err := New(store, exec)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), "seed", "p1", 3)
	require.NoError(t, err)

	// Primary pass in insertion order, then the cascade in reverse
	// promotion order, all within the same depth.
	assert.Equal(t, []string{"seed", "a_val", "b_val", "c_val", "c_val", "b_val"}, exec.calls)
	assert.Equal(t, Summary{
		TotalSearches:      5,
		VerifiedSearches:   2,
		UnverifiedSearches: 3,
		UpgradedCount:      2,
		FinalDepth:         1,
	}, summary)
}

func TestRunSkipsFailedLeadAndContinues(t *testing.T) {
	store := newFakeStore()
	seedAliceGraph(store)
	bobErr := errors.New("source timeout")
	exec := &scriptedExecutor{}
	exec.onSearch = func(value string) error {
		if value == "bob_phone" {
			return bobErr
		}
		return nil
	}
	s, err := New(store, exec)
	require.NoError(t, err)

	summary, err := s.Run(context.Background(), "alice@example.com", "p1", 1)

	require.NoError(t, err)
	assert.Zero(t, summary.VerifiedSearches)
	assert.Zero(t, summary.TotalSearches)
	assert.Equal(t, 1, summary.FinalDepth)
	// The failed lead is not consumed; its edge stays eligible.
	assert.False(t, store.node("ev-1").Edges[0].AlreadySearched)
}
