package scheduler

import (
	"context"
	"strconv"
	"strings"

	"github.com/tagus/trailhound/pkg/graph"
	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
)

// SequenceTagger manages the per-chain iteration counters carried by
// UNVERIFIED edges. A tag has the grammar "<chainKey>_<n>" with n a
// positive integer; malformed tags are reset, never propagated.
type SequenceTagger struct {
	store  interfaces.GraphStore
	logger logging.Logger
}

// TaggerOption represents an option for configuring the tagger
type TaggerOption func(*SequenceTagger)

// WithTaggerLogger sets the logger for the tagger
func WithTaggerLogger(logger logging.Logger) TaggerOption {
	return func(t *SequenceTagger) {
		t.logger = logger
	}
}

// NewSequenceTagger creates a new sequence tagger backed by the given store.
func NewSequenceTagger(store interfaces.GraphStore, options ...TaggerOption) *SequenceTagger {
	tagger := &SequenceTagger{
		store:  store,
		logger: logging.New(),
	}
	for _, option := range options {
		option(tagger)
	}
	return tagger
}

// Increment advances a sequence tag by one. An empty or unparsable tag
// resets the chain to "<entityValue>_1" rather than failing.
func (t *SequenceTagger) Increment(entityValue, currentTag string) string {
	if currentTag == "" {
		return entityValue + "_1"
	}

	idx := strings.LastIndex(currentTag, "_")
	if idx <= 0 || idx == len(currentTag)-1 {
		return entityValue + "_1"
	}

	base := currentTag[:idx]
	n, err := strconv.Atoi(currentTag[idx+1:])
	if err != nil || n < 1 {
		return entityValue + "_1"
	}

	return base + "_" + strconv.Itoa(n+1)
}

// ApplyTag replaces oldTag with newTag on every edge in the project that
// still carries oldTag, marking each as already searched. The update is
// bulk and best-effort: a mid-batch store failure leaves some nodes
// updated and others not, which is logged and left to converge on a later
// pass rather than rolled back.
func (t *SequenceTagger) ApplyTag(ctx context.Context, projectID, entityValue, oldTag, newTag string) bool {
	nodes, err := t.store.QueryNodesWithEdges(ctx, projectID)
	if err != nil {
		t.logger.Error(ctx, "Failed to query nodes for tag update", map[string]interface{}{
			"entity": entityValue,
			"oldTag": oldTag,
			"error":  err.Error(),
		})
		return false
	}

	updated := 0
	for i := range nodes {
		node := &nodes[i]

		changed := false
		for j := range node.Edges {
			if node.Edges[j].QuerySequenceTag == oldTag {
				node.Edges[j].QuerySequenceTag = newTag
				node.Edges[j].AlreadySearched = true
				changed = true
			}
		}
		if !changed {
			continue
		}

		edges := node.Edges
		if err := t.store.UpdateNode(ctx, node.ID, graph.NodePatch{Edges: &edges}); err != nil {
			t.logger.Warn(ctx, "Partial tag application, node not updated", map[string]interface{}{
				"nodeId": node.ID,
				"oldTag": oldTag,
				"newTag": newTag,
				"error":  err.Error(),
			})
			continue
		}
		updated++
	}

	t.logger.Debug(ctx, "Applied sequence tag", map[string]interface{}{
		"entity":  entityValue,
		"oldTag":  oldTag,
		"newTag":  newTag,
		"updated": updated,
	})

	return true
}
