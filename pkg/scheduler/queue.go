package scheduler

import (
	"context"
	"strings"

	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
)

// UnverifiedItem is one entry of the UNVERIFIED work queue: a canonical
// value together with the sequence tag found on its edge.
type UnverifiedItem struct {
	Value string
	Tag   string
}

// QueueBuilder scans the project graph and partitions outstanding work
// into a VERIFIED queue and an UNVERIFIED queue. Both queues are deduped
// by canonical value in first-seen order.
type QueueBuilder struct {
	store  interfaces.GraphStore
	logger logging.Logger
}

// QueueOption represents an option for configuring the queue builder
type QueueOption func(*QueueBuilder)

// WithQueueLogger sets the logger for the queue builder
func WithQueueLogger(logger logging.Logger) QueueOption {
	return func(b *QueueBuilder) {
		b.logger = logger
	}
}

// NewQueueBuilder creates a new queue builder backed by the given store.
func NewQueueBuilder(store interfaces.GraphStore, options ...QueueOption) *QueueBuilder {
	builder := &QueueBuilder{
		store:  store,
		logger: logging.New(),
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

// Build fetches every project node holding edges and partitions the edges
// into work queues:
//
//   - a VERIFIED edge whose target has not been searched queues the
//     target's canonical value;
//   - an UNVERIFIED edge whose tag is still at the first iteration
//     ("..._1") queues its (value, tag) pair. Edges already advanced past
//     _1 are deliberately excluded from automatic re-queueing; advancing
//     such a chain requires an out-of-band workflow.
//
// Any store error yields two empty queues; the caller's loop must stay
// alive, so failures are logged, never raised.
func (b *QueueBuilder) Build(ctx context.Context, projectID string) ([]string, []UnverifiedItem) {
	nodes, err := b.store.QueryNodesWithEdges(ctx, projectID)
	if err != nil {
		b.logger.Error(ctx, "Failed to query nodes for queue build", map[string]interface{}{
			"error": err.Error(),
		})
		return []string{}, []UnverifiedItem{}
	}

	// Resolve edge targets to canonical values via the same fetch.
	valueByID := make(map[string]string, len(nodes))
	for i := range nodes {
		valueByID[nodes[i].ID] = nodes[i].Value
	}

	verified := []string{}
	seenVerified := make(map[string]bool)
	unverified := []UnverifiedItem{}
	seenUnverified := make(map[string]bool)

	for i := range nodes {
		for j := range nodes[i].Edges {
			edge := &nodes[i].Edges[j]

			switch edge.Status {
			case interfaces.StatusVerified:
				if edge.AlreadySearched {
					continue
				}
				value := valueByID[edge.TargetID]
				if value == "" {
					// Targets without edges of their own are absent from the
					// fetch; executors stamp the canonical value onto the edge
					// for exactly this case.
					value, _ = edge.Metadata["target_value"].(string)
				}
				if value == "" {
					b.logger.Debug(ctx, "Verified edge target has no resolvable value", map[string]interface{}{
						"targetId": edge.TargetID,
					})
					continue
				}
				if !seenVerified[value] {
					seenVerified[value] = true
					verified = append(verified, value)
				}

			case interfaces.StatusUnverified:
				if !strings.HasSuffix(edge.QuerySequenceTag, "_1") {
					continue
				}
				value := valueByID[edge.TargetID]
				if value == "" {
					// Edge addressed by tag before a node existed; the
					// chain key is the tag minus its counter suffix.
					value = strings.TrimSuffix(edge.QuerySequenceTag, "_1")
				}
				if value == "" {
					continue
				}
				if !seenUnverified[value] {
					seenUnverified[value] = true
					unverified = append(unverified, UnverifiedItem{Value: value, Tag: edge.QuerySequenceTag})
				}
			}
		}
	}

	b.logger.Debug(ctx, "Built work queues", map[string]interface{}{
		"verified":   len(verified),
		"unverified": len(unverified),
	})

	return verified, unverified
}
