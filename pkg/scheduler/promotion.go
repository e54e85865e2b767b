package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tagus/trailhound/pkg/graph"
	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
)

// PromotionApplier performs the UNVERIFIED to VERIFIED transition across
// every edge in the project that refers to an entity. The flipped edge
// loses its sequence tag and becomes immediately eligible for the
// VERIFIED queue again.
type PromotionApplier struct {
	store  interfaces.GraphStore
	logger logging.Logger
}

// PromotionOption represents an option for configuring the applier
type PromotionOption func(*PromotionApplier)

// WithPromotionLogger sets the logger for the applier
func WithPromotionLogger(logger logging.Logger) PromotionOption {
	return func(p *PromotionApplier) {
		p.logger = logger
	}
}

// NewPromotionApplier creates a new promotion applier backed by the given store.
func NewPromotionApplier(store interfaces.GraphStore, options ...PromotionOption) *PromotionApplier {
	applier := &PromotionApplier{
		store:  store,
		logger: logging.New(),
	}
	for _, option := range options {
		option(applier)
	}
	return applier
}

// MatchEdge classifies how an UNVERIFIED edge refers to the entity.
// An exact target-id match wins; the fallback accepts the entity value
// appearing as a substring of the edge's sequence tag, which covers
// edges addressed by tag before a node id existed. Keeping the two modes
// distinct makes the fallback's looser precision visible in audit data.
func MatchEdge(edge *graph.Edge, entityID, entityValue string) graph.MatchKind {
	if edge.Status != interfaces.StatusUnverified {
		return graph.MatchNone
	}
	if entityID != "" && edge.TargetID == entityID {
		return graph.ExactIDMatch
	}
	if entityValue != "" && edge.QuerySequenceTag != "" && strings.Contains(edge.QuerySequenceTag, entityValue) {
		return graph.TagSubstringMatch
	}
	return graph.MatchNone
}

// Apply flips every matching UNVERIFIED edge in the project to VERIFIED,
// clears its sequence tag, resets already_searched so the entity is
// immediately eligible for the VERIFIED queue, and stamps the upgrade
// reason and time. Persisted per node, best-effort. Returns whether the
// operation ran and the number of edges changed.
func (p *PromotionApplier) Apply(ctx context.Context, entityValue, projectID, reason string) (bool, int) {
	entityID := ""
	node, err := p.store.GetNodeByValue(ctx, projectID, entityValue)
	if err == nil && node != nil {
		entityID = node.ID
	} else if err != nil && !errors.Is(err, graph.ErrNodeNotFound) {
		p.logger.Warn(ctx, "Entity lookup failed during promotion, falling back to tag matching", map[string]interface{}{
			"entity": entityValue,
			"error":  err.Error(),
		})
	}

	nodes, err := p.store.QueryNodesWithEdges(ctx, projectID)
	if err != nil {
		p.logger.Error(ctx, "Failed to query nodes for promotion", map[string]interface{}{
			"entity": entityValue,
			"error":  err.Error(),
		})
		return false, 0
	}

	now := time.Now()
	changed := 0

	for i := range nodes {
		n := &nodes[i]

		nodeChanged := 0
		for j := range n.Edges {
			edge := &n.Edges[j]

			kind := MatchEdge(edge, entityID, entityValue)
			if kind == graph.MatchNone {
				continue
			}

			edge.Status = interfaces.StatusVerified
			edge.QuerySequenceTag = ""
			edge.AlreadySearched = false
			edge.UpgradeReason = reason
			upgradedAt := now
			edge.UpgradedAt = &upgradedAt
			if edge.Metadata == nil {
				edge.Metadata = map[string]interface{}{}
			}
			edge.Metadata["match_kind"] = kind.String()
			nodeChanged++
		}
		if nodeChanged == 0 {
			continue
		}

		edges := n.Edges
		if err := p.store.UpdateNode(ctx, n.ID, graph.NodePatch{Edges: &edges}); err != nil {
			p.logger.Warn(ctx, "Partial promotion, node not updated", map[string]interface{}{
				"nodeId": n.ID,
				"entity": entityValue,
				"error":  err.Error(),
			})
			continue
		}
		changed += nodeChanged
	}

	p.logger.Info(ctx, "Promoted entity connections", map[string]interface{}{
		"entity":  entityValue,
		"reason":  reason,
		"changed": changed,
	})

	return true, changed
}
