package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tagus/trailhound/pkg/graph"
	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
)

// Evaluation reason strings
const (
	ReasonEntityNotFound        = "entity_not_found"
	ReasonNoVerifiedConnections = "no_verified_connections"
)

// VerificationEvaluator decides whether an UNVERIFIED entity has earned
// promotion. The check is a one-hop, greedy corroboration scan over the
// evidence nodes referencing the entity: O(degree) per call, trading
// completeness for scheduling-time cheapness.
type VerificationEvaluator struct {
	store  interfaces.GraphStore
	logger logging.Logger
}

// EvaluatorOption represents an option for configuring the evaluator
type EvaluatorOption func(*VerificationEvaluator)

// WithEvaluatorLogger sets the logger for the evaluator
func WithEvaluatorLogger(logger logging.Logger) EvaluatorOption {
	return func(e *VerificationEvaluator) {
		e.logger = logger
	}
}

// NewVerificationEvaluator creates a new evaluator backed by the given store.
func NewVerificationEvaluator(store interfaces.GraphStore, options ...EvaluatorOption) *VerificationEvaluator {
	evaluator := &VerificationEvaluator{
		store:  store,
		logger: logging.New(),
	}
	for _, option := range options {
		option(evaluator)
	}
	return evaluator
}

// Check reports whether the entity should be promoted to VERIFIED and the
// reason string for the decision.
//
// An evidence node corroborates the entity in one of two ways, counted at
// most once per evidence node:
//
//   - the evidence node itself is globally VERIFIED (the source confirmed
//     the record), or
//   - any of the evidence node's other edges points at a VERIFIED target,
//     meaning the entity co-occurs with an already-confirmed identity.
func (e *VerificationEvaluator) Check(ctx context.Context, entityValue, projectID string) (bool, string) {
	node, err := e.store.GetNodeByValue(ctx, projectID, entityValue)
	if err != nil {
		if !errors.Is(err, graph.ErrNodeNotFound) {
			e.logger.Warn(ctx, "Entity lookup failed during verification check", map[string]interface{}{
				"entity": entityValue,
				"error":  err.Error(),
			})
		}
		return false, ReasonEntityNotFound
	}
	if node == nil {
		return false, ReasonEntityNotFound
	}

	evidence, err := e.store.QueryEvidenceNodesReferencing(ctx, projectID, node.ID)
	if err != nil {
		e.logger.Error(ctx, "Evidence query failed during verification check", map[string]interface{}{
			"entity": entityValue,
			"error":  err.Error(),
		})
		return false, ReasonNoVerifiedConnections
	}

	count := 0
	reasons := []string{}

	for i := range evidence {
		ev := &evidence[i]

		if ev.Status == interfaces.StatusVerified {
			reasons = append(reasons, "same_breach_record:"+ev.ID)
			count++
			continue
		}

		// Scan the record's other edges for a VERIFIED sibling; one hit
		// per evidence node is enough.
		for j := range ev.Edges {
			edge := &ev.Edges[j]
			if edge.TargetID == node.ID {
				continue
			}
			if edge.Status == interfaces.StatusVerified {
				reasons = append(reasons, "cooccurs_with_verified:"+edge.TargetID)
				count++
				break
			}
		}
	}

	if count > 0 {
		e.logger.Info(ctx, "Entity earned promotion", map[string]interface{}{
			"entity":  entityValue,
			"count":   count,
			"reasons": reasons,
		})
		return true, fmt.Sprintf("found_with_verified_entities:%dx", count)
	}

	return false, ReasonNoVerifiedConnections
}
