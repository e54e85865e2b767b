// Package scheduler implements the recursive investigation controller:
// a bounded, priority-driven traversal over the evidence graph that
// decides which discovered lead to search next, when a lead has earned
// promotion, and how promotion reorders the remaining work.
//
// The scheduler is single-threaded and strictly sequential by necessity:
// every phase depends on graph mutations made by the immediately
// preceding step, and queues are rebuilt fresh at the top of each depth
// from current graph state. Lifetime control is the depth bound and
// empty-queue termination; cancellation belongs to the injected
// SearchExecutor and the store client.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
)

// ErrNoExecutor is returned when a scheduler is constructed without a
// search executor. This is the only failure the scheduler refuses to
// start without.
var ErrNoExecutor = errors.New("search executor is required")

// Summary is the result of one investigation run.
type Summary struct {
	// TotalSearches is the number of lookups the loop performed
	TotalSearches int `json:"total_searches"`

	// VerifiedSearches counts lookups driven by VERIFIED leads,
	// including cascade searches of freshly promoted entities
	VerifiedSearches int `json:"verified_searches"`

	// UnverifiedSearches counts lookups driven by UNVERIFIED leads
	UnverifiedSearches int `json:"unverified_searches"`

	// UpgradedCount is the number of entities promoted to VERIFIED
	UpgradedCount int `json:"upgraded_count"`

	// FinalDepth is the last depth at which work was performed
	FinalDepth int `json:"final_depth"`
}

// Scheduler composes the queue builder, tagger, evaluator, and promotion
// applier into the depth-bounded investigation loop.
type Scheduler struct {
	store     interfaces.GraphStore
	executor  interfaces.SearchExecutor
	tagger    *SequenceTagger
	queues    *QueueBuilder
	evaluator *VerificationEvaluator
	promoter  *PromotionApplier
	tracer    interfaces.Tracer
	logger    logging.Logger
}

// Option represents an option for configuring the scheduler
type Option func(*Scheduler)

// WithLogger sets the logger for the scheduler and its components
func WithLogger(logger logging.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithTracer sets a tracer recording spans per run and per depth
func WithTracer(tracer interfaces.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = tracer
	}
}

// New creates a scheduler over the given store and search executor.
// A nil executor is the one fatal configuration error.
func New(store interfaces.GraphStore, executor interfaces.SearchExecutor, options ...Option) (*Scheduler, error) {
	if executor == nil {
		return nil, ErrNoExecutor
	}

	s := &Scheduler{
		store:    store,
		executor: executor,
		logger:   logging.New(),
	}
	for _, option := range options {
		option(s)
	}

	s.tagger = NewSequenceTagger(store, WithTaggerLogger(s.logger))
	s.queues = NewQueueBuilder(store, WithQueueLogger(s.logger))
	s.evaluator = NewVerificationEvaluator(store, WithEvaluatorLogger(s.logger))
	s.promoter = NewPromotionApplier(store, WithPromotionLogger(s.logger))

	return s, nil
}

// Run executes the investigation: one seed search to establish baseline
// graph state, then up to maxDepth rounds of queue-driven exploration.
// VERIFIED work takes strict precedence: any VERIFIED lead at the top of
// a round starves all UNVERIFIED work that round. Entities promoted
// during an UNVERIFIED pass are re-searched in the same round, last
// promoted first, before the next round rebuilds the queues.
//
// Run always returns a summary; it is degenerate (zero counts) together
// with the error only when the seed search fails.
func (s *Scheduler) Run(ctx context.Context, seed, projectID string, maxDepth int) (Summary, error) {
	summary := Summary{}

	var runSpan interfaces.Span
	if s.tracer != nil {
		ctx, runSpan = s.tracer.StartSpan(ctx, "investigation.run")
		runSpan.SetAttribute("seed", seed)
		runSpan.SetAttribute("project_id", projectID)
		defer runSpan.End()
	}

	// The seed search establishes the baseline graph; its failure is the
	// one error the whole run cannot survive.
	if err := s.executor.Search(ctx, seed); err != nil {
		s.logger.Error(ctx, "Seed search failed, aborting run", map[string]interface{}{
			"seed":  seed,
			"error": err.Error(),
		})
		if runSpan != nil {
			runSpan.RecordError(err)
		}
		return summary, fmt.Errorf("seed search for %q failed: %w", seed, err)
	}

	for depth := 1; depth <= maxDepth; depth++ {
		var depthSpan interfaces.Span
		depthCtx := ctx
		if s.tracer != nil {
			depthCtx, depthSpan = s.tracer.StartSpan(ctx, "investigation.depth")
			depthSpan.SetAttribute("depth", depth)
		}

		verified, unverified := s.queues.Build(depthCtx, projectID)
		if len(verified) == 0 && len(unverified) == 0 {
			s.logger.Info(depthCtx, "Both queues empty, terminating early", map[string]interface{}{
				"depth": depth,
			})
			if depthSpan != nil {
				depthSpan.End()
			}
			break
		}
		summary.FinalDepth = depth

		s.runVerifiedPass(depthCtx, projectID, verified, &summary)

		// UNVERIFIED work runs only when no VERIFIED lead claimed the round.
		if len(verified) == 0 {
			newlyVerified := s.runUnverifiedPass(depthCtx, projectID, unverified, &summary)
			s.runCascade(depthCtx, projectID, newlyVerified, &summary)
		}

		if depthSpan != nil {
			depthSpan.SetAttribute("total_searches", summary.TotalSearches)
			depthSpan.End()
		}
	}

	s.logger.Info(ctx, "Investigation run complete", map[string]interface{}{
		"seed":                seed,
		"total_searches":      summary.TotalSearches,
		"verified_searches":   summary.VerifiedSearches,
		"unverified_searches": summary.UnverifiedSearches,
		"upgraded_count":      summary.UpgradedCount,
		"final_depth":         summary.FinalDepth,
	})

	return summary, nil
}

// runVerifiedPass searches every VERIFIED-queue entity in insertion
// order. Per-entity failures are logged and skipped, never aborting the
// round.
func (s *Scheduler) runVerifiedPass(ctx context.Context, projectID string, verified []string, summary *Summary) {
	for _, value := range verified {
		if err := s.executor.Search(ctx, value); err != nil {
			s.logger.Warn(ctx, "Verified lead search failed, skipping", map[string]interface{}{
				"entity": value,
				"error":  err.Error(),
			})
			continue
		}
		summary.VerifiedSearches++
		summary.TotalSearches++
		s.markSearched(ctx, projectID, value)
	}
}

// markSearched consumes a VERIFIED lead: every verified edge pointing at
// the value is flagged already_searched so the next queue rebuild does
// not hand the lead out again. This touches verification metadata only,
// never domain content.
func (s *Scheduler) markSearched(ctx context.Context, projectID, value string) {
	targetIDs := make(map[string]bool)
	if node, err := s.store.GetNodeByValue(ctx, projectID, value); err == nil && node != nil {
		targetIDs[node.ID] = true
	}

	nodes, err := s.store.QueryNodesWithEdges(ctx, projectID)
	if err != nil {
		s.logger.Warn(ctx, "Failed to query nodes to consume lead", map[string]interface{}{
			"entity": value,
			"error":  err.Error(),
		})
		return
	}
	for i := range nodes {
		if nodes[i].Value == value {
			targetIDs[nodes[i].ID] = true
		}
	}
	if len(targetIDs) == 0 {
		return
	}

	for i := range nodes {
		node := &nodes[i]

		changed := false
		for j := range node.Edges {
			edge := &node.Edges[j]
			if edge.Status == interfaces.StatusVerified && !edge.AlreadySearched && targetIDs[edge.TargetID] {
				edge.AlreadySearched = true
				changed = true
			}
		}
		if !changed {
			continue
		}

		edges := node.Edges
		if err := s.store.UpdateNode(ctx, node.ID, interfaces.NodePatch{Edges: &edges}); err != nil {
			s.logger.Warn(ctx, "Failed to flag searched lead", map[string]interface{}{
				"nodeId": node.ID,
				"entity": value,
				"error":  err.Error(),
			})
		}
	}
}

// runUnverifiedPass works through the UNVERIFIED queue: advance the
// chain's sequence tag, search, then evaluate for promotion. Promotions
// are batched onto the front of the returned list, so the cascade visits
// the last promoted entity first.
func (s *Scheduler) runUnverifiedPass(ctx context.Context, projectID string, unverified []UnverifiedItem, summary *Summary) []string {
	newlyVerified := []string{}

	for _, item := range unverified {
		newTag := s.tagger.Increment(item.Value, item.Tag)
		s.tagger.ApplyTag(ctx, projectID, item.Value, item.Tag, newTag)

		if err := s.executor.Search(ctx, item.Value); err != nil {
			s.logger.Warn(ctx, "Unverified lead search failed, skipping", map[string]interface{}{
				"entity": item.Value,
				"error":  err.Error(),
			})
			continue
		}
		summary.UnverifiedSearches++
		summary.TotalSearches++

		shouldUpgrade, reason := s.evaluator.Check(ctx, item.Value, projectID)
		if !shouldUpgrade {
			s.logger.Debug(ctx, "Lead not yet corroborated", map[string]interface{}{
				"entity": item.Value,
				"reason": reason,
			})
			continue
		}

		if ok, changed := s.promoter.Apply(ctx, item.Value, projectID, reason); ok && changed > 0 {
			summary.UpgradedCount++
			newlyVerified = append([]string{item.Value}, newlyVerified...)
		}
	}

	return newlyVerified
}

// runCascade re-searches freshly promoted entities, last promoted first,
// before the next depth rebuilds the queues. Cascade lookups count as
// VERIFIED searches.
func (s *Scheduler) runCascade(ctx context.Context, projectID string, newlyVerified []string, summary *Summary) {
	for _, value := range newlyVerified {
		if err := s.executor.Search(ctx, value); err != nil {
			s.logger.Warn(ctx, "Cascade search failed, skipping", map[string]interface{}{
				"entity": value,
				"error":  err.Error(),
			})
			continue
		}
		summary.VerifiedSearches++
		summary.TotalSearches++
		s.markSearched(ctx, projectID, value)
	}
}
