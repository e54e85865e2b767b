// Package executor provides the production SearchExecutor: it fans a
// canonical value out across the registered source clients and writes
// the discovered facts back into the evidence graph. Each source record
// becomes an evidence node with edges to the identities it exposes; new
// leads start their sequence chain at "<value>_1" so the scheduler's
// queue builder admits them.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tagus/trailhound/pkg/graph"
	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
	"github.com/tagus/trailhound/pkg/multitenancy"
	"github.com/tagus/trailhound/pkg/retry"
	"github.com/tagus/trailhound/pkg/sources"
)

// ErrNoStore is returned when a fan-out executor is constructed without
// a graph store.
var ErrNoStore = errors.New("graph store is required")

// FanOut implements interfaces.SearchExecutor over a source registry.
type FanOut struct {
	store      interfaces.GraphReadWriter
	registry   *sources.Registry
	identities interfaces.IdentityRegistry
	retrier    *retry.Executor
	tracer     interfaces.Tracer
	logger     logging.Logger
}

// Option represents an option for configuring the executor
type Option func(*FanOut)

// WithLogger sets the logger for the executor
func WithLogger(logger logging.Logger) Option {
	return func(f *FanOut) {
		f.logger = logger
	}
}

// WithRetryPolicy sets the retry policy applied to source lookups
func WithRetryPolicy(policy *retry.Policy) Option {
	return func(f *FanOut) {
		f.retrier = retry.NewExecutor(policy)
	}
}

// WithTracer sets a tracer recording a span per source lookup
func WithTracer(tracer interfaces.Tracer) Option {
	return func(f *FanOut) {
		f.tracer = tracer
	}
}

// New creates a fan-out executor over the given store, source registry,
// and identity registry.
func New(store interfaces.GraphReadWriter, registry *sources.Registry, identities interfaces.IdentityRegistry, options ...Option) (*FanOut, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if registry == nil {
		registry = sources.NewRegistry()
	}

	f := &FanOut{
		store:      store,
		registry:   registry,
		identities: identities,
		retrier:    retry.NewExecutor(retry.DefaultPolicy()),
		logger:     logging.New(),
	}
	for _, option := range options {
		option(f)
	}
	return f, nil
}

// Search looks a canonical value up in every registered source and
// persists the discoveries. Individual source failures are logged and
// tolerated; Search fails only when the graph itself cannot be written.
func (f *FanOut) Search(ctx context.Context, value string) error {
	projectID, err := multitenancy.GetProjectID(ctx)
	if err != nil {
		return fmt.Errorf("search for %q: %w", value, err)
	}

	seedID, err := f.ensureEntityNode(ctx, projectID, "", value, "")
	if err != nil {
		return fmt.Errorf("failed to persist searched entity %q: %w", value, err)
	}

	for _, client := range f.registry.List() {
		var span interfaces.Span
		lookupCtx := ctx
		if f.tracer != nil {
			lookupCtx, span = f.tracer.StartSpan(ctx, "source.lookup")
			span.SetAttribute("source", client.Name())
			span.SetAttribute("value", value)
		}

		var records []interfaces.SourceRecord
		err := f.retrier.Execute(lookupCtx, func() error {
			var lookupErr error
			records, lookupErr = client.Lookup(lookupCtx, value)
			return lookupErr
		})
		if err != nil {
			f.logger.Warn(lookupCtx, "Source lookup failed", map[string]interface{}{
				"source": client.Name(),
				"value":  value,
				"error":  err.Error(),
			})
			if span != nil {
				span.RecordError(err)
				span.End()
			}
			continue
		}

		for i := range records {
			if err := f.writeRecord(lookupCtx, projectID, seedID, value, &records[i]); err != nil {
				f.logger.Warn(lookupCtx, "Failed to persist source record", map[string]interface{}{
					"source": client.Name(),
					"record": records[i].RecordID,
					"error":  err.Error(),
				})
			}
		}

		if span != nil {
			span.SetAttribute("records", len(records))
			span.End()
		}
	}

	return nil
}

// writeRecord persists one source record as an evidence node whose edges
// point at the searched entity and at every identity the record exposes.
func (f *FanOut) writeRecord(ctx context.Context, projectID, seedID, seedValue string, record *interfaces.SourceRecord) error {
	recordValue := record.SourceName + ":" + record.RecordID

	evidence, err := f.store.GetNodeByValue(ctx, projectID, recordValue)
	if err != nil && !errors.Is(err, graph.ErrNodeNotFound) {
		return err
	}

	if evidence == nil {
		evidence = graph.NewNode(graph.NodeTypeSourceResult, recordValue)
		evidence.ID = uuid.NewString()
		evidence.ProjectID = projectID
		evidence.Label = record.Title
	}
	if record.Confirmed {
		evidence.Status = graph.StatusVerified
	}

	f.attachEdge(evidence, graph.Edge{
		TargetID:         seedID,
		Relation:         "mentions",
		Status:           recordStatus(record),
		ConnectionReason: "value_present_in_record",
		AlreadySearched:  true,
		Metadata: map[string]interface{}{
			"source": record.SourceName,
			// Entity nodes carry no edges of their own, so the queue
			// builder resolves edge targets through this stamp.
			"target_value": seedValue,
		},
	}, "")

	for _, discovered := range record.Entities {
		if discovered.Value == "" || discovered.Value == seedValue {
			continue
		}

		targetID, err := f.ensureEntityNode(ctx, projectID, discovered.Kind, discovered.Value, discovered.Label)
		if err != nil {
			f.logger.Warn(ctx, "Failed to persist discovered entity", map[string]interface{}{
				"value": discovered.Value,
				"error": err.Error(),
			})
			continue
		}

		relation := discovered.Relation
		if relation == "" {
			relation = "referenced_by"
		}

		f.attachEdge(evidence, graph.Edge{
			TargetID:         targetID,
			Relation:         relation,
			Status:           graph.StatusUnverified,
			ConnectionReason: "discovered_in:" + record.SourceName,
			QuerySequenceTag: discovered.Value + "_1",
			Metadata: map[string]interface{}{
				"kind":         discovered.Kind,
				"target_value": discovered.Value,
			},
		}, record.SourceName)
	}

	return f.store.PutNode(ctx, *evidence)
}

// attachEdge appends an edge to the evidence node, or folds the reason
// into the existing edge when the target is already linked. Edges are
// append/update only.
func (f *FanOut) attachEdge(evidence *graph.Node, edge graph.Edge, sourceName string) {
	existing := graph.FindEdge(evidence, edge.TargetID)
	if existing == nil {
		evidence.Edges = append(evidence.Edges, edge)
		return
	}

	if sourceName != "" {
		existing.AdditionalReasons = append(existing.AdditionalReasons, "also_in:"+sourceName)
	}
	if edge.Status == graph.StatusVerified && existing.Status != graph.StatusVerified {
		existing.Status = graph.StatusVerified
		existing.QuerySequenceTag = ""
	}
}

// ensureEntityNode resolves a canonical value to a node id, creating the
// node and registering the identity on first discovery.
func (f *FanOut) ensureEntityNode(ctx context.Context, projectID, kind, value, label string) (string, error) {
	if f.identities != nil {
		if nodeID, ok, err := f.identities.Resolve(ctx, projectID, value); err == nil && ok {
			return nodeID, nil
		}
	}

	node, err := f.store.GetNodeByValue(ctx, projectID, value)
	if err != nil && !errors.Is(err, graph.ErrNodeNotFound) {
		return "", err
	}
	if node != nil {
		f.register(ctx, projectID, value, node.ID)
		return node.ID, nil
	}

	created := graph.NewNode(nodeTypeForKind(kind), value)
	created.ID = uuid.NewString()
	created.ProjectID = projectID
	created.Label = label
	if err := f.store.PutNode(ctx, *created); err != nil {
		return "", err
	}

	f.register(ctx, projectID, value, created.ID)
	return created.ID, nil
}

func (f *FanOut) register(ctx context.Context, projectID, value, nodeID string) {
	if f.identities == nil {
		return
	}
	if err := f.identities.Register(ctx, projectID, value, nodeID); err != nil {
		f.logger.Warn(ctx, "Failed to register identity", map[string]interface{}{
			"value": value,
			"error": err.Error(),
		})
	}
}

func nodeTypeForKind(kind string) string {
	if kind == "location" {
		return graph.NodeTypeLocation
	}
	return graph.NodeTypeEntity
}

func recordStatus(record *interfaces.SourceRecord) graph.VerificationStatus {
	if record.Confirmed {
		return graph.StatusVerified
	}
	return graph.StatusUnverified
}
