package interfaces

import (
	"context"
	"time"
)

// VerificationStatus is the two-state confidence marker carried by every edge.
type VerificationStatus string

// Verification status constants
const (
	// StatusVerified marks a connection with corroborating evidence
	StatusVerified VerificationStatus = "VERIFIED"

	// StatusUnverified marks a lead that has not been corroborated yet
	StatusUnverified VerificationStatus = "UNVERIFIED"
)

// Node type constants
const (
	NodeTypeEntity       = "entity"
	NodeTypeNarrative    = "narrative"
	NodeTypeNexus        = "nexus"
	NodeTypeLocation     = "location"
	NodeTypeSourceResult = "source_result"
)

// Node represents a vertex of the evidence graph.
type Node struct {
	// ID is the stable node identifier
	ID string `json:"id"`

	// Value is the canonical (normalized) identity string, used as the
	// dedup and queue key
	Value string `json:"value"`

	// Label is a human-readable display name
	Label string `json:"label,omitempty"`

	// Type is the node class (entity, narrative, nexus, location,
	// source_result)
	Type string `json:"type"`

	// ProjectID scopes the node to one investigation
	ProjectID string `json:"project_id"`

	// Status is the node-level confidence state. Evidence nodes use it to
	// mark records the source itself confirmed.
	Status VerificationStatus `json:"status,omitempty"`

	// Edges are the directed relations originating at this node
	Edges []Edge `json:"edges,omitempty"`

	// CreatedAt is the timestamp when the node was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the node was last updated
	UpdatedAt time.Time `json:"updated_at"`
}

// Edge represents a directed relation embedded in its source node.
// Edges are append/update only; investigation history is never deleted.
type Edge struct {
	// TargetID is the id of the node the relation points at
	TargetID string `json:"target_id"`

	// Relation is the relation kind (e.g. "appears_in", "registered_to")
	Relation string `json:"relation"`

	// Status is the confidence state of the connection
	Status VerificationStatus `json:"verification_status"`

	// ConnectionReason explains why the edge was created
	ConnectionReason string `json:"connection_reason,omitempty"`

	// AdditionalReasons accumulates further corroborating reasons
	AdditionalReasons []string `json:"additional_reasons,omitempty"`

	// QuerySequenceTag is the per-chain iteration counter ("<value>_<n>").
	// Only UNVERIFIED edges carry one; promotion always clears it.
	QuerySequenceTag string `json:"query_sequence_tag,omitempty"`

	// AlreadySearched marks a target whose lead has been consumed
	AlreadySearched bool `json:"already_searched"`

	// UpgradeReason records why the edge was promoted to VERIFIED
	UpgradeReason string `json:"upgrade_reason,omitempty"`

	// UpgradedAt records when the edge was promoted
	UpgradedAt *time.Time `json:"upgraded_at,omitempty"`

	// Metadata carries free-form source detail
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NodePatch is a partial node update. Only non-nil fields are applied.
// Edges replace the embedded array wholesale (document-store semantics).
type NodePatch struct {
	Edges  *[]Edge             `json:"edges,omitempty"`
	Label  *string             `json:"label,omitempty"`
	Status *VerificationStatus `json:"status,omitempty"`
}

// MatchKind identifies how a promotion matched an edge to an entity.
type MatchKind int

// Match kind constants
const (
	// MatchNone means the edge does not refer to the entity
	MatchNone MatchKind = iota

	// ExactIDMatch means the edge's target id equals the entity's node id
	ExactIDMatch

	// TagSubstringMatch means the entity value appears inside the edge's
	// sequence tag (edges addressed by tag before an id existed)
	TagSubstringMatch
)

// String returns the audit-trail name of the match kind.
func (k MatchKind) String() string {
	switch k {
	case ExactIDMatch:
		return "exact_id_match"
	case TagSubstringMatch:
		return "tag_substring_match"
	default:
		return "no_match"
	}
}

// GraphStore is the narrow document/graph contract the scheduler drives.
// Any document or graph store exposing these four operations satisfies it.
type GraphStore interface {
	// QueryNodesWithEdges returns every project node holding at least one edge
	QueryNodesWithEdges(ctx context.Context, projectID string) ([]Node, error)

	// QueryEvidenceNodesReferencing returns the evidence (source-result)
	// nodes whose edges reference the given target node id
	QueryEvidenceNodesReferencing(ctx context.Context, projectID string, targetID string) ([]Node, error)

	// GetNodeByValue resolves a node by its canonical value. Returns
	// graph.ErrNodeNotFound when absent.
	GetNodeByValue(ctx context.Context, projectID string, value string) (*Node, error)

	// UpdateNode applies a partial update to one node document
	UpdateNode(ctx context.Context, nodeID string, patch NodePatch) error
}

// NodeWriter is the append side of the store, used by collaborators that
// write discovered facts back into the graph. The scheduler itself never
// writes domain content, only verification metadata.
type NodeWriter interface {
	// PutNode inserts or replaces a whole node document
	PutNode(ctx context.Context, node Node) error
}

// GraphReadWriter combines the scheduler contract with the append side.
type GraphReadWriter interface {
	GraphStore
	NodeWriter
}

// IdentityRegistry maps canonical values to node ids so re-discovered
// entities resolve to their existing node instead of minting a duplicate.
// Implementations are construct-per-run or shared-with-reset; never a
// process-wide global.
type IdentityRegistry interface {
	// Resolve returns the node id registered for a value, if any
	Resolve(ctx context.Context, projectID string, value string) (string, bool, error)

	// Register binds a value to a node id
	Register(ctx context.Context, projectID string, value string, nodeID string) error

	// Reset drops every binding recorded for the project
	Reset(ctx context.Context, projectID string) error
}
