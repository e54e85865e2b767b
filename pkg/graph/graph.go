// Package graph defines the evidence-graph data model used across the SDK.
//
// An investigation is stored as a set of nodes (entities, narratives, nexus
// points, locations, and raw source results) with directed edges embedded in
// their source node. Every edge carries a two-state confidence marker: a
// connection is either VERIFIED (corroborated) or UNVERIFIED (a lead).
package graph

import (
	"github.com/tagus/trailhound/pkg/interfaces"
)

// Type aliases for convenience - the canonical types are in interfaces package
type (
	// Node represents a vertex of the evidence graph
	Node = interfaces.Node

	// Edge represents a directed relation embedded in its source node
	Edge = interfaces.Edge

	// NodePatch represents a partial node update
	NodePatch = interfaces.NodePatch

	// VerificationStatus is the confidence state on an edge
	VerificationStatus = interfaces.VerificationStatus

	// MatchKind identifies how a promotion matched an edge
	MatchKind = interfaces.MatchKind
)

// Verification status constants
const (
	StatusVerified   = interfaces.StatusVerified
	StatusUnverified = interfaces.StatusUnverified
)

// Node type constants
const (
	NodeTypeEntity       = interfaces.NodeTypeEntity
	NodeTypeNarrative    = interfaces.NodeTypeNarrative
	NodeTypeNexus        = interfaces.NodeTypeNexus
	NodeTypeLocation     = interfaces.NodeTypeLocation
	NodeTypeSourceResult = interfaces.NodeTypeSourceResult
)

// Match kind constants
const (
	MatchNone         = interfaces.MatchNone
	ExactIDMatch      = interfaces.ExactIDMatch
	TagSubstringMatch = interfaces.TagSubstringMatch
)

// Config holds configuration for graph store providers
type Config struct {
	// Provider is the backend provider ("weaviate", "postgres")
	Provider string `json:"provider" yaml:"provider"`

	// Host is the hostname of the backend server
	Host string `json:"host" yaml:"host"`

	// Scheme is the URL scheme (http or https)
	Scheme string `json:"scheme" yaml:"scheme"`

	// APIKey is the authentication key
	APIKey string `json:"api_key" yaml:"api_key"`

	// ClassPrefix is the prefix for collection/class names
	ClassPrefix string `json:"class_prefix" yaml:"class_prefix"`

	// ConnectionString is the DSN for SQL-backed providers
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:    "weaviate",
		Host:        "localhost:8080",
		Scheme:      "http",
		ClassPrefix: "Trail",
	}
}
