package graph

import "errors"

// Sentinel errors returned by graph store implementations.
var (
	// ErrConnectionFailed indicates the backend could not be reached
	ErrConnectionFailed = errors.New("failed to connect to graph store")

	// ErrNodeNotFound indicates no node matched the lookup
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidNodeID indicates an empty or malformed node id
	ErrInvalidNodeID = errors.New("invalid node ID")

	// ErrMissingValue indicates a node without a canonical value
	ErrMissingValue = errors.New("node canonical value is required")

	// ErrMissingNodeType indicates a node without a type
	ErrMissingNodeType = errors.New("node type is required")

	// ErrMissingProjectID indicates an operation without a project scope
	ErrMissingProjectID = errors.New("project ID is required")
)
