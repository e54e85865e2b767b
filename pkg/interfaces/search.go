package interfaces

import (
	"context"
)

// SearchExecutor performs one real investigative lookup for a canonical
// value and writes discovered facts back into the graph store. It is an
// opaque, blocking, at-most-one-in-flight capability from the scheduler's
// point of view: it may fan out internally, but the caller awaits full
// completion before issuing the next call.
type SearchExecutor interface {
	Search(ctx context.Context, value string) error
}

// SourceClient is one investigative data source: a breach database, an
// enrichment service, an archive/backlink aggregator, and so on. Clients
// are thin, interchangeable API glue.
type SourceClient interface {
	// Name returns the stable source name used in evidence records
	Name() string

	// Lookup queries the source for a canonical value
	Lookup(ctx context.Context, value string) ([]SourceRecord, error)
}

// SourceRecord is one piece of raw investigative data returned by a source.
type SourceRecord struct {
	// SourceName is the reporting source
	SourceName string `json:"source_name"`

	// RecordID is the source's own identifier for the record
	RecordID string `json:"record_id"`

	// Title is a short human-readable description of the record
	Title string `json:"title,omitempty"`

	// Confirmed indicates the source itself asserts the link between the
	// queried value and the record (e.g. the value appears verbatim in a
	// breach row)
	Confirmed bool `json:"confirmed"`

	// Entities are the identities the record exposes
	Entities []DiscoveredEntity `json:"entities,omitempty"`

	// Raw preserves source-specific detail
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// DiscoveredEntity is one identity extracted from a source record.
type DiscoveredEntity struct {
	// Value is the canonical identity string
	Value string `json:"value"`

	// Kind classifies the identity (email, phone, username, domain, ...)
	Kind string `json:"kind"`

	// Label is an optional display name
	Label string `json:"label,omitempty"`

	// Relation is the relation kind for the edge pointing at the entity
	Relation string `json:"relation,omitempty"`
}

// Tracer records spans around investigation work. Implementations may be
// disabled; a disabled tracer returns no-op spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents one traced operation.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	AddEvent(name string, attributes map[string]interface{})
	RecordError(err error)
}
