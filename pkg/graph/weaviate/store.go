// Package weaviate provides a Weaviate-based implementation of the
// evidence-graph store.
//
// Nodes are stored in a single collection per class prefix, with the
// embedded edge list serialized to JSON. Project scoping uses metadata
// filtering on the projectId property.
package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/tagus/trailhound/pkg/graph"
	"github.com/tagus/trailhound/pkg/logging"
)

// Store implements the GraphReadWriter contract using Weaviate as the
// backend.
type Store struct {
	client      *weaviate.Client
	classPrefix string
	logger      logging.Logger
}

// Config holds configuration for the Weaviate graph store.
type Config struct {
	// Host is the hostname of the Weaviate server (e.g., "localhost:8080")
	Host string

	// Scheme is the URL scheme ("http" or "https")
	Scheme string

	// APIKey is the authentication key for Weaviate Cloud
	APIKey string

	// ClassPrefix is the prefix for the node collection (default: "Trail")
	ClassPrefix string
}

// Option represents an option for configuring the Store.
type Option func(*Store)

// WithClassPrefix sets the class prefix for the node collection.
func WithClassPrefix(prefix string) Option {
	return func(s *Store) {
		s.classPrefix = prefix
	}
}

// WithLogger sets the logger for the store.
func WithLogger(logger logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new Weaviate graph store.
func New(config *Config, options ...Option) (*Store, error) {
	if config == nil {
		config = &Config{
			Host:        "localhost:8080",
			Scheme:      "http",
			ClassPrefix: "Trail",
		}
	}

	store := &Store{
		classPrefix: "Trail",
		logger:      logging.New(),
	}
	if config.ClassPrefix != "" {
		store.classPrefix = config.ClassPrefix
	}
	for _, option := range options {
		option(store)
	}

	cfg := weaviate.Config{
		Host:   config.Host,
		Scheme: config.Scheme,
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: config.APIKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrConnectionFailed, err)
	}
	store.client = client

	if err := store.ensureSchema(context.Background()); err != nil {
		store.logger.Warn(context.Background(), "Failed to ensure schema, collection may need to be created manually", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return store, nil
}

// getNodeClassName returns the node collection name.
func (s *Store) getNodeClassName() string {
	return s.classPrefix + "Node"
}

// Close closes the store connection.
// Note: Weaviate client doesn't require explicit closing.
func (s *Store) Close() error {
	return nil
}

// ensureSchema creates the node collection when it does not exist yet.
func (s *Store) ensureSchema(ctx context.Context) error {
	className := s.getNodeClassName()

	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(className).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check class existence: %w", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      className,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "nodeId", DataType: []string{"text"}},
			{Name: "value", DataType: []string{"text"}},
			{Name: "label", DataType: []string{"text"}},
			{Name: "nodeType", DataType: []string{"text"}},
			{Name: "status", DataType: []string{"text"}},
			{Name: "projectId", DataType: []string{"text"}},
			{Name: "edges", DataType: []string{"text"}},
			{Name: "hasEdges", DataType: []string{"boolean"}},
			{Name: "createdAt", DataType: []string{"text"}},
			{Name: "updatedAt", DataType: []string{"text"}},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", className, err)
	}

	s.logger.Info(ctx, "Created node collection", map[string]interface{}{
		"class": className,
	})
	return nil
}
