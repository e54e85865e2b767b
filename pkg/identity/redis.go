package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tagus/trailhound/pkg/logging"
)

// RedisRegistry is a Redis-backed registry for runs that share dedup
// state across processes. Each project maps to one hash keyed by
// canonical value; Reset deletes the hash.
type RedisRegistry struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    logging.Logger
}

// RedisOption represents an option for configuring the Redis registry
type RedisOption func(*RedisRegistry)

// WithKeyPrefix sets a custom prefix for Redis keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisRegistry) {
		r.keyPrefix = prefix
	}
}

// WithTTL sets an expiry on project hashes, refreshed on every write
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisRegistry) {
		r.ttl = ttl
	}
}

// WithLogger sets the logger for the registry
func WithLogger(logger logging.Logger) RedisOption {
	return func(r *RedisRegistry) {
		r.logger = logger
	}
}

// NewRedisRegistry creates a registry over an existing Redis client.
func NewRedisRegistry(client *redis.Client, options ...RedisOption) *RedisRegistry {
	registry := &RedisRegistry{
		client:    client,
		keyPrefix: "trailhound:identity:",
		logger:    logging.New(),
	}
	for _, option := range options {
		option(registry)
	}
	return registry
}

func (r *RedisRegistry) projectKey(projectID string) string {
	return r.keyPrefix + projectID
}

// Resolve returns the node id registered for a value, if any.
func (r *RedisRegistry) Resolve(ctx context.Context, projectID, value string) (string, bool, error) {
	nodeID, err := r.client.HGet(ctx, r.projectKey(projectID), value).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve identity: %w", err)
	}
	return nodeID, true, nil
}

// Register binds a value to a node id.
func (r *RedisRegistry) Register(ctx context.Context, projectID, value, nodeID string) error {
	key := r.projectKey(projectID)
	if err := r.client.HSet(ctx, key, value, nodeID).Err(); err != nil {
		return fmt.Errorf("failed to register identity: %w", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			r.logger.Warn(ctx, "Failed to refresh registry TTL", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return nil
}

// Reset drops every binding recorded for the project.
func (r *RedisRegistry) Reset(ctx context.Context, projectID string) error {
	if err := r.client.Del(ctx, r.projectKey(projectID)).Err(); err != nil {
		return fmt.Errorf("failed to reset registry: %w", err)
	}
	return nil
}
