// Package identity provides the registry mapping canonical values to
// node ids, so re-discovered entities resolve to their existing node
// instead of minting a duplicate. Registries are construct-per-run or
// shared-with-reset; there is deliberately no package-level instance, so
// concurrent runs stay isolated.
package identity

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-process registry with a construct-per-run
// lifecycle. Safe for concurrent use.
type MemoryRegistry struct {
	mu        sync.RWMutex
	byProject map[string]map[string]string
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byProject: make(map[string]map[string]string),
	}
}

// Resolve returns the node id registered for a value, if any.
func (r *MemoryRegistry) Resolve(ctx context.Context, projectID, value string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values, ok := r.byProject[projectID]
	if !ok {
		return "", false, nil
	}
	nodeID, ok := values[value]
	return nodeID, ok, nil
}

// Register binds a value to a node id.
func (r *MemoryRegistry) Register(ctx context.Context, projectID, value, nodeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	values, ok := r.byProject[projectID]
	if !ok {
		values = make(map[string]string)
		r.byProject[projectID] = values
	}
	values[value] = nodeID
	return nil
}

// Reset drops every binding recorded for the project.
func (r *MemoryRegistry) Reset(ctx context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byProject, projectID)
	return nil
}
