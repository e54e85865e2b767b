// Package sources holds the thin, interchangeable API-client glue for
// the investigative data sources an investigation fans out across, plus
// the registry and catalog that assemble them.
package sources

import (
	"sync"

	"github.com/tagus/trailhound/pkg/interfaces"
)

// Registry keeps the set of source clients available to an executor.
type Registry struct {
	clients map[string]interfaces.SourceClient
	order   []string
	mu      sync.RWMutex
}

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]interfaces.SourceClient),
	}
}

// Register registers a source client with the registry. Registration
// order is preserved for deterministic fan-out.
func (r *Registry) Register(client interfaces.SourceClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := client.Name()
	if _, exists := r.clients[name]; !exists {
		r.order = append(r.order, name)
	}
	r.clients[name] = client
}

// Get returns a source client by name
func (r *Registry) Get(name string) (interfaces.SourceClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	return client, ok
}

// List returns all registered clients in registration order
func (r *Registry) List() []interfaces.SourceClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]interfaces.SourceClient, 0, len(r.order))
	for _, name := range r.order {
		clients = append(clients, r.clients[name])
	}
	return clients
}
