package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagus/trailhound/pkg/interfaces"
)

type stubClient struct {
	name string
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Lookup(ctx context.Context, value string) ([]interfaces.SourceRecord, error) {
	return nil, nil
}

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubClient{name: "breach_db"})
	registry.Register(&stubClient{name: "enrichment"})
	registry.Register(&stubClient{name: "web_archive"})

	clients := registry.List()
	require.Len(t, clients, 3)
	assert.Equal(t, "breach_db", clients[0].Name())
	assert.Equal(t, "enrichment", clients[1].Name())
	assert.Equal(t, "web_archive", clients[2].Name())
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	registry := NewRegistry()
	first := &stubClient{name: "breach_db"}
	second := &stubClient{name: "breach_db"}
	registry.Register(first)
	registry.Register(&stubClient{name: "enrichment"})
	registry.Register(second)

	clients := registry.List()
	require.Len(t, clients, 2)
	assert.Same(t, second, clients[0])
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubClient{name: "breach_db"})

	client, ok := registry.Get("breach_db")
	assert.True(t, ok)
	assert.Equal(t, "breach_db", client.Name())

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}
