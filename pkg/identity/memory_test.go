package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	t.Run("ResolveUnknownValue", func(t *testing.T) {
		nodeID, ok, err := registry.Resolve(ctx, "p1", "alice@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, nodeID)
	})

	t.Run("RegisterAndResolve", func(t *testing.T) {
		err := registry.Register(ctx, "p1", "alice@example.com", "node-1")
		require.NoError(t, err)

		nodeID, ok, err := registry.Resolve(ctx, "p1", "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "node-1", nodeID)
	})

	t.Run("ProjectsAreIsolated", func(t *testing.T) {
		_, ok, err := registry.Resolve(ctx, "p2", "alice@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RegisterOverwrites", func(t *testing.T) {
		require.NoError(t, registry.Register(ctx, "p1", "alice@example.com", "node-2"))

		nodeID, ok, err := registry.Resolve(ctx, "p1", "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "node-2", nodeID)
	})

	t.Run("ResetDropsOnlyTheProject", func(t *testing.T) {
		require.NoError(t, registry.Register(ctx, "p2", "bob_phone", "node-3"))
		require.NoError(t, registry.Reset(ctx, "p1"))

		_, ok, err := registry.Resolve(ctx, "p1", "alice@example.com")
		require.NoError(t, err)
		assert.False(t, ok)

		nodeID, ok, err := registry.Resolve(ctx, "p2", "bob_phone")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "node-3", nodeID)
	})
}
