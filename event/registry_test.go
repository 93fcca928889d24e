package event_test

import (
	"context"
	"testing"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	handler := func(context.Context, event.IntegrationEvent) error { return nil }

	t.Run("register and lookup normalizes types", func(t *testing.T) {
		r := event.NewRegistry()
		require.NoError(t, r.Register("CONNECTION_UPDATE", handler))

		_, ok := r.Lookup("connection.update")
		assert.True(t, ok)
		_, ok = r.Lookup("CONNECTION_UPDATE")
		assert.True(t, ok)
		assert.Equal(t, []string{"connection.update"}, r.Types())
	})

	t.Run("unknown type", func(t *testing.T) {
		r := event.NewRegistry()
		_, ok := r.Lookup("presence.update")
		assert.False(t, ok)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		r := event.NewRegistry()
		require.NoError(t, r.Register("messages.upsert", handler))
		err := r.Register("messages.upsert", handler)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("rejects invalid type and nil handler", func(t *testing.T) {
		r := event.NewRegistry()
		assert.Error(t, r.Register("bad type!", handler))
		assert.Error(t, r.Register("messages.upsert", nil))
	})
}
