package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/event/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("success - provider id kept", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		repo.On("Create", ctx, event.MatchEvent(func(ev event.IntegrationEvent) bool {
			return ev.ID == "evt-1" &&
				ev.Type == "connection.update" &&
				ev.Source == "inst-1" &&
				ev.Status == event.Pending &&
				ev.TenantID == "" &&
				!ev.CreatedAt.IsZero()
		})).Return(true, nil)

		id, created, err := service.Ingest(ctx, event.RawEvent{
			ID:      "evt-1",
			Type:    "connection.update",
			Source:  "inst-1",
			Payload: []byte(`{"state":"open"}`),
		})

		require.NoError(t, err)
		assert.Equal(t, "evt-1", id)
		assert.True(t, created)
	})

	t.Run("success - id generated", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		repo.On("Create", ctx, event.MatchEvent(func(ev event.IntegrationEvent) bool {
			return len(ev.ID) == 36
		})).Return(true, nil)

		id, _, err := service.Ingest(ctx, event.RawEvent{Type: "messages.upsert", Source: "inst-1"})

		require.NoError(t, err)
		assert.Len(t, id, 36)
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		repo.On("Create", ctx, event.MatchEvent(func(ev event.IntegrationEvent) bool {
			return ev.ID == "evt-1"
		})).Return(false, nil)

		id, created, err := service.Ingest(ctx, event.RawEvent{ID: "evt-1", Type: "messages.upsert"})

		require.NoError(t, err)
		assert.Equal(t, "evt-1", id)
		assert.False(t, created)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		repo.On("Create", ctx, event.MatchEvent(func(ev event.IntegrationEvent) bool { return true })).
			Return(false, errors.New("dial tcp: connection refused"))

		_, _, err := service.Ingest(ctx, event.RawEvent{Type: "messages.upsert"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "storing event")
	})

	t.Run("missing type", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		_, _, err := service.Ingest(ctx, event.RawEvent{Source: "inst-1"})

		require.Error(t, err)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Status: event.Processed}, nil)

		ev, err := service.Get(ctx, "evt-1")

		require.NoError(t, err)
		assert.Equal(t, event.Processed, ev.Status)
	})

	t.Run("not found", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		repo.On("Get", ctx, "nope").Return(event.IntegrationEvent{}, event.ErrNotFound)

		_, err := service.Get(ctx, "nope")

		assert.ErrorIs(t, err, event.ErrNotFound)
	})
}

func TestListByStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		repo.On("ListByStatus", ctx, event.Pending, 50).
			Return([]event.IntegrationEvent{{ID: "a"}, {ID: "b"}}, nil)

		events, err := service.ListByStatus(ctx, event.Pending, 50)

		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("invalid status", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := event.NewService(repo)

		_, err := service.ListByStatus(ctx, event.Status(42), 10)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validating status")
	})
}
