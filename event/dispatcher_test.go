package event_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/event/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var claimable = []event.Status{event.Pending, event.Failed}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("missing event is a no-op", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "nope").Return(event.IntegrationEvent{}, fmt.Errorf("%w: nope", event.ErrNotFound))

		require.NoError(t, d.Dispatch(ctx, "nope"))
	})

	t.Run("storage error is returned", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{}, errors.New("timeout"))

		err := d.Dispatch(ctx, "evt-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading event")
	})

	t.Run("processed event is skipped", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		registry := event.NewRegistry()
		require.NoError(t, registry.Register("connection.update", func(context.Context, event.IntegrationEvent) error {
			t.Fatal("handler must not run")
			return nil
		}))
		d := event.NewDispatcher(repo, registry, nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", Status: event.Processed}, nil)

		require.NoError(t, d.Dispatch(ctx, "evt-1"))
		repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("live processing claim is held", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		registry := event.NewRegistry()
		require.NoError(t, registry.Register("connection.update", func(context.Context, event.IntegrationEvent) error {
			t.Fatal("handler must not run")
			return nil
		}))
		d := event.NewDispatcher(repo, registry, nil, zerolog.Nop()).WithClaimLease(time.Minute)

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{
			ID: "evt-1", Type: "connection.update", Status: event.Processing, UpdatedAt: time.Now().Add(-10 * time.Second),
		}, nil)

		err := d.Dispatch(ctx, "evt-1")
		assert.ErrorIs(t, err, event.ErrClaimHeld)
		repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired processing claim is released and claimed again", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		registry := event.NewRegistry()
		calls := 0
		require.NoError(t, registry.Register("connection.update", func(context.Context, event.IntegrationEvent) error {
			calls++
			return nil
		}))
		d := event.NewDispatcher(repo, registry, nil, zerolog.Nop()).WithClaimLease(time.Minute)

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{
			ID: "evt-1", Type: "connection.update", TenantID: "t", Status: event.Processing, UpdatedAt: time.Now().Add(-2 * time.Minute),
		}, nil)
		repo.On("Transition", ctx, "evt-1", []event.Status{event.Processing}, event.Failed, "processing claim expired").Return(true, nil)
		repo.On("Transition", ctx, "evt-1", claimable, event.Processing, "").Return(true, nil)
		repo.On("Transition", mock.Anything, "evt-1", []event.Status{event.Processing}, event.Processed, "").Return(true, nil)

		require.NoError(t, d.Dispatch(ctx, "evt-1"))
		assert.Equal(t, 1, calls)
	})

	t.Run("lost claim is reported as held", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", Status: event.Pending}, nil)
		repo.On("Transition", ctx, "evt-1", claimable, event.Processing, "").Return(false, nil)

		assert.ErrorIs(t, d.Dispatch(ctx, "evt-1"), event.ErrClaimHeld)
	})

	t.Run("success resolves tenant and marks processed", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		resolver := mocks.NewTenantResolver(t)
		registry := event.NewRegistry()

		var seen event.IntegrationEvent
		require.NoError(t, registry.Register("connection.update", func(_ context.Context, ev event.IntegrationEvent) error {
			seen = ev
			return nil
		}))
		d := event.NewDispatcher(repo, registry, resolver, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", Source: "inst-1", Status: event.Pending}, nil)
		repo.On("Transition", ctx, "evt-1", claimable, event.Processing, "").Return(true, nil)
		resolver.On("TenantFor", ctx, "inst-1").Return("tenant-1", nil)
		repo.On("AttachTenant", ctx, "evt-1", "tenant-1").Return(nil)
		repo.On("Transition", mock.Anything, "evt-1", []event.Status{event.Processing}, event.Processed, "").Return(true, nil)

		require.NoError(t, d.Dispatch(ctx, "evt-1"))
		assert.Equal(t, "tenant-1", seen.TenantID)
		assert.Equal(t, event.Processing, seen.Status)
	})

	t.Run("unresolved tenant does not block processing", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		resolver := mocks.NewTenantResolver(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), resolver, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Type: "messages.upsert", Source: "inst-x", Status: event.Pending}, nil)
		repo.On("Transition", ctx, "evt-1", claimable, event.Processing, "").Return(true, nil)
		resolver.On("TenantFor", ctx, "inst-x").Return("", errors.New("unknown instance"))
		repo.On("Transition", mock.Anything, "evt-1", []event.Status{event.Processing}, event.Processed, "").Return(true, nil)

		require.NoError(t, d.Dispatch(ctx, "evt-1"))
		repo.AssertNotCalled(t, "AttachTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown type is processed without a handler", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Type: "presence.update", TenantID: "t", Status: event.Pending}, nil)
		repo.On("Transition", ctx, "evt-1", claimable, event.Processing, "").Return(true, nil)
		repo.On("Transition", mock.Anything, "evt-1", []event.Status{event.Processing}, event.Processed, "").Return(true, nil)

		require.NoError(t, d.Dispatch(ctx, "evt-1"))
	})

	t.Run("handler error marks failed and is returned", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		registry := event.NewRegistry()
		require.NoError(t, registry.Register("connection.update", func(context.Context, event.IntegrationEvent) error {
			return errors.New("instance store down")
		}))
		d := event.NewDispatcher(repo, registry, nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", TenantID: "t", Status: event.Failed}, nil)
		repo.On("Transition", ctx, "evt-1", claimable, event.Processing, "").Return(true, nil)
		repo.On("Transition", mock.Anything, "evt-1", []event.Status{event.Processing}, event.Failed, "instance store down").Return(true, nil)

		err := d.Dispatch(ctx, "evt-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "instance store down")
	})

	t.Run("failed mark write error is returned with the handler error", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		registry := event.NewRegistry()
		handlerErr := errors.New("instance store down")
		require.NoError(t, registry.Register("connection.update", func(context.Context, event.IntegrationEvent) error {
			return handlerErr
		}))
		d := event.NewDispatcher(repo, registry, nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", TenantID: "t", Status: event.Pending}, nil)
		repo.On("Transition", ctx, "evt-1", claimable, event.Processing, "").Return(true, nil)
		repo.On("Transition", mock.Anything, "evt-1", []event.Status{event.Processing}, event.Failed, "instance store down").Return(false, errors.New("connection reset"))

		err := d.Dispatch(ctx, "evt-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, handlerErr)
		assert.Contains(t, err.Error(), "marking event failed")
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("outcome is stored after the attempt context ends", func(t *testing.T) {
		repo := newMemoryRepository(event.IntegrationEvent{ID: "evt-1", Type: "slow.thing", TenantID: "t", Status: event.Pending})
		registry := event.NewRegistry()
		calls := 0
		require.NoError(t, registry.Register("slow.thing", func(ctx context.Context, _ event.IntegrationEvent) error {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		}))
		d := event.NewDispatcher(repo, registry, nil, zerolog.Nop())

		attemptCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		err := d.Dispatch(attemptCtx, "evt-1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		ev, _ := repo.Get(ctx, "evt-1")
		assert.Equal(t, event.Failed, ev.Status)
		assert.Equal(t, context.DeadlineExceeded.Error(), ev.ErrorMessage)

		require.NoError(t, d.Dispatch(ctx, "evt-1"))
		ev, _ = repo.Get(ctx, "evt-1")
		assert.Equal(t, event.Processed, ev.Status)
		assert.Equal(t, 2, calls)
	})
}

func TestFail(t *testing.T) {
	ctx := context.Background()
	notProcessed := []event.Status{event.Pending, event.Processing, event.Failed}

	t.Run("forces failed", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Status: event.Failed}, nil)
		repo.On("Transition", ctx, "evt-1", notProcessed, event.Failed, "boom").Return(true, nil)

		require.NoError(t, d.Fail(ctx, "evt-1", errors.New("boom")))
	})

	t.Run("processed event untouched", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Status: event.Processed}, nil)
		repo.On("Transition", ctx, "evt-1", notProcessed, event.Failed, "retries exhausted").Return(false, nil)

		require.NoError(t, d.Fail(ctx, "evt-1", nil))
	})

	t.Run("missing event", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{}, fmt.Errorf("%w: evt-1", event.ErrNotFound))

		require.NoError(t, d.Fail(ctx, "evt-1", errors.New("boom")))
	})

	t.Run("live processing claim is waited for", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop()).WithClaimLease(time.Minute)

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Status: event.Processing, UpdatedAt: time.Now()}, nil)

		assert.ErrorIs(t, d.Fail(ctx, "evt-1", errors.New("boom")), event.ErrClaimHeld)
		repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired processing claim is failed", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop()).WithClaimLease(time.Minute)

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Status: event.Processing, UpdatedAt: time.Now().Add(-time.Hour)}, nil)
		repo.On("Transition", ctx, "evt-1", notProcessed, event.Failed, "boom").Return(true, nil)

		require.NoError(t, d.Fail(ctx, "evt-1", errors.New("boom")))
	})

	t.Run("storage error", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		d := event.NewDispatcher(repo, event.NewRegistry(), nil, zerolog.Nop())

		repo.On("Get", ctx, "evt-1").Return(event.IntegrationEvent{ID: "evt-1", Status: event.Pending}, nil)
		repo.On("Transition", ctx, "evt-1", notProcessed, event.Failed, "boom").Return(false, errors.New("down"))

		require.Error(t, d.Fail(ctx, "evt-1", errors.New("boom")))
	})
}

// memoryRepository is a minimal compare-and-set store for idempotency tests
type memoryRepository struct {
	mu     sync.Mutex
	events map[string]event.IntegrationEvent
}

func newMemoryRepository(events ...event.IntegrationEvent) *memoryRepository {
	m := &memoryRepository{events: make(map[string]event.IntegrationEvent)}
	for _, ev := range events {
		m.events[ev.ID] = ev
	}
	return m
}

func (m *memoryRepository) Get(_ context.Context, id string) (event.IntegrationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return event.IntegrationEvent{}, event.ErrNotFound
	}
	return ev, nil
}

func (m *memoryRepository) ListByStatus(context.Context, event.Status, int) ([]event.IntegrationEvent, error) {
	return nil, nil
}

func (m *memoryRepository) CountByStatus(context.Context) (map[string]int64, error) {
	return nil, nil
}

func (m *memoryRepository) Create(_ context.Context, ev event.IntegrationEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[ev.ID]; ok {
		return false, nil
	}
	m.events[ev.ID] = ev
	return true, nil
}

func (m *memoryRepository) Transition(_ context.Context, id string, from []event.Status, to event.Status, msg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if ev.Status == s {
			ev.Status = to
			ev.ErrorMessage = msg
			ev.UpdatedAt = time.Now()
			m.events[id] = ev
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepository) AttachTenant(_ context.Context, id, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := m.events[id]
	ev.TenantID = tenantID
	m.events[id] = ev
	return nil
}

func (m *memoryRepository) Close(context.Context) error { return nil }

func TestDispatch_Idempotency(t *testing.T) {
	ctx := context.Background()

	newDispatcher := func(repo event.Repository, calls *int32) *event.Dispatcher {
		registry := event.NewRegistry()
		_ = registry.Register("connection.update", func(context.Context, event.IntegrationEvent) error {
			atomic.AddInt32(calls, 1)
			time.Sleep(5 * time.Millisecond)
			return nil
		})
		return event.NewDispatcher(repo, registry, nil, zerolog.Nop())
	}

	t.Run("concurrent dispatches apply the side effect once", func(t *testing.T) {
		repo := newMemoryRepository(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", Status: event.Pending})
		var calls int32
		d := newDispatcher(repo, &calls)

		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := d.Dispatch(ctx, "evt-1"); err != nil {
					assert.ErrorIs(t, err, event.ErrClaimHeld)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls)
		ev, err := repo.Get(ctx, "evt-1")
		require.NoError(t, err)
		assert.Equal(t, event.Processed, ev.Status)
	})

	t.Run("sequential dispatches apply the side effect once", func(t *testing.T) {
		repo := newMemoryRepository(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", Status: event.Pending})
		var calls int32
		d := newDispatcher(repo, &calls)

		for i := 0; i < 5; i++ {
			require.NoError(t, d.Dispatch(ctx, "evt-1"))
		}

		assert.Equal(t, int32(1), calls)
	})

	t.Run("failed event is retried until it succeeds", func(t *testing.T) {
		repo := newMemoryRepository(event.IntegrationEvent{ID: "evt-1", Type: "connection.update", Status: event.Pending})
		attempts := 0
		registry := event.NewRegistry()
		require.NoError(t, registry.Register("connection.update", func(context.Context, event.IntegrationEvent) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}))
		d := event.NewDispatcher(repo, registry, nil, zerolog.Nop())

		require.Error(t, d.Dispatch(ctx, "evt-1"))
		ev, _ := repo.Get(ctx, "evt-1")
		assert.Equal(t, event.Failed, ev.Status)
		assert.Equal(t, "transient", ev.ErrorMessage)

		require.Error(t, d.Dispatch(ctx, "evt-1"))
		require.NoError(t, d.Dispatch(ctx, "evt-1"))

		ev, _ = repo.Get(ctx, "evt-1")
		assert.Equal(t, event.Processed, ev.Status)
		assert.Empty(t, ev.ErrorMessage)
		assert.Equal(t, 3, attempts)
	})
}
