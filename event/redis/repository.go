package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/integration-pipeline/event"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of event.Repository
 * Uses one Redis Hash per event for the record
 * Uses one Sorted Set per status, scored by creation time, as the status index
 * Durability across restarts relies on the server persistence (AOF)
 */

const (
	hashPrefix  = "event"          // Hash naming: event:{event_id}
	indexPrefix = "events:status:" // Sorted set naming: events:status:{status}
)

type Repository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRepository creates a new Redis repository with its own client
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewRepositoryWithClient(client), nil
}

// NewRepositoryWithClient wraps an existing client, shared with the job queue
func NewRepositoryWithClient(client *redis.Client) *Repository {
	return &Repository{
		client: client,
		now:    time.Now,
	}
}

// Create stores the event unless its id already exists
func (r *Repository) Create(ctx context.Context, ev event.IntegrationEvent) (bool, error) {
	keys := []string{hashKey(ev.ID), indexKey(ev.Status)}
	created, err := createScript.Run(ctx, r.client, keys,
		ev.ID,
		ev.TenantID,
		ev.Type,
		ev.Source,
		ev.Payload,
		ev.Status.String(),
		ev.CreatedAt.UnixMilli(),
		ev.UpdatedAt.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("storing event: %w", err)
	}

	return created == 1, nil
}

// Get retrieves an event by id
func (r *Repository) Get(ctx context.Context, id string) (event.IntegrationEvent, error) {
	data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return event.IntegrationEvent{}, fmt.Errorf("getting event: %w", err)
	}
	if len(data) == 0 {
		return event.IntegrationEvent{}, fmt.Errorf("%w: %s", event.ErrNotFound, id)
	}

	return fromHash(data), nil
}

// ListByStatus returns up to limit events in a status, oldest first
func (r *Repository) ListByStatus(ctx context.Context, status event.Status, limit int) ([]event.IntegrationEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	ids, err := r.client.ZRange(ctx, indexKey(status), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading status index: %w", err)
	}
	if len(ids) == 0 {
		return []event.IntegrationEvent{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, hashKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	events := make([]event.IntegrationEvent, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		events = append(events, fromHash(data))
	}

	return events, nil
}

// CountByStatus returns the size of every status index
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipe := r.client.Pipeline()
	cmds := make(map[string]*redis.IntCmd)
	for _, s := range event.AllStatuses() {
		cmds[s.String()] = pipe.ZCard(ctx, indexKey(s))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}

	counts := make(map[string]int64, len(cmds))
	for status, cmd := range cmds {
		counts[status] = cmd.Val()
	}
	return counts, nil
}

// Transition changes the status atomically when the current status is in from
func (r *Repository) Transition(ctx context.Context, id string, from []event.Status, to event.Status, errorMessage string) (bool, error) {
	if err := event.ValidateTransition(from, to); err != nil {
		return false, fmt.Errorf("validating status: %w", err)
	}

	args := []interface{}{
		to.String(),
		errorMessage,
		r.now().UnixMilli(),
		indexPrefix,
		id,
	}
	for _, s := range from {
		args = append(args, s.String())
	}

	res, err := transitionScript.Run(ctx, r.client, []string{hashKey(id)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("transitioning event to %s: %w", to, err)
	}

	return res == 1, nil
}

// AttachTenant records the resolved tenant on an existing event
func (r *Repository) AttachTenant(ctx context.Context, id, tenantID string) error {
	res, err := attachTenantScript.Run(ctx, r.client, []string{hashKey(id)}, tenantID, r.now().UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("attaching tenant: %w", err)
	}
	if res == 0 {
		return fmt.Errorf("%w: %s", event.ErrNotFound, id)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

// Helper functions

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func indexKey(status event.Status) string {
	return indexPrefix + status.String()
}

func fromHash(data map[string]string) event.IntegrationEvent {
	return event.IntegrationEvent{
		ID:           data["id"],
		TenantID:     data["tenant_id"],
		Type:         data["type"],
		Source:       data["source"],
		Payload:      []byte(data["payload"]),
		Status:       event.NewStatus(data["status"]),
		ErrorMessage: data["error_message"],
		CreatedAt:    time.UnixMilli(parseInt64(data["created_at"])).UTC(),
		UpdatedAt:    time.UnixMilli(parseInt64(data["updated_at"])).UTC(),
	}
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
