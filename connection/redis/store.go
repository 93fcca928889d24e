package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/integration-pipeline/connection"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of connection.Store
 * One Hash per instance: instance:{id} -> tenant_id, state, last_seen_at (unix ms)
 */

const keyPrefix = "instance"

// updateScript only touches instances that were registered
// KEYS[1] = instance hash; ARGV[1] = state, ARGV[2] = seen at ms
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'state', ARGV[1], 'last_seen_at', ARGV[2])
return 1
`)

type Store struct {
	client *redis.Client
}

// NewStore creates an instance store on a shared client
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Register binds an instance to a tenant, keeping the known state if any
func (s *Store) Register(ctx context.Context, instanceID, tenantID string) error {
	if instanceID == "" || tenantID == "" {
		return fmt.Errorf("instance and tenant are required")
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key(instanceID), "tenant_id", tenantID)
		pipe.HSetNX(ctx, key(instanceID), "state", string(connection.Disconnected))
		return nil
	})
	if err != nil {
		return fmt.Errorf("registering instance: %w", err)
	}
	return nil
}

// Get loads an instance
func (s *Store) Get(ctx context.Context, instanceID string) (connection.Instance, error) {
	fields, err := s.client.HGetAll(ctx, key(instanceID)).Result()
	if err != nil {
		return connection.Instance{}, fmt.Errorf("getting instance: %w", err)
	}
	if len(fields) == 0 {
		return connection.Instance{}, fmt.Errorf("%w: %s", connection.ErrInstanceNotFound, instanceID)
	}

	inst := connection.Instance{
		ID:       instanceID,
		TenantID: fields["tenant_id"],
		State:    connection.State(fields["state"]),
	}
	if ms, err := strconv.ParseInt(fields["last_seen_at"], 10, 64); err == nil {
		inst.LastSeenAt = time.UnixMilli(ms).UTC()
	}
	return inst, nil
}

// UpdateState records the state and the time it was observed
func (s *Store) UpdateState(ctx context.Context, instanceID string, state connection.State, seenAt time.Time) error {
	if err := state.Validate(); err != nil {
		return err
	}

	updated, err := updateScript.Run(ctx, s.client, []string{key(instanceID)},
		string(state), seenAt.UnixMilli(),
	).Int()
	if err != nil {
		return fmt.Errorf("updating instance state: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("%w: %s", connection.ErrInstanceNotFound, instanceID)
	}
	return nil
}

// TenantFor resolves the tenant owning an instance
func (s *Store) TenantFor(ctx context.Context, instanceID string) (string, error) {
	tenant, err := s.client.HGet(ctx, key(instanceID), "tenant_id").Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%w: %s", connection.ErrInstanceNotFound, instanceID)
	}
	if err != nil {
		return "", fmt.Errorf("resolving tenant: %w", err)
	}
	return tenant, nil
}

func key(instanceID string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, instanceID)
}
