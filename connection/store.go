package connection

import (
	"context"
	"time"
)

// Store persists instances
type Store interface {
	Register(ctx context.Context, instanceID, tenantID string) error
	Get(ctx context.Context, instanceID string) (Instance, error)
	UpdateState(ctx context.Context, instanceID string, state State, seenAt time.Time) error
	// TenantFor resolves the tenant owning an instance (event.TenantResolver)
	TenantFor(ctx context.Context, instanceID string) (string, error)
}
