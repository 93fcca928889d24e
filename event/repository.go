package event

import "context"

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for the inbox
type Reader interface {
	/* Context is always the first parameter in functions that do I/O
	 * This allows for cancellation, timeouts, and shared values
	 */
	Get(ctx context.Context, id string) (IntegrationEvent, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]IntegrationEvent, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// Writer provides write operations for the inbox
type Writer interface {
	/* Create stores the event only if its id is not known yet
	 * Returns false when the id already exists, which is how duplicate
	 * webhook deliveries collapse onto one record
	 */
	Create(ctx context.Context, ev IntegrationEvent) (bool, error)
	/* Transition moves the event to `to` only if its current status is one of `from`
	 * The check and the write are a single atomic operation in the storage layer
	 * Returns false when the event was not in an allowed status
	 */
	Transition(ctx context.Context, id string, from []Status, to Status, errorMessage string) (bool, error)
	AttachTenant(ctx context.Context, id, tenantID string) error
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}

// TenantResolver maps a provider instance identifier to the tenant that owns it
type TenantResolver interface {
	TenantFor(ctx context.Context, source string) (string, error)
}
