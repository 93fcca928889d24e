package event

import "time"

/* IntegrationEvent represents an inbound provider event kept in the inbox
 * Uses value semantics as it represents data, not behavior
 * Events are never deleted by the pipeline, they stay for audit and replay
 */
type IntegrationEvent struct {
	ID           string
	TenantID     string
	Type         string
	Source       string
	Payload      []byte
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RawEvent is what the inbound endpoint hands to the inbox
type RawEvent struct {
	// ID is the provider-side event id, empty when the provider does not send one
	ID       string
	Type     string
	Source   string
	TenantID string
	Payload  []byte
}
