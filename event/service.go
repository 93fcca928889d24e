package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Service is the inbox: the durable write that happens inside the
 * inbound request, before any business processing
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the inbox operations
type UseCase interface {
	Ingest(ctx context.Context, raw RawEvent) (string, bool, error)
	Get(ctx context.Context, id string) (IntegrationEvent, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]IntegrationEvent, error)
}

type Service struct {
	Repo Repository
	now  func() time.Time
}

// NewService creates a new inbox service with dependency injection
func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
		now:  time.Now,
	}
}

// Ingest stores a raw event as pending and returns its id
// The second return value is false when the provider id was already stored
func (s *Service) Ingest(ctx context.Context, raw RawEvent) (string, bool, error) {
	if raw.Type == "" {
		return "", false, fmt.Errorf("event type is required")
	}

	id := raw.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := s.now().UTC()
	ev := IntegrationEvent{
		ID:        id,
		TenantID:  raw.TenantID,
		Type:      raw.Type,
		Source:    raw.Source,
		Payload:   raw.Payload,
		Status:    Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.Repo.Create(ctx, ev)
	if err != nil {
		return "", false, fmt.Errorf("storing event: %w", err)
	}

	return id, created, nil
}

// Get retrieves an event by id
func (s *Service) Get(ctx context.Context, id string) (IntegrationEvent, error) {
	ev, err := s.Repo.Get(ctx, id)
	if err != nil {
		return IntegrationEvent{}, fmt.Errorf("getting event: %w", err)
	}
	return ev, nil
}

// ListByStatus lists events in a status, oldest first
func (s *Service) ListByStatus(ctx context.Context, status Status, limit int) ([]IntegrationEvent, error) {
	if err := status.Validate(); err != nil {
		return nil, fmt.Errorf("validating status: %w", err)
	}

	events, err := s.Repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}
