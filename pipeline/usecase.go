package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/integration-pipeline/billing"
	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/marcelsud/integration-pipeline/policies"
)

// UseCase is what the HTTP API and the CLI need from the pipeline
type UseCase interface {
	Ingest(ctx context.Context, raw event.RawEvent) (IngestResult, error)
	GetEvent(ctx context.Context, id string) (event.IntegrationEvent, error)
	Requeue(ctx context.Context, id string) (string, error)
	Replay(ctx context.Context, status event.Status, limit int) (int, error)
	SendNotification(ctx context.Context, targetID, templateKey string) (string, error)
	NotificationAttempts(ctx context.Context, targetID string, limit int64) ([]notification.Attempt, error)
	RetryPayment(ctx context.Context, req billing.Retry) (string, error)
	RegisterInstance(ctx context.Context, instanceID, tenantID string) error
}

// IngestResult is returned to the webhook caller
type IngestResult struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

/* Ingest is the synchronous part of webhook handling:
 * the durable write, then the dispatch job
 * Any error here must become a 5xx so the provider delivers again
 */
func (p *Pipeline) Ingest(ctx context.Context, raw event.RawEvent) (IngestResult, error) {
	id, created, err := p.Inbox.Ingest(ctx, raw)
	if err != nil {
		return IngestResult{}, err
	}

	res := IngestResult{EventID: id, Duplicate: !created}
	if p.ingests != nil {
		p.ingests.EventIngested(raw.Type, res.Duplicate)
	}

	if res.Duplicate {
		// a redelivery of an event still pending may be the one whose enqueue failed
		ev, err := p.Inbox.Get(ctx, id)
		if err != nil {
			return IngestResult{}, err
		}
		if ev.Status != event.Pending {
			p.logger.Debug().Str("event_id", id).Msg("duplicate delivery ignored")
			return res, nil
		}
	}

	if _, err := p.Scheduler.Submit(ctx, policies.WebhookDispatch, dispatchJob{EventID: id}); err != nil {
		return IngestResult{}, fmt.Errorf("enqueuing dispatch of %s: %w", id, err)
	}
	return res, nil
}

// GetEvent reads an event from the inbox
func (p *Pipeline) GetEvent(ctx context.Context, id string) (event.IntegrationEvent, error) {
	return p.Inbox.Get(ctx, id)
}

// Requeue dispatches an existing event again, the operator recovery path
// A processing event whose lease expired is released and dispatched again
func (p *Pipeline) Requeue(ctx context.Context, id string) (string, error) {
	ev, err := p.Inbox.Get(ctx, id)
	if err != nil {
		return "", err
	}

	job, err := p.Scheduler.Submit(ctx, policies.WebhookDispatch, dispatchJob{EventID: ev.ID})
	if err != nil {
		return "", fmt.Errorf("enqueuing dispatch of %s: %w", id, err)
	}

	p.logger.Info().Str("event_id", ev.ID).Str("status", ev.Status.String()).Str("job_id", job.ID).Msg("event requeued")
	return job.ID, nil
}

// Replay requeues up to limit events in the given status
// Processing events are only claimed again once their lease has expired
func (p *Pipeline) Replay(ctx context.Context, status event.Status, limit int) (int, error) {
	if status != event.Pending && status != event.Failed && status != event.Processing {
		return 0, fmt.Errorf("%w: processed events can not be replayed", ErrInvalidRequest)
	}

	events, err := p.Inbox.ListByStatus(ctx, status, limit)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, ev := range events {
		if _, err := p.Scheduler.Submit(ctx, policies.WebhookDispatch, dispatchJob{EventID: ev.ID}); err != nil {
			return replayed, fmt.Errorf("enqueuing dispatch of %s: %w", ev.ID, err)
		}
		replayed++
	}
	return replayed, nil
}

// SendNotification queues a notification.send job
func (p *Pipeline) SendNotification(ctx context.Context, targetID, templateKey string) (string, error) {
	if targetID == "" {
		return "", fmt.Errorf("%w: target_id is required", ErrInvalidRequest)
	}
	if p.Notifier == nil {
		return "", errNotConfigured("notifications")
	}
	if !notification.Supports(templateKey) {
		return "", fmt.Errorf("%w: %s", notification.ErrUnsupportedTemplate, templateKey)
	}

	job, err := p.Scheduler.Submit(ctx, policies.NotificationSend, notification.Request{
		TargetID:    targetID,
		TemplateKey: templateKey,
	})
	if err != nil {
		return "", err
	}
	return job.ID, nil
}

// Notify implements billing.Notifier
func (p *Pipeline) Notify(ctx context.Context, targetID, templateKey string) error {
	_, err := p.SendNotification(ctx, targetID, templateKey)
	return err
}

// NotificationAttempts returns the delivery history of a target
func (p *Pipeline) NotificationAttempts(ctx context.Context, targetID string, limit int64) ([]notification.Attempt, error) {
	if p.Notifier == nil {
		return nil, errNotConfigured("notifications")
	}
	return p.Notifier.History(ctx, targetID, limit)
}

// RetryPayment queues the first payment.retry attempt of a subscription
func (p *Pipeline) RetryPayment(ctx context.Context, req billing.Retry) (string, error) {
	if req.SubscriptionID == "" {
		return "", fmt.Errorf("%w: subscription_id is required", ErrInvalidRequest)
	}
	if p.Billing == nil {
		return "", errNotConfigured("payment retries")
	}

	job, err := p.Scheduler.Submit(ctx, policies.PaymentRetry, req)
	if err != nil {
		return "", err
	}
	return job.ID, nil
}

// RegisterInstance binds a provider instance to a tenant
func (p *Pipeline) RegisterInstance(ctx context.Context, instanceID, tenantID string) error {
	if p.instances == nil {
		return errNotConfigured("instance store")
	}
	return p.instances.Register(ctx, instanceID, tenantID)
}

// ErrNotConfigured is returned by operations whose backend was not wired
var ErrNotConfigured = errors.New("not configured")

func errNotConfigured(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotConfigured)
}

var (
	_ UseCase          = (*Pipeline)(nil)
	_ billing.Notifier = (*Pipeline)(nil)
)
