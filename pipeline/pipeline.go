package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/integration-pipeline/billing"
	"github.com/marcelsud/integration-pipeline/connection"
	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/marcelsud/integration-pipeline/policies"
	"github.com/marcelsud/integration-pipeline/retry"
	"github.com/rs/zerolog"
)

// Event types with a handler
const (
	ConnectionUpdate = "connection.update"
	MessagesUpsert   = "messages.upsert"
)

// ErrInvalidRequest is returned for requests the pipeline refuses up front
var ErrInvalidRequest = errors.New("invalid request")

// IngestRecorder counts ingested events
type IngestRecorder interface {
	EventIngested(eventType string, duplicate bool)
}

// Deps is everything the pipeline is built from
// Targets and Provider are optional, without them notification.send is not registered
// the same goes for Charger and Suspender and payment.retry
type Deps struct {
	Events    event.Repository
	Instances connection.Store
	Queue     retry.Enqueuer
	Guard     retry.TerminalGuard
	Policies  *policies.Loader

	Targets  notification.TargetLoader
	Provider notification.Provider
	Attempts notification.AttemptRecorder

	Charger   billing.Charger
	Suspender billing.Suspender

	Observer retry.Observer
	Ingests  IngestRecorder
	Logger   zerolog.Logger

	// ClaimLease overrides twice the webhook.dispatch timeout as the processing lease
	ClaimLease time.Duration
}

/* Pipeline wires the inbox, the dispatcher, the retry scheduler and the
 * outbound workers together
 * It owns every component it builds, there is no package level state
 */
type Pipeline struct {
	Inbox      *event.Service
	Dispatcher *event.Dispatcher
	Scheduler  *retry.Scheduler
	Notifier   *notification.Worker
	Billing    *billing.Retrier
	Registry   *event.Registry

	instances connection.Store
	ingests   IngestRecorder
	logger    zerolog.Logger
}

type dispatchJob struct {
	EventID string `json:"event_id"`
}

// New builds the pipeline and registers every call site with its policy
func New(deps Deps) (*Pipeline, error) {
	if deps.Events == nil || deps.Queue == nil || deps.Guard == nil {
		return nil, fmt.Errorf("events, queue and guard are required")
	}
	if deps.Policies == nil {
		deps.Policies = policies.NewLoader()
	}

	logger := deps.Logger
	p := &Pipeline{
		Inbox:     event.NewService(deps.Events),
		Registry:  event.NewRegistry(),
		instances: deps.Instances,
		ingests:   deps.Ingests,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}

	if err := p.registerHandlers(deps); err != nil {
		return nil, err
	}

	var resolver event.TenantResolver
	if deps.Instances != nil {
		resolver = deps.Instances
	}
	p.Dispatcher = event.NewDispatcher(deps.Events, p.Registry, resolver, logger)

	p.Scheduler = retry.NewScheduler(deps.Queue, deps.Guard, logger)
	if deps.Observer != nil {
		p.Scheduler.WithObserver(deps.Observer)
	}

	if deps.Targets != nil && deps.Provider != nil {
		p.Notifier = notification.NewWorker(deps.Targets, deps.Provider, deps.Attempts, 0, logger)
	}
	if deps.Charger != nil && deps.Suspender != nil {
		p.Billing = billing.NewRetrier(deps.Charger, deps.Suspender, p, logger)
	}

	if err := p.registerCallSites(deps.Policies); err != nil {
		return nil, err
	}

	lease := deps.ClaimLease
	if lease <= 0 {
		policy, _ := p.Scheduler.Policy(policies.WebhookDispatch)
		lease = 2 * policy.Timeout
	}
	p.Dispatcher.WithClaimLease(lease)

	return p, nil
}

func (p *Pipeline) registerHandlers(deps Deps) error {
	if deps.Instances != nil {
		h := connection.NewHandler(deps.Instances, deps.Logger)
		if err := p.Registry.Register(ConnectionUpdate, h.HandleConnectionUpdate); err != nil {
			return fmt.Errorf("registering %s handler: %w", ConnectionUpdate, err)
		}
	}

	if err := p.Registry.Register(MessagesUpsert, p.logMessage); err != nil {
		return fmt.Errorf("registering %s handler: %w", MessagesUpsert, err)
	}
	return nil
}

func (p *Pipeline) registerCallSites(loader *policies.Loader) error {
	register := func(kind string, handler retry.Handler, terminal retry.TerminalHandler) error {
		policy, err := loader.Policy(kind)
		if err != nil {
			return fmt.Errorf("loading %s policy: %w", kind, err)
		}
		if err := p.Scheduler.Register(kind, policy, handler, terminal); err != nil {
			return fmt.Errorf("registering %s: %w", kind, err)
		}
		return nil
	}

	if err := register(policies.WebhookDispatch, p.runDispatch, p.failDispatch); err != nil {
		return err
	}
	if p.Notifier != nil {
		if err := register(policies.NotificationSend, p.runNotification, p.exhaustNotification); err != nil {
			return err
		}
	}
	if p.Billing != nil {
		if err := register(policies.PaymentRetry, p.Billing.Attempt, p.Billing.Terminal); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runDispatch(ctx context.Context, job retry.Job) error {
	var dj dispatchJob
	if err := job.Decode(&dj); err != nil {
		return retry.Permanent(err)
	}
	return p.Dispatcher.Dispatch(ctx, dj.EventID)
}

func (p *Pipeline) failDispatch(ctx context.Context, job retry.Job, cause error) error {
	var dj dispatchJob
	if err := job.Decode(&dj); err != nil {
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("undecodable dispatch job reached terminal")
		return nil
	}
	return p.Dispatcher.Fail(ctx, dj.EventID, cause)
}

func (p *Pipeline) runNotification(ctx context.Context, job retry.Job) error {
	var req notification.Request
	if err := job.Decode(&req); err != nil {
		return retry.Permanent(err)
	}
	req.JobID = job.ID
	req.Attempt = job.Attempt

	// a soft failure is final: only a returned error reaches the retry path
	_, err := p.Notifier.Send(ctx, req)
	return err
}

func (p *Pipeline) exhaustNotification(ctx context.Context, job retry.Job, cause error) error {
	var req notification.Request
	if err := job.Decode(&req); err != nil {
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("undecodable notification job reached terminal")
		return nil
	}
	req.JobID = job.ID
	req.Attempt = job.Attempt
	return p.Notifier.Terminal(ctx, req, cause)
}
