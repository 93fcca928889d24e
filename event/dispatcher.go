package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultClaimLease is how long a processing claim is honored when no lease is set
const DefaultClaimLease = 5 * time.Minute

/* Dispatcher processes inbox entries at most effectively-once
 * It is safe to call Dispatch many times for the same id, concurrently or not:
 * only the caller that wins the atomic pending/failed -> processing transition
 * runs the handler, everybody else gets ErrClaimHeld and is retried later
 * A processing claim older than the lease belongs to a dispatch that died,
 * it is released to failed and claimed again
 */
type Dispatcher struct {
	repo     Repository
	registry *Registry
	resolver TenantResolver
	lease    time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher, resolver may be nil
func NewDispatcher(repo Repository, registry *Registry, resolver TenantResolver, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		registry: registry,
		resolver: resolver,
		lease:    DefaultClaimLease,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		now:      time.Now,
	}
}

// WithClaimLease sets how long a processing claim is honored, it must outlive a handler run
func (d *Dispatcher) WithClaimLease(lease time.Duration) *Dispatcher {
	if lease > 0 {
		d.lease = lease
	}
	return d
}

// Dispatch loads the event, claims it and runs the handler for its type
// A handler error is returned after the event is marked failed, so the
// surrounding retry can run it again; a failed write of that mark is returned too
func (d *Dispatcher) Dispatch(ctx context.Context, id string) error {
	ev, err := d.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		d.logger.Warn().Str("event_id", id).Msg("event not found, nothing to dispatch")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading event: %w", err)
	}

	log := d.logger.With().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Str("source", ev.Source).
		Logger()

	switch ev.Status {
	case Processed:
		log.Debug().Msg("event already processed, skipping")
		return nil
	case Processing:
		if err := d.releaseExpiredClaim(ctx, ev, log); err != nil {
			return err
		}
	}

	claimed, err := d.repo.Transition(ctx, ev.ID, []Status{Pending, Failed}, Processing, "")
	if err != nil {
		return fmt.Errorf("claiming event: %w", err)
	}
	if !claimed {
		log.Debug().Msg("lost the claim to another dispatch")
		return fmt.Errorf("%w: %s", ErrClaimHeld, ev.ID)
	}
	ev.Status = Processing

	if ev.TenantID == "" {
		ev.TenantID = d.resolveTenant(ctx, ev, log)
	}
	log = log.With().Str("tenant_id", ev.TenantID).Logger()

	handler, ok := d.registry.Lookup(ev.Type)
	if !ok {
		log.Info().Msg("no handler registered for event type, ignoring")
		handler = noop
	}

	// the outcome is stored even when the attempt ran out of time
	storeCtx := context.WithoutCancel(ctx)

	if herr := handler(ctx, ev); herr != nil {
		log.Warn().Err(herr).Msg("handler failed")
		if _, err := d.repo.Transition(storeCtx, ev.ID, []Status{Processing}, Failed, herr.Error()); err != nil {
			log.Error().Err(err).Msg("marking event failed")
			return fmt.Errorf("handling %s event: %w", ev.Type, errors.Join(herr, fmt.Errorf("marking event failed: %w", err)))
		}
		return fmt.Errorf("handling %s event: %w", ev.Type, herr)
	}

	if _, err := d.repo.Transition(storeCtx, ev.ID, []Status{Processing}, Processed, ""); err != nil {
		return fmt.Errorf("marking event processed: %w", err)
	}

	log.Info().Msg("event processed")
	return nil
}

// releaseExpiredClaim moves a processing event whose lease ran out back to failed
// A live claim is reported as ErrClaimHeld
func (d *Dispatcher) releaseExpiredClaim(ctx context.Context, ev IntegrationEvent, log zerolog.Logger) error {
	if !d.claimExpired(ev) {
		log.Debug().Time("claimed_at", ev.UpdatedAt).Msg("event is being processed")
		return fmt.Errorf("%w: %s", ErrClaimHeld, ev.ID)
	}

	released, err := d.repo.Transition(ctx, ev.ID, []Status{Processing}, Failed, "processing claim expired")
	if err != nil {
		return fmt.Errorf("releasing expired claim: %w", err)
	}
	if released {
		log.Warn().Time("claimed_at", ev.UpdatedAt).Dur("lease", d.lease).Msg("processing claim expired, released")
	}
	return nil
}

func (d *Dispatcher) claimExpired(ev IntegrationEvent) bool {
	return d.now().Sub(ev.UpdatedAt) >= d.lease
}

// Fail forces the event into failed once its retries are exhausted
// A processed event is left alone, a live processing claim is waited for
func (d *Dispatcher) Fail(ctx context.Context, id string, cause error) error {
	msg := "retries exhausted"
	if cause != nil {
		msg = cause.Error()
	}

	log := d.logger.With().Str("event_id", id).Logger()

	ev, err := d.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		log.Warn().Msg("event not failed on exhaustion, it is missing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading event: %w", err)
	}
	if ev.Status == Processing && !d.claimExpired(ev) {
		return fmt.Errorf("%w: %s", ErrClaimHeld, id)
	}

	changed, err := d.repo.Transition(ctx, id, []Status{Pending, Processing, Failed}, Failed, msg)
	if err != nil {
		return fmt.Errorf("marking event failed: %w", err)
	}

	if !changed {
		log.Warn().Msg("event not failed on exhaustion, it is already processed")
		return nil
	}

	log.Error().Str("error_message", msg).Msg("event failed permanently, requeue to recover")
	return nil
}

func (d *Dispatcher) resolveTenant(ctx context.Context, ev IntegrationEvent, log zerolog.Logger) string {
	if d.resolver == nil || ev.Source == "" {
		return ""
	}

	tenantID, err := d.resolver.TenantFor(ctx, ev.Source)
	if err != nil {
		log.Warn().Err(err).Msg("resolving tenant")
		return ""
	}
	if tenantID == "" {
		return ""
	}

	if err := d.repo.AttachTenant(ctx, ev.ID, tenantID); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("attaching tenant")
	}
	return tenantID
}

func noop(context.Context, IntegrationEvent) error { return nil }
