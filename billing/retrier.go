package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/marcelsud/integration-pipeline/retry"
	"github.com/rs/zerolog"
)

/* Retrier drives the payment.retry call site
 * Each attempt is one charge, the multi-day waits between them live in
 * the retry queue, not here
 */
type Retrier struct {
	charger   Charger
	suspender Suspender
	notifier  Notifier
	logger    zerolog.Logger
}

// NewRetrier creates a payment retrier
func NewRetrier(charger Charger, suspender Suspender, notifier Notifier, logger zerolog.Logger) *Retrier {
	return &Retrier{
		charger:   charger,
		suspender: suspender,
		notifier:  notifier,
		logger:    logger.With().Str("component", "billing").Logger(),
	}
}

// Attempt is the retry.Handler for payment.retry
func (r *Retrier) Attempt(ctx context.Context, job retry.Job) error {
	var req Retry
	if err := job.Decode(&req); err != nil {
		return retry.Permanent(err)
	}
	if req.SubscriptionID == "" {
		return retry.Permanent(errors.New("subscription_id is required"))
	}

	log := r.logger.With().
		Str("subscription_id", req.SubscriptionID).
		Str("tenant_id", req.TenantID).
		Str("job_id", job.ID).
		Int("attempt", job.Attempt).
		Logger()

	charge, err := r.charger.Charge(ctx, req.SubscriptionID)
	if err != nil {
		log.Warn().Err(err).Msg("payment retry failed")
		return fmt.Errorf("charging subscription %s: %w", req.SubscriptionID, err)
	}

	log.Info().Str("charge_id", charge.ID).Msg("payment retry succeeded")
	return nil
}

// Terminal is the retry.TerminalHandler for payment.retry: suspend, then notify
func (r *Retrier) Terminal(ctx context.Context, job retry.Job, cause error) error {
	var req Retry
	if err := job.Decode(&req); err != nil {
		r.logger.Error().Err(err).Str("job_id", job.ID).Msg("undecodable payment retry reached terminal")
		return nil
	}

	log := r.logger.With().
		Str("subscription_id", req.SubscriptionID).
		Str("tenant_id", req.TenantID).
		Str("job_id", job.ID).
		Logger()

	reason := "payment retries exhausted"
	if cause != nil {
		reason = fmt.Sprintf("%s: %s", reason, cause.Error())
	}

	changed, err := r.suspender.Suspend(ctx, req.SubscriptionID, reason)
	if err != nil {
		return fmt.Errorf("suspending subscription %s: %w", req.SubscriptionID, err)
	}
	if changed {
		log.Warn().Err(cause).Msg("subscription suspended")
	} else {
		log.Info().Msg("subscription already suspended")
	}

	if err := r.notifier.Notify(ctx, req.SubscriptionID, notification.SubscriptionSuspended); err != nil {
		return fmt.Errorf("notifying suspension of %s: %w", req.SubscriptionID, err)
	}
	return nil
}
