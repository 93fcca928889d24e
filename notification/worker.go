package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/integration-pipeline/retry"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

/* Worker sends templated messages through the provider
 * Hard failures (the provider call faulted) are returned so the retry
 * scheduler re-attempts them, soft failures are logged and swallowed
 */
type Worker struct {
	targets  TargetLoader
	provider Provider
	attempts AttemptRecorder
	timeout  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewWorker creates a notification worker
func NewWorker(targets TargetLoader, provider Provider, attempts AttemptRecorder, timeout time.Duration, logger zerolog.Logger) *Worker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Worker{
		targets:  targets,
		provider: provider,
		attempts: attempts,
		timeout:  timeout,
		logger:   logger.With().Str("component", "notification").Logger(),
		now:      time.Now,
	}
}

// Send runs one attempt, true means the provider accepted the message
func (w *Worker) Send(ctx context.Context, req Request) (bool, error) {
	log := w.logger.With().
		Str("target_id", req.TargetID).
		Str("template_key", req.TemplateKey).
		Str("job_id", req.JobID).
		Int("attempt", req.Attempt).
		Logger()

	if !Supports(req.TemplateKey) {
		log.Warn().Msg("unsupported template key, nothing sent")
		w.record(ctx, req, Target{}, OutcomeUnsupported, "", ErrUnsupportedTemplate)
		return false, nil
	}

	target, err := w.targets.Load(ctx, req.TargetID)
	if err != nil {
		w.record(ctx, req, Target{}, OutcomeError, "", err)
		if errors.Is(err, ErrTargetNotFound) {
			return false, retry.Permanent(fmt.Errorf("loading target %s: %w", req.TargetID, err))
		}
		return false, fmt.Errorf("loading target %s: %w", req.TargetID, err)
	}
	log = log.With().Str("tenant_id", target.TenantID).Logger()

	text, err := Render(req.TemplateKey, target)
	if err != nil {
		return false, retry.Permanent(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	res, err := w.provider.SendText(callCtx, Message{
		Instance: target.Instance,
		Number:   target.Phone,
		Text:     text,
	})
	if err != nil {
		log.Error().Err(err).Msg("provider call failed")
		w.record(ctx, req, target, OutcomeError, "", err)
		return false, fmt.Errorf("sending %s to %s: %w", req.TemplateKey, req.TargetID, err)
	}

	if !res.Accepted {
		log.Warn().Str("status", res.Status).Str("reason", res.Reason).Msg("provider did not accept message")
		w.record(ctx, req, target, OutcomeRejected, res.MessageID, errors.New(rejectReason(res)))
		return false, nil
	}

	log.Info().Str("message_id", res.MessageID).Msg("notification sent")
	w.record(ctx, req, target, OutcomeSent, res.MessageID, nil)
	return true, nil
}

// Terminal reports a send that exhausted its attempts, nothing is rolled back
func (w *Worker) Terminal(ctx context.Context, req Request, cause error) error {
	w.logger.Error().
		Err(cause).
		Str("target_id", req.TargetID).
		Str("template_key", req.TemplateKey).
		Str("job_id", req.JobID).
		Msg("notification retries exhausted, manual follow-up needed")

	w.record(ctx, req, Target{}, OutcomeExhausted, "", cause)
	return nil
}

// History returns the recorded attempts for a target, newest last
func (w *Worker) History(ctx context.Context, targetID string, limit int64) ([]Attempt, error) {
	if w.attempts == nil {
		return nil, nil
	}
	attempts, err := w.attempts.List(ctx, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	return attempts, nil
}

func (w *Worker) record(ctx context.Context, req Request, target Target, outcome Outcome, messageID string, cause error) {
	if w.attempts == nil {
		return
	}

	a := Attempt{
		JobID:       req.JobID,
		TargetID:    req.TargetID,
		TenantID:    target.TenantID,
		TemplateKey: req.TemplateKey,
		Attempt:     req.Attempt,
		Outcome:     outcome,
		MessageID:   messageID,
		At:          w.now().UTC(),
	}
	if cause != nil {
		a.Error = cause.Error()
	}

	// the history is best effort, it never changes the attempt outcome
	if err := w.attempts.Record(context.WithoutCancel(ctx), a); err != nil {
		w.logger.Warn().Err(err).Str("target_id", req.TargetID).Msg("recording attempt")
	}
}

func rejectReason(res Result) string {
	if res.Reason != "" {
		return res.Reason
	}
	if res.Status != "" {
		return "provider status " + res.Status
	}
	return "not accepted by provider"
}
