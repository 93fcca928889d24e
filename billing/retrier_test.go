package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/marcelsud/integration-pipeline/billing"
	"github.com/marcelsud/integration-pipeline/billing/mocks"
	"github.com/marcelsud/integration-pipeline/notification"
	"github.com/marcelsud/integration-pipeline/retry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func paymentJob(attempt int) retry.Job {
	return retry.Job{
		ID:          "job-pay-1",
		Kind:        "payment.retry",
		Attempt:     attempt,
		MaxAttempts: 4,
		Payload:     json.RawMessage(`{"subscription_id":"sub-1","tenant_id":"tenant-a"}`),
	}
}

func TestRetrier_Attempt(t *testing.T) {
	ctx := context.Background()

	t.Run("charged", func(t *testing.T) {
		charger := mocks.NewCharger(t)
		r := billing.NewRetrier(charger, mocks.NewSuspender(t), mocks.NewNotifier(t), zerolog.Nop())

		charger.On("Charge", ctx, "sub-1").Return(billing.Charge{ID: "ch-1", Status: "paid"}, nil)

		assert.NoError(t, r.Attempt(ctx, paymentJob(1)))
	})

	t.Run("declined is retried", func(t *testing.T) {
		charger := mocks.NewCharger(t)
		r := billing.NewRetrier(charger, mocks.NewSuspender(t), mocks.NewNotifier(t), zerolog.Nop())

		charger.On("Charge", ctx, "sub-1").Return(billing.Charge{}, billing.ErrDeclined)

		err := r.Attempt(ctx, paymentJob(2))
		require.Error(t, err)
		assert.ErrorIs(t, err, billing.ErrDeclined)
		assert.False(t, retry.IsPermanent(err))
	})

	t.Run("bad payload is permanent", func(t *testing.T) {
		r := billing.NewRetrier(mocks.NewCharger(t), mocks.NewSuspender(t), mocks.NewNotifier(t), zerolog.Nop())

		job := paymentJob(1)
		job.Payload = json.RawMessage(`{}`)
		assert.True(t, retry.IsPermanent(r.Attempt(ctx, job)))
	})
}

func TestRetrier_Terminal(t *testing.T) {
	ctx := context.Background()

	t.Run("suspends and notifies", func(t *testing.T) {
		suspender := mocks.NewSuspender(t)
		notifier := mocks.NewNotifier(t)
		r := billing.NewRetrier(mocks.NewCharger(t), suspender, notifier, zerolog.Nop())

		suspender.On("Suspend", ctx, "sub-1", mock.MatchedBy(func(reason string) bool {
			return reason == "payment retries exhausted: charge declined"
		})).Return(true, nil)
		notifier.On("Notify", ctx, "sub-1", notification.SubscriptionSuspended).Return(nil)

		assert.NoError(t, r.Terminal(ctx, paymentJob(4), billing.ErrDeclined))
	})

	t.Run("suspension failure is returned", func(t *testing.T) {
		suspender := mocks.NewSuspender(t)
		r := billing.NewRetrier(mocks.NewCharger(t), suspender, mocks.NewNotifier(t), zerolog.Nop())

		suspender.On("Suspend", ctx, "sub-1", mock.Anything).Return(false, errors.New("db down"))

		assert.Error(t, r.Terminal(ctx, paymentJob(4), billing.ErrDeclined))
	})
}

// the whole call site: four declined charges, one suspension
func TestRetrier_WithScheduler(t *testing.T) {
	ctx := context.Background()

	charger := mocks.NewCharger(t)
	suspender := mocks.NewSuspender(t)
	notifier := mocks.NewNotifier(t)
	r := billing.NewRetrier(charger, suspender, notifier, zerolog.Nop())

	charger.On("Charge", mock.Anything, "sub-1").Return(billing.Charge{}, billing.ErrDeclined).Times(4)
	suspender.On("Suspend", ctx, "sub-1", mock.Anything).Return(true, nil).Once()
	notifier.On("Notify", ctx, "sub-1", notification.SubscriptionSuspended).Return(nil).Once()

	queue := &recordingQueue{}
	s := retry.NewScheduler(queue, retry.NewMemoryGuard(), zerolog.Nop())
	require.NoError(t, s.Register("payment.retry", retry.Policy{
		MaxAttempts: 4,
		Schedule:    []time.Duration{24 * time.Hour, 72 * time.Hour, 168 * time.Hour},
		Timeout:     time.Minute,
	}, r.Attempt, r.Terminal))

	_, err := s.Submit(ctx, "payment.retry", billing.Retry{SubscriptionID: "sub-1", TenantID: "tenant-a"})
	require.NoError(t, err)

	for len(queue.jobs) > 0 {
		job := queue.jobs[0]
		queue.jobs = queue.jobs[1:]
		require.NoError(t, s.Run(ctx, job))
	}

	assert.Equal(t, []time.Duration{0, 24 * time.Hour, 72 * time.Hour, 168 * time.Hour}, queue.delays)
}

type recordingQueue struct {
	jobs   []retry.Job
	delays []time.Duration
}

func (q *recordingQueue) Enqueue(_ context.Context, job retry.Job, delay time.Duration) error {
	q.jobs = append(q.jobs, job)
	q.delays = append(q.delays, delay)
	return nil
}
