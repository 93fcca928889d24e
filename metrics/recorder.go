package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

/* Recorder turns scheduler and inbox callbacks into counters
 * It satisfies retry.Observer and the pipeline ingest hook
 * With a redis client it also feeds the throughput window read by RedisCollector
 */
type Recorder struct {
	client *redis.Client
	logger zerolog.Logger
	now    func() time.Time

	succeeded  metric.Int64Counter
	retries    metric.Int64Counter
	retryDelay metric.Float64Histogram
	terminal   metric.Int64Counter
	ingested   metric.Int64Counter
}

// NewRecorder creates the counters on meter, client may be nil
func NewRecorder(meter metric.Meter, client *redis.Client, logger zerolog.Logger) (*Recorder, error) {
	r := &Recorder{
		client: client,
		logger: logger.With().Str("component", "metrics").Logger(),
		now:    time.Now,
	}

	var err error
	if r.succeeded, err = meter.Int64Counter("pipeline.jobs.succeeded",
		metric.WithDescription("Job attempts that succeeded"),
		metric.WithUnit("{attempts}"),
	); err != nil {
		return nil, fmt.Errorf("creating succeeded counter: %w", err)
	}

	if r.retries, err = meter.Int64Counter("pipeline.jobs.retried",
		metric.WithDescription("Failed attempts scheduled for a retry"),
		metric.WithUnit("{attempts}"),
	); err != nil {
		return nil, fmt.Errorf("creating retry counter: %w", err)
	}

	if r.retryDelay, err = meter.Float64Histogram("pipeline.jobs.retry_delay",
		metric.WithDescription("Delay before the next attempt"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating retry delay histogram: %w", err)
	}

	if r.terminal, err = meter.Int64Counter("pipeline.jobs.terminal",
		metric.WithDescription("Jobs that ran out of attempts or failed permanently"),
		metric.WithUnit("{jobs}"),
	); err != nil {
		return nil, fmt.Errorf("creating terminal counter: %w", err)
	}

	if r.ingested, err = meter.Int64Counter("pipeline.events.ingested",
		metric.WithDescription("Webhook deliveries stored by the inbox"),
		metric.WithUnit("{events}"),
	); err != nil {
		return nil, fmt.Errorf("creating ingested counter: %w", err)
	}

	return r, nil
}

// AttemptSucceeded implements retry.Observer
func (r *Recorder) AttemptSucceeded(kind string, attempt int) {
	ctx := context.Background()
	r.succeeded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job.kind", kind),
		attribute.String("job.attempt", strconv.Itoa(attempt)),
	))

	if r.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := RecordCompletion(ctx, r.client, kind+":"+uuid.NewString(), r.now()); err != nil {
		r.logger.Warn().Err(err).Str("kind", kind).Msg("recording completion")
	}
}

// RetryScheduled implements retry.Observer
func (r *Recorder) RetryScheduled(kind string, attempt int, delay time.Duration) {
	attrs := metric.WithAttributes(attribute.String("job.kind", kind))
	r.retries.Add(context.Background(), 1, attrs)
	r.retryDelay.Record(context.Background(), delay.Seconds(), attrs)
}

// Terminal implements retry.Observer
func (r *Recorder) Terminal(kind string) {
	r.terminal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("job.kind", kind)))
}

// EventIngested counts one webhook delivery
func (r *Recorder) EventIngested(eventType string, duplicate bool) {
	r.ingested.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event.type", eventType),
		attribute.Bool("event.duplicate", duplicate),
	))
}
