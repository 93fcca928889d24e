package retry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Queue is everything a worker needs from the job substrate
type Queue interface {
	Enqueuer
	/* Dequeue waits up to `wait` for a ready job
	 * The job stays in flight until Ack, a crash before Ack leaves it
	 * for RecoverStale to hand out again
	 */
	Dequeue(ctx context.Context, wait time.Duration) (Delivery, bool, error)
	Ack(ctx context.Context, d Delivery) error
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	RecoverStale(ctx context.Context, olderThan time.Duration, now time.Time) (int, error)
}

// Runner executes one job attempt
type Runner interface {
	Run(ctx context.Context, job Job) error
}

// TimeoutReporter is implemented by runners that know their longest attempt timeout
type TimeoutReporter interface {
	LongestTimeout() time.Duration
}

// Heartbeater publishes worker liveness
type Heartbeater interface {
	SetWorkerHeartbeat(ctx context.Context, workerID, status string) error
}

/* WorkerConfig tunes the worker loops
 * StaleAfter is raised to twice the runner's longest attempt timeout,
 * an in-flight job is only handed out again once its attempt is surely over
 */
type WorkerConfig struct {
	ID                string
	Concurrency       int
	PollWait          time.Duration
	PromoteInterval   time.Duration
	StaleAfter        time.Duration
	HeartbeatInterval time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.ID == "" {
		host, _ := os.Hostname()
		c.ID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.PollWait <= 0 {
		c.PollWait = time.Second
	}
	if c.PromoteInterval <= 0 {
		c.PromoteInterval = time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5 * time.Minute
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	return c
}

/* Worker drains the queue with a fixed pool of consumers
 * Next to the consumers it runs a promoter (delayed -> ready),
 * a sweeper (stale in-flight -> ready) and an optional heartbeat
 */
type Worker struct {
	queue     Queue
	runner    Runner
	heartbeat Heartbeater
	cfg       WorkerConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewWorker creates a worker pool
func NewWorker(queue Queue, runner Runner, cfg WorkerConfig, logger zerolog.Logger) *Worker {
	cfg = cfg.withDefaults()
	logger = logger.With().Str("component", "worker").Str("worker_id", cfg.ID).Logger()

	if r, ok := runner.(TimeoutReporter); ok {
		if floor := 2 * r.LongestTimeout(); cfg.StaleAfter < floor {
			logger.Warn().Dur("configured", cfg.StaleAfter).Dur("stale_after", floor).Msg("stale-after below the longest attempt timeout, raised")
			cfg.StaleAfter = floor
		}
	}

	return &Worker{
		queue:  queue,
		runner: runner,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// StaleAfter is the in-flight age after which a job is handed out again
func (w *Worker) StaleAfter() time.Duration {
	return w.cfg.StaleAfter
}

// WithHeartbeat enables liveness reporting
func (w *Worker) WithHeartbeat(h Heartbeater) *Worker {
	w.heartbeat = h
	return w
}

// Run blocks until ctx is cancelled or a loop fails hard
func (w *Worker) Run(parent context.Context) error {
	g, ctx := errgroup.WithContext(parent)

	for i := 0; i < w.cfg.Concurrency; i++ {
		g.Go(func() error {
			w.consume(ctx)
			return nil
		})
	}

	g.Go(func() error {
		w.every(ctx, w.cfg.PromoteInterval, w.promote)
		return nil
	})

	g.Go(func() error {
		w.every(ctx, w.cfg.StaleAfter/2, w.sweep)
		return nil
	})

	if w.heartbeat != nil {
		g.Go(func() error {
			w.beat(ctx, "running")
			w.every(ctx, w.cfg.HeartbeatInterval, func(ctx context.Context) { w.beat(ctx, "running") })
			return nil
		})
	}

	w.logger.Info().Int("concurrency", w.cfg.Concurrency).Msg("worker started")
	err := g.Wait()
	if w.heartbeat != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), 2*time.Second)
		w.beat(stopCtx, "stopping")
		cancel()
	}
	w.logger.Info().Msg("worker stopped")
	return err
}

// ProcessOne takes at most one job from the queue and runs it
// Returns false when no job was ready
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	d, ok, err := w.queue.Dequeue(ctx, w.cfg.PollWait)
	if err != nil {
		return false, fmt.Errorf("dequeuing job: %w", err)
	}
	if !ok {
		return false, nil
	}

	runErr := w.runner.Run(ctx, d.Job)
	if runErr != nil && !errors.Is(runErr, ErrUnknownKind) {
		// not acked: the sweeper will hand it out again
		return true, fmt.Errorf("running job %s: %w", d.Job.ID, runErr)
	}
	if runErr != nil {
		w.logger.Error().Err(runErr).Str("job_id", d.Job.ID).Msg("dropping job")
	}

	if err := w.queue.Ack(ctx, d); err != nil {
		return true, fmt.Errorf("acking job %s: %w", d.Job.ID, err)
	}
	return true, nil
}

func (w *Worker) consume(ctx context.Context) {
	for ctx.Err() == nil {
		if _, err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error().Err(err).Msg("processing job")
			sleep(ctx, w.cfg.PollWait)
		}
	}
}

func (w *Worker) promote(ctx context.Context) {
	n, err := w.queue.PromoteDue(ctx, w.now())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("promoting due jobs")
		}
		return
	}
	if n > 0 {
		w.logger.Debug().Int("count", n).Msg("promoted due jobs")
	}
}

func (w *Worker) sweep(ctx context.Context) {
	n, err := w.queue.RecoverStale(ctx, w.cfg.StaleAfter, w.now())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("recovering stale jobs")
		}
		return
	}
	if n > 0 {
		w.logger.Warn().Int("count", n).Msg("requeued stale in-flight jobs")
	}
}

func (w *Worker) beat(ctx context.Context, status string) {
	if err := w.heartbeat.SetWorkerHeartbeat(ctx, w.cfg.ID, status); err != nil && ctx.Err() == nil {
		w.logger.Warn().Err(err).Msg("sending heartbeat")
	}
}

func (w *Worker) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
