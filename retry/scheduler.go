package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler runs one attempt, a returned error means the attempt failed
type Handler func(ctx context.Context, job Job) error

// TerminalHandler runs once when a job exhausts its attempts
type TerminalHandler func(ctx context.Context, job Job, cause error) error

// Enqueuer is the durable delayed-execution substrate
type Enqueuer interface {
	/* Enqueue makes the job runnable after delay
	 * The job must survive process restarts while it waits
	 */
	Enqueue(ctx context.Context, job Job, delay time.Duration) error
}

// TerminalGuard makes the terminal callback fire once per job id
type TerminalGuard interface {
	MarkTerminal(ctx context.Context, jobID string) (bool, error)
	Release(ctx context.Context, jobID string) error
}

// Observer receives attempt outcomes, used for metrics
type Observer interface {
	AttemptSucceeded(kind string, attempt int)
	RetryScheduled(kind string, attempt int, delay time.Duration)
	Terminal(kind string)
}

type registration struct {
	policy   Policy
	handler  Handler
	terminal TerminalHandler
}

/* Scheduler is the explicit retry state machine
 * A failed attempt never sleeps: the next attempt is a new job
 * put back on the queue with a delay, and any worker may pick it up
 */
type Scheduler struct {
	queue    Enqueuer
	guard    TerminalGuard
	observer Observer
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string

	mu    sync.RWMutex
	kinds map[string]registration
}

// NewScheduler creates a scheduler on top of a queue and a terminal guard
func NewScheduler(queue Enqueuer, guard TerminalGuard, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		queue:  queue,
		guard:  guard,
		logger: logger.With().Str("component", "retry").Logger(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		kinds:  make(map[string]registration),
	}
}

// WithObserver sets the attempt observer
func (s *Scheduler) WithObserver(o Observer) *Scheduler {
	s.observer = o
	return s
}

// Register binds a call site (kind) to its policy, handler and terminal callback
func (s *Scheduler) Register(kind string, policy Policy, handler Handler, terminal TerminalHandler) error {
	if kind == "" {
		return fmt.Errorf("kind is required")
	}
	if handler == nil {
		return fmt.Errorf("handler for %s is nil", kind)
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy for %s: %w", kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.kinds[kind]; exists {
		return fmt.Errorf("kind %s already registered", kind)
	}

	s.kinds[kind] = registration{policy: policy, handler: handler, terminal: terminal}
	return nil
}

// Policy returns the policy registered for a kind
func (s *Scheduler) Policy(kind string) (Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.kinds[kind]
	return reg.policy, ok
}

// LongestTimeout returns the largest attempt timeout of the registered kinds
func (s *Scheduler) LongestTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var longest time.Duration
	for _, reg := range s.kinds {
		if reg.policy.Timeout > longest {
			longest = reg.policy.Timeout
		}
	}
	return longest
}

// Submit creates attempt 1 of a new unit of work and enqueues it to run now
func (s *Scheduler) Submit(ctx context.Context, kind string, payload interface{}) (Job, error) {
	return s.SubmitAfter(ctx, kind, payload, 0)
}

// SubmitAfter is Submit with an initial delay
func (s *Scheduler) SubmitAfter(ctx context.Context, kind string, payload interface{}, delay time.Duration) (Job, error) {
	reg, ok := s.lookup(kind)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshaling %s payload: %w", kind, err)
	}

	job := Job{
		ID:          s.newID(),
		Kind:        kind,
		Attempt:     1,
		MaxAttempts: reg.policy.MaxAttempts,
		Payload:     raw,
		EnqueuedAt:  s.now().UTC(),
	}

	if err := s.queue.Enqueue(ctx, job, delay); err != nil {
		return Job{}, fmt.Errorf("enqueuing %s job: %w", kind, err)
	}

	s.logger.Debug().Str("job_id", job.ID).Str("kind", kind).Msg("job submitted")
	return job, nil
}

/* Run executes one attempt and decides what comes next:
 *   success                        -> done
 *   failure, attempt < max         -> enqueue attempt+1 after Delay(attempt)
 *   failure at max, or permanent   -> terminal callback, once per job id
 *   terminal callback failure      -> attempt past the cap, terminal path only
 * The returned error is about the scheduler itself (queue or guard trouble);
 * a failing handler is not an error for the caller once its next step is stored
 */
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	reg, ok := s.lookup(job.Kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}

	if job.Attempt < 1 {
		job.Attempt = 1
	}
	maxAttempts := job.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = reg.policy.MaxAttempts
	}

	log := s.logger.With().
		Str("job_id", job.ID).
		Str("kind", job.Kind).
		Int("attempt", job.Attempt).
		Int("max_attempts", maxAttempts).
		Logger()

	if job.Attempt > maxAttempts {
		log.Warn().Msg("attempt beyond cap, going terminal")
		cause := errors.New("attempt cap exceeded")
		if job.LastError != "" {
			cause = errors.New(job.LastError)
		}
		return s.terminate(ctx, reg, job, cause, log)
	}

	err := s.attempt(ctx, reg, job)
	if err == nil {
		if s.observer != nil {
			s.observer.AttemptSucceeded(job.Kind, job.Attempt)
		}
		log.Debug().Msg("attempt succeeded")
		return nil
	}

	if IsPermanent(err) || job.Attempt >= maxAttempts {
		log.Warn().Err(err).Msg("attempt failed, no attempts left")
		return s.terminate(ctx, reg, job, err, log)
	}

	delay := reg.policy.Delay(job.Attempt)
	next := job.Next(err, s.now().UTC())
	if err := s.queue.Enqueue(ctx, next, delay); err != nil {
		return fmt.Errorf("scheduling attempt %d of %s: %w", next.Attempt, job.ID, err)
	}

	if s.observer != nil {
		s.observer.RetryScheduled(job.Kind, next.Attempt, delay)
	}
	log.Warn().Err(err).Dur("delay", delay).Msg("attempt failed, retry scheduled")
	return nil
}

func (s *Scheduler) attempt(ctx context.Context, reg registration, job Job) (err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, reg.policy.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	return reg.handler(attemptCtx, job)
}

func (s *Scheduler) terminate(ctx context.Context, reg registration, job Job, cause error, log zerolog.Logger) error {
	first, err := s.guard.MarkTerminal(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("marking %s terminal: %w", job.ID, err)
	}
	if !first {
		log.Info().Msg("terminal callback already ran for this job")
		return nil
	}

	if reg.terminal == nil {
		s.terminated(job.Kind)
		log.Error().Err(cause).Msg("job exhausted its attempts")
		return nil
	}

	if err := reg.terminal(ctx, job, cause); err != nil {
		if rerr := s.guard.Release(ctx, job.ID); rerr != nil {
			log.Error().Err(rerr).Msg("releasing terminal guard")
		}
		return s.retryTerminal(ctx, reg, job, cause, err, log)
	}

	s.terminated(job.Kind)
	return nil
}

/* retryTerminal stores the failed terminal callback as an attempt past the cap
 * A job with Attempt > MaxAttempts only ever goes back to terminate, so the
 * handler is never run again for it
 */
func (s *Scheduler) retryTerminal(ctx context.Context, reg registration, job Job, cause, callbackErr error, log zerolog.Logger) error {
	next := job.Next(cause, s.now().UTC())
	if next.MaxAttempts < 1 {
		next.MaxAttempts = reg.policy.MaxAttempts
	}
	if next.Attempt <= next.MaxAttempts {
		next.Attempt = next.MaxAttempts + 1
	}

	delay := reg.policy.Delay(reg.policy.MaxAttempts)
	if err := s.queue.Enqueue(ctx, next, delay); err != nil {
		return fmt.Errorf("terminal callback for %s: %w", job.ID, errors.Join(callbackErr, err))
	}

	log.Error().Err(callbackErr).Dur("delay", delay).Msg("terminal callback failed, scheduled again")
	return nil
}

func (s *Scheduler) terminated(kind string) {
	if s.observer != nil {
		s.observer.Terminal(kind)
	}
}

func (s *Scheduler) lookup(kind string) (registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.kinds[kind]
	return reg, ok
}

var _ TimeoutReporter = (*Scheduler)(nil)

// MemoryGuard is an in-process TerminalGuard for tests and single-process tools
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryGuard creates an empty in-process guard
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{seen: make(map[string]struct{})}
}

// MarkTerminal returns true the first time it sees jobID
func (g *MemoryGuard) MarkTerminal(_ context.Context, jobID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[jobID]; ok {
		return false, nil
	}
	g.seen[jobID] = struct{}{}
	return true, nil
}

// Release forgets jobID
func (g *MemoryGuard) Release(_ context.Context, jobID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.seen, jobID)
	return nil
}
