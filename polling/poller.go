package polling

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultInitialInterval = 5 * time.Second
	DefaultMaxInterval     = 120 * time.Second
	DefaultErrorThreshold  = 3
)

// ErrStopped is returned by ForceRefresh once the poller was stopped
var ErrStopped = errors.New("poller stopped")

// Item is one element of the polled collection
type Item struct {
	ID  string
	Raw json.RawMessage
}

// Fetcher reads the remote collection, it must not have side effects
type Fetcher interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// FetchFunc adapts a function to Fetcher
type FetchFunc func(ctx context.Context) ([]Item, error)

func (f FetchFunc) Fetch(ctx context.Context) ([]Item, error) { return f(ctx) }

// Config tunes the poll loop
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// ErrorThreshold is the failure streak after which every failure doubles the interval
	ErrorThreshold int
}

func (c Config) withDefaults() Config {
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = DefaultMaxInterval
		if c.MaxInterval < c.InitialInterval {
			c.MaxInterval = c.InitialInterval
		}
	}
	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = DefaultErrorThreshold
	}
	return c
}

// State is a snapshot of the poll state
type State struct {
	LastSeenIDs       map[string]struct{}
	LastTimestamp     time.Time
	CurrentInterval   time.Duration
	InitialInterval   time.Duration
	ConsecutiveErrors int
}

/* Poller keeps a client in sync with a remote collection
 * Every tick fetches the collection, reports the ids that were not in
 * the previous tick and remembers the current ids (replace, not union)
 * A failure streak reaching ErrorThreshold doubles the interval on every
 * further failure, up to MaxInterval; the first success resets it
 */
type Poller struct {
	cfg     Config
	fetcher Fetcher
	onNew   func([]Item)
	onError func(error)
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	state   State
	started bool
	stopped bool
	ticker  *time.Ticker
	cancel  context.CancelFunc
	done    chan struct{}

	// held for the whole tick, scheduled ticks skip instead of queueing
	tickMu sync.Mutex
	ticks  sync.WaitGroup
}

// New creates a poller, onNew and onError may be nil
func New(cfg Config, fetcher Fetcher, onNew func([]Item), onError func(error), logger zerolog.Logger) *Poller {
	cfg = cfg.withDefaults()
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		onNew:   onNew,
		onError: onError,
		logger:  logger.With().Str("component", "poller").Logger(),
		now:     time.Now,
		state: State{
			CurrentInterval: cfg.InitialInterval,
			InitialInterval: cfg.InitialInterval,
		},
	}
}

// Start runs the timer until Stop or ctx is done, the first tick fires after one interval
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.ticker = time.NewTicker(p.state.CurrentInterval)
	p.done = make(chan struct{})

	go p.loop(ctx, p.ticker, p.done)
	p.logger.Info().Dur("interval", p.state.CurrentInterval).Msg("polling started")
}

// Stop halts the timer, cancels an in-flight fetch and waits for the running tick
// No callback fires once Stop has returned; calling it again is a no-op
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	done := p.done
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	if done != nil {
		<-done
	}
	p.ticks.Wait()

	// a ForceRefresh in progress
	p.tickMu.Lock()
	p.tickMu.Unlock()

	p.logger.Info().Msg("polling stopped")
}

// ForceRefresh runs one tick now, waiting for a running tick to finish first
// The timer schedule is left alone unless the outcome changes the interval
func (p *Poller) ForceRefresh(ctx context.Context) error {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return ErrStopped
	}

	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	return p.tick(ctx)
}

// State returns a copy of the current state
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	s.LastSeenIDs = make(map[string]struct{}, len(p.state.LastSeenIDs))
	for id := range p.state.LastSeenIDs {
		s.LastSeenIDs[id] = struct{}{}
	}
	return s
}

func (p *Poller) loop(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tickMu.TryLock() {
				p.logger.Debug().Msg("previous tick still running, skipping")
				continue
			}
			p.ticks.Add(1)
			go func() {
				defer p.ticks.Done()
				defer p.tickMu.Unlock()
				_ = p.tick(ctx)
			}()
		}
	}
}

// tick must run with tickMu held
func (p *Poller) tick(ctx context.Context) error {
	items, err := p.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.isStopped() {
		return ErrStopped
	}
	if err != nil {
		p.failed(err)
		return err
	}

	fresh := p.succeeded(items)
	if len(fresh) > 0 && p.onNew != nil {
		p.onNew(fresh)
	}
	return nil
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *Poller) succeeded(items []Item) []Item {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]struct{}, len(items))
	var fresh []Item
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		if _, known := p.state.LastSeenIDs[it.ID]; !known {
			fresh = append(fresh, it)
		}
	}

	p.state.LastSeenIDs = seen
	p.state.LastTimestamp = p.now()

	if p.state.ConsecutiveErrors > 0 {
		p.logger.Info().Int("errors", p.state.ConsecutiveErrors).Msg("fetch recovered")
		p.state.ConsecutiveErrors = 0
		p.setInterval(p.cfg.InitialInterval)
	}

	return fresh
}

func (p *Poller) failed(err error) {
	p.mu.Lock()
	p.state.ConsecutiveErrors++
	streak := p.state.ConsecutiveErrors
	if streak >= p.cfg.ErrorThreshold {
		next := p.state.CurrentInterval * 2
		if next > p.cfg.MaxInterval {
			next = p.cfg.MaxInterval
		}
		p.setInterval(next)
	}
	interval := p.state.CurrentInterval
	p.mu.Unlock()

	p.logger.Warn().Err(err).Int("consecutive_errors", streak).Dur("interval", interval).Msg("fetch failed")
	if p.onError != nil {
		p.onError(err)
	}
}

// setInterval must run with mu held
func (p *Poller) setInterval(d time.Duration) {
	if d == p.state.CurrentInterval {
		return
	}
	p.state.CurrentInterval = d
	if p.ticker != nil && !p.stopped {
		p.ticker.Reset(d)
	}
}
