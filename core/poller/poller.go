package poller

import (
	"context"
	"sync"
	"time"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
)

// Clock abstracts time so runs can be driven without real timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// ReloadFunc fetches the metrics CSV and installs the new dataset.
type ReloadFunc func(ctx context.Context) error

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithMachine replaces the default cadence and bounds.
func WithMachine(m Machine) Option {
	return func(p *Poller) { p.machine = m }
}

// WithObserver registers a callback that receives every committed snapshot in order.
// It must not call back into the Poller.
func WithObserver(fn func(schema.PollSnapshot)) Option {
	return func(p *Poller) { p.observe = fn }
}

// Poller runs analysis jobs one at a time. Starting a run cancels the
// previous one; a superseded run never commits state again.
type Poller struct {
	client  contract.AnalysisClient
	reload  ReloadFunc
	clock   Clock
	machine Machine
	observe func(schema.PollSnapshot)

	mu      sync.Mutex // guards gen, cancel and current
	obsMu   sync.Mutex // keeps observer calls in commit order
	gen     uint64
	cancel  context.CancelFunc
	current schema.PollSnapshot
}

// New creates a Poller for the given backend. reload may be nil.
func New(client contract.AnalysisClient, reload ReloadFunc, opts ...Option) *Poller {
	p := &Poller{
		client:  client,
		reload:  reload,
		clock:   systemClock{},
		machine: NewMachine(),
		current: schema.PollSnapshot{Phase: schema.IdlePhase},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes path and blocks until the run ends, is superseded or ctx is done.
func (p *Poller) Run(ctx context.Context, path string) schema.PollSnapshot {
	runCtx, cancel, gen := p.supersede(ctx)
	defer cancel()
	return p.run(runCtx, gen, path)
}

// Start analyzes path in the background. The channel yields the final
// snapshot of this run and is then closed.
func (p *Poller) Start(ctx context.Context, path string) <-chan schema.PollSnapshot {
	runCtx, cancel, gen := p.supersede(ctx)
	done := make(chan schema.PollSnapshot, 1)
	go func() {
		defer close(done)
		defer cancel()
		done <- p.run(runCtx, gen, path)
	}()
	return done
}

// Snapshot returns the state of the current run.
func (p *Poller) Snapshot() schema.PollSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// IsCurrent reports whether gen is the latest run, committed or not.
func (p *Poller) IsCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.gen
}

// Active reports whether a run is in progress.
func (p *Poller) Active() bool {
	s := p.Snapshot()
	return s.Phase == schema.StartingPhase || s.Phase == schema.PollingPhase
}

func (p *Poller) supersede(parent context.Context) (context.Context, context.CancelFunc, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	return ctx, cancel, p.gen
}

func (p *Poller) run(ctx context.Context, gen uint64, path string) schema.PollSnapshot {
	path = schema.NormalizePath(path)
	s, effects := p.machine.Begin(schema.PollSnapshot{Generation: gen, StartedAt: p.clock.Now()}, path)
	if !p.commit(gen, s) {
		return s
	}

	for len(effects) > 0 {
		if err := ctx.Err(); err != nil {
			return p.abort(gen, s, err)
		}
		eff := effects[0]
		effects = effects[1:]

		var next []Effect
		switch eff.Action {
		case StartAction:
			_, err := p.client.StartAnalysis(ctx, path)
			s, next = p.machine.Started(s, err)
		case CheckAction:
			if eff.Delay > 0 {
				select {
				case <-ctx.Done():
					return p.abort(gen, s, ctx.Err())
				case <-p.clock.After(eff.Delay):
				}
			}
			status, err := p.client.GetStatus(ctx)
			if err != nil {
				s, next = p.machine.CheckFailed(s, err)
			} else {
				s, next = p.machine.Observe(s, status)
			}
		case ReloadAction:
			var err error
			if p.reload != nil {
				err = p.reload(ctx)
			}
			s, next = p.machine.Reloaded(s, err)
		}
		effects = append(effects, next...)

		if s.Phase.IsTerminal() && s.FinishedAt.IsZero() {
			s.FinishedAt = p.clock.Now()
		}
		if !p.commit(gen, s) {
			return s
		}
	}
	return s
}

// abort ends a run whose context is done before it reached a terminal phase.
func (p *Poller) abort(gen uint64, s schema.PollSnapshot, err error) schema.PollSnapshot {
	if !s.Phase.IsTerminal() {
		s = fail(s, schema.FailedPhase, "Analysis cancelled: "+err.Error())
		s.FinishedAt = p.clock.Now()
	}
	p.commit(gen, s)
	return s
}

// commit publishes s if gen is still the current run.
func (p *Poller) commit(gen uint64, s schema.PollSnapshot) bool {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return false
	}
	p.current = s
	p.obsMu.Lock()
	p.mu.Unlock()
	defer p.obsMu.Unlock()

	if p.observe != nil {
		p.observe(s)
	}
	return true
}
