package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient replays status readings in order and repeats the last one.
type scriptedClient struct {
	mu        sync.Mutex
	startErr  error
	statuses  []schema.JobStatus
	statusErr []error
	starts    []string
	checks    int
	block     map[string]chan struct{} // paths whose start waits for ctx
}

var _ contract.AnalysisClient = &scriptedClient{} // Compile-time check

func (c *scriptedClient) StartAnalysis(ctx context.Context, path string) (schema.StartAck, error) {
	c.mu.Lock()
	c.starts = append(c.starts, path)
	entered := c.block[path]
	c.mu.Unlock()

	if entered != nil {
		close(entered)
		<-ctx.Done()
		return schema.StartAck{}, ctx.Err()
	}
	if c.startErr != nil {
		return schema.StartAck{}, c.startErr
	}
	return schema.StartAck{Message: "Analysis started"}, nil
}

func (c *scriptedClient) GetStatus(_ context.Context) (schema.JobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.checks
	c.checks++
	if i < len(c.statusErr) && c.statusErr[i] != nil {
		return schema.JobStatus{}, c.statusErr[i]
	}
	if len(c.statuses) == 0 {
		return schema.JobStatus{InProgress: true}, nil
	}
	if i >= len(c.statuses) {
		i = len(c.statuses) - 1
	}
	return c.statuses[i], nil
}

func (c *scriptedClient) checkCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks
}

// fakeClock fires timers immediately and records the requested delays.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// recorder collects observed snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []schema.PollSnapshot
}

func (r *recorder) observe(s schema.PollSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) phases() []schema.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.Phase, 0, len(r.snaps))
	for _, s := range r.snaps {
		out = append(out, s.Phase)
	}
	return out
}

func newTestPoller(client *scriptedClient, reload ReloadFunc, m Machine) (*Poller, *fakeClock, *recorder) {
	clock := newFakeClock()
	rec := &recorder{}
	p := New(client, reload, WithClock(clock), WithMachine(m), WithObserver(rec.observe))
	return p, clock, rec
}

func TestPollerSuccess(t *testing.T) {
	client := &scriptedClient{statuses: []schema.JobStatus{
		{InProgress: true, Progress: 10, StatusMessage: "Parsing"},
		{InProgress: true, Progress: 60, StatusMessage: "Scoring"},
		{Progress: 100, Result: &schema.JobResult{Code: 0, Message: "done"}},
	}}
	reloads := 0
	reload := func(context.Context) error { reloads++; return nil }
	p, clock, rec := newTestPoller(client, reload, Machine{Interval: 5 * time.Second, MaxAttempts: 60, StatusRetries: 3})

	final := p.Run(context.Background(), `C:\repo\docs`)

	assert.Equal(t, schema.SucceededPhase, final.Phase)
	assert.True(t, final.Reloaded)
	assert.Empty(t, final.Err)
	assert.Equal(t, "C:/repo/docs", final.Path)
	assert.Equal(t, 3, final.Attempts)
	assert.Equal(t, 3, client.checkCount())
	assert.Equal(t, 1, reloads)
	assert.Equal(t, []string{"C:/repo/docs"}, client.starts)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clock.delays, "first check is immediate")
	assert.Equal(t, 10*time.Second, final.FinishedAt.Sub(final.StartedAt))

	assert.Equal(t, []schema.Phase{
		schema.StartingPhase,
		schema.PollingPhase,
		schema.PollingPhase,
		schema.PollingPhase,
		schema.SucceededPhase,
		schema.SucceededPhase,
	}, rec.phases())
	assert.Equal(t, final, p.Snapshot())
	assert.False(t, p.Active())
}

func TestPollerStartRejected(t *testing.T) {
	client := &scriptedClient{startErr: displayErr{"Analysis already in progress"}}
	p, _, rec := newTestPoller(client, nil, NewMachine())

	final := p.Run(context.Background(), "/repo")

	assert.Equal(t, schema.FailedPhase, final.Phase)
	assert.Equal(t, "Analysis already in progress", final.Err)
	assert.Zero(t, client.checkCount())
	assert.NotContains(t, rec.phases(), schema.PollingPhase)
}

func TestPollerFailures(t *testing.T) {
	tests := []struct {
		name   string
		status schema.JobStatus
		err    string
	}{
		{"result with message", schema.JobStatus{Result: &schema.JobResult{Code: 1, Message: "Path not found"}}, "Path not found"},
		{"result without message", schema.JobStatus{Result: &schema.JobResult{Code: 1}}, "Analysis failed"},
		{"status error", schema.JobStatus{Error: "Internal error"}, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{statuses: []schema.JobStatus{{InProgress: true}, tt.status}}
			reloads := 0
			p, _, _ := newTestPoller(client, func(context.Context) error { reloads++; return nil }, NewMachine())

			final := p.Run(context.Background(), "/repo")

			assert.Equal(t, schema.FailedPhase, final.Phase)
			assert.Equal(t, tt.err, final.Err)
			assert.Equal(t, 2, client.checkCount())
			assert.Zero(t, reloads)
			assert.False(t, final.FinishedAt.IsZero())
		})
	}
}

func TestPollerTimeout(t *testing.T) {
	client := &scriptedClient{}
	p, clock, _ := newTestPoller(client, nil, Machine{Interval: time.Second, MaxAttempts: 3, StatusRetries: 3})

	final := p.Run(context.Background(), "/repo")

	assert.Equal(t, schema.TimedOutPhase, final.Phase)
	assert.Equal(t, "Analysis timed out", final.Err)
	assert.Equal(t, 3, client.checkCount())
	assert.Len(t, clock.delays, 2)
}

func TestPollerStatusRetries(t *testing.T) {
	unavailable := errors.New("503 Service Unavailable")

	t.Run("recovers after transient failure", func(t *testing.T) {
		client := &scriptedClient{
			statusErr: []error{nil, unavailable, unavailable},
			statuses: []schema.JobStatus{
				{InProgress: true},
				{},
				{},
				{Result: &schema.JobResult{Code: 0}},
			},
		}
		p, _, _ := newTestPoller(client, nil, Machine{Interval: time.Second, MaxAttempts: 10, StatusRetries: 2})

		final := p.Run(context.Background(), "/repo")

		assert.Equal(t, schema.SucceededPhase, final.Phase)
		assert.Equal(t, 4, final.Attempts)
	})

	t.Run("gives up after too many", func(t *testing.T) {
		client := &scriptedClient{statusErr: []error{unavailable, unavailable, unavailable}}
		p, _, _ := newTestPoller(client, nil, Machine{Interval: time.Second, MaxAttempts: 10, StatusRetries: 2})

		final := p.Run(context.Background(), "/repo")

		assert.Equal(t, schema.FailedPhase, final.Phase)
		assert.Equal(t, "Failed to fetch analysis status: 503 Service Unavailable", final.Err)
		assert.Equal(t, 3, client.checkCount())
	})
}

func TestPollerReloadFailure(t *testing.T) {
	client := &scriptedClient{statuses: []schema.JobStatus{{Result: &schema.JobResult{Code: 0}}}}
	reload := func(context.Context) error { return errors.New("Failed to load metrics: Not Found") }
	p, _, _ := newTestPoller(client, reload, NewMachine())

	final := p.Run(context.Background(), "/repo")

	assert.Equal(t, schema.SucceededPhase, final.Phase)
	assert.False(t, final.Reloaded)
	assert.Equal(t, "Failed to load metrics: Not Found", final.Err)
}

func TestPollerCancelled(t *testing.T) {
	client := &scriptedClient{}
	p, _, _ := newTestPoller(client, nil, NewMachine())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	final := p.Run(ctx, "/repo")

	assert.Equal(t, schema.FailedPhase, final.Phase)
	assert.Contains(t, final.Err, "Analysis cancelled")
	assert.Empty(t, client.starts)
}

func TestPollerSupersede(t *testing.T) {
	entered := make(chan struct{})
	client := &scriptedClient{
		statuses: []schema.JobStatus{{Result: &schema.JobResult{Code: 0}}},
		block:    map[string]chan struct{}{"a": entered},
	}
	p, _, rec := newTestPoller(client, nil, NewMachine())

	first := p.Start(context.Background(), "a")
	<-entered
	require.True(t, p.Active())

	second := p.Run(context.Background(), "b")
	stale := <-first

	assert.Equal(t, uint64(1), stale.Generation)
	assert.Equal(t, uint64(2), second.Generation)
	assert.Equal(t, schema.SucceededPhase, second.Phase)

	current := p.Snapshot()
	assert.Equal(t, uint64(2), current.Generation)
	assert.Equal(t, "b", current.Path)
	assert.Equal(t, schema.SucceededPhase, current.Phase)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	seenSecond := false
	for _, s := range rec.snaps {
		if s.Generation == 2 {
			seenSecond = true
			continue
		}
		assert.False(t, seenSecond, "stale run committed after its successor started")
	}
	assert.True(t, seenSecond)
}
