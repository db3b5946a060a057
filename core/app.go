// Package core has the application state shared by the CLI, MCP and HTTP surfaces.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/documetrics/docudash/core/algo"
	"github.com/documetrics/docudash/core/ingest"
	"github.com/documetrics/docudash/core/poller"
	"github.com/documetrics/docudash/internal/apiclient"
	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoMetrics is returned by EnsureLoaded when the backend has no metrics yet.
var ErrNoMetrics = errors.New(schema.NoDataMessage)

// supersededMessage is recorded for runs replaced by a newer one before they finished.
const supersededMessage = "Analysis superseded by a newer run"

// App is the explicit application state. The dataset is swapped atomically so
// readers always see a complete snapshot; the UI fields are guarded by mu.
type App struct {
	client contract.BackendClient
	stores contract.CacheManager
	themes *Themes
	poller *poller.Poller
	now    func() time.Time

	dataset atomic.Pointer[schema.Dataset]

	mu    sync.Mutex
	state schema.AppState
}

// NewApp wires the backend client and stores into a fresh application state.
// stores may be nil, which disables caching, preferences and history.
// Poller options (cadence, clock, observer) are passed through.
func NewApp(client contract.BackendClient, stores contract.CacheManager, opts ...poller.Option) *App {
	a := &App{
		client: client,
		stores: stores,
		now:    time.Now,
		state: schema.AppState{
			View:     schema.WelcomeView,
			Location: schema.WelcomeLocation,
			Theme:    DefaultTheme,
		},
	}
	var prefs contract.CacheStore
	if stores != nil {
		prefs = stores.GetPrefsStore()
	}
	a.themes = NewThemes(prefs)
	a.themes.Load()
	a.poller = poller.New(client, a.reloadRun, opts...)
	return a
}

// Themes returns the theme preference holder.
func (a *App) Themes() *Themes {
	return a.themes
}

// Dataset returns the current dataset, or nil before the first load.
func (a *App) Dataset() *schema.Dataset {
	return a.dataset.Load()
}

// State returns a copy of the UI-facing state.
func (a *App) State() schema.AppState {
	a.mu.Lock()
	s := a.state
	a.mu.Unlock()
	s.Theme = a.themes.Current()
	return s
}

// AnalysisSnapshot returns the state of the current or last analysis run.
func (a *App) AnalysisSnapshot() schema.PollSnapshot {
	return a.poller.Snapshot()
}

func (a *App) update(fn func(*schema.AppState)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.state)
}

// LoadMetrics fetches, parses and installs the latest metrics. A backend with no
// metrics yet is not an error: NoData is set and the view stays on welcome.
func (a *App) LoadMetrics(ctx context.Context) error {
	a.update(func(s *schema.AppState) {
		s.Loading = true
		s.Err = ""
	})
	if err := a.fetchAndInstall(ctx); err != nil {
		a.fail(err)
		return err
	}
	return nil
}

// reloadRun is the reload step of an analysis run. A run cancelled or
// superseded mid-fetch returns its error and leaves the UI state alone.
func (a *App) reloadRun(ctx context.Context) error {
	err := a.fetchAndInstall(ctx)
	if err != nil && ctx.Err() == nil {
		a.fail(err)
	}
	return err
}

func (a *App) fetchAndInstall(ctx context.Context) error {
	text, err := a.client.FetchMetrics(ctx)
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if errors.Is(err, apiclient.ErrNoData) {
		a.update(func(s *schema.AppState) {
			s.Loading = false
			s.NoData = true
			s.View = schema.WelcomeView
			s.Location = schema.WelcomeLocation
		})
		return nil
	}
	if err != nil {
		return err
	}

	a.install(ingest.Load(text))
	storeMetrics(a.cacheStore(), metricsCacheKey(a.client.BaseURL()), text, a.now())
	return nil
}

// EnsureLoaded returns the current dataset, loading it on first use.
func (a *App) EnsureLoaded(ctx context.Context) (*schema.Dataset, error) {
	if d := a.Dataset(); d != nil {
		return d, nil
	}
	if err := a.LoadMetrics(ctx); err != nil {
		return nil, err
	}
	if d := a.Dataset(); d != nil {
		return d, nil
	}
	return nil, ErrNoMetrics
}

// LoadCached installs the last metrics cached for this backend and returns when they were stored.
func (a *App) LoadCached() (time.Time, error) {
	store := a.cacheStore()
	if store == nil {
		err := errors.New("cache is disabled, set --cache-backend to use offline mode")
		a.fail(err)
		return time.Time{}, err
	}
	text, storedAt, err := checkCacheHit(store, metricsCacheKey(a.client.BaseURL()))
	if err != nil {
		a.fail(err)
		return time.Time{}, err
	}
	a.install(ingest.Load(text))
	return storedAt, nil
}

// Refresh reloads metrics and reads the backend job status concurrently.
// A failure of one call does not cancel the other.
func (a *App) Refresh(ctx context.Context) (schema.JobStatus, error) {
	var (
		status schema.JobStatus
		g      errgroup.Group
	)
	g.Go(func() error {
		return a.LoadMetrics(ctx)
	})
	g.Go(func() error {
		var err error
		status, err = a.client.GetStatus(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return status, err
	}
	return status, nil
}

// install replaces the dataset and moves the UI to the results view.
// The first file, else the first project, becomes the selection.
func (a *App) install(d *schema.Dataset) {
	a.dataset.Store(d)
	a.update(func(s *schema.AppState) {
		s.Loading = false
		s.Err = ""
		s.NoData = false
		if id := d.DefaultSelection(); id != "" {
			s.Selected = id
		}
		s.View = schema.ResultsView
		s.Location = schema.DashboardLocation
	})
}

// fail records err as the single user-visible message.
func (a *App) fail(err error) {
	msg := poller.UserMessage(err)
	a.update(func(s *schema.AppState) {
		s.Loading = false
		s.Err = msg
	})
}

// Select makes id the current selection. It must name a file or project record.
func (a *App) Select(id string) error {
	d := a.Dataset()
	if d == nil {
		return errors.New("no metrics loaded")
	}
	if _, ok := d.FileMetrics(id); !ok && !d.IsProject(id) {
		return fmt.Errorf("unknown identifier %q", id)
	}
	a.update(func(s *schema.AppState) { s.Selected = id })
	return nil
}

// Selected returns the record of the current selection.
func (a *App) Selected() (schema.MetricRecord, bool) {
	d := a.Dataset()
	id := a.State().Selected
	if r, ok := d.FileMetrics(id); ok {
		return r, true
	}
	if d != nil {
		for _, r := range d.Project {
			if r.Identifier == id {
				return r, true
			}
		}
	}
	return schema.MetricRecord{}, false
}

// Summary builds the project digest of the current dataset.
func (a *App) Summary(limit int) schema.Summary {
	return algo.BuildSummary(a.Dataset(), limit)
}

// PickPath asks the backend to show its folder picker.
func (a *App) PickPath(ctx context.Context) (string, error) {
	return a.client.OpenFileDialog(ctx)
}

// Download streams the CSV of one identifier into w and returns the suggested filename.
func (a *App) Download(ctx context.Context, id string, w io.Writer) (string, error) {
	return a.client.Download(ctx, id, w)
}

// Analyze runs an analysis of path to completion and records it in the history store.
func (a *App) Analyze(ctx context.Context, path string) schema.PollSnapshot {
	return <-a.AnalyzeAsync(ctx, path)
}

// AnalyzeAsync starts an analysis of path and returns at once. The channel
// yields the final snapshot after history is written. Any earlier run is superseded.
// Loading stays set and the error stays clear until the run ends.
func (a *App) AnalyzeAsync(ctx context.Context, path string) <-chan schema.PollSnapshot {
	runID := a.beginHistory(path)

	// Starting under mu orders this Loading after any superseded run's finishRun.
	a.mu.Lock()
	a.state.Loading = true
	a.state.Err = ""
	done := a.poller.Start(ctx, path)
	a.mu.Unlock()

	out := make(chan schema.PollSnapshot, 1)
	go func() {
		defer close(out)
		snap := <-done
		a.finishRun(snap)
		a.endHistory(runID, snap)
		out <- snap
	}()
	return out
}

// finishRun settles the UI state when the current run ends. Superseded runs change nothing.
func (a *App) finishRun(snap schema.PollSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.isCurrentRun(snap) {
		return
	}
	a.state.Loading = false
	if snap.Phase != schema.SucceededPhase && snap.Err != "" {
		a.state.Err = snap.Err
	}
}

func (a *App) isCurrentRun(snap schema.PollSnapshot) bool {
	return a.poller.IsCurrent(snap.Generation)
}

func (a *App) cacheStore() contract.CacheStore {
	if a.stores == nil {
		return nil
	}
	return a.stores.GetCacheStore()
}

func (a *App) historyStore() contract.HistoryStore {
	if a.stores == nil {
		return nil
	}
	return a.stores.GetHistoryStore()
}

// beginHistory records the start of a run. Zero means nothing was recorded.
func (a *App) beginHistory(path string) int64 {
	history := a.historyStore()
	if history == nil {
		return 0
	}
	runID, err := history.BeginRun(uuid.NewString(), schema.NormalizePath(path), a.now())
	if err != nil {
		contract.LogWarn("failed to record analysis run", err)
		return 0
	}
	return runID
}

// endHistory stores the outcome of a run and, after a successful reload, the dataset it produced.
func (a *App) endHistory(runID int64, snap schema.PollSnapshot) {
	history := a.historyStore()
	if history == nil || runID == 0 {
		return
	}
	phase, message := snap.Phase, snap.Err
	if !a.isCurrentRun(snap) && !phase.IsTerminal() {
		phase, message = schema.FailedPhase, supersededMessage
	}
	end := snap.FinishedAt
	if end.IsZero() {
		end = a.now()
	}
	if err := history.EndRun(runID, end, phase, message, snap.Attempts); err != nil {
		contract.LogWarn("failed to finish analysis run", err)
		return
	}
	if phase != schema.SucceededPhase || !snap.Reloaded {
		return
	}
	d := a.Dataset()
	if d == nil {
		return
	}
	records := make([]schema.MetricRecord, 0, len(d.File)+len(d.Project))
	records = append(records, d.File...)
	records = append(records, d.Project...)
	if err := history.RecordSnapshot(runID, records); err != nil {
		contract.LogWarn("failed to record metrics snapshot", err)
	}
}
