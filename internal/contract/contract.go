// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"io"
	"time"

	"github.com/documetrics/docudash/schema"
)

// AnalysisClient is the part of the backend the poller drives.
type AnalysisClient interface {
	// StartAnalysis submits a path for analysis.
	StartAnalysis(ctx context.Context, path string) (schema.StartAck, error)

	// GetStatus returns the current job status.
	GetStatus(ctx context.Context) (schema.JobStatus, error)
}

// BackendClient defines every call made to the DocuMetrics backend.
// This allows the application state to be tested without a running server.
type BackendClient interface {
	AnalysisClient

	// FetchMetrics returns the latest metrics CSV text.
	FetchMetrics(ctx context.Context) (string, error)

	// OpenFileDialog asks the backend to show a native folder picker.
	OpenFileDialog(ctx context.Context) (string, error)

	// Download streams the CSV for one identifier into w and returns the suggested filename.
	Download(ctx context.Context, identifier string, w io.Writer) (string, error)

	// BaseURL identifies the backend, e.g. for cache keys.
	BaseURL() string
}

// CacheManager defines the interface for managing stores.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetCacheStore() CacheStore
	GetPrefsStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for key/value storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for recording analysis runs and their results.
type HistoryStore interface {
	// BeginRun creates a run record and returns its ID.
	BeginRun(runUUID string, path string, startTime time.Time) (int64, error)

	// EndRun stores the outcome of a run.
	EndRun(runID int64, endTime time.Time, phase schema.Phase, message string, attempts int) error

	// RecordSnapshot stores the dataset a successful run produced.
	RecordSnapshot(runID int64, records []schema.MetricRecord) error

	// GetStatus returns status information about the history store.
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by ID.
	GetAllRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllSnapshots returns every stored metric row ordered by run and identifier.
	GetAllSnapshots() ([]schema.MetricSnapshotRecord, error)

	// Close closes the underlying connection.
	Close() error
}
