package schema

import "time"

// CacheStatus represents the status of a key/value store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the analysis history store.
type HistoryStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalRuns      int              `json:"total_runs"`
	LastRunID      int64            `json:"last_run_id"`
	LastRunTime    time.Time        `json:"last_run_time"`
	OldestRunTime  time.Time        `json:"oldest_run_time"`
	TotalSnapshots int              `json:"total_snapshots"`
	SucceededRuns  int              `json:"succeeded_runs"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// AnalysisRunRecord represents a row from the docudash_analysis_runs table.
type AnalysisRunRecord struct {
	RunID      int64
	RunUUID    string
	Path       string
	StartTime  time.Time
	EndTime    *time.Time
	DurationMs *int64
	Phase      string
	Message    *string
	Attempts   int32
}

// MetricSnapshotRecord represents a row from the docudash_metric_snapshots table.
type MetricSnapshotRecord struct {
	RunID          int64
	Identifier     string
	Level          string
	DocType        string
	LineCount      int32
	CommentDensity float64
	Completeness   float64
	Conciseness    float64
	Accuracy       float64
	OverallScore   float64
}
