package schema

import "time"

// JobResult is the outcome the backend reports once a job is no longer running.
type JobResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JobStatus is the backend's view of the current analysis job.
type JobStatus struct {
	InProgress    bool       `json:"in_progress"`
	Progress      float64    `json:"progress"`
	StatusMessage string     `json:"status_message"`
	Result        *JobResult `json:"result"`
	Error         string     `json:"error"`
}

// StartAck is the backend's reply to an analysis request.
type StartAck struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PollSnapshot is the observable state of one poller run.
type PollSnapshot struct {
	Generation    uint64    `json:"generation"`
	Phase         Phase     `json:"phase"`
	Path          string    `json:"path"`
	Attempts      int       `json:"attempts"`
	StatusErrors  int       `json:"status_errors"`
	Progress      float64   `json:"progress"`
	StatusMessage string    `json:"status_message"`
	Err           string    `json:"error,omitempty"`
	Reloaded      bool      `json:"reloaded"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// AppState is a point-in-time copy of the UI-facing application state.
type AppState struct {
	View     View   `json:"view"`
	Location string `json:"location"`
	Selected string `json:"selected"`
	Loading  bool   `json:"loading"`
	NoData   bool   `json:"no_data"`
	Err      string `json:"error,omitempty"`
	Theme    Theme  `json:"theme"`
}

// DocTypeAverages holds the mean metrics of every file sharing a doc type.
type DocTypeAverages struct {
	DocType  string             `json:"doc_type"`
	Files    int                `json:"files"`
	Averages map[string]float64 `json:"averages"`
}

// MetricExtreme names one metric and its value.
type MetricExtreme struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Summary is the project-level digest shown on the overview.
type Summary struct {
	Project   *MetricRecord     `json:"project,omitempty"`
	Files     int               `json:"files"`
	DocTypes  []DocTypeAverages `json:"doc_types"`
	TopFiles  []MetricRecord    `json:"top_files"`
	Truncated bool              `json:"truncated"`
}
