package apiclient

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"sync"

	"github.com/documetrics/docudash/schema"
)

// FakeBackend is an in-memory DocuMetrics backend for tests. It serves the
// five endpoints the client uses. An empty CSV answers /api/metrics with 404.
type FakeBackend struct {
	mu sync.Mutex

	CSV string

	// Statuses are returned by successive /api/status calls; the last one repeats.
	// With none, the job reports in progress.
	Statuses []schema.JobStatus

	// StartCode rejects /api/analyze with this HTTP status and StartMessage when non-zero.
	StartCode    int
	StartMessage string

	DialogPath  string
	DialogError string

	starts []string
	checks int
}

// Starts returns the paths submitted to /api/analyze.
func (f *FakeBackend) Starts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.starts...)
}

// SetCSV replaces the metrics served from now on.
func (f *FakeBackend) SetCSV(csv string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CSV = csv
}

// ServeHTTP implements http.Handler.
func (f *FakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case MetricsPath:
		if f.CSV == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, f.CSV)

	case AnalyzePath:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fakeJSON(w, http.StatusBadRequest, schema.StartAck{Code: -1, Message: "Invalid request body"})
			return
		}
		f.starts = append(f.starts, req.Path)
		f.checks = 0
		if f.StartCode != 0 {
			fakeJSON(w, f.StartCode, schema.StartAck{Code: -1, Message: f.StartMessage})
			return
		}
		fakeJSON(w, http.StatusOK, schema.StartAck{Code: 0, Message: "Analysis started"})

	case StatusPath:
		status := schema.JobStatus{InProgress: true}
		if n := len(f.Statuses); n > 0 {
			status = f.Statuses[min(f.checks, n-1)]
		}
		f.checks++
		fakeJSON(w, http.StatusOK, status)

	case FileDialogPath:
		if f.DialogError != "" {
			fakeJSON(w, http.StatusInternalServerError, map[string]string{"error": f.DialogError})
			return
		}
		fakeJSON(w, http.StatusOK, map[string]any{"path": f.DialogPath})

	case DownloadPath:
		id := r.URL.Query().Get("file")
		if f.CSV == "" || id == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": DownloadName(id)}))
		_, _ = io.WriteString(w, f.CSV)

	default:
		http.NotFound(w, r)
	}
}

func fakeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
