package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/documetrics/docudash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metricsCSV = "identifier,level,overall_score\nsrc/a.py,file,0.8\nproj,project,0.7\n"

// newTestBackend returns a client wired to an httptest server running handler.
func newTestBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBaseURLTrimsSlash(t *testing.T) {
	c := New("http://localhost:5000/", time.Second)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}

func TestFetchMetrics(t *testing.T) {
	t.Run("returns body", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, MetricsPath, r.URL.Path)
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, metricsCSV)
		})
		text, err := c.FetchMetrics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, metricsCSV, text)
	})

	t.Run("404 means no data", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No metrics data available."})
		})
		_, err := c.FetchMetrics(context.Background())
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("other failures carry the status text", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.FetchMetrics(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, "Failed to load metrics: Internal Server Error", apiErr.UserMessage())
	})

	t.Run("transport failure", func(t *testing.T) {
		c := New("http://127.0.0.1:1", time.Second)
		_, err := c.FetchMetrics(context.Background())
		require.Error(t, err)
		var apiErr *APIError
		assert.False(t, errors.As(err, &apiErr))
	})
}

func TestStartAnalysis(t *testing.T) {
	t.Run("posts normalized path", func(t *testing.T) {
		var got analyzeRequest
		c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, schema.StartAck{Code: 0, Message: "Analysis started."})
		})
		ack, err := c.StartAnalysis(context.Background(), `C:\work\repo`)
		require.NoError(t, err)
		assert.Equal(t, "C:/work/repo", got.Path)
		assert.Equal(t, "Analysis started.", ack.Message)
	})

	t.Run("conflict keeps the server message", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusConflict, schema.StartAck{Code: -2, Message: "Analysis already in progress."})
		})
		_, err := c.StartAnalysis(context.Background(), "/repo")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "Analysis already in progress.", apiErr.UserMessage())
	})

	t.Run("unreadable rejection falls back", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "<html>bad gateway</html>")
		})
		_, err := c.StartAnalysis(context.Background(), "/repo")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Failed to start analysis", apiErr.UserMessage())
	})
}

func TestGetStatus(t *testing.T) {
	t.Run("decodes job status", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"in_progress":false,"progress":100,"status_message":"Analysis complete","result":{"code":0,"message":"ok"},"error":null}`)
		})
		status, err := c.GetStatus(context.Background())
		require.NoError(t, err)
		assert.False(t, status.InProgress)
		assert.Equal(t, 100.0, status.Progress)
		require.NotNil(t, status.Result)
		assert.Equal(t, 0, status.Result.Code)
		assert.Empty(t, status.Error)
	})

	t.Run("failure carries the status text", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := c.GetStatus(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Failed to get analysis status: Service Unavailable", apiErr.UserMessage())
	})
}

func TestOpenFileDialog(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		body     string
		expected string
		errMsg   string
		noSel    bool
	}{
		{name: "windows path", code: 200, body: `{"path":"C:\\\\Users\\\\me\\\\repo"}`, expected: "C:/Users/me/repo"},
		{name: "posix path", code: 200, body: `{"path":"/home/me/repo"}`, expected: "/home/me/repo"},
		{name: "dialog cancelled", code: 400, body: `{"error":"No folder selected"}`, errMsg: "No folder selected"},
		{name: "null path", code: 200, body: `{"path":null}`, noSel: true},
		{name: "server failure", code: 500, body: `oops`, errMsg: "Failed to open file dialog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, FileDialogPath, r.URL.Path)
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			})
			got, err := c.OpenFileDialog(context.Background())
			switch {
			case tt.noSel:
				assert.ErrorIs(t, err, ErrNoSelection)
			case tt.errMsg != "":
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.errMsg, apiErr.UserMessage())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	t.Run("uses the attachment name", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "src/my file.py", r.URL.Query().Get("file"))
			w.Header().Set("Content-Disposition", `attachment; filename="my file.py_metrics.csv"`)
			_, _ = io.WriteString(w, metricsCSV)
		})
		var buf bytes.Buffer
		name, err := c.Download(context.Background(), "src/my file.py", &buf)
		require.NoError(t, err)
		assert.Equal(t, "my file.py_metrics.csv", name)
		assert.Equal(t, metricsCSV, buf.String())
	})

	t.Run("falls back to the base name", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, metricsCSV)
		})
		name, err := c.Download(context.Background(), `src\pkg\mod.py`, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, "mod.py_metrics.csv", name)
	})

	t.Run("missing metrics", func(t *testing.T) {
		c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Metrics file not found or empty."})
		})
		_, err := c.Download(context.Background(), "src/a.py", io.Discard)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Failed to download metrics: Not Found", apiErr.UserMessage())
	})
}

func TestContextCancellation(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, schema.JobStatus{InProgress: true})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetStatus(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
