package apiclient

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/documetrics/docudash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeBackendRoundTrip(t *testing.T) {
	fake := &FakeBackend{
		Statuses: []schema.JobStatus{
			{InProgress: true, Progress: 50},
			{Progress: 100, Result: &schema.JobResult{Code: 0, Message: "done"}},
		},
		DialogPath: `C:\\repo\\docs`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	_, err := c.FetchMetrics(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = c.StartAnalysis(ctx, `C:\repo`)
	require.NoError(t, err)
	assert.Equal(t, []string{"C:/repo"}, fake.Starts())

	status, err := c.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.InProgress)
	for range 2 {
		status, err = c.GetStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, status.Result.Code, "last status repeats")
	}

	path, err := c.OpenFileDialog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C:/repo/docs", path)

	fake.SetCSV("identifier,level\na.py,file")
	var buf bytes.Buffer
	name, err := c.Download(ctx, "src/a.py", &buf)
	require.NoError(t, err)
	assert.Equal(t, "a.py_metrics.csv", name)
	assert.Equal(t, "identifier,level\na.py,file", buf.String())

	fake.mu.Lock()
	fake.StartCode, fake.StartMessage = 409, "Analysis already in progress."
	fake.mu.Unlock()
	_, err = c.StartAnalysis(ctx, "/other")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Analysis already in progress.", apiErr.UserMessage())
}
