//go:build basic

// Package integration contains end-to-end tests for the docudash binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/documetrics/docudash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCLIWithSQLite drives the binary against a fake backend with SQLite stores in a temp home.
func TestCLIWithSQLite(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	fake, url := startBackend(t)
	t.Setenv("DOCUDASH_SERVER", url)
	t.Setenv("DOCUDASH_HISTORY_BACKEND", "sqlite")

	out, err := runDocudash(t, home, "show", "--output", "json")
	require.NoError(t, err)
	var overview map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &overview))
	assert.EqualValues(t, 2, overview["total_files"])

	out, err = runDocudash(t, home, "file", "src/app/util.py", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"best_metric"`)

	_, err = runDocudash(t, home, "file", "missing.py")
	assert.Error(t, err)

	out, err = runDocudash(t, home, "analyze", `C:\work\service`, "--poll-interval", "10ms", "--output", "json")
	require.NoError(t, err)
	var snap schema.PollSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, schema.SucceededPhase, snap.Phase)
	assert.True(t, snap.Reloaded)
	assert.Equal(t, []string{"C:/work/service"}, fake.Starts())

	out, err = runDocudash(t, home, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")
	assert.Contains(t, out, "Snapshot Rows: 3")

	_, err = runDocudash(t, home, "history", "export", "--output-file", filepath.Join(home, "history"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, "history.analysis_runs.parquet"))
	assert.NoError(t, err)

	// Offline mode reads what the live runs cached.
	fake.SetCSV("")
	out, err = runDocudash(t, home, "project", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Project: service")

	out, err = runDocudash(t, home, "theme", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "neon")
	out, err = runDocudash(t, home, "theme", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "neon")

	_, err = runDocudash(t, home, "version")
	require.NoError(t, err)
}

// TestCLINoData fails when the backend has no metrics yet.
func TestCLINoData(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	fake, url := startBackend(t)
	fake.SetCSV("")
	t.Setenv("DOCUDASH_SERVER", url)

	_, err := runDocudash(t, home, "show")
	assert.Error(t, err)
}
