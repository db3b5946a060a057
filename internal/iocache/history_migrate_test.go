package iocache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/documetrics/docudash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateHistoryDisabled(t *testing.T) {
	err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "history is disabled")
}

func TestMigrateHistorySQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history_migration.db")

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))
	_, err := os.Stat(dbPath)
	require.NoError(t, err)

	// Second run is a no-op
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))

	// Down to the runs table only, then all the way down and back up
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 0))
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 2))

	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.BeginRun("u", "/repo", time.Now())
	assert.NoError(t, err)
}

func TestMigrateHistoryAfterStoreBootstrap(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1), "migrations tolerate tables created at startup")
}

func TestUpStatements(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		t.Run(string(backend), func(t *testing.T) {
			stmts, err := upStatements(backend)
			require.NoError(t, err)
			require.Len(t, stmts, 2)
			assert.Contains(t, stmts[0], analysisRunsTable)
			assert.Contains(t, stmts[1], metricSnapshotsTable)
			for _, stmt := range stmts {
				assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS"))
				assert.Equal(t, 1, strings.Count(stmt, ";"), "one statement per migration")
			}
		})
	}

	_, err := upStatements(schema.NoneBackend)
	assert.Error(t, err)
}
