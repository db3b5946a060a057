package iocache

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/documetrics/docudash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteCacheStore(t *testing.T, table string) (*CacheStoreImpl, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(table, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	impl, ok := store.(*CacheStoreImpl)
	require.True(t, ok)
	return impl, dbPath
}

func TestSQLiteBackendOperations(t *testing.T) {
	store, _ := newSQLiteCacheStore(t, cacheTable)

	t.Run("missing key", func(t *testing.T) {
		_, _, _, err := store.Get("metrics:http://nowhere")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set("metrics:http://localhost:5000", []byte("identifier,level\n"), 1, 1700000000))
		value, version, ts, err := store.Get("metrics:http://localhost:5000")
		require.NoError(t, err)
		assert.Equal(t, "identifier,level\n", string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1700000000), ts)
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, store.Set("k", []byte("v1"), 1, 100))
		require.NoError(t, store.Set("k", []byte("v2"), 2, 200))
		value, version, ts, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(200), ts)
	})
}

func TestCacheStoreGetStatus(t *testing.T) {
	store, _ := newSQLiteCacheStore(t, prefsTable)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("1"), 1, 1000))
	require.NoError(t, store.Set("b", []byte("2"), 1, 3000))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(3000, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestNoneBackendStore(t *testing.T) {
	store, err := NewCacheStore("test_table", schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("test_key")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("test_key", []byte("v"), 1, 1))
	_, _, _, err = store.Get("test_key")
	assert.Error(t, err, "none backend keeps nothing")

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
	assert.ErrorContains(t, err, "invalid table name")

	_, err = NewCacheStore("ok", schema.DatabaseBackend("redis"), "")
	assert.ErrorContains(t, err, "unsupported backend")

	_, err = NewCacheStore("ok", schema.SQLiteBackend, filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{name: "valid simple name", tableName: "docudash_cache"},
		{name: "valid with numbers", tableName: "cache_2"},
		{name: "leading underscore", tableName: "_cache"},
		{name: "empty", tableName: "", wantErr: true},
		{name: "leading digit", tableName: "1cache", wantErr: true},
		{name: "injection", tableName: "cache; DROP TABLE x", wantErr: true},
		{name: "hyphen", tableName: "my-cache", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"docudash_cache"`, quoteTableName(cacheTable, schema.SQLiteBackend))
	assert.Equal(t, `"docudash_cache"`, quoteTableName(cacheTable, schema.PostgreSQLBackend))
	assert.Equal(t, "`docudash_cache`", quoteTableName(cacheTable, schema.MySQLBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"?", "?", "?"}, placeholders(schema.MySQLBackend, 3))
	assert.Equal(t, []string{"$1", "$2"}, placeholders(schema.PostgreSQLBackend, 2))
	assert.Empty(t, placeholders(schema.SQLiteBackend, 0))
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: cacheTable, backend: tt.backend}
			query := store.getUpsertQuery()
			assert.Contains(t, query, tt.contains)
			assert.Contains(t, query, quoteTableName(cacheTable, tt.backend))
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery(cacheTable, schema.MySQLBackend), "LONGBLOB")
	assert.Contains(t, getCreateTableQuery(cacheTable, schema.PostgreSQLBackend), "BYTEA")
	sqliteQuery := getCreateTableQuery(cacheTable, schema.SQLiteBackend)
	assert.True(t, strings.Contains(sqliteQuery, "BLOB") && strings.Contains(sqliteQuery, "IF NOT EXISTS"))
}

func TestCacheStoreImplWithNilDB(t *testing.T) {
	store := &CacheStoreImpl{tableName: cacheTable, backend: schema.SQLiteBackend}
	_, _, _, err := store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	assert.NoError(t, store.Close())
}
