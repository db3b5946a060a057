package iocache

import (
	"fmt"
	"sync"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
)

// Table names for key/value storage.
const (
	cacheTable = "docudash_cache"
	prefsTable = "docudash_prefs"
)

// migrationsTable is where golang-migrate tracks the history schema version.
const migrationsTable = "schema_migrations"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetCacheDBFilePath returns the path to the SQLite DB file for cache and preference storage.
func GetCacheDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for analysis history.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// InitStores initializes the global manager. The cache and preference tables
// share cacheBackend; an empty historyBackend disables history.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		if cacheBackend == "" {
			cacheBackend = schema.NoneBackend
		}

		cacheStore, err := NewCacheStore(cacheTable, cacheBackend, cacheConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize metrics cache: %w", err)
			return
		}
		prefsStore, err := NewCacheStore(prefsTable, cacheBackend, cacheConnStr)
		if err != nil {
			_ = cacheStore.Close()
			initErr = fmt.Errorf("failed to initialize preferences: %w", err)
			return
		}

		var historyStore contract.HistoryStore
		if historyBackend != "" {
			historyStore, err = NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				_ = cacheStore.Close()
				_ = prefsStore.Close()
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.cache = cacheStore
		Manager.prefs = prefsStore
		Manager.history = historyStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		for _, store := range []interface{ Close() error }{Manager.cache, Manager.prefs} {
			if store != nil {
				_ = store.Close()
			}
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearCache drops the metrics cache table. Preferences live in the same
// database and are left alone.
func ClearCache(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.NoneBackend, "":
		return nil
	default:
		return dropTables(backend, connStr, GetCacheDBFilePath(), cacheTable)
	}
}

// ClearHistory drops the history tables and their migration record.
func ClearHistory(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.NoneBackend, "":
		return nil
	default:
		tables := append([]string{}, historyTables...)
		return dropTables(backend, connStr, GetHistoryDBFilePath(), append(tables, migrationsTable)...)
	}
}

// dropTables connects to the database and drops each table if it exists.
func dropTables(backend schema.DatabaseBackend, connStr, defaultPath string, tables ...string) error {
	db, err := openDB(backend, connStr, defaultPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
