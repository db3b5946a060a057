package cmd

import (
	"fmt"
	"os"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/internal/iocache"
	"github.com/documetrics/docudash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Cache subcommands skip sharedSetup so they work without a reachable backend.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local metrics cache used by --offline",
	Long: `Manage the cache that keeps the last metrics CSV loaded from each backend.

The cache backs --offline mode. Theme preferences live in the same database.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached metrics

Examples:
  docudash cache status
  docudash cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached metrics",
	Long: `Drop the metrics cache table from the configured backend. Theme preferences are kept.

Examples:
  docudash cache clear

  # Clear MySQL cache (set connection string via env variable)
  DOCUDASH_CACHE_BACKEND=mysql DOCUDASH_CACHE_DB_CONNECT="..." docudash cache clear`,
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		// The store holds the SQLite file open.
		iocache.CloseStores()
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		_, err := fmt.Println("Cache cleared successfully.")
		return err
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, connection state, entry count, entry times and table size
of the metrics cache and the preferences table.

Examples:
  docudash cache status`,
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := iocache.Manager.GetCacheStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get cache status: %w", err)
		}
		iocache.PrintCacheStatus(os.Stdout, "Cache", status)

		prefs, err := iocache.Manager.GetPrefsStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get preferences status: %w", err)
		}
		fmt.Println()
		iocache.PrintCacheStatus(os.Stdout, "Preferences", prefs)
		return nil
	},
}
