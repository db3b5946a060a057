package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/internal/iocache"
	"github.com/documetrics/docudash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromConfig reads the history backend settings. An empty backend means disabled.
func historyBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := readConfigFile(); err != nil {
		return "", "", err
	}
	backend := schema.DatabaseBackend(viper.GetString("history-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
func historySetup() error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	var storeBackend schema.DatabaseBackend
	if backend != schema.NoneBackend {
		storeBackend = backend
	}
	if err := iocache.InitStores(schema.NoneBackend, "", storeBackend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads configuration for migrations without opening the
// stores, so migrations can run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on analysis history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the recorded analysis runs and metric snapshots",
	Long: `When --history-backend is set, every analyze run is recorded with its path,
outcome and attempt count, and each successful run stores the metrics it loaded.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics
  export  - Export runs and snapshots to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  docudash history status --history-backend sqlite
  docudash history export --history-backend sqlite --output-file history`,
}

// historyClearCmd clears the history tables.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and snapshots",
	Long: `Drop the run, snapshot and migration tables.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  docudash history clear --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		iocache.CloseStores()
		if err := iocache.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		_, err := fmt.Println("History cleared successfully.")
		return err
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show run counts, last and oldest run times, snapshot rows and table sizes.

Examples:
  docudash history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			iocache.PrintHistoryStatus(os.Stdout, schema.HistoryStatus{Backend: string(schema.NoneBackend)})
			return nil
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
		return nil
	},
}

// historyExportCmd exports history to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs and snapshots to Parquet files",
	Long: `Write two Parquet files named after --output-file: one row per run and one
row per stored metric record.

Examples:
  docudash history export --history-backend sqlite --output-file history`,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		paths, err := iocache.ExecuteHistoryExport(iocache.Manager.GetHistoryStore(), cfg.OutputFile)
		if err != nil {
			return err
		}
		for _, p := range paths {
			contract.LogInfo("💾 Wrote %s", p)
		}
		return nil
	},
}

// historyMigrateCmd runs history migrations.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations for the history store",
	Long: `Apply or roll back the embedded SQL migrations with golang-migrate.

Examples:
  # Migrate to the latest version
  docudash history migrate --history-backend postgresql --history-db-connect "host=... dbname=..."

  # Roll back everything
  docudash history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.HistoryBackend == schema.NoneBackend {
			return errors.New("set --history-backend to run migrations")
		}
		target := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, target); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		_, err := fmt.Println("Migrations completed successfully.")
		return err
	},
}
