package iocache

import (
	"errors"
	"fmt"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/internal/parquet"
)

// Export file suffixes appended to the --output-file prefix.
const (
	runsExportSuffix      = ".analysis_runs.parquet"
	snapshotsExportSuffix = ".metric_snapshots.parquet"
)

// ExecuteHistoryExport writes every run and snapshot row in store to two Parquet files
// named after outputFile. It returns the paths written.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string) ([]string, error) {
	if outputFile == "" {
		return nil, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return nil, errors.New("history is disabled; set --history-backend to record analysis runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return nil, errors.New("no analysis history found to export")
	}

	contract.LogInfo("Exporting history from %s backend (%d runs, %d snapshot rows)",
		status.Backend, status.TotalRuns, status.TotalSnapshots)

	runs, err := store.GetAllRuns()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	snapshots, err := store.GetAllSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve metric snapshots: %w", err)
	}

	runsFile := outputFile + runsExportSuffix
	if err := parquet.WriteFile(parquet.ConvertAnalysisRunRecords(runs), runsFile); err != nil {
		return nil, fmt.Errorf("failed to write analysis runs: %w", err)
	}
	contract.LogInfo("💾 Exported %d analysis runs to %s", len(runs), runsFile)

	snapshotsFile := outputFile + snapshotsExportSuffix
	if err := parquet.WriteFile(parquet.ConvertMetricSnapshotRecords(snapshots), snapshotsFile); err != nil {
		return nil, fmt.Errorf("failed to write metric snapshots: %w", err)
	}
	contract.LogInfo("💾 Exported %d metric rows to %s", len(snapshots), snapshotsFile)

	return []string{runsFile, snapshotsFile}, nil
}
