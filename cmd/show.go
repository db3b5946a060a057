package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// showCmd prints the ranked file overview.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the ranked documentation metrics of every file",
	Long: `Load the latest metrics from the backend and rank files by overall score.

Rows whose level is neither file nor project are skipped and counted.

Examples:
  # Top 10 files as a table
  docudash show --limit 10

  # Every file, with per-metric columns, as CSV
  docudash show --limit 0 --detail --output csv --output-file metrics.csv

  # Last cached metrics when the backend is down
  docudash show --offline`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		app, err := loadApp(rootCtx)
		if err != nil {
			return err
		}
		return writerFor(app).WriteDataset(app.Dataset(), cfg)
	},
}

// fileCmd prints one file in detail.
var fileCmd = &cobra.Command{
	Use:   "file <identifier>",
	Short: "Show every metric of one file",
	Long: `Print all metrics of a single file, its band and its best and worst metric.

The identifier is the path exactly as the backend reports it.

Examples:
  docudash file src/app/main.py
  docudash file src/app/main.py --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		app, err := loadApp(rootCtx)
		if err != nil {
			return err
		}
		if err := app.Select(args[0]); err != nil {
			return err
		}
		r, ok := app.Dataset().FileMetrics(args[0])
		if !ok {
			return fmt.Errorf("%q is a project record, use the project command", args[0])
		}
		return writerFor(app).WriteFile(r, cfg)
	},
}

// projectCmd prints the project digest.
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Show project-level metrics and averages per doc type",
	Long: `Print the project record and the mean of each metric per doc type.

Examples:
  docudash project
  docudash project --output csv`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		app, err := loadApp(rootCtx)
		if err != nil {
			return err
		}
		return writerFor(app).WriteProject(app.Summary(cfg.ResultLimit), cfg)
	},
}
