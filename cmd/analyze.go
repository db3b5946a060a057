package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/documetrics/docudash/core/poller"
	"github.com/documetrics/docudash/internal/apiclient"
	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/internal/outwriter"
	"github.com/documetrics/docudash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analyzeCmd runs an analysis to completion.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a path on the backend and reload the metrics",
	Long: `Submit a path to the backend, poll its status until the job ends and then
reload the metrics. Progress lines go to stderr; the final state is printed
with the configured output format.

The path is read by the backend, so it must exist on the backend host.
Backslashes are converted to forward slashes. Use --pick to choose the path
with the backend's folder picker instead.

Examples:
  docudash analyze /srv/repos/service
  docudash analyze --pick
  docudash analyze 'C:\work\repo' --poll-interval 2s --max-attempts 120`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := newApp(poller.WithObserver(func(s schema.PollSnapshot) {
			contract.LogInfo("%s", outwriter.FormatSnapshotLine(s))
		}))

		var path string
		switch {
		case viper.GetBool("pick"):
			picked, err := app.PickPath(ctx)
			if err != nil {
				return err
			}
			path = picked
		case len(args) == 1:
			path = args[0]
		default:
			return errors.New("a path argument or --pick is required")
		}

		snap := app.Analyze(ctx, path)
		if err := writerFor(app).WriteSnapshot(snap, cfg); err != nil {
			return err
		}
		if snap.Phase != schema.SucceededPhase {
			return fmt.Errorf("analysis %s", snap.Phase)
		}
		return nil
	},
}

// statusCmd shows the backend job status.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backend analysis status and reload metrics",
	Long: `Read the current backend job status while reloading the metrics.

Examples:
  docudash status
  docudash status --output json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		app := newApp()
		status, err := app.Refresh(rootCtx)
		if err != nil {
			return err
		}
		state := app.State()
		if state.NoData {
			contract.LogInfo("%s", schema.NoDataMessage)
		} else if d := app.Dataset(); d != nil {
			contract.LogInfo("Loaded %d file and %d project records", len(d.File), len(d.Project))
		}
		return writerFor(app).WriteSnapshot(snapshotOf(status), cfg)
	},
}

// snapshotOf renders a raw backend status like a poller snapshot.
func snapshotOf(status schema.JobStatus) schema.PollSnapshot {
	snap := schema.PollSnapshot{
		Phase:         schema.PollingPhase,
		Progress:      status.Progress,
		StatusMessage: status.StatusMessage,
	}
	switch {
	case status.Error != "":
		snap.Phase, snap.Err = schema.FailedPhase, status.Error
	case status.InProgress:
	case status.Result == nil:
		snap.Phase = schema.IdlePhase
	case status.Result.Code == 0:
		snap.Phase = schema.SucceededPhase
	default:
		snap.Phase, snap.Err = schema.FailedPhase, status.Result.Message
	}
	return snap
}

// pickCmd opens the backend folder picker.
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose a folder with the backend's native picker",
	Long: `Ask the backend to open its folder picker and print the chosen path.

Examples:
  docudash analyze "$(docudash pick)"`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		path, err := newApp().PickPath(rootCtx)
		if err != nil {
			return err
		}
		_, err = fmt.Println(path)
		return err
	},
}

// downloadCmd saves the CSV of one identifier.
var downloadCmd = &cobra.Command{
	Use:   "download <identifier>",
	Short: "Download the metrics CSV of one file or project",
	Long: `Stream the backend CSV for an identifier. Without --output-file the file is
saved under the name the backend suggests.

Examples:
  docudash download src/app/main.py
  docudash download src/app/main.py --output-file main.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		app := newApp()
		target := cfg.OutputFile
		if target == "" {
			target = apiclient.DownloadName(args[0])
		}
		f, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
		name, err := app.Download(rootCtx, args[0], f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(target)
			return err
		}
		contract.LogInfo("💾 Downloaded %s to %s", name, target)
		return nil
	},
}
