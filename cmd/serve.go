package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/documetrics/docudash/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd runs the dashboard JSON API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard state as a JSON API",
	Long: `Start an HTTP server exposing the loaded metrics, the selection, the theme
and analysis runs for a browser dashboard.

Routes:
  GET  /api/health
  GET  /api/dataset?limit=N
  GET  /api/file?id=<identifier>
  GET  /api/project
  GET  /api/summary?limit=N
  POST /api/analyze   {"path": "..."}
  GET  /api/analysis
  GET  /api/theme
  PUT  /api/theme     {"theme": "aquatic|neon"}

Examples:
  docudash serve --addr 127.0.0.1:8080`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := newApp()
		if cfg.Offline {
			if _, err := app.LoadCached(); err != nil {
				return err
			}
		}
		return server.New(cfg, app).Listen(ctx, cfg.ServeAddr)
	},
}
