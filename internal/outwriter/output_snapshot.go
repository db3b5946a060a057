package outwriter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
)

// WriteSnapshotResult outputs the state of an analysis run. Text mode prints
// one status line; CSV and Parquet fall back to JSON.
func WriteSnapshotResult(s schema.PollSnapshot, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.TextOut, "":
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, FormatSnapshotLine(s))
			return err
		}, "Wrote status")
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, s)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	}
	return nil
}

// FormatSnapshotLine renders a snapshot as a single progress line.
func FormatSnapshotLine(s schema.PollSnapshot) string {
	var b strings.Builder
	switch s.Phase {
	case schema.IdlePhase, "":
		return "💤 No analysis has been started"
	case schema.StartingPhase:
		fmt.Fprintf(&b, "🚀 Starting analysis of %s", s.Path)
	case schema.PollingPhase:
		fmt.Fprintf(&b, "⏳ Analyzing %s (check %d, %.0f%%)", s.Path, s.Attempts, s.Progress)
		if s.StatusMessage != "" {
			fmt.Fprintf(&b, ": %s", s.StatusMessage)
		}
	case schema.SucceededPhase:
		fmt.Fprintf(&b, "✅ Analysis of %s completed", s.Path)
		switch {
		case s.Err != "":
			fmt.Fprintf(&b, " but metrics failed to load: %s", s.Err)
		case s.Reloaded:
			b.WriteString(", metrics reloaded")
		}
	default:
		fmt.Fprintf(&b, "❌ %s", s.Err)
	}
	if s.Phase.IsTerminal() && !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
		fmt.Fprintf(&b, " in %v", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	return b.String()
}
