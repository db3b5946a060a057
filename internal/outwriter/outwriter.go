// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and the active theme palette.
type OutWriter struct {
	palette Palette
}

// NewOutWriter creates an output writer that colors bands with the given theme.
func NewOutWriter(theme schema.Theme) *OutWriter {
	return &OutWriter{palette: PaletteFor(theme)}
}

// WriteDataset prints the ranked file overview using the configured output format.
func (ow *OutWriter) WriteDataset(d *schema.Dataset, cfg *contract.Config) error {
	return WriteDatasetResults(d, cfg, ow.palette)
}

// WriteFile prints one record in detail using the configured output format.
func (ow *OutWriter) WriteFile(r schema.MetricRecord, cfg *contract.Config) error {
	return WriteFileDetail(r, cfg, ow.palette)
}

// WriteProject prints the project digest using the configured output format.
func (ow *OutWriter) WriteProject(s schema.Summary, cfg *contract.Config) error {
	return WriteProjectSummary(s, cfg, ow.palette)
}

// WriteSnapshot prints the state of an analysis run using the configured output format.
func (ow *OutWriter) WriteSnapshot(s schema.PollSnapshot, cfg *contract.Config) error {
	return WriteSnapshotResult(s, cfg)
}
