// Package parquet exports DocuMetrics datasets and analysis history to Parquet
// files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/documetrics/docudash/schema"
	"github.com/parquet-go/parquet-go"
)

// MetricRow is one file or project record of a loaded dataset.
// Metrics absent from the source CSV are null.
type MetricRow struct {
	Identifier     string   `parquet:"identifier,snappy"`
	Level          string   `parquet:"level,snappy,dict"`
	DocType        string   `parquet:"doc_type,snappy,dict"`
	LineCount      int64    `parquet:"line_count,snappy"`
	CommentDensity *float64 `parquet:"comment_density,optional,snappy"`
	Completeness   *float64 `parquet:"completeness,optional,snappy"`
	Conciseness    *float64 `parquet:"conciseness,optional,snappy"`
	Accuracy       *float64 `parquet:"accuracy,optional,snappy"`
	OverallScore   *float64 `parquet:"overall_score,optional,snappy"`
}

// AnalysisRun maps to the docudash_analysis_runs table.
type AnalysisRun struct {
	RunID      int64      `parquet:"run_id,snappy"`
	RunUUID    string     `parquet:"run_uuid,snappy"`
	Path       string     `parquet:"path,snappy"`
	StartTime  time.Time  `parquet:"start_time,snappy"`
	EndTime    *time.Time `parquet:"end_time,optional,snappy"`
	DurationMs *int64     `parquet:"duration_ms,optional,snappy"`
	Phase      string     `parquet:"phase,snappy,dict"`
	Message    *string    `parquet:"message,optional,snappy"`
	Attempts   int32      `parquet:"attempts,snappy"`
}

// MetricSnapshot maps to the docudash_metric_snapshots table.
type MetricSnapshot struct {
	RunID          int64   `parquet:"run_id,snappy"`
	Identifier     string  `parquet:"identifier,snappy"`
	Level          string  `parquet:"level,snappy,dict"`
	DocType        string  `parquet:"doc_type,snappy,dict"`
	LineCount      int32   `parquet:"line_count,snappy"`
	CommentDensity float64 `parquet:"comment_density,snappy"`
	Completeness   float64 `parquet:"completeness,snappy"`
	Conciseness    float64 `parquet:"conciseness,snappy"`
	Accuracy       float64 `parquet:"accuracy,snappy"`
	OverallScore   float64 `parquet:"overall_score,snappy"`
}

// WriteRows writes rows to w as a single Parquet file.
func WriteRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile creates outputPath and writes rows to it.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteRows(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteDataset writes every file and project record of d to w.
func WriteDataset(w io.Writer, d *schema.Dataset) error {
	return WriteRows(w, ConvertDataset(d))
}

// ConvertDataset flattens d into rows, file records first.
func ConvertDataset(d *schema.Dataset) []MetricRow {
	if d == nil {
		return []MetricRow{}
	}
	rows := make([]MetricRow, 0, len(d.File)+len(d.Project))
	for _, group := range [][]schema.MetricRecord{d.File, d.Project} {
		for _, r := range group {
			rows = append(rows, ConvertMetricRecord(r))
		}
	}
	return rows
}

// ConvertMetricRecord converts one dataset record.
func ConvertMetricRecord(r schema.MetricRecord) MetricRow {
	return MetricRow{
		Identifier:     r.Identifier,
		Level:          string(r.Level),
		DocType:        r.DocType,
		LineCount:      int64(r.LineCount),
		CommentDensity: metricPtr(r, schema.CommentDensityKey),
		Completeness:   metricPtr(r, schema.CompletenessKey),
		Conciseness:    metricPtr(r, schema.ConcisenessKey),
		Accuracy:       metricPtr(r, schema.AccuracyKey),
		OverallScore:   metricPtr(r, schema.OverallScoreKey),
	}
}

func metricPtr(r schema.MetricRecord, key string) *float64 {
	v, ok := r.Metric(key)
	if !ok {
		return nil
	}
	return &v
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			RunID:      record.RunID,
			RunUUID:    record.RunUUID,
			Path:       record.Path,
			StartTime:  record.StartTime,
			EndTime:    record.EndTime,
			DurationMs: record.DurationMs,
			Phase:      record.Phase,
			Message:    record.Message,
			Attempts:   record.Attempts,
		}
	}
	return result
}

// ConvertMetricSnapshotRecords converts schema.MetricSnapshotRecord to MetricSnapshot for Parquet export.
func ConvertMetricSnapshotRecords(records []schema.MetricSnapshotRecord) []MetricSnapshot {
	result := make([]MetricSnapshot, len(records))
	for i, record := range records {
		result[i] = MetricSnapshot(record)
	}
	return result
}
