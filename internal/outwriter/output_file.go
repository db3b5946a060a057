package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/documetrics/docudash/core/algo"
	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/internal/parquet"
	"github.com/documetrics/docudash/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteFileDetail outputs every metric of one record, dispatching based on the output format configured.
func WriteFileDetail(r schema.MetricRecord, cfg *contract.Config, p Palette) error {
	fmtMetric := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONFileDetail(w, r)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVFileDetail(w, r, fmtMetric)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := []parquet.MetricRow{parquet.ConvertMetricRecord(r)}
		if err := parquet.WriteFile(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo("💾 Wrote Parquet to %s", cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFileDetailTable(w, r, cfg, fmtMetric, p)
		}, "Wrote table")
	}
	return nil
}

// writeFileDetailTable writes a header block, the metric table and the best/worst lines.
func writeFileDetailTable(w io.Writer, r schema.MetricRecord, cfg *contract.Config, fmtMetric func(float64, bool) string, p Palette) error {
	if _, err := fmt.Fprintln(w, p.title(cfg.UseColors, "%s", schema.FormatFileName(r.Identifier))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Path: %s\nLevel: %s\nDoc Type: %s\nLine Count: %d\n", r.Identifier, r.Level, r.DocType, r.LineCount); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value", "Percent", "Band"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, key := range schema.AllMetricKeys {
		v, ok := r.Metric(key)
		data = append(data, []string{
			schema.FormatMetricName(key),
			fmtMetric(v, ok),
			algo.FormatMetricValue(v, ok, true),
			p.band(v, ok, cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	best, worst := algo.BestAndWorst(r)
	if _, err := fmt.Fprintf(w, "Best Metric: %s\n", formatExtreme(best, fmtMetric)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Worst Metric: %s\n", formatExtreme(worst, fmtMetric))
	return err
}

// formatExtreme renders "Completeness (0.90)", or N/A when no metric qualified.
func formatExtreme(e schema.MetricExtreme, fmtMetric func(float64, bool) string) string {
	if e.Name == "" {
		return contract.NoBand
	}
	return fmt.Sprintf("%s (%s)", schema.FormatMetricName(e.Name), fmtMetric(e.Value, true))
}

// writeCSVFileDetail writes one row per metric.
func writeCSVFileDetail(w io.Writer, r schema.MetricRecord, fmtMetric func(float64, bool) string) error {
	header := []string{schema.IdentifierKey, "metric", "value", "band"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		rows := [][]string{{r.Identifier, schema.LineCountKey, strconv.Itoa(r.LineCount), ""}}
		for _, key := range schema.AllMetricKeys {
			v, ok := r.Metric(key)
			rows = append(rows, []string{r.Identifier, key, fmtMetric(v, ok), contract.GetPlainBandOf(v, ok)})
		}
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeJSONFileDetail writes the record with its best and worst metric.
func writeJSONFileDetail(w io.Writer, r schema.MetricRecord) error {
	type jsonFileDetail struct {
		schema.MetricRecord
		Band  string               `json:"band"`
		Best  schema.MetricExtreme `json:"best_metric"`
		Worst schema.MetricExtreme `json:"worst_metric"`
	}
	best, worst := algo.BestAndWorst(r)
	return writeJSON(w, jsonFileDetail{
		MetricRecord: r,
		Band:         contract.GetPlainBandOf(r.Metric(schema.OverallScoreKey)),
		Best:         best,
		Worst:        worst,
	})
}
