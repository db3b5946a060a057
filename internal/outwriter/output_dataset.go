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

// WriteDatasetResults outputs the file overview, dispatching based on the output format configured.
// Text, CSV and JSON show the files ranked by overall score up to the result limit;
// Parquet writes every file and project record.
func WriteDatasetResults(d *schema.Dataset, cfg *contract.Config, p Palette) error {
	fmtMetric := createFormatters(cfg.Precision)
	var files []schema.MetricRecord
	if d != nil {
		files = d.File
	}
	ranked, truncated := algo.RankFiles(files, cfg.ResultLimit)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResultsForDataset(w, d, ranked, truncated)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForDataset(w, ranked, fmtMetric)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteFile(parquet.ConvertDataset(d), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo("💾 Wrote Parquet to %s", cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDatasetTable(w, d, ranked, cfg, fmtMetric, p)
		}, "Wrote table")
	}
	return nil
}

// writeDatasetTable generates and writes the human-readable table.
func writeDatasetTable(w io.Writer, d *schema.Dataset, ranked []schema.MetricRecord, cfg *contract.Config, fmtMetric func(float64, bool) string, p Palette) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "File", "Doc Type", "Overall", "Band"}
	if cfg.Detail {
		headers = append(headers, "Lines", "Comments", "Complete", "Concise", "Accuracy")
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	maxWidth := getMaxTablePathWidth(cfg)
	for i, r := range ranked {
		overall, ok := r.Metric(schema.OverallScoreKey)
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.Identifier, maxWidth),
			r.DocType,
			fmtMetric(overall, ok),
			p.band(overall, ok, cfg.UseColors),
		}
		if cfg.Detail {
			row = append(row, strconv.Itoa(r.LineCount))
			for _, key := range schema.QualityMetricKeys {
				row = append(row, fmtMetric(r.Metric(key)))
			}
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	total, projects, dropped := 0, 0, 0
	if d != nil {
		total, projects, dropped = len(d.File), len(d.Project), d.Dropped
	}
	if _, err := fmt.Fprintf(w, "Showing %d of %d files (%d project records", len(ranked), total, projects); err != nil {
		return err
	}
	if dropped > 0 {
		if _, err := fmt.Fprintf(w, ", %d rows with an unknown level skipped", dropped); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, ")")
	return err
}

// writeCSVResultsForDataset writes the ranked files in CSV format.
func writeCSVResultsForDataset(w io.Writer, ranked []schema.MetricRecord, fmtMetric func(float64, bool) string) error {
	header := []string{"rank", schema.IdentifierKey, schema.DocTypeKey, schema.LineCountKey}
	header = append(header, schema.AllMetricKeys...)
	header = append(header, "band")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range ranked {
			rec := []string{strconv.Itoa(i + 1), r.Identifier, r.DocType, strconv.Itoa(r.LineCount)}
			for _, key := range schema.AllMetricKeys {
				rec = append(rec, fmtMetric(r.Metric(key)))
			}
			rec = append(rec, contract.GetPlainBandOf(r.Metric(schema.OverallScoreKey)))
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// jsonRankedFile is a file record with its rank and band added.
type jsonRankedFile struct {
	Rank int    `json:"rank"`
	Band string `json:"band"`
	schema.MetricRecord
}

// writeJSONResultsForDataset writes the ranked files in JSON format.
func writeJSONResultsForDataset(w io.Writer, d *schema.Dataset, ranked []schema.MetricRecord, truncated bool) error {
	type jsonDataset struct {
		Files     []jsonRankedFile      `json:"files"`
		Project   []schema.MetricRecord `json:"project"`
		Total     int                   `json:"total_files"`
		Truncated bool                  `json:"truncated"`
		Dropped   int                   `json:"dropped"`
	}

	out := jsonDataset{
		Files:     make([]jsonRankedFile, len(ranked)),
		Project:   []schema.MetricRecord{},
		Truncated: truncated,
	}
	for i, r := range ranked {
		out.Files[i] = jsonRankedFile{
			Rank:         i + 1,
			Band:         contract.GetPlainBandOf(r.Metric(schema.OverallScoreKey)),
			MetricRecord: r,
		}
	}
	if d != nil {
		out.Total = len(d.File)
		out.Dropped = d.Dropped
		if len(d.Project) > 0 {
			out.Project = d.Project
		}
	}
	return writeJSON(w, out)
}
