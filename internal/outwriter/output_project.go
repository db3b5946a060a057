package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteProjectSummary outputs the project record and the averages per doc type,
// dispatching based on the output format configured. Parquet is not offered here.
func WriteProjectSummary(s schema.Summary, cfg *contract.Config, p Palette) error {
	fmtMetric := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, s)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVDocTypeAverages(w, s.DocTypes, fmtMetric)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the project summary")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProjectTables(w, s, cfg, fmtMetric, p)
		}, "Wrote table")
	}
	return nil
}

// writeProjectTables writes the project block followed by the doc type table.
func writeProjectTables(w io.Writer, s schema.Summary, cfg *contract.Config, fmtMetric func(float64, bool) string, p Palette) error {
	if s.Project != nil {
		if _, err := fmt.Fprintln(w, p.title(cfg.UseColors, "Project: %s", s.Project.Identifier)); err != nil {
			return err
		}
		overall, ok := s.Project.Metric(schema.OverallScoreKey)
		if _, err := fmt.Fprintf(w, "Doc Type: %s\nOverall Score: %s (%s)\n",
			s.Project.DocType, fmtMetric(overall, ok), p.band(overall, ok, cfg.UseColors)); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintln(w, "No project-level metrics"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Files: %d\n", s.Files); err != nil {
		return err
	}
	if len(s.DocTypes) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	headers := []string{"Doc Type", "Files"}
	for _, key := range schema.AllMetricKeys {
		headers = append(headers, schema.FormatMetricName(key))
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, dt := range s.DocTypes {
		row := []string{dt.DocType, strconv.Itoa(dt.Files)}
		for _, key := range schema.AllMetricKeys {
			v, ok := dt.Averages[key]
			row = append(row, fmtMetric(v, ok))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeCSVDocTypeAverages writes one row per doc type.
func writeCSVDocTypeAverages(w io.Writer, docTypes []schema.DocTypeAverages, fmtMetric func(float64, bool) string) error {
	header := []string{schema.DocTypeKey, "files"}
	header = append(header, schema.AllMetricKeys...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, dt := range docTypes {
			rec := []string{dt.DocType, strconv.Itoa(dt.Files)}
			for _, key := range schema.AllMetricKeys {
				v, ok := dt.Averages[key]
				rec = append(rec, fmtMetric(v, ok))
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
