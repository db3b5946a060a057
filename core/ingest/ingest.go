// Package ingest turns the backend's metrics CSV into a grouped dataset.
//
// The format is deliberately naive: one header line, one record per line,
// comma-delimited, no quoting. Embedded commas, escaped quotes and multi-line
// fields are not supported and produce misaligned records rather than errors.
package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/documetrics/docudash/schema"
)

// ParseCSV parses metrics CSV text into records keyed by header name.
// Empty or whitespace-only input yields zero records. Rows shorter than the
// header get "" for the missing cells; cells beyond the header are ignored.
func ParseCSV(text string) []schema.Record {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	headers := strings.Split(lines[0], ",")

	records := make([]schema.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		rec := make(schema.Record, len(headers))
		for i, h := range headers {
			cell := ""
			if i < len(values) {
				cell = values[i]
			}
			rec[h] = coerceCell(cell)
		}
		records = append(records, rec)
	}
	return records
}

// coerceCell returns a float64 when the trimmed cell is a complete numeric
// literal, and the untouched cell otherwise. Non-finite values (NaN, inf,
// Infinity and out-of-range literals) stay strings.
func coerceCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return cell
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return cell
	}
	return v
}

// GroupByLevel partitions records into file and project buckets, preserving row order.
// Rows whose level is not exactly "file" or "project" are left out of both
// buckets; only their count is kept in Dataset.Dropped.
func GroupByLevel(records []schema.Record) *schema.Dataset {
	ds := &schema.Dataset{
		File:    []schema.MetricRecord{},
		Project: []schema.MetricRecord{},
	}
	for _, r := range records {
		level, _ := r[schema.LevelKey].(string)
		switch schema.Level(level) {
		case schema.FileLevel:
			ds.File = append(ds.File, ToMetricRecord(r))
		case schema.ProjectLevel:
			ds.Project = append(ds.Project, ToMetricRecord(r))
		default:
			ds.Dropped++
		}
	}
	return ds
}

// Load parses and groups CSV text in one step.
func Load(text string) *schema.Dataset {
	return GroupByLevel(ParseCSV(text))
}

// ToMetricRecord builds the typed view of a parsed row.
func ToMetricRecord(r schema.Record) schema.MetricRecord {
	level, _ := r[schema.LevelKey].(string)
	return schema.MetricRecord{
		Identifier:     textValue(r[schema.IdentifierKey]),
		Level:          schema.Level(level),
		DocType:        textValue(r[schema.DocTypeKey]),
		LineCount:      int(numberValue(r[schema.LineCountKey])),
		CommentDensity: numberValue(r[schema.CommentDensityKey]),
		Completeness:   numberValue(r[schema.CompletenessKey]),
		Conciseness:    numberValue(r[schema.ConcisenessKey]),
		Accuracy:       numberValue(r[schema.AccuracyKey]),
		OverallScore:   numberValue(r[schema.OverallScoreKey]),
		Fields:         r,
	}
}

// textValue renders a cell as text. Numeric cells use the shortest exact form.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func numberValue(v any) float64 {
	f, _ := v.(float64)
	return f
}
