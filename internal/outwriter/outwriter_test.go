package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileRecord(id, docType string, overall float64) schema.MetricRecord {
	return schema.MetricRecord{
		Identifier:   id,
		Level:        schema.FileLevel,
		DocType:      docType,
		LineCount:    120,
		Completeness: 0.9,
		Accuracy:     0.2,
		OverallScore: overall,
		Fields: schema.Record{
			schema.IdentifierKey:   id,
			schema.LevelKey:        "file",
			schema.DocTypeKey:      docType,
			schema.LineCountKey:    120.0,
			schema.CompletenessKey: 0.9,
			schema.AccuracyKey:     0.2,
			schema.OverallScoreKey: overall,
		},
	}
}

func testDataset() *schema.Dataset {
	return &schema.Dataset{
		File: []schema.MetricRecord{
			fileRecord("src/low.py", "Human", 0.2),
			fileRecord("src/high.py", "AI", 0.9),
			fileRecord("src/mid.py", "Human", 0.5),
		},
		Project: []schema.MetricRecord{{
			Identifier: "repo", Level: schema.ProjectLevel, DocType: "Human", OverallScore: 0.7,
			Fields: schema.Record{schema.OverallScoreKey: 0.7},
		}},
		Dropped: 1,
	}
}

func plainConfig() *contract.Config {
	return &contract.Config{Precision: 2, Output: schema.TextOut, Width: 200}
}

func TestWriteDatasetTable(t *testing.T) {
	cfg := plainConfig()
	cfg.Detail = true
	var buf bytes.Buffer
	ranked := testDataset().File[1:2]
	require.NoError(t, writeDatasetTable(&buf, testDataset(), ranked, cfg, createFormatters(2), aquaticPalette))

	out := buf.String()
	assert.Contains(t, out, "src/high.py")
	assert.Contains(t, out, "0.90")
	assert.Contains(t, out, contract.HighBand)
	assert.Contains(t, out, "N/A", "missing comment density")
	assert.Contains(t, out, "Showing 1 of 3 files (1 project records, 1 rows with an unknown level skipped)")
}

func TestWriteCSVResultsForDataset(t *testing.T) {
	var buf bytes.Buffer
	ranked := testDataset().File
	require.NoError(t, writeCSVResultsForDataset(&buf, ranked, createFormatters(3)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"rank", "identifier", "doc_type", "line_count", "comment_density", "completeness", "conciseness", "accuracy", "overall_score", "band"}, rows[0])
	assert.Equal(t, []string{"1", "src/low.py", "Human", "120", "N/A", "0.900", "N/A", "0.200", "0.200", "Low"}, rows[1])
}

func TestWriteJSONResultsForDataset(t *testing.T) {
	var buf bytes.Buffer
	d := testDataset()
	require.NoError(t, writeJSONResultsForDataset(&buf, d, d.File[:1], true))

	var got struct {
		Files []struct {
			Rank       int    `json:"rank"`
			Band       string `json:"band"`
			Identifier string `json:"identifier"`
		} `json:"files"`
		Total     int  `json:"total_files"`
		Truncated bool `json:"truncated"`
		Dropped   int  `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Files, 1)
	assert.Equal(t, 1, got.Files[0].Rank)
	assert.Equal(t, "Low", got.Files[0].Band)
	assert.Equal(t, "src/low.py", got.Files[0].Identifier)
	assert.Equal(t, 3, got.Total)
	assert.True(t, got.Truncated)
	assert.Equal(t, 1, got.Dropped)
}

func TestWriteDatasetResultsToFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		output schema.OutputMode
		check  func(t *testing.T, data []byte)
	}{
		{schema.JSONOut, func(t *testing.T, data []byte) {
			assert.True(t, json.Valid(data))
			assert.Less(t, bytes.Index(data, []byte("src/high.py")), bytes.Index(data, []byte("src/mid.py")), "ranked by overall score")
		}},
		{schema.CSVOut, func(t *testing.T, data []byte) {
			assert.Equal(t, 3, strings.Count(string(data), "\n"), "header plus limit rows")
		}},
		{schema.TextOut, func(t *testing.T, data []byte) {
			assert.Contains(t, string(data), "Showing 2 of 3 files")
		}},
		{schema.ParquetOut, func(t *testing.T, data []byte) {
			assert.Equal(t, "PAR1", string(data[:4]))
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.output), func(t *testing.T) {
			cfg := plainConfig()
			cfg.Output = tt.output
			cfg.ResultLimit = 2
			cfg.OutputFile = filepath.Join(dir, "dataset."+string(tt.output))
			require.NoError(t, NewOutWriter(schema.NeonTheme).WriteDataset(testDataset(), cfg))

			data, err := os.ReadFile(cfg.OutputFile)
			require.NoError(t, err)
			tt.check(t, data)
		})
	}
}

func TestWriteFileDetailTable(t *testing.T) {
	var buf bytes.Buffer
	r := fileRecord("src/pkg/high.py", "AI", 0.9)
	require.NoError(t, writeFileDetailTable(&buf, r, plainConfig(), createFormatters(2), aquaticPalette))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "high.py\n"))
	assert.Contains(t, out, "Line Count: 120")
	assert.Contains(t, out, "Comment Density")
	assert.Contains(t, out, "90.0%")
	assert.Contains(t, out, "Best Metric: Completeness (0.90)")
	assert.Contains(t, out, "Worst Metric: Accuracy (0.20)")
}

func TestFormatExtreme(t *testing.T) {
	f := createFormatters(1)
	assert.Equal(t, "N/A", formatExtreme(schema.MetricExtreme{Value: 1}, f))
	assert.Equal(t, "Comment Density (0.5)", formatExtreme(schema.MetricExtreme{Name: schema.CommentDensityKey, Value: 0.5}, f))
}

func TestWriteCSVFileDetail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVFileDetail(&buf, fileRecord("a.py", "AI", 0.5), createFormatters(2)))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"a.py", "line_count", "120", ""}, rows[1])
	assert.Equal(t, []string{"a.py", "overall_score", "0.50", "Medium"}, rows[6])
}

func TestWriteJSONFileDetail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONFileDetail(&buf, fileRecord("a.py", "AI", 0.5)))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "a.py", got["identifier"])
	assert.Equal(t, "Medium", got["band"])
	assert.Equal(t, "completeness", got["best_metric"].(map[string]any)["name"])
	assert.Equal(t, "accuracy", got["worst_metric"].(map[string]any)["name"])
}

func TestWriteProjectTables(t *testing.T) {
	s := schema.Summary{
		Files: 3,
		DocTypes: []schema.DocTypeAverages{
			{DocType: "Human", Files: 2, Averages: map[string]float64{schema.OverallScoreKey: 0.35}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeProjectTables(&buf, s, plainConfig(), createFormatters(2), aquaticPalette))
	assert.Contains(t, buf.String(), "No project-level metrics")
	assert.Contains(t, buf.String(), "Human")
	assert.Contains(t, buf.String(), "0.35")

	project := testDataset().Project[0]
	s.Project = &project
	buf.Reset()
	require.NoError(t, writeProjectTables(&buf, s, plainConfig(), createFormatters(2), aquaticPalette))
	assert.Contains(t, buf.String(), "Project: repo")
	assert.Contains(t, buf.String(), "Overall Score: 0.70 (High)")
}

func TestWriteProjectSummaryFormats(t *testing.T) {
	cfg := plainConfig()
	cfg.Output = schema.ParquetOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "p.parquet")
	assert.Error(t, WriteProjectSummary(schema.Summary{}, cfg, aquaticPalette))

	var buf bytes.Buffer
	docTypes := []schema.DocTypeAverages{{DocType: "AI", Files: 1, Averages: map[string]float64{schema.AccuracyKey: 1}}}
	require.NoError(t, writeCSVDocTypeAverages(&buf, docTypes, createFormatters(2)))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "1", "N/A", "N/A", "N/A", "1.00", "N/A"}, rows[1])
}

func TestFormatSnapshotLine(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		snap schema.PollSnapshot
		want string
	}{
		{"idle", schema.PollSnapshot{Phase: schema.IdlePhase}, "💤 No analysis has been started"},
		{"starting", schema.PollSnapshot{Phase: schema.StartingPhase, Path: "/repo"}, "🚀 Starting analysis of /repo"},
		{
			"polling",
			schema.PollSnapshot{Phase: schema.PollingPhase, Path: "/repo", Attempts: 2, Progress: 40, StatusMessage: "Parsing"},
			"⏳ Analyzing /repo (check 2, 40%): Parsing",
		},
		{
			"succeeded",
			schema.PollSnapshot{Phase: schema.SucceededPhase, Path: "/repo", Reloaded: true, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)},
			"✅ Analysis of /repo completed, metrics reloaded in 1.5s",
		},
		{
			"reload failed",
			schema.PollSnapshot{Phase: schema.SucceededPhase, Path: "/repo", Err: "Failed to load metrics: Bad Gateway"},
			"✅ Analysis of /repo completed but metrics failed to load: Failed to load metrics: Bad Gateway",
		},
		{"timed out", schema.PollSnapshot{Phase: schema.TimedOutPhase, Err: schema.TimedOutMessage}, "❌ Analysis timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSnapshotLine(tt.snap))
		})
	}
}

func TestWriteSnapshotResultJSON(t *testing.T) {
	cfg := plainConfig()
	cfg.Output = schema.CSVOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, WriteSnapshotResult(schema.PollSnapshot{Phase: schema.FailedPhase, Err: "boom"}, cfg))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"phase": "failed"`)
}

func TestPaletteBand(t *testing.T) {
	assert.Equal(t, neonPalette, PaletteFor(schema.NeonTheme))
	assert.Equal(t, aquaticPalette, PaletteFor(schema.Theme("sepia")))

	assert.Equal(t, "Low", aquaticPalette.band(0.1, true, false))
	assert.Equal(t, "Medium", aquaticPalette.band(0.33, true, false))
	assert.Equal(t, "High", aquaticPalette.band(0.66, true, false))
	assert.Equal(t, "N/A", neonPalette.band(0, false, true))
	assert.Contains(t, neonPalette.band(0.9, true, true), "High")
}

func TestGetMaxTablePathWidth(t *testing.T) {
	assert.Equal(t, 30, getMaxTablePathWidth(&contract.Config{Width: 80}))
	assert.Equal(t, 15, getMaxTablePathWidth(&contract.Config{Width: 80, Detail: true}))
	assert.Equal(t, 70, getMaxTablePathWidth(&contract.Config{Width: 400}))
}
