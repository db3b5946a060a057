package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/documetrics/docudash/core"
	"github.com/documetrics/docudash/core/algo"
	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	app     *core.App
}

// rankedFile is the compact per-file view returned by list_files.
type rankedFile struct {
	Rank         int     `json:"rank"`
	Identifier   string  `json:"identifier"`
	DocType      string  `json:"doc_type"`
	LineCount    int     `json:"line_count"`
	OverallScore float64 `json:"overall_score"`
	Band         string  `json:"band"`
}

// fileDetail is the record returned by get_file_metrics.
type fileDetail struct {
	schema.MetricRecord
	Band  string               `json:"band"`
	Best  schema.MetricExtreme `json:"best_metric"`
	Worst schema.MetricExtreme `json:"worst_metric"`
}

func (h *toolHandler) limit(request mcp.CallToolRequest) int {
	if l := request.GetInt("limit", -1); l >= 0 {
		return l
	}
	return h.baseCfg.ResultLimit
}

func (h *toolHandler) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := h.app.EnsureLoaded(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load metrics: %v", err)), nil
	}

	ranked, _ := algo.RankFiles(d.File, h.limit(request))
	out := make([]rankedFile, len(ranked))
	for i, r := range ranked {
		out[i] = rankedFile{
			Rank:         i + 1,
			Identifier:   r.Identifier,
			DocType:      r.DocType,
			LineCount:    r.LineCount,
			OverallScore: r.OverallScore,
			Band:         contract.GetPlainBandOf(r.Metric(schema.OverallScoreKey)),
		}
	}
	return jsonResult(out)
}

func (h *toolHandler) handleGetFileMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("identifier", "")
	if id == "" {
		return mcp.NewToolResultError("identifier is required"), nil
	}
	d, err := h.app.EnsureLoaded(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load metrics: %v", err)), nil
	}

	r, ok := d.FileMetrics(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no file metrics for %q", id)), nil
	}
	best, worst := algo.BestAndWorst(r)
	return jsonResult(fileDetail{
		MetricRecord: r,
		Band:         contract.GetPlainBandOf(r.Metric(schema.OverallScoreKey)),
		Best:         best,
		Worst:        worst,
	})
}

func (h *toolHandler) handleGetProjectMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := h.app.EnsureLoaded(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load metrics: %v", err)), nil
	}
	return jsonResult(h.app.Summary(h.limit(request)))
}

func (h *toolHandler) handleReloadMetrics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.app.LoadMetrics(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reload failed: %v", err)), nil
	}
	state := h.app.State()
	if state.NoData {
		return mcp.NewToolResultText(schema.NoDataMessage), nil
	}
	d := h.app.Dataset()
	return mcp.NewToolResultText(fmt.Sprintf("Loaded %d file and %d project records (%d skipped).", len(d.File), len(d.Project), d.Dropped)), nil
}

func (h *toolHandler) handleAnalyzePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	// The run outlives this request.
	h.app.AnalyzeAsync(context.WithoutCancel(ctx), path)
	return mcp.NewToolResultText(fmt.Sprintf("Analysis of %s started. Call get_analysis_status to follow it.", schema.NormalizePath(path))), nil
}

func (h *toolHandler) handleGetAnalysisStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.app.AnalysisSnapshot())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
