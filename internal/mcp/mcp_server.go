// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/documetrics/docudash/core"
	"github.com/documetrics/docudash/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the DocuMetrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, app *core.App) *server.MCPServer {
	s := server.NewMCPServer(
		"DocuMetrics Dashboard Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		app:     app,
	}

	// --- 1. Tool: list_files ---
	s.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List analyzed files ranked by overall documentation score."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of files returned (0 returns all).")),
	), h.handleListFiles)

	// --- 2. Tool: get_file_metrics ---
	s.AddTool(mcp.NewTool("get_file_metrics",
		mcp.WithDescription("Get every documentation metric of one file, with its best and worst metric."),
		mcp.WithString("identifier", mcp.Description("The file identifier as it appears in the metrics."), mcp.Required()),
	), h.handleGetFileMetrics)

	// --- 3. Tool: get_project_metrics ---
	s.AddTool(mcp.NewTool("get_project_metrics",
		mcp.WithDescription("Get the project-level metrics and the averages per documentation type."),
		mcp.WithNumber("limit", mcp.Description("Number of top files to include.")),
	), h.handleGetProjectMetrics)

	// --- 4. Tool: reload_metrics ---
	s.AddTool(mcp.NewTool("reload_metrics",
		mcp.WithDescription("Fetch the latest metrics from the DocuMetrics backend."),
	), h.handleReloadMetrics)

	// --- 5. Tool: analyze_path ---
	s.AddTool(mcp.NewTool("analyze_path",
		mcp.WithDescription("Start a documentation analysis of a file or folder. Returns at once; poll get_analysis_status."),
		mcp.WithString("path", mcp.Description("Path on the backend host to analyze."), mcp.Required()),
	), h.handleAnalyzePath)

	// --- 6. Tool: get_analysis_status ---
	s.AddTool(mcp.NewTool("get_analysis_status",
		mcp.WithDescription("Get the phase and progress of the current or last analysis."),
	), h.handleGetAnalysisStatus)

	return s
}

// StartMCPServer starts the DocuMetrics MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, app *core.App) error {
	s := NewMCPServer(baseCfg, app)
	return server.ServeStdio(s)
}
