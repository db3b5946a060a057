package cmd

import (
	"github.com/documetrics/docudash/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the DocuMetrics MCP server",
	Long: `Launch an MCP server on stdio so AI agents can list files, read metrics and
run analyses through standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Progress lines would corrupt the stdio protocol, so the app has no observer.
		return mcp.StartMCPServer(rootCtx, cfg, newApp())
	},
}
