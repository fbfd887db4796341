package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/enrollcast/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [input-file]",
	Short: "Start the enrollcast MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents run forecasts,
read summaries and query stored enrollment through standard tools.

The optional input file becomes the default input_path of every tool.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
