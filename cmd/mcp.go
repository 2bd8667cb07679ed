package cmd

import (
	"github.com/huangsam/rankeval/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the rankeval MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents compute metrics, run sign tests,
classify contingency decisions, estimate ceilings, run ablations and attribute channels.

Tool calls never persist snapshots. run_ablation honors RANKEVAL_ABLATION.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg)
	},
}
