package cmd

import (
	"github.com/huangsam/rankeval/core"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/spf13/cobra"
)

// ceilingCmd estimates the best achievable MRR.
var ceilingCmd = &cobra.Command{
	Use:   "ceiling",
	Short: "Estimate the theoretical MRR ceiling of the judged dataset.",
	Long: `Rank the judged memories of every query by relevance and report the MRR an
ideal ranker would reach, the gap to the system MRR and where the pair falls in
the ceiling-vs-baseline matrix.

Examples:
  # System MRR computed from the replay fixture
  rankeval ceiling

  # Compare against a known system MRR
  rankeval ceiling --system-mrr 0.42 --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCeiling(rootCtx, cfg, nil); err != nil {
			contract.LogFatal("Cannot estimate ceiling", err)
		}
	},
}
