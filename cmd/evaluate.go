package cmd

import (
	"github.com/huangsam/rankeval/core"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/spf13/cobra"
)

// evaluateCmd computes every metric for every judged query.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compute all retrieval metrics per query for the fused replay.",
	Long: `Fuse the replay fixture's channels and score each judged query with:
- MRR@5, NDCG@10, Recall@20 and HitRate@1
- Inversion rate and constitutional surfacing rate
- Importance-weighted recall and cold-start detection rate
- Intent-weighted NDCG

A mean row closes the table. With --attribution, the mean exclusive contribution
rate of every channel within the top K is printed as well.

Examples:
  # Every query with all channels
  rankeval evaluate

  # Without the graph channel, with attribution
  rankeval evaluate --disable graph --attribution

  # Force one intent and export CSV
  rankeval evaluate --intent fix_bug --output csv --output-file metrics.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteEvaluation(rootCtx, cfg, nil); err != nil {
			contract.LogFatal("Cannot run evaluation", err)
		}
	},
}
