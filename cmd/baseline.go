package cmd

import (
	"github.com/huangsam/rankeval/core"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/internal/iocache"
	"github.com/spf13/cobra"
)

// baselineCmd measures keyword-only retrieval.
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Measure the BM25-only baseline and decide whether extra channels are worth it.",
	Long: `Run every query through the keyword channel alone and report MRR@5, NDCG@10,
Recall@20 and HitRate@1.

The mean MRR@5 drives the contingency decision:
  >= 0.8    PAUSE        keyword search already does most of the work
  0.5-0.8   RATIONALIZE  every extra channel has to justify itself
  < 0.5     PROCEED      semantic and graph channels add clear value

The relative decision divides BM25 MRR@5 by the hybrid MRR@5, taken from
--hybrid-mrr or computed from the fused replay fixture. A percentile bootstrap
confidence interval shows whether the absolute decision is stable.

Examples:
  # Default cutoffs with a reproducible bootstrap
  rankeval baseline --seed 42

  # A single cutoff of 10 and no hard negatives
  rankeval baseline --k 10 --skip-hard-negatives

  # Record the baseline as metric snapshots
  rankeval baseline --persist`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		defer iocache.CloseStore()
		if err := core.ExecuteBaseline(rootCtx, cfg, iocache.Manager.GetSnapshotStore()); err != nil {
			contract.LogFatal("Cannot run BM25 baseline", err)
		}
	},
}
