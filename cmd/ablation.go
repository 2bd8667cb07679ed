package cmd

import (
	"github.com/huangsam/rankeval/core"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/internal/iocache"
	"github.com/spf13/cobra"
)

// ablationCmd runs a channel ablation study.
var ablationCmd = &cobra.Command{
	Use:   "ablation",
	Short: "Disable each retrieval channel in turn and measure the recall impact.",
	Long: `Run a channel ablation study over a replay fixture.

A baseline pass runs every judged query with all channels enabled. Each selected
channel is then disabled on its own and Recall@K is compared query by query:
- Delta is the ablated mean minus the baseline mean
- A negative delta means the channel was helping
- Significance comes from an exact two-sided sign test (p < 0.05)

The study is off unless RANKEVAL_ABLATION=true (or ablation: true in the config file).

Examples:
  # Ablate every channel over the embedded sample
  RANKEVAL_ABLATION=true rankeval ablation

  # Only vector and graph, first three queries, markdown report
  RANKEVAL_ABLATION=true rankeval ablation --channels vector,graph --query-ids 1,2,3 --output markdown

  # Record the run as metric snapshots
  RANKEVAL_ABLATION=true rankeval ablation --persist`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		defer iocache.CloseStore()
		if err := core.ExecuteAblation(rootCtx, cfg, iocache.Manager.GetSnapshotStore()); err != nil {
			contract.LogFatal("Cannot run ablation study", err)
		}
	},
}
