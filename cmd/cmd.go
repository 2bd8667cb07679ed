// Package cmd defines the command-line interface for rankeval.
package cmd

import (
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(ablationCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(ceilingCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the snapshots subcommands to the parent snapshots command
	snapshotsCmd.AddCommand(snapshotsStatusCmd)
	snapshotsCmd.AddCommand(snapshotsExportCmd)
	snapshotsCmd.AddCommand(snapshotsMigrateCmd)
	snapshotsCmd.AddCommand(snapshotsClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("dataset", "", "Path to a YAML or JSON ground-truth dataset (default: embedded sample)")
	rootCmd.PersistentFlags().String("replay", "", "Path to a YAML or JSON replay fixture of per-channel rankings (default: embedded sample)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv or markdown")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("persist", false, "Record results as metric snapshots")
	rootCmd.PersistentFlags().String("snapshot-backend", string(schema.SQLiteBackend), "Snapshot backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("snapshot-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of ablationCmd to Viper
	ablationCmd.Flags().String("channels", "", "Comma-separated channels to ablate (default: vector,bm25,fts5,graph,trigger)")
	ablationCmd.Flags().String("query-ids", "", "Comma-separated query ids to evaluate (default: all)")
	ablationCmd.Flags().Int("recall-k", 0, "Recall cutoff for the per-query comparison (default: 20)")
	ablationCmd.Flags().String("baseline-run-id", "", "Reference to an earlier baseline run, stored in the report config")
	if err := viper.BindPFlags(ablationCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ablation flags", err)
	}

	// Bind all flags of baselineCmd to Viper
	baselineCmd.Flags().Int("k", 0, "Override the MRR, NDCG and recall cutoffs with one value")
	baselineCmd.Flags().Int("query-limit", 0, "Evaluate only the first N queries (0 = all)")
	baselineCmd.Flags().Bool("skip-hard-negatives", false, "Leave out queries in the hard_negative category")
	baselineCmd.Flags().Int("bootstrap-iterations", 0, "Bootstrap resamples for the MRR@5 confidence interval (0 = 10000)")
	baselineCmd.Flags().Uint64("seed", 0, "Random seed for the bootstrap (0 = random)")
	baselineCmd.Flags().String("hybrid-mrr", "", "Hybrid MRR@5 for the relative decision (default: computed from the replay fixture)")
	if err := viper.BindPFlags(baselineCmd.Flags()); err != nil {
		contract.LogFatal("Error binding baseline flags", err)
	}

	// Bind all flags of ceilingCmd to Viper
	ceilingCmd.Flags().String("system-mrr", "", "System MRR to compare against (default: computed from the replay fixture)")
	if err := viper.BindPFlags(ceilingCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ceiling flags", err)
	}

	// Bind all flags of evaluateCmd to Viper
	evaluateCmd.Flags().String("intent", "", "Override every query's intent for intent-weighted NDCG")
	evaluateCmd.Flags().String("disable", "", "Comma-separated channels to disable before fusion")
	evaluateCmd.Flags().Bool("attribution", false, "Print the mean exclusive contribution rate of every channel")
	evaluateCmd.Flags().Int("attribution-k", contract.DefaultAttributionK, "Top K cutoff for channel attribution")
	if err := viper.BindPFlags(evaluateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding evaluate flags", err)
	}

	// Bind all flags of snapshotsMigrateCmd to Viper
	snapshotsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(snapshotsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding snapshots migrate flags", err)
	}
}
