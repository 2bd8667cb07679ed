package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for snapshot storage.
	DatabaseBackend string

	// ContingencyAction is the decision produced by the BM25 contingency matrix.
	ContingencyAction string

	// ContingencyMode tells whether a decision used the absolute or relative matrix.
	ContingencyMode string

	// Quadrant is a cell of the ceiling-vs-baseline matrix.
	Quadrant string

	// Verdict labels the contribution of an ablated channel.
	Verdict string
)

// All output modes supported.
const (
	TextOut     OutputMode = "text" // default
	JSONOut     OutputMode = "json"
	CSVOut      OutputMode = "csv"
	MarkdownOut OutputMode = "markdown"
	ParquetOut  OutputMode = "parquet" // snapshots export only
)

// All snapshot backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Contingency actions, strongest first.
const (
	ActionPause       ContingencyAction = "PAUSE"
	ActionRationalize ContingencyAction = "RATIONALIZE"
	ActionProceed     ContingencyAction = "PROCEED"
)

// Contingency modes.
const (
	AbsoluteMode ContingencyMode = "absolute"
	RelativeMode ContingencyMode = "relative"
)

// Ceiling-vs-baseline quadrants.
const (
	HighCeilingLowBaseline  Quadrant = "high-ceiling-low-baseline"
	HighCeilingHighBaseline Quadrant = "high-ceiling-high-baseline"
	LowCeilingLowBaseline   Quadrant = "low-ceiling-low-baseline"
	LowCeilingHighBaseline  Quadrant = "low-ceiling-high-baseline"
)

// Ablation verdicts. Upper case marks the significant, large effects.
const (
	VerdictNegligible      Verdict = "negligible"
	VerdictCritical        Verdict = "CRITICAL"
	VerdictImportant       Verdict = "important"
	VerdictLikelyUseful    Verdict = "likely useful"
	VerdictHarmful         Verdict = "HARMFUL"
	VerdictPossiblyHarmful Verdict = "possibly harmful"
	VerdictLikelyRedundant Verdict = "likely redundant"
)

// Query categories and intents referenced by the engine.
const (
	HardNegativeCategory = "hard_negative"
	DefaultIntent        = "understand"
)

// Snapshot metric names written to the eval_metric_snapshots table.
const (
	MetricAblationBaselineRecall = "ablation_baseline_recall@20"
	MetricAblationRecallDelta    = "ablation_recall@20_delta"
	MetricMRR5                   = "mrr@5"
	MetricNDCG10                 = "ndcg@10"
	MetricRecall20               = "recall@20"
	MetricHitRate1               = "hit_rate@1"
	MetricContingencyDecision    = "bm25_contingency_decision"
)

// Snapshot channel labels that are not retrieval channels.
const (
	AllChannelsLabel = "all"
	BM25ChannelLabel = "bm25"
)

// ValidOutputModes lists all valid output modes for reports.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:     {},
	JSONOut:     {},
	CSVOut:      {},
	MarkdownOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
