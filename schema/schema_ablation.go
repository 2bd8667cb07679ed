package schema

import "time"

// DefaultRecallK is the cutoff used for per-query recall in ablation studies.
const DefaultRecallK = 20

// AblationConfig selects the channels and queries of an ablation study.
type AblationConfig struct {
	Channels      []Channel `json:"channels"`
	QueryIDs      []int     `json:"groundTruthQueryIds,omitempty"`
	BaselineRunID string    `json:"baselineRunId,omitempty"`
	RecallK       int       `json:"recallK,omitempty"`
}

// EffectiveRecallK returns RecallK or the default when unset.
func (c AblationConfig) EffectiveRecallK() int {
	if c.RecallK > 0 {
		return c.RecallK
	}
	return DefaultRecallK
}

// AblationResult is the outcome of disabling one channel.
// Delta is mean(ablated) minus the overall baseline mean, not the mean of per-query deltas.
type AblationResult struct {
	Channel          Channel  `json:"channel"`
	BaselineRecall   float64  `json:"baseline_recall"`
	AblatedRecall    float64  `json:"ablated_recall"`
	Delta            float64  `json:"delta"`
	PValue           *float64 `json:"p_value"`
	QueriesHurt      int      `json:"queries_hurt"`
	QueriesHelped    int      `json:"queries_helped"`
	QueriesUnchanged int      `json:"queries_unchanged"`
	QueryCount       int      `json:"query_count"`
}

// Significant reports whether the sign test rejected the null at p < 0.05.
func (r AblationResult) Significant() bool {
	return r.PValue != nil && *r.PValue < 0.05
}

// AblationReport is the full outcome of one ablation study.
type AblationReport struct {
	Timestamp             time.Time        `json:"timestamp"`
	RunID                 string           `json:"run_id"`
	Config                AblationConfig   `json:"config"`
	Results               []AblationResult `json:"results"`
	OverallBaselineRecall float64          `json:"overall_baseline_recall"`
	DurationMs            int64            `json:"duration_ms"`
}

// QueriesEvaluated returns the paired query count of the first channel, or 0.
func (r AblationReport) QueriesEvaluated() int {
	if len(r.Results) == 0 {
		return 0
	}
	return r.Results[0].QueryCount
}
