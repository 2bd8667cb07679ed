package schema

import "time"

// ContingencyDecision is the verdict of the BM25 baseline gate.
// Metadata written to the snapshot store uses the camelCase field names.
type ContingencyDecision struct {
	BM25MRR        float64           `json:"bm25MRR"`
	Threshold      string            `json:"threshold"`
	Action         ContingencyAction `json:"action"`
	Interpretation string            `json:"interpretation"`
	Mode           ContingencyMode   `json:"mode"`
	HybridMRR      *float64          `json:"hybridMRR,omitempty"`
	Ratio          *float64          `json:"ratio,omitempty"`
}

// BootstrapCI is a percentile bootstrap confidence interval for mean MRR@5.
type BootstrapCI struct {
	PointEstimate  float64 `json:"point_estimate"`
	CILower        float64 `json:"ci_lower"`
	CIUpper        float64 `json:"ci_upper"`
	CIWidth        float64 `json:"ci_width"`
	Iterations     int     `json:"iterations"`
	SampleSize     int     `json:"sample_size"`
	IsSignificant  bool    `json:"is_significant"`
	TestedBoundary float64 `json:"tested_boundary"`
}

// BaselineMetrics are the four core metrics averaged over the baseline queries.
type BaselineMetrics struct {
	MRR5     float64 `json:"mrr5"`
	NDCG10   float64 `json:"ndcg10"`
	Recall20 float64 `json:"recall20"`
	HitRate1 float64 `json:"hit_rate1"`
}

// BaselineResult is the outcome of a BM25-only baseline run.
type BaselineResult struct {
	Metrics     BaselineMetrics      `json:"metrics"`
	QueryCount  int                  `json:"query_count"`
	Timestamp   time.Time            `json:"timestamp"`
	Contingency ContingencyDecision  `json:"contingency_decision"`
	Relative    *ContingencyDecision `json:"relative_decision,omitempty"`
	PerQueryMRR []float64            `json:"per_query_mrr,omitempty"`
	BootstrapCI *BootstrapCI         `json:"bootstrap_ci,omitempty"`
}
