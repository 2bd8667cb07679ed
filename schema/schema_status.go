package schema

import "time"

// SnapshotStatus represents the status of the snapshot store.
type SnapshotStatus struct {
	Backend         string           `json:"backend"`
	Connected       bool             `json:"connected"`
	TotalRows       int              `json:"total_rows"`
	DistinctRuns    int              `json:"distinct_runs"`
	LastRunID       int64            `json:"last_run_id"`
	LastEntryTime   time.Time        `json:"last_entry_time"`
	OldestEntryTime time.Time        `json:"oldest_entry_time"`
	MetricCounts    map[string]int64 `json:"metric_counts"`
}

// MetricSnapshot is one row of the eval_metric_snapshots table.
// Negative EvalRunID values are reserved for evaluation and ablation runs.
type MetricSnapshot struct {
	ID          int64     `json:"id"`
	EvalRunID   int64     `json:"eval_run_id"`
	MetricName  string    `json:"metric_name"`
	MetricValue float64   `json:"metric_value"`
	Channel     *string   `json:"channel"`
	QueryCount  *int      `json:"query_count"`
	Metadata    *string   `json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
}

// EvalRunID derives the reserved negative run id from a timestamp.
func EvalRunID(ts time.Time) int64 {
	return -ts.UnixMilli()
}
