package ablation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

// baselineMetadata is the JSON payload of the baseline recall row.
type baselineMetadata struct {
	RunID      string                `json:"runId"`
	Config     schema.AblationConfig `json:"config"`
	DurationMs int64                 `json:"durationMs"`
}

// channelMetadata is the JSON payload of a per-channel delta row.
type channelMetadata struct {
	RunID            string   `json:"runId"`
	BaselineRecall20 float64  `json:"baselineRecall20"`
	AblatedRecall20  float64  `json:"ablatedRecall20"`
	PValue           *float64 `json:"pValue"`
	QueriesHurt      int      `json:"queriesHurt"`
	QueriesHelped    int      `json:"queriesHelped"`
	QueriesUnchanged int      `json:"queriesUnchanged"`
}

// Store persists a report as snapshot rows in one transaction and returns the row count.
// A failed write leaves the in-memory report untouched and usable.
func (o *Orchestrator) Store(store contract.SnapshotStore, report *schema.AblationReport) (res Result[int]) {
	if !o.enabled {
		return Result[int]{Disabled: true}
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result[int]{Err: fmt.Errorf("storing ablation results panicked: %v", r)}
			o.logger("storing ablation results failed", res.Err)
		}
	}()

	rows, err := SnapshotRows(report)
	if err == nil {
		if store == nil {
			err = errors.New("snapshot store is not configured")
		} else {
			err = store.RecordSnapshots(rows)
		}
	}
	if err != nil {
		o.logger("storing ablation results failed", err)
		return Result[int]{Err: err}
	}
	return Result[int]{Value: len(rows)}
}

// SnapshotRows converts a report into one baseline row followed by one row per channel.
func SnapshotRows(report *schema.AblationReport) ([]schema.MetricSnapshot, error) {
	if report == nil {
		return nil, errors.New("ablation report is nil")
	}
	runID := schema.EvalRunID(report.Timestamp)

	meta, err := json.Marshal(baselineMetadata{
		RunID:      report.RunID,
		Config:     report.Config,
		DurationMs: report.DurationMs,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding baseline metadata: %w", err)
	}
	allLabel := schema.AllChannelsLabel
	queryCount := report.QueriesEvaluated()
	baselineMeta := string(meta)
	rows := []schema.MetricSnapshot{{
		EvalRunID:   runID,
		MetricName:  schema.MetricAblationBaselineRecall,
		MetricValue: report.OverallBaselineRecall,
		Channel:     &allLabel,
		QueryCount:  &queryCount,
		Metadata:    &baselineMeta,
		CreatedAt:   report.Timestamp,
	}}

	for _, r := range report.Results {
		meta, err := json.Marshal(channelMetadata{
			RunID:            report.RunID,
			BaselineRecall20: r.BaselineRecall,
			AblatedRecall20:  r.AblatedRecall,
			PValue:           r.PValue,
			QueriesHurt:      r.QueriesHurt,
			QueriesHelped:    r.QueriesHelped,
			QueriesUnchanged: r.QueriesUnchanged,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding metadata for %s: %w", r.Channel, err)
		}
		channel := string(r.Channel)
		count := r.QueryCount
		metadata := string(meta)
		rows = append(rows, schema.MetricSnapshot{
			EvalRunID:   runID,
			MetricName:  schema.MetricAblationRecallDelta,
			MetricValue: r.Delta,
			Channel:     &channel,
			QueryCount:  &count,
			Metadata:    &metadata,
			CreatedAt:   report.Timestamp,
		})
	}
	return rows, nil
}
