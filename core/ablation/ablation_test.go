package ablation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/rankeval/core/decision"
	"github.com/huangsam/rankeval/core/stats"
	"github.com/huangsam/rankeval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// groundTruth builds n judged queries; query i has one relevant memory i*10.
func groundTruth(n int) schema.GroundTruth {
	var gt schema.GroundTruth
	for i := 1; i <= n; i++ {
		gt.Queries = append(gt.Queries, schema.Query{ID: i, Query: fmt.Sprintf("query %d", i)})
		gt.Judgments = append(gt.Judgments, schema.Judgment{QueryID: i, MemoryID: i * 10, Relevance: 2})
	}
	return gt
}

// vectorOnlySearch finds the relevant memory only through the vector channel.
// The graph channel never contributes anything.
func vectorOnlySearch(calls *atomic.Int64) schema.SearchFunc {
	return func(_ context.Context, query string, disabled schema.ChannelSet) ([]schema.ScoredResult, error) {
		calls.Add(1)
		var id int
		if _, err := fmt.Sscanf(query, "query %d", &id); err != nil {
			return nil, err
		}
		var out []schema.ScoredResult
		if !disabled.Has(schema.VectorChannel) {
			out = append(out, schema.ScoredResult{MemoryID: id * 10, Rank: 1, Score: 0.9})
		}
		out = append(out, schema.ScoredResult{MemoryID: 999, Rank: len(out) + 1, Score: 0.1})
		return out, nil
	}
}

type logCapture struct {
	mu       sync.Mutex
	messages []string
}

func (l *logCapture) log(msg string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %v", msg, err))
}

func newTestOrchestrator(workers int, logs *logCapture) *Orchestrator {
	return New(Options{
		Enabled: true,
		Workers: workers,
		Clock:   func() time.Time { return fixedTime },
		Logger:  logs.log,
	})
}

// TestRunDisabled tests that a disabled orchestrator never calls search.
func TestRunDisabled(t *testing.T) {
	var calls atomic.Int64
	o := New(Options{})
	res := o.Run(context.Background(), vectorOnlySearch(&calls), groundTruth(3), schema.AblationConfig{Channels: schema.AllChannels})
	assert.True(t, res.Disabled)
	assert.False(t, res.OK())
	assert.Nil(t, res.Value)
	assert.NoError(t, res.Err)
	assert.Equal(t, int64(0), calls.Load())
	assert.False(t, o.Enabled())
}

// TestRunChannelContributions tests a critical channel and a channel with no unique results.
func TestRunChannelContributions(t *testing.T) {
	var calls atomic.Int64
	logs := &logCapture{}
	gt := groundTruth(6)
	gt.Queries = append(gt.Queries, schema.Query{ID: 7, Query: "query 7"}) // no judgments

	cfg := schema.AblationConfig{Channels: []schema.Channel{schema.VectorChannel, schema.GraphChannel}}
	res := newTestOrchestrator(1, logs).Run(context.Background(), vectorOnlySearch(&calls), gt, cfg)
	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	report := res.Value

	assert.Equal(t, int64(18), calls.Load(), "one baseline and two ablation passes over 6 judged queries")
	assert.Empty(t, logs.messages)
	assert.Equal(t, 1.0, report.OverallBaselineRecall)
	assert.Equal(t, fixedTime, report.Timestamp)
	assert.Equal(t, int64(0), report.DurationMs)
	assert.True(t, strings.HasPrefix(report.RunID, fmt.Sprintf("ablation-%d-", fixedTime.UnixMilli())))
	assert.Len(t, report.RunID, len(fmt.Sprintf("ablation-%d-", fixedTime.UnixMilli()))+4)
	require.Len(t, report.Results, 2)

	vector := report.Results[0]
	assert.Equal(t, schema.VectorChannel, vector.Channel)
	assert.Equal(t, 0.0, vector.AblatedRecall)
	assert.Equal(t, -1.0, vector.Delta)
	assert.Equal(t, 6, vector.QueriesHurt)
	assert.Equal(t, 0, vector.QueriesHelped)
	assert.Equal(t, 6, vector.QueryCount)
	require.NotNil(t, vector.PValue)
	assert.InDelta(t, 2.0/64, *vector.PValue, 1e-12)
	assert.Equal(t, schema.VerdictCritical, decision.VerdictFor(vector))

	graph := report.Results[1]
	assert.Equal(t, 0.0, graph.Delta)
	assert.Equal(t, 6, graph.QueriesUnchanged)
	assert.Nil(t, graph.PValue)
	assert.Contains(t, []schema.Verdict{schema.VerdictNegligible, schema.VerdictLikelyRedundant}, decision.VerdictFor(graph))

	assert.Equal(t, 6, report.QueriesEvaluated())
}

// TestRunTimestamps tests that the report is stamped at completion while the run id keeps the start.
func TestRunTimestamps(t *testing.T) {
	var calls atomic.Int64
	var ticks atomic.Int64
	clock := func() time.Time {
		return fixedTime.Add(time.Duration(ticks.Add(1)-1) * 250 * time.Millisecond)
	}
	orch := New(Options{Enabled: true, Workers: 1, Clock: clock, Logger: (&logCapture{}).log})

	cfg := schema.AblationConfig{Channels: []schema.Channel{schema.VectorChannel}}
	res := orch.Run(context.Background(), vectorOnlySearch(&calls), groundTruth(3), cfg)
	require.True(t, res.OK(), "unexpected error: %v", res.Err)

	end := fixedTime.Add(250 * time.Millisecond)
	assert.Equal(t, end, res.Value.Timestamp)
	assert.Equal(t, int64(250), res.Value.DurationMs)
	assert.True(t, strings.HasPrefix(res.Value.RunID, fmt.Sprintf("ablation-%d-", fixedTime.UnixMilli())))

	rows, err := SnapshotRows(res.Value)
	require.NoError(t, err)
	assert.Equal(t, -end.UnixMilli(), rows[0].EvalRunID)
}

// TestRunDefaultsRecallK tests that a zero RecallK cuts results at 20.
func TestRunDefaultsRecallK(t *testing.T) {
	gt := schema.GroundTruth{
		Queries:   []schema.Query{{ID: 1, Query: "deep"}},
		Judgments: []schema.Judgment{{QueryID: 1, MemoryID: 500, Relevance: 3}},
	}
	search := func(_ context.Context, _ string, disabled schema.ChannelSet) ([]schema.ScoredResult, error) {
		var out []schema.ScoredResult
		for rank := 1; rank <= 25; rank++ {
			out = append(out, schema.ScoredResult{MemoryID: rank, Rank: rank})
		}
		if !disabled.Has(schema.BM25Channel) {
			out[20].MemoryID = 500 // rank 21, outside the default cutoff
		}
		return out, nil
	}
	res := newTestOrchestrator(1, &logCapture{}).Run(context.Background(), search, gt, schema.AblationConfig{Channels: []schema.Channel{schema.BM25Channel}})
	require.True(t, res.OK())
	assert.Equal(t, 0.0, res.Value.OverallBaselineRecall)

	res = newTestOrchestrator(1, &logCapture{}).Run(context.Background(), search, gt, schema.AblationConfig{Channels: []schema.Channel{schema.BM25Channel}, RecallK: 25})
	require.True(t, res.OK())
	assert.Equal(t, 1.0, res.Value.OverallBaselineRecall)
	assert.Equal(t, -1.0, res.Value.Results[0].Delta)
}

// TestRunParallelMatchesSequential tests that worker count never changes the numbers.
func TestRunParallelMatchesSequential(t *testing.T) {
	gt := groundTruth(40)
	// Every third query loses its hit when graph is disabled; every fifth gains one.
	search := func(_ context.Context, query string, disabled schema.ChannelSet) ([]schema.ScoredResult, error) {
		var id int
		_, _ = fmt.Sscanf(query, "query %d", &id)
		hit := true
		if disabled.Has(schema.GraphChannel) && id%3 == 0 {
			hit = false
		}
		if disabled.Len() == 0 && id%5 == 0 {
			hit = false
		}
		if !hit {
			return []schema.ScoredResult{{MemoryID: 1, Rank: 1}}, nil
		}
		return []schema.ScoredResult{{MemoryID: id * 10, Rank: 1}}, nil
	}
	cfg := schema.AblationConfig{Channels: schema.AllChannels}

	seq := newTestOrchestrator(1, &logCapture{}).Run(context.Background(), search, gt, cfg)
	par := newTestOrchestrator(8, &logCapture{}).Run(context.Background(), search, gt, cfg)
	require.True(t, seq.OK())
	require.True(t, par.OK())
	assert.Equal(t, seq.Value.Results, par.Value.Results)
	assert.Equal(t, seq.Value.OverallBaselineRecall, par.Value.OverallBaselineRecall)
}

// TestRunQuerySelection tests the id filter and the empty selection error.
func TestRunQuerySelection(t *testing.T) {
	var calls atomic.Int64
	logs := &logCapture{}
	o := newTestOrchestrator(2, logs)

	res := o.Run(context.Background(), vectorOnlySearch(&calls), groundTruth(6), schema.AblationConfig{
		Channels: []schema.Channel{schema.VectorChannel},
		QueryIDs: []int{2, 4, 4},
	})
	require.True(t, res.OK())
	assert.Equal(t, 2, res.Value.Results[0].QueryCount)
	assert.Nil(t, res.Value.Results[0].PValue)
	assert.Equal(t, int64(4), calls.Load())

	res = o.Run(context.Background(), vectorOnlySearch(&calls), groundTruth(6), schema.AblationConfig{
		Channels: []schema.Channel{schema.VectorChannel},
		QueryIDs: []int{99},
	})
	assert.ErrorIs(t, res.Err, ErrNoQueries)
	assert.Nil(t, res.Value)
	assert.Len(t, logs.messages, 1)
}

// TestRunFailures tests that search errors and panics stay inside the result.
func TestRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		search  schema.SearchFunc
		wantErr string
	}{
		{
			name: "error during ablation pass",
			search: func(_ context.Context, _ string, disabled schema.ChannelSet) ([]schema.ScoredResult, error) {
				if disabled.Has(schema.GraphChannel) {
					return nil, errors.New("graph backend offline")
				}
				return nil, nil
			},
			wantErr: "graph backend offline",
		},
		{
			name: "panic during baseline pass",
			search: func(context.Context, string, schema.ChannelSet) ([]schema.ScoredResult, error) {
				panic("boom")
			},
			wantErr: "boom",
		},
		{
			name:    "nil search",
			search:  nil,
			wantErr: "search function is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &logCapture{}
			res := newTestOrchestrator(4, logs).Run(context.Background(), tt.search, groundTruth(5), schema.AblationConfig{Channels: []schema.Channel{schema.GraphChannel}})
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), tt.wantErr)
			assert.Nil(t, res.Value)
			assert.False(t, res.OK())
			require.Len(t, logs.messages, 1)
			assert.Contains(t, logs.messages[0], "ablation run failed")
		})
	}
}

type fakeStore struct {
	rows []schema.MetricSnapshot
	err  error
}

func (f *fakeStore) RecordSnapshots(rows []schema.MetricSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeStore) GetAllSnapshots() ([]schema.MetricSnapshot, error) { return f.rows, nil }
func (f *fakeStore) GetStatus() (schema.SnapshotStatus, error)        { return schema.SnapshotStatus{}, nil }
func (f *fakeStore) Clear() error                                     { f.rows = nil; return nil }
func (f *fakeStore) Close() error                                     { return nil }

func sampleReport() *schema.AblationReport {
	p := 0.015625
	return &schema.AblationReport{
		Timestamp:             fixedTime,
		RunID:                 "ablation-1-abcd",
		Config:                schema.AblationConfig{Channels: []schema.Channel{schema.VectorChannel, schema.GraphChannel}},
		OverallBaselineRecall: 0.75,
		DurationMs:            42,
		Results: []schema.AblationResult{
			{Channel: schema.GraphChannel, BaselineRecall: 0.75, AblatedRecall: 0.76, Delta: 0.01, QueriesHelped: 1, QueriesUnchanged: 5, QueryCount: 6},
			{Channel: schema.VectorChannel, BaselineRecall: 0.75, AblatedRecall: 0.5, Delta: -0.25, PValue: &p, QueriesHurt: 6, QueryCount: 6},
		},
	}
}

// TestStore tests the row layout written to the snapshot store.
func TestStore(t *testing.T) {
	store := &fakeStore{}
	res := newTestOrchestrator(1, &logCapture{}).Store(store, sampleReport())
	require.True(t, res.OK())
	assert.Equal(t, 3, res.Value)
	require.Len(t, store.rows, 3)

	base := store.rows[0]
	assert.Equal(t, -fixedTime.UnixMilli(), base.EvalRunID)
	assert.Equal(t, schema.MetricAblationBaselineRecall, base.MetricName)
	assert.Equal(t, 0.75, base.MetricValue)
	assert.Equal(t, "all", *base.Channel)
	assert.Equal(t, 6, *base.QueryCount)
	assert.Equal(t, fixedTime, base.CreatedAt)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(*base.Metadata), &meta))
	assert.Equal(t, "ablation-1-abcd", meta["runId"])
	assert.Equal(t, 42.0, meta["durationMs"])
	assert.Contains(t, meta, "config")

	graph := store.rows[1]
	assert.Equal(t, schema.MetricAblationRecallDelta, graph.MetricName)
	assert.Equal(t, "graph", *graph.Channel)
	assert.Equal(t, 0.01, graph.MetricValue)
	require.NoError(t, json.Unmarshal([]byte(*graph.Metadata), &meta))
	assert.Nil(t, meta["pValue"])
	assert.Equal(t, 1.0, meta["queriesHelped"])

	vector := store.rows[2]
	require.NoError(t, json.Unmarshal([]byte(*vector.Metadata), &meta))
	assert.Equal(t, 0.015625, meta["pValue"])
	assert.Equal(t, 0.5, meta["ablatedRecall20"])
}

// TestStoreFailures tests the disabled, empty and failing store paths.
func TestStoreFailures(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		store := &fakeStore{}
		res := New(Options{}).Store(store, sampleReport())
		assert.True(t, res.Disabled)
		assert.Empty(t, store.rows)
	})

	t.Run("store error keeps report usable", func(t *testing.T) {
		logs := &logCapture{}
		report := sampleReport()
		res := newTestOrchestrator(1, logs).Store(&fakeStore{err: errors.New("disk full")}, report)
		assert.ErrorContains(t, res.Err, "disk full")
		assert.Equal(t, 0, res.Value)
		assert.Len(t, logs.messages, 1)
		assert.Len(t, report.Results, 2)
	})

	t.Run("nil report", func(t *testing.T) {
		res := newTestOrchestrator(1, &logCapture{}).Store(&fakeStore{}, nil)
		assert.Error(t, res.Err)
	})

	t.Run("nil store", func(t *testing.T) {
		res := newTestOrchestrator(1, &logCapture{}).Store(nil, sampleReport())
		assert.Error(t, res.Err)
	})

	t.Run("empty results still write the baseline row", func(t *testing.T) {
		store := &fakeStore{}
		report := sampleReport()
		report.Results = nil
		res := newTestOrchestrator(1, &logCapture{}).Store(store, report)
		require.True(t, res.OK())
		assert.Equal(t, 1, res.Value)
		assert.Equal(t, 0, *store.rows[0].QueryCount)
	})
}

// TestSnapshotRowsLargeStudy tests that a study with over a thousand paired queries still encodes.
func TestSnapshotRowsLargeStudy(t *testing.T) {
	report := sampleReport()
	r := &report.Results[0]
	r.QueriesHurt, r.QueriesHelped, r.QueryCount = 600, 600, 1200
	r.PValue = stats.PValuePtr(stats.SignTest(r.QueriesHurt, r.QueriesHelped))

	rows, err := SnapshotRows(report)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(*rows[1].Metadata), &meta))
	assert.Equal(t, 1.0, meta["pValue"])
	assert.Equal(t, 600.0, meta["queriesHurt"])

	store := &fakeStore{}
	res := newTestOrchestrator(1, &logCapture{}).Store(store, report)
	require.True(t, res.OK())
	assert.Len(t, store.rows, 3)
}

// TestFormatReport tests the markdown layout and both orderings.
func TestFormatReport(t *testing.T) {
	out := FormatReport(sampleReport())
	lines := strings.Split(out, "\n")

	assert.Equal(t, "## Ablation Study Report", lines[0])
	assert.Contains(t, out, "- **Run ID:** ablation-1-abcd")
	assert.Contains(t, out, "- **Timestamp:** 2026-03-01T12:00:00.000Z")
	assert.Contains(t, out, "- **Baseline Recall@20:** 0.7500")
	assert.Contains(t, out, "- **Duration:** 42ms")
	assert.Contains(t, out, "- **Queries evaluated:** 6")

	vectorRow := "| vector | 0.7500 | 0.5000 | -0.2500* | 0.0156 | 6 | 0 | 0 | CRITICAL |"
	graphRow := "| graph | 0.7500 | 0.7600 | +0.0100 | n/a | 0 | 1 | 5 | likely redundant |"
	assert.Contains(t, out, vectorRow)
	assert.Contains(t, out, graphRow)
	assert.Less(t, strings.Index(out, vectorRow), strings.Index(out, graphRow), "largest |delta| first")

	assert.Contains(t, out, "1. **vector** — contribution: +0.2500 Recall@20")
	assert.Contains(t, out, "2. **graph** — contribution: -0.0100 Recall@20")
	assert.False(t, strings.HasSuffix(out, "\n"))

	assert.Empty(t, FormatReport(nil))
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "+0.0000", signed(0))
	assert.Equal(t, "+0.0000", signed(-0.0*1))
	assert.Equal(t, "+1.5000", signed(1.5))
	assert.Equal(t, "-0.2500", signed(-0.25))
}

func TestSortByContributionTies(t *testing.T) {
	results := []schema.AblationResult{
		{Channel: schema.BM25Channel, Delta: -0.1},
		{Channel: schema.GraphChannel, Delta: 0.2},
		{Channel: schema.VectorChannel, Delta: -0.1},
	}
	ranked := SortByContribution(results)
	assert.Equal(t, []schema.Channel{schema.BM25Channel, schema.VectorChannel, schema.GraphChannel},
		[]schema.Channel{ranked[0].Channel, ranked[1].Channel, ranked[2].Channel})
	assert.Equal(t, schema.BM25Channel, results[0].Channel, "input is not reordered")
}
