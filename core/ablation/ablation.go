// Package ablation measures how much each retrieval channel contributes to recall
// by disabling channels one at a time and comparing against an all-channels baseline.
package ablation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/rankeval/core/metrics"
	"github.com/huangsam/rankeval/core/stats"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
	"golang.org/x/sync/errgroup"
)

// ErrNoQueries is returned when the configured query selection is empty.
var ErrNoQueries = errors.New("no queries to evaluate")

// deltaEpsilon separates a real per-query change from floating point noise.
const deltaEpsilon = 1e-9

// Options configure an Orchestrator.
type Options struct {
	Enabled bool
	Workers int                 // per-pass parallelism; 0 or less runs sequentially
	Clock   func() time.Time    // defaults to time.Now
	Logger  func(string, error) // defaults to contract.LogWarn
}

// Result is the outcome of a public Orchestrator call. Disabled is set when the
// orchestrator is switched off; Err carries any failure, including recovered panics.
type Result[T any] struct {
	Value    T
	Err      error
	Disabled bool
}

// OK reports whether the call ran and succeeded.
func (r Result[T]) OK() bool {
	return !r.Disabled && r.Err == nil
}

// Orchestrator runs ablation studies. Its public methods never panic and never
// return a bare error: every failure is folded into the Result.
type Orchestrator struct {
	enabled bool
	workers int
	clock   func() time.Time
	logger  func(string, error)
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		enabled: opts.Enabled,
		workers: opts.Workers,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.logger == nil {
		o.logger = contract.LogWarn
	}
	return o
}

// Enabled reports whether the orchestrator does any work.
func (o *Orchestrator) Enabled() bool {
	return o.enabled
}

// judgedQuery is a selected query that has ground truth.
type judgedQuery struct {
	query     schema.Query
	judgments []schema.Judgment
}

// Run executes a full ablation study over gt with the given search function.
// The baseline pass completes before any channel is ablated and is reused for every channel.
func (o *Orchestrator) Run(ctx context.Context, search schema.SearchFunc, gt schema.GroundTruth, cfg schema.AblationConfig) (res Result[*schema.AblationReport]) {
	if !o.enabled {
		return Result[*schema.AblationReport]{Disabled: true}
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result[*schema.AblationReport]{Err: fmt.Errorf("ablation run panicked: %v", r)}
			o.logger("ablation run failed", res.Err)
		}
	}()

	report, err := o.run(ctx, search, gt, cfg)
	if err != nil {
		o.logger("ablation run failed", err)
		return Result[*schema.AblationReport]{Err: err}
	}
	return Result[*schema.AblationReport]{Value: report}
}

func (o *Orchestrator) run(ctx context.Context, search schema.SearchFunc, gt schema.GroundTruth, cfg schema.AblationConfig) (*schema.AblationReport, error) {
	if search == nil {
		return nil, errors.New("search function is required")
	}
	start := o.clock()
	runID := newRunID(start)
	recallK := cfg.EffectiveRecallK()

	selected := selectQueries(gt, cfg.QueryIDs)
	if len(selected) == 0 {
		return nil, ErrNoQueries
	}
	judged := make([]judgedQuery, 0, len(selected))
	for _, q := range selected {
		judgments := gt.ForQuery(q.ID)
		if len(judgments) == 0 {
			continue
		}
		judged = append(judged, judgedQuery{query: q, judgments: judgments})
	}

	baseline, err := o.recallPass(ctx, search, judged, 0, recallK)
	if err != nil {
		return nil, fmt.Errorf("baseline pass: %w", err)
	}
	overallBaseline := metrics.Mean(baseline)

	results := make([]schema.AblationResult, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		ablated, err := o.recallPass(ctx, search, judged, schema.NewChannelSet(ch), recallK)
		if err != nil {
			return nil, fmt.Errorf("ablation pass for %s: %w", ch, err)
		}
		results = append(results, compare(ch, baseline, ablated, overallBaseline))
	}

	// Stamped at completion; the run id keeps the start time.
	end := o.clock()
	return &schema.AblationReport{
		Timestamp:             end,
		RunID:                 runID,
		Config:                cfg,
		Results:               results,
		OverallBaselineRecall: overallBaseline,
		DurationMs:            end.Sub(start).Milliseconds(),
	}, nil
}

// recallPass computes recall@k for every judged query with the given channels disabled.
// Each worker writes only its own slot, so the output order matches judged.
func (o *Orchestrator) recallPass(ctx context.Context, search schema.SearchFunc, judged []judgedQuery, disabled schema.ChannelSet, k int) ([]float64, error) {
	recalls := make([]float64, len(judged))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, jq := range judged {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("search panicked for query %d: %v", jq.query.ID, r)
				}
			}()
			results, err := search(gctx, jq.query.Query, disabled)
			if err != nil {
				return fmt.Errorf("search failed for query %d: %w", jq.query.ID, err)
			}
			recalls[i] = metrics.Recall(results, jq.judgments, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recalls, nil
}

// compare pairs the baseline and ablated recalls of one channel. The reported
// delta is the difference of the two means, not the mean of per-query deltas.
func compare(ch schema.Channel, baseline, ablated []float64, overallBaseline float64) schema.AblationResult {
	r := schema.AblationResult{
		Channel:        ch,
		BaselineRecall: overallBaseline,
	}
	paired := min(len(baseline), len(ablated))
	for i := range paired {
		delta := ablated[i] - baseline[i]
		switch {
		case delta < -deltaEpsilon:
			r.QueriesHurt++
		case delta > deltaEpsilon:
			r.QueriesHelped++
		default:
			r.QueriesUnchanged++
		}
	}
	r.QueryCount = paired
	r.AblatedRecall = metrics.Mean(ablated)
	r.Delta = r.AblatedRecall - overallBaseline
	r.PValue = stats.PValuePtr(stats.SignTest(r.QueriesHurt, r.QueriesHelped))
	return r
}

// selectQueries applies the id filter and drops repeated ids, keeping the first.
func selectQueries(gt schema.GroundTruth, ids []int) []schema.Query {
	seen := make(map[int]struct{})
	var out []schema.Query
	for _, q := range gt.Select(ids) {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// newRunID formats ablation-{unix millis}-{4 hex}.
func newRunID(ts time.Time) string {
	return fmt.Sprintf("ablation-%d-%s", ts.UnixMilli(), uuid.NewString()[:4])
}
