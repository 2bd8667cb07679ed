package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/rankeval/schema"
	"golang.org/x/sync/errgroup"
)

// EvaluateOptions control a full-run evaluation.
type EvaluateOptions struct {
	Disabled schema.ChannelSet
	Intent   string // overrides each query's intent when set
	Workers  int
	Now      time.Time
}

// Evaluate runs every query through search and computes all metrics per query plus the mean.
// Queries without judgments are skipped. The first search error aborts the run.
func Evaluate(ctx context.Context, search schema.SearchFunc, gt schema.GroundTruth, opts EvaluateOptions) (schema.EvaluationResult, error) {
	queries := gt.Queries
	slots := make([]*schema.QueryMetrics, len(queries))
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, q := range queries {
		judgments := gt.ForQuery(q.ID)
		if len(judgments) == 0 {
			continue
		}
		g.Go(func() error {
			results, err := search(gctx, q.Query, opts.Disabled)
			if err != nil {
				return fmt.Errorf("search failed for query %d: %w", q.ID, err)
			}
			intent := opts.Intent
			if intent == "" {
				intent = q.IntentType
			}
			if intent == "" {
				intent = schema.DefaultIntent
			}
			slots[i] = &schema.QueryMetrics{
				QueryID: q.ID,
				Query:   q.Query,
				Intent:  intent,
				Metrics: ComputeAllMetrics(Params{
					Results:           results,
					Judgments:         judgments,
					ConstitutionalIDs: gt.ConstitutionalIDs,
					MemoryTimestamps:  gt.MemoryTimestamps,
					Intent:            intent,
					Now:               now,
				}),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schema.EvaluationResult{}, err
	}

	out := schema.EvaluationResult{Disabled: opts.Disabled.String()}
	var all []schema.AllMetrics
	for _, slot := range slots {
		if slot == nil {
			out.Skipped++
			continue
		}
		out.PerQuery = append(out.PerQuery, *slot)
		all = append(all, slot.Metrics)
	}
	out.Evaluated = len(out.PerQuery)
	out.Mean = Average(all)
	return out, nil
}
