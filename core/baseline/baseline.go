// Package baseline measures keyword-only retrieval quality and gates further
// channel work through the contingency matrix.
package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/huangsam/rankeval/core/decision"
	"github.com/huangsam/rankeval/core/metrics"
	"github.com/huangsam/rankeval/core/stats"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

// MinFetchLimit is the smallest number of results requested per query.
const MinFetchLimit = 20

// SearchFunc runs a keyword-only search and returns up to limit results, best first.
// The order of the returned slice is authoritative; ranks are assigned from it.
type SearchFunc func(ctx context.Context, query string, limit int) ([]schema.ScoredResult, error)

// Config controls a baseline run.
type Config struct {
	K                   int // overrides the MRR, NDCG and recall cutoffs when > 0
	QueryLimit          int // evaluate only the first N selected queries when > 0
	SkipHardNegatives   bool
	BootstrapIterations int        // 0 uses stats.DefaultBootstrapIterations
	Rand                *rand.Rand // nil draws a random seed
	HybridMRR           *float64   // adds the relative contingency decision when set
	Now                 func() time.Time
}

// cutoffs returns the MRR, NDCG and recall cutoffs and the fetch limit.
func (c Config) cutoffs() (mrrK, ndcgK, recallK, fetch int) {
	mrrK, ndcgK, recallK = metrics.DefaultMRRK, metrics.DefaultNDCGK, metrics.DefaultRecallK
	if c.K > 0 {
		mrrK, ndcgK, recallK = c.K, c.K, c.K
	}
	return mrrK, ndcgK, recallK, max(mrrK, ndcgK, recallK, MinFetchLimit)
}

// queryJudgments returns the ground truth used for q. Hard negatives have none.
func queryJudgments(gt schema.GroundTruth, q schema.Query) []schema.Judgment {
	if q.Category == schema.HardNegativeCategory {
		return nil
	}
	return gt.ForQuery(q.ID)
}

// Run evaluates search over the selected queries. Queries without judgments
// still count and score zero. Hard negatives always score zero, whatever their judgments.
func Run(ctx context.Context, search SearchFunc, gt schema.GroundTruth, cfg Config) (schema.BaselineResult, error) {
	if search == nil {
		return schema.BaselineResult{}, errors.New("search function is required")
	}
	mrrK, ndcgK, recallK, fetch := cfg.cutoffs()

	queries := selectQueries(gt.Queries, cfg)
	var totals schema.BaselineMetrics
	perQueryMRR := make([]float64, 0, len(queries))

	for _, q := range queries {
		raw, err := search(ctx, q.Query, fetch)
		if err != nil {
			return schema.BaselineResult{}, fmt.Errorf("bm25 search failed for query %d: %w", q.ID, err)
		}
		results := make([]schema.ScoredResult, len(raw))
		for i, r := range raw {
			results[i] = schema.ScoredResult{MemoryID: r.MemoryID, Score: r.Score, Rank: i + 1}
		}
		judgments := queryJudgments(gt, q)

		mrr := metrics.MRR(results, judgments, mrrK)
		perQueryMRR = append(perQueryMRR, mrr)
		totals.MRR5 += mrr
		totals.NDCG10 += metrics.NDCG(results, judgments, ndcgK)
		totals.Recall20 += metrics.Recall(results, judgments, recallK)
		totals.HitRate1 += metrics.HitRate(results, judgments, 1)
	}

	divisor := float64(max(len(queries), 1))
	avg := schema.BaselineMetrics{
		MRR5:     totals.MRR5 / divisor,
		NDCG10:   totals.NDCG10 / divisor,
		Recall20: totals.Recall20 / divisor,
		HitRate1: totals.HitRate1 / divisor,
	}

	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	iterations := cfg.BootstrapIterations
	if iterations <= 0 {
		iterations = stats.DefaultBootstrapIterations
	}
	ci := stats.BootstrapCI(perQueryMRR, iterations, cfg.Rand)

	result := schema.BaselineResult{
		Metrics:     avg,
		QueryCount:  len(queries),
		Timestamp:   now(),
		Contingency: decision.EvaluateContingency(avg.MRR5),
		PerQueryMRR: perQueryMRR,
		BootstrapCI: &ci,
	}
	if cfg.HybridMRR != nil {
		rel := decision.EvaluateContingencyRelative(avg.MRR5, *cfg.HybridMRR)
		result.Relative = &rel
	}
	return result, nil
}

// selectQueries drops hard negatives when asked, then applies the query limit.
func selectQueries(all []schema.Query, cfg Config) []schema.Query {
	queries := all
	if cfg.SkipHardNegatives {
		queries = make([]schema.Query, 0, len(all))
		for _, q := range all {
			if q.Category != schema.HardNegativeCategory {
				queries = append(queries, q)
			}
		}
	}
	if cfg.QueryLimit > 0 && cfg.QueryLimit < len(queries) {
		queries = queries[:cfg.QueryLimit]
	}
	return queries
}

// Record writes the four core metrics and the contingency decision as snapshot
// rows on the bm25 channel, all inside one transaction.
func Record(store contract.SnapshotStore, result schema.BaselineResult) error {
	if store == nil {
		return errors.New("snapshot store is not configured")
	}
	meta, err := json.Marshal(result.Contingency)
	if err != nil {
		return fmt.Errorf("encoding contingency decision: %w", err)
	}
	runID := schema.EvalRunID(result.Timestamp)
	channel := schema.BM25ChannelLabel
	count := result.QueryCount
	metadata := string(meta)

	row := func(name string, value float64, metadata *string) schema.MetricSnapshot {
		return schema.MetricSnapshot{
			EvalRunID:   runID,
			MetricName:  name,
			MetricValue: value,
			Channel:     &channel,
			QueryCount:  &count,
			Metadata:    metadata,
			CreatedAt:   result.Timestamp,
		}
	}
	rows := []schema.MetricSnapshot{
		row(schema.MetricMRR5, result.Metrics.MRR5, nil),
		row(schema.MetricNDCG10, result.Metrics.NDCG10, nil),
		row(schema.MetricRecall20, result.Metrics.Recall20, nil),
		row(schema.MetricHitRate1, result.Metrics.HitRate1, nil),
		row(schema.MetricContingencyDecision, result.Contingency.BM25MRR, &metadata),
	}
	if err := store.RecordSnapshots(rows); err != nil {
		return fmt.Errorf("recording baseline snapshots: %w", err)
	}
	return nil
}
