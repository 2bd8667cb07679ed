package metrics

import (
	"time"

	"github.com/huangsam/rankeval/schema"
)

// Params are the inputs of ComputeAllMetrics. Optional fields may be left empty.
type Params struct {
	Results           []schema.ScoredResult
	Judgments         []schema.Judgment
	ConstitutionalIDs []int
	MemoryTimestamps  map[int]time.Time
	Intent            string    // defaults to "understand"
	Now               time.Time // defaults to time.Now()
}

// ComputeAllMetrics computes all nine metrics at their default cutoffs.
func ComputeAllMetrics(p Params) schema.AllMetrics {
	intent := p.Intent
	if intent == "" {
		intent = schema.DefaultIntent
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	return schema.AllMetrics{
		MRR:                         MRR(p.Results, p.Judgments, DefaultMRRK),
		NDCG:                        NDCG(p.Results, p.Judgments, DefaultNDCGK),
		Recall:                      Recall(p.Results, p.Judgments, DefaultRecallK),
		HitRate:                     HitRate(p.Results, p.Judgments, DefaultHitRateK),
		InversionRate:               InversionRate(p.Results, p.Judgments),
		ConstitutionalSurfacingRate: ConstitutionalSurfacingRate(p.Results, p.ConstitutionalIDs, DefaultConstitutionalK),
		ImportanceWeightedRecall:    ImportanceWeightedRecall(p.Results, p.Judgments, nil, DefaultRecallK),
		ColdStartDetectionRate:      ColdStartDetectionRate(p.Results, p.Judgments, p.MemoryTimestamps, DefaultColdStartCutoff, DefaultColdStartK, now),
		IntentWeightedNDCG:          IntentWeightedNDCG(p.Results, p.Judgments, intent, DefaultNDCGK),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Average returns the field-wise mean of a set of metric bundles.
func Average(all []schema.AllMetrics) schema.AllMetrics {
	if len(all) == 0 {
		return schema.AllMetrics{}
	}
	var sum schema.AllMetrics
	for _, m := range all {
		sum.MRR += m.MRR
		sum.NDCG += m.NDCG
		sum.Recall += m.Recall
		sum.HitRate += m.HitRate
		sum.InversionRate += m.InversionRate
		sum.ConstitutionalSurfacingRate += m.ConstitutionalSurfacingRate
		sum.ImportanceWeightedRecall += m.ImportanceWeightedRecall
		sum.ColdStartDetectionRate += m.ColdStartDetectionRate
		sum.IntentWeightedNDCG += m.IntentWeightedNDCG
	}
	n := float64(len(all))
	return schema.AllMetrics{
		MRR:                         sum.MRR / n,
		NDCG:                        sum.NDCG / n,
		Recall:                      sum.Recall / n,
		HitRate:                     sum.HitRate / n,
		InversionRate:               sum.InversionRate / n,
		ConstitutionalSurfacingRate: sum.ConstitutionalSurfacingRate / n,
		ImportanceWeightedRecall:    sum.ImportanceWeightedRecall / n,
		ColdStartDetectionRate:      sum.ColdStartDetectionRate / n,
		IntentWeightedNDCG:          sum.IntentWeightedNDCG / n,
	}
}
