// Package metrics computes information-retrieval metrics for ranked result lists.
//
// Every function returns a value in [0,1] and returns 0 for degenerate inputs
// (empty results, empty judgments, zero ideal gain). Results are always ordered
// by Rank, never by Score.
package metrics

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/huangsam/rankeval/schema"
)

// Default cutoffs for each metric.
const (
	DefaultMRRK            = 5
	DefaultNDCGK           = 10
	DefaultRecallK         = 20
	DefaultHitRateK        = 1
	DefaultConstitutionalK = 5
	DefaultColdStartK      = 10
	DefaultColdStartCutoff = 48 * time.Hour
)

// DefaultTierWeights weight relevant judgments by importance tier.
var DefaultTierWeights = map[string]float64{
	"constitutional": 3,
	"critical":       2,
	"important":      1.5,
	"normal":         1,
	"temporary":      1,
	"deprecated":     0,
}

// intentMultipliers rescale relevance grades 0..3 per query intent.
var intentMultipliers = map[string][4]float64{
	"add_feature":    {0, 1.0, 2.0, 3.0},
	"fix_bug":        {0, 0.5, 2.0, 4.0},
	"refactor":       {0, 1.0, 1.5, 2.5},
	"security_audit": {0, 0.0, 2.0, 5.0},
	"understand":     {0, 1.0, 2.0, 3.0},
	"find_spec":      {0, 1.5, 2.0, 3.0},
	"find_decision":  {0, 1.2, 2.0, 3.2},
}

var defaultMultipliers = [4]float64{0, 1.0, 2.0, 3.0}

// IntentMultipliers returns the multiplier vector for an intent, falling back to the default.
func IntentMultipliers(intent string) [4]float64 {
	if m, ok := intentMultipliers[intent]; ok {
		return m
	}
	return defaultMultipliers
}

// relevanceMap indexes judgments by memory id. Later duplicates win.
func relevanceMap(judgments []schema.Judgment) map[int]int {
	m := make(map[int]int, len(judgments))
	for _, j := range judgments {
		m[j.MemoryID] = j.Relevance
	}
	return m
}

// sortByRank returns a copy of results ordered by rank; equal ranks keep input order.
func sortByRank(results []schema.ScoredResult) []schema.ScoredResult {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b schema.ScoredResult) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return sorted
}

// TopK returns the first k results by rank.
func TopK(results []schema.ScoredResult, k int) []schema.ScoredResult {
	sorted := sortByRank(results)
	if k < 0 {
		k = 0
	}
	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}

// MRR returns 1/position of the first relevant item within the top k, or 0.
func MRR(results []schema.ScoredResult, judgments []schema.Judgment, k int) float64 {
	if len(results) == 0 || len(judgments) == 0 {
		return 0
	}
	rel := relevanceMap(judgments)
	for i, r := range TopK(results, k) {
		if rel[r.MemoryID] > 0 {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// NDCG returns the normalized discounted cumulative gain at k.
// The ideal ordering comes from all judgments of the query, not from what was retrieved.
func NDCG(results []schema.ScoredResult, judgments []schema.Judgment, k int) float64 {
	if len(results) == 0 || len(judgments) == 0 {
		return 0
	}
	rel := relevanceMap(judgments)
	top := TopK(results, k)
	gains := make([]float64, 0, len(top))
	for _, r := range top {
		gains = append(gains, float64(rel[r.MemoryID]))
	}

	ideal := make([]float64, len(judgments))
	for i, j := range judgments {
		ideal[i] = float64(j.Relevance)
	}
	return ndcgFromGains(gains, ideal, k)
}

// ndcgFromGains computes min(1, DCG/IDCG) from actual gains and unsorted ideal gains.
func ndcgFromGains(gains, ideal []float64, k int) float64 {
	actual := discountedGain(gains)

	sorted := slices.Clone(ideal)
	slices.SortFunc(sorted, func(a, b float64) int { return cmp.Compare(b, a) })
	if k >= 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	idcg := discountedGain(sorted)
	if idcg == 0 {
		return 0
	}
	return math.Min(1, actual/idcg)
}

func discountedGain(gains []float64) float64 {
	var sum float64
	for i, g := range gains {
		sum += g / math.Log2(float64(i+2))
	}
	return sum
}

// Recall returns the fraction of relevant memories found within the top k.
func Recall(results []schema.ScoredResult, judgments []schema.Judgment, k int) float64 {
	if len(results) == 0 || len(judgments) == 0 {
		return 0
	}
	relevant := make(map[int]struct{})
	for _, j := range judgments {
		if j.Relevance > 0 {
			relevant[j.MemoryID] = struct{}{}
		}
	}
	if len(relevant) == 0 {
		return 0
	}
	hits := 0
	for _, r := range TopK(results, k) {
		if _, ok := relevant[r.MemoryID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// HitRate returns 1 when any relevant memory appears within the top k.
func HitRate(results []schema.ScoredResult, judgments []schema.Judgment, k int) float64 {
	if len(results) == 0 || len(judgments) == 0 {
		return 0
	}
	rel := relevanceMap(judgments)
	for _, r := range TopK(results, k) {
		if rel[r.MemoryID] > 0 {
			return 1
		}
	}
	return 0
}

// InversionRate returns the share of result pairs (i<j by rank) where the earlier
// item is strictly less relevant than the later one. Lower is better.
func InversionRate(results []schema.ScoredResult, judgments []schema.Judgment) float64 {
	n := len(results)
	if n < 2 || len(judgments) == 0 {
		return 0
	}
	rel := relevanceMap(judgments)
	sorted := sortByRank(results)

	inversions := 0
	for i := 0; i < n-1; i++ {
		relI := rel[sorted[i].MemoryID]
		for j := i + 1; j < n; j++ {
			if relI < rel[sorted[j].MemoryID] {
				inversions++
			}
		}
	}
	totalPairs := float64(n*(n-1)) / 2
	return float64(inversions) / totalPairs
}

// ConstitutionalSurfacingRate returns 1 when any always-surface memory appears within the top k.
func ConstitutionalSurfacingRate(results []schema.ScoredResult, constitutionalIDs []int, k int) float64 {
	if len(results) == 0 || len(constitutionalIDs) == 0 {
		return 0
	}
	set := make(map[int]struct{}, len(constitutionalIDs))
	for _, id := range constitutionalIDs {
		set[id] = struct{}{}
	}
	for _, r := range TopK(results, k) {
		if _, ok := set[r.MemoryID]; ok {
			return 1
		}
	}
	return 0
}

// ImportanceWeightedRecall is Recall@k where each relevant judgment counts by its tier weight.
// Overrides are merged over DefaultTierWeights. A missing tier uses the "normal" weight and
// an unknown tier weighs 1.
func ImportanceWeightedRecall(results []schema.ScoredResult, judgments []schema.Judgment, overrides map[string]float64, k int) float64 {
	if len(results) == 0 || len(judgments) == 0 {
		return 0
	}
	weights := maps.Clone(DefaultTierWeights)
	maps.Copy(weights, overrides)
	weightOf := func(j schema.Judgment) float64 {
		tier := j.Tier
		if tier == "" {
			tier = "normal"
		}
		if w, ok := weights[tier]; ok {
			return w
		}
		return 1
	}

	var total float64
	for _, j := range judgments {
		if j.Relevance > 0 {
			total += weightOf(j)
		}
	}
	if total == 0 {
		return 0
	}

	byMemory := make(map[int]schema.Judgment, len(judgments))
	for _, j := range judgments {
		byMemory[j.MemoryID] = j
	}
	var hit float64
	for _, r := range TopK(results, k) {
		if j, ok := byMemory[r.MemoryID]; ok && j.Relevance > 0 {
			hit += weightOf(j)
		}
	}
	return math.Min(1, hit/total)
}

// ColdStartDetectionRate returns 1 when a recently created relevant memory appears within
// the top k. It returns 0 when no relevant memory is younger than cutoff, since the metric
// does not apply.
func ColdStartDetectionRate(results []schema.ScoredResult, judgments []schema.Judgment, timestamps map[int]time.Time, cutoff time.Duration, k int, now time.Time) float64 {
	if len(results) == 0 || len(judgments) == 0 {
		return 0
	}
	recent := make(map[int]struct{})
	for _, j := range judgments {
		if j.Relevance <= 0 {
			continue
		}
		ts, ok := timestamps[j.MemoryID]
		if !ok || ts.IsZero() {
			continue
		}
		if now.Sub(ts) <= cutoff {
			recent[j.MemoryID] = struct{}{}
		}
	}
	if len(recent) == 0 {
		return 0
	}
	for _, r := range TopK(results, k) {
		if _, ok := recent[r.MemoryID]; ok {
			return 1
		}
	}
	return 0
}

// IntentWeightedNDCG rescales each relevance grade by the intent multiplier and computes NDCG.
// Grades outside 0..3 keep a multiplier of 1.
func IntentWeightedNDCG(results []schema.ScoredResult, judgments []schema.Judgment, intent string, k int) float64 {
	if len(results) == 0 || len(judgments) == 0 {
		return 0
	}
	mult := IntentMultipliers(intent)
	weighted := make(map[int]float64, len(judgments))
	ideal := make([]float64, len(judgments))
	for i, j := range judgments {
		m := 1.0
		if j.Relevance >= 0 && j.Relevance < len(mult) {
			m = mult[j.Relevance]
		}
		w := float64(j.Relevance) * m
		weighted[j.MemoryID] = w
		ideal[i] = w
	}

	top := TopK(results, k)
	gains := make([]float64, 0, len(top))
	for _, r := range top {
		gains = append(gains, weighted[r.MemoryID])
	}
	return ndcgFromGains(gains, ideal, k)
}
