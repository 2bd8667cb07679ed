// Package ceiling estimates the best MRR a perfect ranker could reach on the ground truth.
package ceiling

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/rankeval/core/decision"
	"github.com/huangsam/rankeval/schema"
)

// DefaultK is the MRR cutoff used when Options.K is unset.
const DefaultK = 5

// noDataInterpretation is reported when there is nothing to rank.
const noDataInterpretation = "No data: queries or ground truth is empty."

// Scorer ranks every candidate memory for a query; higher scores rank first.
type Scorer func(ctx context.Context, query string, memories []schema.Memory) ([]schema.ScoredMemory, error)

// Options describe a ceiling estimation.
type Options struct {
	Queries   []schema.Query
	Memories  []schema.Memory
	Judgments []schema.Judgment
	K         int
	SystemMRR *float64
	Scorer    Scorer // used by WithScorer only
}

func (o Options) k() int {
	if o.K > 0 {
		return o.K
	}
	return DefaultK
}

// FromGroundTruth ranks the judged memories of each query by relevance and
// reports the reciprocal rank of the first relevant one. Unjudged memories are
// left out of the ranking entirely.
func FromGroundTruth(opts Options) schema.CeilingResult {
	if len(opts.Queries) == 0 || len(opts.Judgments) == 0 {
		return emptyResult(opts.SystemMRR)
	}
	byQuery := relevanceByQuery(opts.Judgments)
	k := opts.k()

	perQuery := make([]schema.PerQueryCeiling, 0, len(opts.Queries))
	for _, q := range opts.Queries {
		rel := byQuery[q.ID]
		perQuery = append(perQuery, firstRelevant(q.ID, rel.idealOrder(), rel.grades, k))
	}
	return summarize(perQuery, opts.SystemMRR)
}

// WithScorer lets opts.Scorer rank all memories for each query instead of the
// ground truth. A nil scorer falls back to FromGroundTruth.
func WithScorer(ctx context.Context, opts Options) (schema.CeilingResult, error) {
	if opts.Scorer == nil {
		return FromGroundTruth(opts), nil
	}
	if len(opts.Queries) == 0 || len(opts.Judgments) == 0 {
		return emptyResult(opts.SystemMRR), nil
	}
	byQuery := relevanceByQuery(opts.Judgments)
	k := opts.k()

	perQuery := make([]schema.PerQueryCeiling, 0, len(opts.Queries))
	for _, q := range opts.Queries {
		if err := ctx.Err(); err != nil {
			return schema.CeilingResult{}, err
		}
		scored, err := opts.Scorer(ctx, q.Query, opts.Memories)
		if err != nil {
			return schema.CeilingResult{}, fmt.Errorf("scoring query %d: %w", q.ID, err)
		}
		scored = slices.Clone(scored)
		slices.SortStableFunc(scored, func(a, b schema.ScoredMemory) int {
			return cmp.Compare(b.Score, a.Score)
		})
		ranked := make([]int, len(scored))
		for i, s := range scored {
			ranked[i] = s.MemoryID
		}
		perQuery = append(perQuery, firstRelevant(q.ID, ranked, byQuery[q.ID].grades, k))
	}
	return summarize(perQuery, opts.SystemMRR), nil
}

// queryRelevance keeps judged memory ids in first-seen order with their last grade.
type queryRelevance struct {
	order  []int
	grades map[int]int
}

// idealOrder sorts judged ids by relevance descending, ties in first-seen order.
func (r queryRelevance) idealOrder() []int {
	ids := slices.Clone(r.order)
	slices.SortStableFunc(ids, func(a, b int) int {
		return cmp.Compare(r.grades[b], r.grades[a])
	})
	return ids
}

func relevanceByQuery(judgments []schema.Judgment) map[int]queryRelevance {
	out := make(map[int]queryRelevance)
	for _, j := range judgments {
		rel, ok := out[j.QueryID]
		if !ok {
			rel = queryRelevance{grades: make(map[int]int)}
		}
		if _, seen := rel.grades[j.MemoryID]; !seen {
			rel.order = append(rel.order, j.MemoryID)
		}
		rel.grades[j.MemoryID] = j.Relevance
		out[j.QueryID] = rel
	}
	return out
}

// firstRelevant finds the first id with relevance above zero within the top k.
func firstRelevant(queryID int, ranked []int, grades map[int]int, k int) schema.PerQueryCeiling {
	limit := min(k, len(ranked))
	for i := range limit {
		if grades[ranked[i]] > 0 {
			rank := i + 1
			return schema.PerQueryCeiling{QueryID: queryID, CeilingRank: rank, ReciprocalRank: 1 / float64(rank)}
		}
	}
	return schema.PerQueryCeiling{QueryID: queryID, CeilingRank: k + 1}
}

func summarize(perQuery []schema.PerQueryCeiling, systemMRR *float64) schema.CeilingResult {
	sum := 0.0
	for _, p := range perQuery {
		sum += p.ReciprocalRank
	}
	ceilingMRR := 0.0
	if len(perQuery) > 0 {
		ceilingMRR = sum / float64(len(perQuery))
	}
	gap := ceilingMRR
	if systemMRR != nil {
		gap = ceilingMRR - *systemMRR
	}
	return schema.CeilingResult{
		CeilingMRR:     ceilingMRR,
		SystemMRR:      systemMRR,
		Gap:            gap,
		PerQuery:       perQuery,
		Interpretation: Interpret(ceilingMRR, systemMRR),
	}
}

func emptyResult(systemMRR *float64) schema.CeilingResult {
	gap := 0.0
	if systemMRR != nil {
		gap = -*systemMRR
	}
	return schema.CeilingResult{
		SystemMRR:      systemMRR,
		Gap:            gap,
		PerQuery:       []schema.PerQueryCeiling{},
		Interpretation: noDataInterpretation,
	}
}

// Interpret builds the human readable summary of a ceiling result.
func Interpret(ceilingMRR float64, systemMRR *float64) string {
	if systemMRR == nil {
		return fmt.Sprintf("Ceiling MRR@5 = %.3f (%s). Provide systemMRR to compute the improvement gap.",
			ceilingMRR, level(ceilingMRR))
	}
	system := *systemMRR
	q := decision.InterpretCeilingVsBaseline(ceilingMRR, system)
	return fmt.Sprintf("Ceiling MRR@5 = %.3f (%s), System MRR@5 = %.3f (%s), Gap = %.3f. %s.",
		ceilingMRR, level(ceilingMRR), system, level(system), ceilingMRR-system, q.Interpretation)
}

func level(mrr float64) string {
	if decision.IsHighMRR(mrr) {
		return "high"
	}
	return "low"
}
