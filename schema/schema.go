// Package schema has models, constants and shared types for all parts of rankeval.
package schema

import (
	"context"
	"time"
)

// SearchFunc runs a query with the given channels disabled and returns ranked results.
// An empty disabled set means every channel is active.
type SearchFunc func(ctx context.Context, query string, disabled ChannelSet) ([]ScoredResult, error)

// ScoredResult is one ranked item returned by a search function for a query.
// Rank is 1-based and authoritative; Score may be absent or non-monotonic.
type ScoredResult struct {
	MemoryID int     `json:"memory_id" yaml:"memory_id"`
	Score    float64 `json:"score" yaml:"score"`
	Rank     int     `json:"rank" yaml:"rank"`
}

// Judgment is a graded relevance label for a (query, memory) pair.
// Relevance: 0 = not relevant, 1 = partial, 2 = relevant, 3 = highly relevant.
type Judgment struct {
	QueryID   int        `json:"query_id" yaml:"query_id"`
	MemoryID  int        `json:"memory_id" yaml:"memory_id"`
	Relevance int        `json:"relevance" yaml:"relevance"`
	Tier      string     `json:"tier,omitempty" yaml:"tier,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Query is a judged ground-truth query.
type Query struct {
	ID                        int    `json:"id" yaml:"id"`
	Query                     string `json:"query" yaml:"query"`
	IntentType                string `json:"intent_type,omitempty" yaml:"intent_type,omitempty"`
	ComplexityTier            string `json:"complexity_tier,omitempty" yaml:"complexity_tier,omitempty"`
	Category                  string `json:"category,omitempty" yaml:"category,omitempty"`
	Source                    string `json:"source,omitempty" yaml:"source,omitempty"`
	ExpectedResultDescription string `json:"expected_result_description,omitempty" yaml:"expected_result_description,omitempty"`
	Notes                     string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Memory is a candidate document that a ceiling scorer may rank.
type Memory struct {
	ID         int    `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Summary    string `json:"summary,omitempty" yaml:"summary,omitempty"`
	SpecFolder string `json:"spec_folder,omitempty" yaml:"spec_folder,omitempty"`
}

// ScoredMemory is the output of a ceiling scorer; higher scores rank first.
type ScoredMemory struct {
	MemoryID int     `json:"memory_id"`
	Score    float64 `json:"score"`
}

// GroundTruth is the fixed query set with its judgments and optional memory metadata.
type GroundTruth struct {
	Queries           []Query           `json:"queries" yaml:"queries"`
	Judgments         []Judgment        `json:"judgments" yaml:"judgments"`
	Memories          []Memory          `json:"memories,omitempty" yaml:"memories,omitempty"`
	ConstitutionalIDs []int             `json:"constitutional_ids,omitempty" yaml:"constitutional_ids,omitempty"`
	MemoryTimestamps  map[int]time.Time `json:"memory_timestamps,omitempty" yaml:"memory_timestamps,omitempty"`
}

// ForQuery returns the judgments of a single query in dataset order.
func (gt GroundTruth) ForQuery(queryID int) []Judgment {
	var out []Judgment
	for _, j := range gt.Judgments {
		if j.QueryID == queryID {
			out = append(out, j)
		}
	}
	return out
}

// Select returns the queries whose ids are listed. An empty list selects all queries.
func (gt GroundTruth) Select(ids []int) []Query {
	if len(ids) == 0 {
		return gt.Queries
	}
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Query
	for _, q := range gt.Queries {
		if _, ok := want[q.ID]; ok {
			out = append(out, q)
		}
	}
	return out
}

// AllMetrics holds the four core and five diagnostic metrics for one result list.
type AllMetrics struct {
	MRR                         float64 `json:"mrr"`
	NDCG                        float64 `json:"ndcg"`
	Recall                      float64 `json:"recall"`
	HitRate                     float64 `json:"hit_rate"`
	InversionRate               float64 `json:"inversion_rate"`
	ConstitutionalSurfacingRate float64 `json:"constitutional_surfacing_rate"`
	ImportanceWeightedRecall    float64 `json:"importance_weighted_recall"`
	ColdStartDetectionRate      float64 `json:"cold_start_detection_rate"`
	IntentWeightedNDCG          float64 `json:"intent_weighted_ndcg"`
}

// QueryMetrics pairs a query with its computed metrics.
type QueryMetrics struct {
	QueryID int        `json:"query_id"`
	Query   string     `json:"query"`
	Intent  string     `json:"intent"`
	Metrics AllMetrics `json:"metrics"`
}

// EvaluationResult is the per-query breakdown plus the mean across queries.
type EvaluationResult struct {
	Disabled  string         `json:"disabled_channels,omitempty"`
	PerQuery  []QueryMetrics `json:"per_query"`
	Mean      AllMetrics     `json:"mean"`
	Evaluated int            `json:"evaluated"`
	Skipped   int            `json:"skipped"`
}
