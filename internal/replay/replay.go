// Package replay serves recorded per-channel rankings as a search function.
//
// A fixture stores, for every query text, the memory ids each retrieval channel
// returned in rank order. Hybrid search fuses the enabled channels with
// reciprocal rank fusion, so disabling a channel changes the fused ranking the
// same way it would in the live pipeline.
package replay

import (
	"cmp"
	"context"
	_ "embed"
	"fmt"
	"os"
	"slices"

	"github.com/huangsam/rankeval/schema"
	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleFixture []byte

// RRFConstant is the k in 1 / (k + rank).
const RRFConstant = 60

// Run is the recorded channel output for one query.
type Run struct {
	Query    string           `yaml:"query"`
	Channels map[string][]int `yaml:"channels"`
}

type fixtureFile struct {
	Runs []Run `yaml:"runs"`
}

// Fixture is a parsed replay file keyed by query text.
type Fixture struct {
	runs map[string]map[schema.Channel][]int
}

// Load reads a fixture from disk. An empty path loads the embedded sample.
func Load(path string) (*Fixture, error) {
	if path == "" {
		return Sample()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay fixture: %w", err)
	}
	return Parse(data)
}

// Sample returns the embedded fixture that matches the sample dataset.
func Sample() (*Fixture, error) {
	return Parse(sampleFixture)
}

// Parse decodes a YAML or JSON fixture. Channel names must be known.
func Parse(data []byte) (*Fixture, error) {
	var raw fixtureFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding replay fixture: %w", err)
	}
	f := &Fixture{runs: make(map[string]map[schema.Channel][]int, len(raw.Runs))}
	for _, run := range raw.Runs {
		if _, dup := f.runs[run.Query]; dup {
			return nil, fmt.Errorf("duplicate replay run for query %q", run.Query)
		}
		channels := make(map[schema.Channel][]int, len(run.Channels))
		for name, ids := range run.Channels {
			ch, err := schema.ParseChannel(name)
			if err != nil {
				return nil, fmt.Errorf("query %q: %w", run.Query, err)
			}
			channels[ch] = ids
		}
		f.runs[run.Query] = channels
	}
	return f, nil
}

// Len returns the number of recorded queries.
func (f *Fixture) Len() int {
	return len(f.runs)
}

// Search fuses the enabled channels for a query. Queries with no recorded run
// return no results. Ties keep the order in which memories were first seen,
// walking channels in canonical order.
func (f *Fixture) Search(ctx context.Context, query string, disabled schema.ChannelSet) ([]schema.ScoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	run := f.runs[query]

	scores := make(map[int]float64)
	var order []int
	for _, ch := range schema.AllChannels {
		if disabled.Has(ch) {
			continue
		}
		for i, id := range run[ch] {
			if _, ok := scores[id]; !ok {
				order = append(order, id)
			}
			scores[id] += 1 / float64(RRFConstant+i+1)
		}
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	results := make([]schema.ScoredResult, len(order))
	for i, id := range order {
		results[i] = schema.ScoredResult{MemoryID: id, Score: scores[id], Rank: i + 1}
	}
	return results, nil
}

// BM25 returns the first limit ids of the bm25 channel alone.
func (f *Fixture) BM25(ctx context.Context, query string, limit int) ([]schema.ScoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := f.runs[query][schema.BM25Channel]
	ids = ids[:min(max(limit, 0), len(ids))]
	results := make([]schema.ScoredResult, len(ids))
	for i, id := range ids {
		results[i] = schema.ScoredResult{MemoryID: id, Score: 1 / float64(i+1), Rank: i + 1}
	}
	return results, nil
}

// Sources returns the per-channel ids recorded for a query. Disabled channels are omitted.
func (f *Fixture) Sources(query string, disabled schema.ChannelSet) map[schema.Channel][]int {
	out := make(map[schema.Channel][]int)
	for ch, ids := range f.runs[query] {
		if disabled.Has(ch) {
			continue
		}
		out[ch] = ids
	}
	return out
}
