package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseChannels tests parsing of comma-separated channel lists.
func TestParseChannels(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Channel
		wantErr  bool
	}{
		{"empty yields all", "", AllChannels, false},
		{"single", "graph", []Channel{GraphChannel}, false},
		{"mixed case and spaces", " Vector , BM25", []Channel{VectorChannel, BM25Channel}, false},
		{"duplicates collapsed", "fts5,fts5,trigger", []Channel{FTS5Channel, TriggerChannel}, false},
		{"unknown channel", "vector,sparse", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChannels(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownChannel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestChannelSet tests membership and ordering of channel sets.
func TestChannelSet(t *testing.T) {
	var empty ChannelSet
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Has(VectorChannel))
	assert.Equal(t, "", empty.String())

	s := NewChannelSet(TriggerChannel, VectorChannel, Channel("bogus"))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(VectorChannel))
	assert.True(t, s.Has(TriggerChannel))
	assert.False(t, s.Has(BM25Channel))
	assert.False(t, s.Has(Channel("bogus")))
	assert.Equal(t, []Channel{VectorChannel, TriggerChannel}, s.Channels())
	assert.Equal(t, "vector,trigger", s.String())
}

// TestToHybridSearchFlags tests the mapping from disabled channels to pipeline flags.
func TestToHybridSearchFlags(t *testing.T) {
	all := ToHybridSearchFlags(NewChannelSet())
	assert.Equal(t, HybridSearchFlags{UseVector: true, UseBM25: true, UseFTS: true, UseGraph: true, UseTrigger: true}, all)

	noFTS := ToHybridSearchFlags(NewChannelSet(FTS5Channel))
	assert.False(t, noFTS.UseFTS)
	assert.True(t, noFTS.UseVector)
	assert.True(t, noFTS.UseBM25)
	assert.True(t, noFTS.UseGraph)
	assert.True(t, noFTS.UseTrigger)

	none := ToHybridSearchFlags(NewChannelSet(AllChannels...))
	assert.Equal(t, HybridSearchFlags{}, none)
}

// TestGroundTruthSelection tests query selection and per-query judgment lookup.
func TestGroundTruthSelection(t *testing.T) {
	gt := GroundTruth{
		Queries: []Query{{ID: 1, Query: "a"}, {ID: 2, Query: "b"}, {ID: 3, Query: "c"}},
		Judgments: []Judgment{
			{QueryID: 1, MemoryID: 10, Relevance: 3},
			{QueryID: 2, MemoryID: 20, Relevance: 1},
			{QueryID: 1, MemoryID: 11, Relevance: 0},
		},
	}

	assert.Len(t, gt.Select(nil), 3)
	selected := gt.Select([]int{3, 1, 99})
	require.Len(t, selected, 2)
	assert.Equal(t, 1, selected[0].ID)
	assert.Equal(t, 3, selected[1].ID)

	j := gt.ForQuery(1)
	require.Len(t, j, 2)
	assert.Equal(t, 10, j[0].MemoryID)
	assert.Equal(t, 11, j[1].MemoryID)
	assert.Empty(t, gt.ForQuery(3))
}

// TestEvalRunID tests the reserved negative run id convention.
func TestEvalRunID(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, int64(-1700000000123), EvalRunID(ts))
}

// TestEnrichAblation tests rank, verdict and contribution enrichment.
func TestEnrichAblation(t *testing.T) {
	p := 0.01
	results := []AblationResult{
		{Channel: VectorChannel, Delta: -0.2, PValue: &p},
		{Channel: GraphChannel, Delta: 0.0005},
	}
	enriched := EnrichAblation(results, func(r AblationResult) Verdict {
		if r.Channel == VectorChannel {
			return VerdictCritical
		}
		return VerdictNegligible
	})
	require.Len(t, enriched, 2)
	assert.Equal(t, 1, enriched[0].Rank)
	assert.Equal(t, VerdictCritical, enriched[0].Verdict)
	assert.True(t, enriched[0].Significant)
	assert.InDelta(t, 0.2, enriched[0].Contribution, 1e-12)
	assert.Equal(t, 2, enriched[1].Rank)
	assert.False(t, enriched[1].Significant)
}
