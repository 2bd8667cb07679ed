package attribution

import (
	"testing"

	"github.com/huangsam/rankeval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranked(ids ...int) []schema.ScoredResult {
	out := make([]schema.ScoredResult, len(ids))
	for i, id := range ids {
		out[i] = schema.ScoredResult{MemoryID: id, Rank: i + 1, Score: 1 / float64(i+1)}
	}
	return out
}

func TestAttribute(t *testing.T) {
	sources := Sources{
		schema.GraphChannel:  {1, 2},
		schema.VectorChannel: {2, 3},
	}
	got := Attribute(ranked(1, 2, 3, 4), sources)
	require.Len(t, got, 4)

	assert.Equal(t, []schema.Channel{schema.GraphChannel}, got[0].Channels)
	assert.True(t, got[0].IsExclusive)
	assert.Equal(t, schema.GraphChannel, got[0].ExclusiveChannel)

	assert.Equal(t, []schema.Channel{schema.VectorChannel, schema.GraphChannel}, got[1].Channels, "canonical order")
	assert.False(t, got[1].IsExclusive)
	assert.Empty(t, got[1].ExclusiveChannel)

	assert.Equal(t, schema.VectorChannel, got[2].ExclusiveChannel)

	assert.Empty(t, got[3].Channels)
	assert.NotNil(t, got[3].Channels)
	assert.False(t, got[3].IsExclusive)
}

// TestExclusiveContributionRate tests rates within the top-k window and their ordering.
func TestExclusiveContributionRate(t *testing.T) {
	sources := Sources{
		schema.BM25Channel:   {1, 2, 3},
		schema.VectorChannel: {3, 4, 5},
		schema.GraphChannel:  {6},
	}
	attributed := Attribute(ranked(1, 2, 3, 4, 5, 6), sources)

	ecrs := ExclusiveContributionRate(attributed, 5)
	require.Len(t, ecrs, 2, "graph only appears at rank 6")
	assert.Equal(t, schema.ChannelECR{Channel: schema.BM25Channel, ExclusiveCount: 2, TotalInTopK: 5, ECR: 0.4}, ecrs[0])
	assert.Equal(t, schema.ChannelECR{Channel: schema.VectorChannel, ExclusiveCount: 2, TotalInTopK: 5, ECR: 0.4}, ecrs[1])

	ecrs = ExclusiveContributionRate(attributed, 10)
	require.Len(t, ecrs, 3)
	assert.Equal(t, schema.GraphChannel, ecrs[2].Channel)
	assert.InDelta(t, 1.0/6, ecrs[2].ECR, 1e-12)

	assert.Empty(t, ExclusiveContributionRate(nil, 10))
}

func TestExclusiveContributionRateUsesRankNotOrder(t *testing.T) {
	results := []schema.ScoredResult{
		{MemoryID: 9, Rank: 3},
		{MemoryID: 8, Rank: 1},
		{MemoryID: 7, Rank: 2},
	}
	sources := Sources{schema.TriggerChannel: {9}, schema.FTS5Channel: {8, 7}}
	ecrs := ExclusiveContributionRate(Attribute(results, sources), 2)
	require.Len(t, ecrs, 1)
	assert.Equal(t, schema.FTS5Channel, ecrs[0].Channel)
	assert.Equal(t, 1.0, ecrs[0].ECR)
}

// TestReport tests category counts and coverage.
func TestReport(t *testing.T) {
	sources := Sources{
		schema.BM25Channel:   {1, 2},
		schema.VectorChannel: {2, 3},
	}
	report := Report(ranked(1, 2, 3, 4), sources, 0)

	assert.Equal(t, 4, report.TotalResults)
	assert.Equal(t, DefaultK, report.K)
	assert.Equal(t, 1, report.MultiChannelCount)
	assert.Equal(t, 2, report.SingleChannelCount)
	assert.Equal(t, 1, report.UnattributedCount)
	assert.Equal(t, map[schema.Channel]int{schema.BM25Channel: 2, schema.VectorChannel: 2}, report.ChannelCoverage)
	require.Len(t, report.ChannelECRs, 2)
	assert.Equal(t, 0.25, report.ChannelECRs[0].ECR)

	empty := Report(nil, sources, 3)
	assert.Equal(t, 0, empty.TotalResults)
	assert.Equal(t, 3, empty.K)
	assert.Empty(t, empty.ChannelECRs)
}

func TestMeanECR(t *testing.T) {
	reports := []schema.AttributionReport{
		{ChannelECRs: []schema.ChannelECR{{Channel: schema.VectorChannel, ExclusiveCount: 2, ECR: 0.5}}},
		{ChannelECRs: []schema.ChannelECR{
			{Channel: schema.GraphChannel, ExclusiveCount: 1, ECR: 1},
			{Channel: schema.VectorChannel, ExclusiveCount: 0, ECR: 0},
		}},
	}
	mean := MeanECR(reports)
	require.Len(t, mean, 2)
	assert.Equal(t, schema.GraphChannel, mean[0].Channel)
	assert.Equal(t, 0.5, mean[0].ECR)
	assert.Equal(t, schema.VectorChannel, mean[1].Channel)
	assert.Equal(t, 0.25, mean[1].ECR)
	assert.Equal(t, 2, mean[1].ExclusiveCount)
	assert.Equal(t, 2, mean[1].TotalInTopK)

	assert.Empty(t, MeanECR(nil))
}
