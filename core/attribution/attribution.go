// Package attribution tags ranked results with the channels that produced them
// and measures how often each channel is the only source of a top-k result.
package attribution

import (
	"cmp"
	"slices"

	"github.com/huangsam/rankeval/core/metrics"
	"github.com/huangsam/rankeval/schema"
)

// DefaultK is the top-k window used when k is not positive.
const DefaultK = 10

// Sources maps each channel to the memory ids it returned for one query.
type Sources map[schema.Channel][]int

// Attribute annotates every result with its contributing channels in canonical order.
// A result is exclusive when exactly one channel returned it.
func Attribute(results []schema.ScoredResult, sources Sources) []schema.AttributedResult {
	byID := make(map[int]schema.ChannelSet)
	for _, ch := range schema.AllChannels {
		for _, id := range sources[ch] {
			byID[id] |= schema.NewChannelSet(ch)
		}
	}

	out := make([]schema.AttributedResult, len(results))
	for i, r := range results {
		set := byID[r.MemoryID]
		a := schema.AttributedResult{
			MemoryID: r.MemoryID,
			Score:    r.Score,
			Rank:     r.Rank,
			Channels: set.Channels(),
		}
		if set.Len() == 1 {
			a.IsExclusive = true
			a.ExclusiveChannel = a.Channels[0]
		}
		if a.Channels == nil {
			a.Channels = []schema.Channel{}
		}
		out[i] = a
	}
	return out
}

// topK orders attributed results by rank and keeps the first k.
func topK(attributed []schema.AttributedResult, k int) []schema.AttributedResult {
	if k <= 0 {
		k = DefaultK
	}
	sorted := slices.Clone(attributed)
	slices.SortStableFunc(sorted, func(a, b schema.AttributedResult) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return sorted[:min(k, len(sorted))]
}

// ExclusiveContributionRate returns, for each channel present in the top k, the share
// of top-k results that only it returned, sorted by rate descending.
func ExclusiveContributionRate(attributed []schema.AttributedResult, k int) []schema.ChannelECR {
	top := topK(attributed, k)
	total := len(top)
	if total == 0 {
		return []schema.ChannelECR{}
	}

	var seen []schema.Channel
	exclusive := make(map[schema.Channel]int)
	for _, r := range top {
		for _, ch := range r.Channels {
			if _, ok := exclusive[ch]; !ok {
				exclusive[ch] = 0
				seen = append(seen, ch)
			}
		}
		if r.IsExclusive {
			exclusive[r.ExclusiveChannel]++
		}
	}

	ecrs := make([]schema.ChannelECR, 0, len(seen))
	for _, ch := range seen {
		ecrs = append(ecrs, schema.ChannelECR{
			Channel:        ch,
			ExclusiveCount: exclusive[ch],
			TotalInTopK:    total,
			ECR:            float64(exclusive[ch]) / float64(total),
		})
	}
	slices.SortStableFunc(ecrs, func(a, b schema.ChannelECR) int {
		return cmp.Compare(b.ECR, a.ECR)
	})
	return ecrs
}

// Report attributes results and summarizes the top k.
func Report(results []schema.ScoredResult, sources Sources, k int) schema.AttributionReport {
	if k <= 0 {
		k = DefaultK
	}
	attributed := Attribute(results, sources)
	top := topK(attributed, k)

	report := schema.AttributionReport{
		TotalResults:    len(top),
		K:               k,
		ChannelECRs:     ExclusiveContributionRate(attributed, k),
		ChannelCoverage: make(map[schema.Channel]int),
	}
	for _, r := range top {
		switch len(r.Channels) {
		case 0:
			report.UnattributedCount++
		case 1:
			report.SingleChannelCount++
		default:
			report.MultiChannelCount++
		}
		for _, ch := range r.Channels {
			report.ChannelCoverage[ch]++
		}
	}
	return report
}

// MeanECR averages per-query reports into one rate per channel. Channels missing
// from a query's top k count as zero for that query. In the output, ExclusiveCount
// is summed across queries and TotalInTopK holds the number of queries averaged.
func MeanECR(reports []schema.AttributionReport) []schema.ChannelECR {
	if len(reports) == 0 {
		return []schema.ChannelECR{}
	}
	counts := make(map[schema.Channel]int)
	for _, r := range reports {
		for _, e := range r.ChannelECRs {
			counts[e.Channel] += e.ExclusiveCount
		}
	}
	out := []schema.ChannelECR{}
	for _, ch := range schema.AllChannels {
		if _, ok := counts[ch]; !ok {
			continue
		}
		out = append(out, schema.ChannelECR{
			Channel:        ch,
			ExclusiveCount: counts[ch],
			TotalInTopK:    len(reports),
			ECR:            metrics.Mean(perQueryRates(reports, ch)),
		})
	}
	slices.SortStableFunc(out, func(a, b schema.ChannelECR) int {
		return cmp.Compare(b.ECR, a.ECR)
	})
	return out
}

func perQueryRates(reports []schema.AttributionReport, ch schema.Channel) []float64 {
	rates := make([]float64, len(reports))
	for i, r := range reports {
		for _, e := range r.ChannelECRs {
			if e.Channel == ch {
				rates[i] = e.ECR
			}
		}
	}
	return rates
}
