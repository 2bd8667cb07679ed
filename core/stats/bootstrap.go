package stats

import (
	"math/rand/v2"
	"slices"

	"github.com/huangsam/rankeval/schema"
)

// DefaultBootstrapIterations is the number of resamples used by BootstrapCI.
const DefaultBootstrapIterations = 10000

// Contingency band edges tested by the bootstrap interval.
const (
	PauseBoundary       = 0.80
	RationalizeBoundary = 0.50
	midBandSplit        = 0.65
)

// BootstrapCI computes a 95% percentile bootstrap interval for the mean of perQuery
// and tests whether the interval clears the contingency band of the point estimate.
// A nil rng uses a randomly seeded source.
func BootstrapCI(perQuery []float64, iterations int, rng *rand.Rand) schema.BootstrapCI {
	if iterations <= 0 {
		iterations = DefaultBootstrapIterations
	}
	n := len(perQuery)
	if n == 0 {
		return schema.BootstrapCI{Iterations: iterations}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var total float64
	for _, v := range perQuery {
		total += v
	}
	point := total / float64(n)

	means := make([]float64, iterations)
	for i := range means {
		var sum float64
		for range n {
			sum += perQuery[rng.IntN(n)]
		}
		means[i] = sum / float64(n)
	}
	slices.Sort(means)

	lower := means[int(float64(iterations)*0.025)]
	upper := means[min(int(float64(iterations)*0.975), iterations-1)]

	var boundary float64
	var significant bool
	switch {
	case point >= PauseBoundary:
		boundary = PauseBoundary
		significant = lower >= PauseBoundary
	case point >= RationalizeBoundary:
		boundary = RationalizeBoundary
		if point >= midBandSplit {
			boundary = PauseBoundary
		}
		significant = lower >= RationalizeBoundary && upper < PauseBoundary
	default:
		boundary = RationalizeBoundary
		significant = upper < RationalizeBoundary
	}

	return schema.BootstrapCI{
		PointEstimate:  point,
		CILower:        lower,
		CIUpper:        upper,
		CIWidth:        upper - lower,
		Iterations:     iterations,
		SampleSize:     n,
		IsSignificant:  significant,
		TestedBoundary: boundary,
	}
}
