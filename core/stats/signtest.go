// Package stats has the significance tests used to judge ablation and baseline results.
package stats

import "math"

// MinSignTestPairs is the smallest number of non-tied pairs the sign test accepts.
const MinSignTestPairs = 5

// Alpha is the significance level used throughout the engine.
const Alpha = 0.05

// SignTest returns the two-sided exact sign test p-value for paired win/loss counts
// under Binomial(n, 0.5). ok is false when fewer than MinSignTestPairs pairs exist.
//
// The binomial coefficient is accumulated incrementally in float64, so for n beyond
// roughly 50 the result is an approximation rather than exact. Past maxDirectPairs the
// coefficient no longer fits in a float64 and each term is computed in log space.
func SignTest(nPositive, nNegative int) (p float64, ok bool) {
	if nPositive < 0 || nNegative < 0 {
		return 0, false
	}
	n := nPositive + nNegative
	if n < MinSignTestPairs {
		return 0, false
	}
	k := min(nPositive, nNegative)

	var cum float64
	if n <= maxDirectPairs {
		half := math.Pow(0.5, float64(n))
		coeff := 1.0
		for i := 0; i <= k; i++ {
			if i > 0 {
				coeff = coeff * float64(n-i+1) / float64(i)
			}
			cum += coeff * half
		}
	} else {
		logHalf := float64(n) * math.Log(0.5)
		for i := 0; i <= k; i++ {
			cum += math.Exp(logChoose(n, i) + logHalf)
		}
	}
	return math.Min(1, 2*cum), true
}

// maxDirectPairs keeps C(n, k) below the float64 overflow point of 2^1024.
const maxDirectPairs = 1000

// logChoose returns ln C(n, k).
func logChoose(n, k int) float64 {
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}

// IsSignificant reports whether a p-value from SignTest is below Alpha.
func IsSignificant(p float64, ok bool) bool {
	return ok && p < Alpha
}

// PValuePtr adapts the comma-ok result of SignTest to a nullable value.
func PValuePtr(p float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &p
}
