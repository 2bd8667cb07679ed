package decision

import (
	"math"

	"github.com/huangsam/rankeval/core/stats"
	"github.com/huangsam/rankeval/schema"
)

// Delta magnitudes used by AblationVerdict.
const (
	NegligibleDelta = 0.001
	LargeDelta      = 0.05
)

// AblationVerdict labels a channel from its recall delta (ablated minus baseline) and
// the sign test result. A negative delta means the channel was helping.
func AblationVerdict(delta, p float64, ok bool) schema.Verdict {
	significant := stats.IsSignificant(p, ok)
	abs := math.Abs(delta)

	if abs < NegligibleDelta {
		return schema.VerdictNegligible
	}
	if delta < 0 {
		switch {
		case significant && abs >= LargeDelta:
			return schema.VerdictCritical
		case significant:
			return schema.VerdictImportant
		default:
			return schema.VerdictLikelyUseful
		}
	}
	switch {
	case significant && abs >= LargeDelta:
		return schema.VerdictHarmful
	case significant:
		return schema.VerdictPossiblyHarmful
	default:
		return schema.VerdictLikelyRedundant
	}
}

// VerdictFor labels a finished ablation result.
func VerdictFor(r schema.AblationResult) schema.Verdict {
	if r.PValue == nil {
		return AblationVerdict(r.Delta, 0, false)
	}
	return AblationVerdict(r.Delta, *r.PValue, true)
}
