// Package decision turns metric values into discrete, explained verdicts.
package decision

import (
	"fmt"

	"github.com/huangsam/rankeval/schema"
)

// Contingency matrix band edges. Each band includes its lower edge.
const (
	PauseThreshold       = 0.80
	RationalizeThreshold = 0.50
)

// Threshold labels for each band.
const (
	pauseLabel       = ">=0.8"
	rationalizeLabel = "0.5-0.8"
	proceedLabel     = "<0.5"
)

// EvaluateContingency classifies a BM25-only MRR@5 with the absolute matrix.
func EvaluateContingency(bm25MRR float64) schema.ContingencyDecision {
	switch {
	case bm25MRR >= PauseThreshold:
		return schema.ContingencyDecision{
			BM25MRR:   bm25MRR,
			Mode:      schema.AbsoluteMode,
			Threshold: pauseLabel,
			Action:    schema.ActionPause,
			Interpretation: "BM25 alone is very strong — semantic/graph additions may not justify complexity. " +
				"Re-evaluate whether a multi-channel architecture is warranted before proceeding with " +
				"additional retrieval channels. Consider whether the marginal gain from vector/graph " +
				"search is worth the operational overhead.",
		}
	case bm25MRR >= RationalizeThreshold:
		return schema.ContingencyDecision{
			BM25MRR:   bm25MRR,
			Mode:      schema.AbsoluteMode,
			Threshold: rationalizeLabel,
			Action:    schema.ActionRationalize,
			Interpretation: "BM25 is moderate — semantic/graph channels should demonstrably improve over this baseline. " +
				"Each additional channel (vector, graph, trigger) must show a statistically meaningful " +
				"positive delta in MRR@5 before adoption. Track per-channel contribution carefully.",
		}
	default:
		return schema.ContingencyDecision{
			BM25MRR:   bm25MRR,
			Mode:      schema.AbsoluteMode,
			Threshold: proceedLabel,
			Action:    schema.ActionProceed,
			Interpretation: "BM25 alone is weak — strong justification for multi-channel retrieval. " +
				"The low keyword-only baseline confirms that semantic and graph augmentation " +
				"adds meaningful value. Proceed with hybrid search implementation.",
		}
	}
}

// EvaluateContingencyRelative classifies BM25 MRR@5 as a fraction of hybrid MRR@5.
// A non-positive hybrid value cannot form a ratio and defaults to PROCEED.
func EvaluateContingencyRelative(bm25MRR, hybridMRR float64) schema.ContingencyDecision {
	hybrid := hybridMRR
	if hybridMRR <= 0 {
		ratio := 0.0
		return schema.ContingencyDecision{
			BM25MRR:   bm25MRR,
			HybridMRR: &hybrid,
			Ratio:     &ratio,
			Mode:      schema.RelativeMode,
			Threshold: proceedLabel,
			Action:    schema.ActionProceed,
			Interpretation: "Hybrid MRR@5 is zero or negative — cannot compute meaningful ratio. " +
				"Defaulting to PROCEED until hybrid baseline is established.",
		}
	}

	ratio := bm25MRR / hybridMRR
	share := fmt.Sprintf("%.1f%% of hybrid MRR@5 (%.4f / %.4f). ", ratio*100, bm25MRR, hybridMRR)
	d := schema.ContingencyDecision{
		BM25MRR:   bm25MRR,
		HybridMRR: &hybrid,
		Ratio:     &ratio,
		Mode:      schema.RelativeMode,
	}
	switch {
	case ratio >= PauseThreshold:
		d.Threshold = pauseLabel
		d.Action = schema.ActionPause
		d.Interpretation = "BM25 achieves " + share +
			"The multi-channel architecture adds marginal value over keyword search alone. " +
			"PAUSE further channel work and evaluate whether the complexity is warranted."
	case ratio >= RationalizeThreshold:
		d.Threshold = rationalizeLabel
		d.Action = schema.ActionRationalize
		d.Interpretation = "BM25 achieves " + share +
			"Each additional channel must show a statistically meaningful positive delta " +
			"in MRR@5. Track per-channel contribution and justify retained complexity."
	default:
		d.Threshold = proceedLabel
		d.Action = schema.ActionProceed
		d.Interpretation = "BM25 achieves only " + share +
			"Multi-channel retrieval provides substantial improvement over keyword search. " +
			"Proceed with hybrid search optimization."
	}
	return d
}
