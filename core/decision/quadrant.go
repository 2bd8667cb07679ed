package decision

import "github.com/huangsam/rankeval/schema"

// HighMRRThreshold splits "high" from "low" on both quadrant axes; the edge counts as high.
const HighMRRThreshold = 0.6

// IsHighMRR reports whether an MRR value is on the high side of the quadrant matrix.
func IsHighMRR(mrr float64) bool {
	return mrr >= HighMRRThreshold
}

// InterpretCeilingVsBaseline places a (ceiling, baseline) pair in the 2x2 matrix.
func InterpretCeilingVsBaseline(ceilingMRR, baselineMRR float64) schema.QuadrantResult {
	highCeiling := IsHighMRR(ceilingMRR)
	highBaseline := IsHighMRR(baselineMRR)

	switch {
	case highCeiling && !highBaseline:
		return schema.QuadrantResult{
			Quadrant:       schema.HighCeilingLowBaseline,
			Interpretation: "High improvement potential — system is under-performing relative to data quality",
			Recommendation: "Focus on retrieval algorithm improvements: better fusion weights, reranking, or query expansion. " +
				"The data is rich enough to support higher performance.",
		}
	case highCeiling && highBaseline:
		return schema.QuadrantResult{
			Quadrant:       schema.HighCeilingHighBaseline,
			Interpretation: "System is performing well — focus on diminishing returns",
			Recommendation: "System is near its practical ceiling. Improvements will yield smaller gains. " +
				"Consider expanding the ground truth corpus or focusing on latency/cost optimisation.",
		}
	case !highCeiling && !highBaseline:
		return schema.QuadrantResult{
			Quadrant:       schema.LowCeilingLowBaseline,
			Interpretation: "Data quality issue — improve memory content before algorithm changes",
			Recommendation: "The theoretical ceiling is low, meaning even a perfect ranker cannot achieve good MRR. " +
				"Prioritise improving memory titles, summaries, and ground truth coverage before tuning the retrieval algorithm.",
		}
	default:
		return schema.QuadrantResult{
			Quadrant:       schema.LowCeilingHighBaseline,
			Interpretation: "Near optimal — system is close to data quality ceiling",
			Recommendation: "The system is performing near the theoretical maximum given current memory quality. " +
				"To improve further, enrich memory content (titles, summaries) and expand ground truth annotations.",
		}
	}
}
