package schema

// EnrichedAblationResult adds presentation data to an AblationResult.
type EnrichedAblationResult struct {
	Rank         int     `json:"rank"`
	Verdict      Verdict `json:"verdict"`
	Significant  bool    `json:"significant"`
	Contribution float64 `json:"contribution"`
	AblationResult
}

// EnrichedAblationReport is the JSON shape of an ablation report.
type EnrichedAblationReport struct {
	AblationReport
	Results []EnrichedAblationResult `json:"results"`
}

// EnrichAblation ranks results as given and attaches verdicts and contributions.
// The verdict function is injected so the schema stays free of decision logic.
func EnrichAblation(results []AblationResult, verdict func(AblationResult) Verdict) []EnrichedAblationResult {
	output := make([]EnrichedAblationResult, len(results))
	for i, r := range results {
		output[i] = EnrichedAblationResult{
			Rank:           i + 1,
			Verdict:        verdict(r),
			Significant:    r.Significant(),
			Contribution:   -r.Delta,
			AblationResult: r,
		}
	}
	return output
}
