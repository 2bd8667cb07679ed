package schema

// PerQueryCeiling is the best achievable rank of a relevant memory for one query.
// CeilingRank is k+1 and ReciprocalRank is 0 when nothing relevant fits in the top k.
type PerQueryCeiling struct {
	QueryID        int     `json:"query_id"`
	CeilingRank    int     `json:"ceiling_rank"`
	ReciprocalRank float64 `json:"reciprocal_rank"`
}

// CeilingResult is the theoretical MRR ceiling and its gap to the system.
type CeilingResult struct {
	CeilingMRR     float64           `json:"ceiling_mrr"`
	SystemMRR      *float64          `json:"system_mrr,omitempty"`
	Gap            float64           `json:"gap"`
	PerQuery       []PerQueryCeiling `json:"per_query_ceiling"`
	Interpretation string            `json:"interpretation"`
}

// QuadrantResult is a cell of the ceiling-vs-baseline matrix.
type QuadrantResult struct {
	Quadrant       Quadrant `json:"quadrant"`
	Interpretation string   `json:"interpretation"`
	Recommendation string   `json:"recommendation"`
}
