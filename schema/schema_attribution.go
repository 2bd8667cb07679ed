package schema

// AttributedResult is a ranked result annotated with the channels that returned it.
type AttributedResult struct {
	MemoryID         int       `json:"memory_id"`
	Score            float64   `json:"score"`
	Rank             int       `json:"rank"`
	Channels         []Channel `json:"channels"`
	IsExclusive      bool      `json:"is_exclusive"`
	ExclusiveChannel Channel   `json:"exclusive_channel,omitempty"`
}

// ChannelECR is the exclusive contribution rate of one channel within the top k.
type ChannelECR struct {
	Channel        Channel `json:"channel"`
	ExclusiveCount int     `json:"exclusive_count"`
	TotalInTopK    int     `json:"total_in_top_k"`
	ECR            float64 `json:"ecr"`
}

// AttributionReport summarizes channel provenance of the top k results.
type AttributionReport struct {
	TotalResults       int             `json:"total_results"`
	K                  int             `json:"k"`
	ChannelECRs        []ChannelECR    `json:"channel_ecrs"`
	MultiChannelCount  int             `json:"multi_channel_count"`
	SingleChannelCount int             `json:"single_channel_count"`
	UnattributedCount  int             `json:"unattributed_count"`
	ChannelCoverage    map[Channel]int `json:"channel_coverage"`
}
