package model

// KeywordIdea is a single keyword candidate with demand data from the
// suggestion provider. MonthlyVolumes is nil when the provider returned
// no history for the keyword.
type KeywordIdea struct {
	Keyword        string    `json:"keyword"`
	Volume         float64   `json:"volume"`
	MonthlyVolumes []float64 `json:"monthlyVolumes,omitempty"`
}

// KeywordCluster groups near-duplicate keyword ideas. The label is the
// highest-volume member (ties broken by shorter string).
type KeywordCluster struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}
