package model

// ProviderUsage is the raw per-provider state stored by the usage
// ledger: request counts only. Quota costs are applied at summary time
// so stored data survives cost-table revisions.
type ProviderUsage struct {
	Requests    int            `json:"requests"`
	Endpoints   map[string]int `json:"endpoints"`
	LastUpdated int64          `json:"lastUpdated"` // unix millis, 0 = never
}

// UsageState is one calendar day (UTC) of usage counters.
type UsageState struct {
	DayKey    string                   `json:"dayKey"`
	Providers map[string]ProviderUsage `json:"providers"`
}

// UsageEndpointSummary reports one endpoint's request count and its
// cost-weighted unit total.
type UsageEndpointSummary struct {
	Name     string `json:"name"`
	Requests int    `json:"requests"`
	Units    int    `json:"units"`
}

// UsageProviderSummary is the per-provider view returned by the ledger.
// Limit, Remaining, and Percent are nil when no limit is configured.
type UsageProviderSummary struct {
	ID          string                 `json:"id"`
	Label       string                 `json:"label"`
	UnitLabel   string                 `json:"unitLabel"`
	Used        int                    `json:"used"`
	Limit       *int                   `json:"limit"`
	Remaining   *int                   `json:"remaining"`
	Percent     *float64               `json:"percent"`
	Requests    int                    `json:"requests"`
	Endpoints   []UsageEndpointSummary `json:"endpoints"`
	LastUpdated string                 `json:"lastUpdated,omitempty"`
	Note        string                 `json:"note,omitempty"`
}

// UsageSummary is the full daily usage report.
type UsageSummary struct {
	DayKey      string                 `json:"dayKey"`
	WindowStart string                 `json:"windowStart"`
	WindowEnd   string                 `json:"windowEnd"`
	Providers   []UsageProviderSummary `json:"providers"`
}
