package model

// ScoredVideo is a Video annotated with per-result relevance signals.
type ScoredVideo struct {
	Video
	Fit             float64 `json:"fit"`
	FitLabel        string  `json:"fitLabel"`
	AgeDays         float64 `json:"ageDays"`
	ViewsPerDay     float64 `json:"viewsPerDay"`
	ExactTitleMatch bool    `json:"exactTitleMatch"`
	EarlyTitleMatch bool    `json:"earlyTitleMatch"`
	ExactDescMatch  bool    `json:"exactDescMatch"`
	EarlyDescMatch  bool    `json:"earlyDescMatch"`
	ExactTagMatch   bool    `json:"exactTagMatch"`
}

// SerpMetrics are the aggregate competition signals for one keyword's
// top results.
type SerpMetrics struct {
	TotalResults       *float64 `json:"totalResults"`
	MedianChannelSubs  float64  `json:"medianChannelSubs"`
	MedianViewsPerDay  float64  `json:"medianViewsPerDay"`
	MedianVideoAgeDays float64  `json:"medianVideoAgeDays"`
	DominanceFactor    float64  `json:"dominanceFactor"`
}

// ScoreBreakdown holds every sub-score plus the composite, all in [0,100].
// TrendScore is nil without at least 6 months of demand history, and
// WeightedOpportunityScore is nil without a channel profile.
type ScoreBreakdown struct {
	SearchVolumeScore         int  `json:"searchVolumeScore"`
	CompetitionScore          int  `json:"competitionScore"`
	OptimizationStrengthScore int  `json:"optimizationStrengthScore"`
	FreshnessScore            int  `json:"freshnessScore"`
	TrendScore                *int `json:"trendScore"`
	Difficulty                int  `json:"difficulty"`
	OpportunityScore          int  `json:"opportunityScore"`
	WeightedOpportunityScore  *int `json:"weightedOpportunityScore"`
}

// ScoreLabels are human-readable tiers derived from the breakdown.
type ScoreLabels struct {
	Difficulty string `json:"difficulty"` // Easy | Medium | Hard
	Coverage   string `json:"coverage"`   // Strong | Medium | Weak
	Freshness  string `json:"freshness"`  // Fresh | Aging | Stale
}

// ScoreExplanations carries short per-factor explanations for display.
type ScoreExplanations struct {
	SearchVolume []string `json:"searchVolume"`
	Competition  []string `json:"competition"`
	Optimization []string `json:"optimization"`
	Freshness    []string `json:"freshness"`
	Trend        []string `json:"trend,omitempty"`
	SerpWeakness []string `json:"serpWeakness"`
}

// OpportunityResult is the engine's full output for one keyword.
// Immutable once returned.
type OpportunityResult struct {
	Keyword           string            `json:"keyword"`
	Volume            float64           `json:"volume"`
	MonthlyVolumes    []float64         `json:"monthlyVolumes,omitempty"`
	Scores            ScoreBreakdown    `json:"scores"`
	Labels            ScoreLabels       `json:"labels"`
	AvgTopFit         float64           `json:"avgTopFit"`
	WeakFitRate       float64           `json:"weakFitRate"`
	BestAnswerAgeDays float64           `json:"bestAnswerAgeDays"`
	NoStrongMatch     bool              `json:"noStrongMatch"`
	Bullets           []string          `json:"bullets"`
	Explanations      ScoreExplanations `json:"explanations"`
	TopVideos         []ScoredVideo     `json:"topVideos"`
	SerpMetrics       SerpMetrics       `json:"serpMetrics"`
	RelatedKeywords   []string          `json:"relatedKeywords"`
}
