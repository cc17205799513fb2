package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/enzo-prism/yt-keywords/internal/cache"
	"github.com/enzo-prism/yt-keywords/internal/model"
)

const (
	ProviderYouTube     = "youtube"
	ProviderKeywordTool = "keywordtool"

	// Yesterday's counters stay readable briefly after UTC rollover.
	retentionTTL = 48 * time.Hour
)

var providerLabels = map[string]string{
	ProviderYouTube:     "YouTube Data API",
	ProviderKeywordTool: "KeywordTool.io",
}

// youtubeEndpointCosts maps endpoint names to quota units. Search is two
// orders of magnitude more expensive than the lookup endpoints. Raw
// request counts are stored; this table is applied only at summary time.
var youtubeEndpointCosts = map[string]int{
	"search":        100,
	"videos":        1,
	"channels":      1,
	"playlistItems": 1,
	"unknown":       1,
}

// Limits holds optional daily limits per provider. Nil means no limit
// configured, reported as absent rather than zero.
type Limits struct {
	YouTubeDailyQuota     *int
	KeywordToolDailyLimit *int
}

// Ledger tracks per-day, per-provider, per-endpoint request counts.
// State is persisted through the tiered cache keyed by UTC calendar day
// so counters survive restarts when a durable tier is configured.
type Ledger struct {
	mu     sync.Mutex
	store  *cache.Tiered[model.UsageState]
	limits Limits
	now    func() time.Time
}

func NewLedger(store *cache.Tiered[model.UsageState], limits Limits) *Ledger {
	return &Ledger{store: store, limits: limits, now: time.Now}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func stateKey(day string) string {
	return "usage:" + day
}

func emptyState(day string) model.UsageState {
	return model.UsageState{
		DayKey: day,
		Providers: map[string]model.ProviderUsage{
			ProviderYouTube:     {Endpoints: map[string]int{}},
			ProviderKeywordTool: {Endpoints: map[string]int{}},
		},
	}
}

// Record increments today's bucket for provider/endpoint by count
// requests (minimum 1). Errors are absorbed: usage tracking never fails
// a caller's request.
func (l *Ledger) Record(ctx context.Context, provider, endpoint string, count int) {
	if count < 1 {
		count = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	day := dayKey(now)
	state, ok := l.store.Get(ctx, stateKey(day), retentionTTL)
	if !ok {
		state = emptyState(day)
	}

	entry := state.Providers[provider]
	if entry.Endpoints == nil {
		entry.Endpoints = map[string]int{}
	}
	entry.Requests += count
	entry.Endpoints[endpoint] += count
	entry.LastUpdated = now.UnixMilli()
	state.Providers[provider] = entry

	l.store.Set(ctx, stateKey(day), state, retentionTTL)
}

// Summarize returns today's usage with the current cost table applied.
func (l *Ledger) Summarize(ctx context.Context) model.UsageSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := dayKey(l.now())
	state, ok := l.store.Get(ctx, stateKey(day), retentionTTL)
	if !ok {
		state = emptyState(day)
	}

	windowStart, _ := time.Parse("2006-01-02", day)
	windowEnd := windowStart.Add(24 * time.Hour)

	ytUsage := state.Providers[ProviderYouTube]
	ktUsage := state.Providers[ProviderKeywordTool]

	ytSummary := model.UsageProviderSummary{
		ID:        ProviderYouTube,
		Label:     providerLabels[ProviderYouTube],
		UnitLabel: "quota units",
		Used:      youtubeUnits(ytUsage.Endpoints),
		Limit:     l.limits.YouTubeDailyQuota,
		Requests:  ytUsage.Requests,
		Endpoints: endpointSummaries(ytUsage.Endpoints, true),
		Note:      "Quota units are estimated (search=100, videos/channels/playlistItems=1).",
	}
	ytSummary.Remaining, ytSummary.Percent = remaining(ytSummary.Limit, ytSummary.Used)
	ytSummary.LastUpdated = formatUpdated(ytUsage.LastUpdated)

	ktSummary := model.UsageProviderSummary{
		ID:        ProviderKeywordTool,
		Label:     providerLabels[ProviderKeywordTool],
		UnitLabel: "requests",
		Used:      ktUsage.Requests,
		Limit:     l.limits.KeywordToolDailyLimit,
		Requests:  ktUsage.Requests,
		Endpoints: endpointSummaries(ktUsage.Endpoints, false),
	}
	ktSummary.Remaining, ktSummary.Percent = remaining(ktSummary.Limit, ktSummary.Used)
	ktSummary.LastUpdated = formatUpdated(ktUsage.LastUpdated)

	return model.UsageSummary{
		DayKey:      day,
		WindowStart: windowStart.UTC().Format(time.RFC3339),
		WindowEnd:   windowEnd.UTC().Format(time.RFC3339),
		Providers:   []model.UsageProviderSummary{ytSummary, ktSummary},
	}
}

func youtubeUnits(endpoints map[string]int) int {
	total := 0
	for endpoint, count := range endpoints {
		total += endpointCost(endpoint) * count
	}
	return total
}

func endpointCost(endpoint string) int {
	if cost, ok := youtubeEndpointCosts[endpoint]; ok {
		return cost
	}
	return youtubeEndpointCosts["unknown"]
}

func endpointSummaries(endpoints map[string]int, withUnits bool) []model.UsageEndpointSummary {
	summaries := make([]model.UsageEndpointSummary, 0, len(endpoints))
	for endpoint, requests := range endpoints {
		units := requests
		if withUnits {
			units = endpointCost(endpoint) * requests
		}
		summaries = append(summaries, model.UsageEndpointSummary{
			Name:     endpoint,
			Requests: requests,
			Units:    units,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Requests != summaries[j].Requests {
			return summaries[i].Requests > summaries[j].Requests
		}
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

func remaining(limit *int, used int) (*int, *float64) {
	if limit == nil || *limit <= 0 {
		return nil, nil
	}
	rem := *limit - used
	if rem < 0 {
		rem = 0
	}
	pct := float64(used) / float64(*limit) * 100
	if pct > 100 {
		pct = 100
	}
	return &rem, &pct
}

func formatUpdated(unixMillis int64) string {
	if unixMillis == 0 {
		return ""
	}
	return time.UnixMilli(unixMillis).UTC().Format(time.RFC3339)
}
