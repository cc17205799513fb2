package keywordtool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enzo-prism/yt-keywords/internal/cache"
	"github.com/enzo-prism/yt-keywords/internal/gateway"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/usage"
	"github.com/enzo-prism/yt-keywords/pkg/hash"
)

// Endpoint URLs are vars so tests can point them at a local server.
var (
	suggestionsEndpoint       = "https://api.keywordtool.io/v2/search/suggestions/youtube"
	volumeEndpoint            = "https://api.keywordtool.io/v2/search/volume/youtube"
	trendsSuggestionsEndpoint = "https://api.keywordtool.io/v2/search/suggestions/google-trends"
)

const (
	DefaultCountry  = "US"
	DefaultLanguage = "en"
	DefaultLimit    = 25
	MaxLimit        = 50

	ideaTTL = 24 * time.Hour
)

// SuggestionMode selects which suggestion surface the provider queries.
type SuggestionMode string

const (
	ModeSuggestions  SuggestionMode = "suggestions"
	ModeQuestions    SuggestionMode = "questions"
	ModePrepositions SuggestionMode = "prepositions"
	ModeTrends       SuggestionMode = "trends"
)

// ValidMode reports whether mode is one the provider supports.
func ValidMode(mode SuggestionMode) bool {
	switch mode {
	case ModeSuggestions, ModeQuestions, ModePrepositions, ModeTrends:
		return true
	}
	return false
}

// ErrTrendsDisabled is returned for trends-mode requests when the
// deployment has not opted in to the Google Trends surface.
var ErrTrendsDisabled = fmt.Errorf("trends suggestions are disabled")

type volumeEntry struct {
	Volume         float64   `json:"volume"`
	MonthlyVolumes []float64 `json:"monthlyVolumes"`
}

// Service queries the keyword-demand provider for suggestion lists and
// search volumes. Responses are shape-tolerant: the provider has
// shipped several envelope layouts and the parser walks all of them.
type Service struct {
	gw            *gateway.Gateway
	apiKey        string
	trendsEnabled bool

	suggestionCache *cache.Tiered[[]string]
	volumeCache     *cache.Tiered[map[string]volumeEntry]
}

// Caches groups the tiered caches the service reads and writes. The
// volume cache value type is internal to this package, so callers build
// both through NewCaches.
type Caches struct {
	suggestions *cache.Tiered[[]string]
	volumes     *cache.Tiered[map[string]volumeEntry]
}

// NewCaches sizes the in-memory tiers and attaches the optional shared
// durable store. rdb may be nil.
func NewCaches(size int, rdb *redis.Client) Caches {
	return Caches{
		suggestions: cache.NewTiered(cache.NewLRU[[]string](size, ideaTTL), rdb),
		volumes:     cache.NewTiered(cache.NewLRU[map[string]volumeEntry](size, ideaTTL), rdb),
	}
}

func NewService(ledger *usage.Ledger, apiKey string, trendsEnabled bool, caches Caches, opts gateway.Options) *Service {
	classify := func(status int, body []byte) *gateway.APIError {
		return gateway.ClassifyPlainError(usage.ProviderKeywordTool, status, body)
	}
	gw := gateway.New(usage.ProviderKeywordTool, ledger, classify, nil, endpointFromPath, opts)

	return &Service{
		gw:              gw,
		apiKey:          apiKey,
		trendsEnabled:   trendsEnabled,
		suggestionCache: caches.suggestions,
		volumeCache:     caches.volumes,
	}
}

func endpointFromPath(path string) string {
	if strings.Contains(path, "google-trends") {
		return "trends"
	}
	if strings.Contains(path, "/volume/") {
		return "volume"
	}
	return "suggestions"
}

// IdeaQuery describes one suggestion-plus-volume lookup.
type IdeaQuery struct {
	Seed      string
	Limit     int
	Country   string
	Language  string
	Mode      SuggestionMode
	QuotaUser string
}

func (q *IdeaQuery) applyDefaults() {
	q.Seed = strings.TrimSpace(q.Seed)
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Country == "" {
		q.Country = DefaultCountry
	}
	q.Country = strings.ToUpper(q.Country)
	if q.Language == "" {
		q.Language = DefaultLanguage
	}
	q.Language = strings.ToLower(q.Language)
	if q.Mode == "" {
		q.Mode = ModeSuggestions
	}
}

// GetIdeasWithVolume returns suggestions for a seed with their volumes
// attached, seed first, suggestion order preserved, capped at the
// limit. Keywords the volume call does not cover come back with volume
// zero and no monthly history.
func (s *Service) GetIdeasWithVolume(ctx context.Context, query IdeaQuery) ([]model.KeywordIdea, error) {
	query.applyDefaults()

	if query.Mode == ModeTrends && !s.trendsEnabled {
		return nil, ErrTrendsDisabled
	}

	suggestions, err := s.fetchSuggestions(ctx, query)
	if err != nil {
		return nil, err
	}

	merged := make([]string, 0, len(suggestions)+1)
	seen := make(map[string]bool)
	add := func(keyword string) {
		cleaned := strings.TrimSpace(keyword)
		if cleaned == "" {
			return
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			return
		}
		seen[key] = true
		merged = append(merged, cleaned)
	}

	if query.Seed != "" {
		add(query.Seed)
	}
	for _, suggestion := range suggestions {
		add(suggestion)
	}
	if len(merged) > query.Limit {
		merged = merged[:query.Limit]
	}

	volumes := map[string]volumeEntry{}
	if len(merged) > 0 {
		volumes, err = s.fetchVolumes(ctx, merged, query.Country, query.QuotaUser)
		if err != nil {
			return nil, err
		}
	}

	ideas := make([]model.KeywordIdea, len(merged))
	for i, keyword := range merged {
		entry := volumes[strings.ToLower(keyword)]
		ideas[i] = model.KeywordIdea{
			Keyword:        keyword,
			Volume:         entry.Volume,
			MonthlyVolumes: entry.MonthlyVolumes,
		}
	}
	return ideas, nil
}

func (s *Service) fetchSuggestions(ctx context.Context, query IdeaQuery) ([]string, error) {
	cacheKey := fmt.Sprintf("kwt:suggest:%s::%s::%s::%s::%d",
		strings.ToLower(query.Seed), query.Country, query.Language, query.Mode, query.Limit)
	if cached, ok := s.suggestionCache.Get(ctx, cacheKey, ideaTTL); ok {
		return cached, nil
	}

	endpoint := suggestionsEndpoint
	requestType := string(query.Mode)
	if query.Mode == ModeTrends {
		endpoint = trendsSuggestionsEndpoint
		requestType = string(ModeSuggestions)
	}

	body, err := json.Marshal(map[string]any{
		"apikey":   s.apiKey,
		"keyword":  query.Seed,
		"country":  query.Country,
		"language": query.Language,
		"type":     requestType,
		"output":   "json",
	})
	if err != nil {
		return nil, err
	}

	respBody, err := s.gw.Execute(ctx, gateway.Request{
		Method:    http.MethodPost,
		URL:       endpoint,
		Body:      body,
		QuotaUser: query.QuotaUser,
	})
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, gateway.Malformed(usage.ProviderKeywordTool, "unexpected suggestions response")
	}
	if err := checkErrorField(payload); err != nil {
		return nil, err
	}

	var deduped []string
	seen := make(map[string]bool)
	for _, suggestion := range extractKeywordStrings(payload) {
		cleaned := strings.TrimSpace(suggestion)
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, cleaned)
	}
	if len(deduped) > query.Limit {
		deduped = deduped[:query.Limit]
	}

	s.suggestionCache.Set(ctx, cacheKey, deduped, ideaTTL)
	return deduped, nil
}

func (s *Service) fetchVolumes(ctx context.Context, keywords []string, country, quotaUser string) (map[string]volumeEntry, error) {
	cacheKey := "kwt:volume:" + hash.KeywordBatchKey(keywords) + "::" + country
	if cached, ok := s.volumeCache.Get(ctx, cacheKey, ideaTTL); ok {
		return cached, nil
	}

	body, err := json.Marshal(map[string]any{
		"apikey":  s.apiKey,
		"keyword": keywords,
		"country": country,
		"output":  "json",
	})
	if err != nil {
		return nil, err
	}

	respBody, err := s.gw.Execute(ctx, gateway.Request{
		Method:    http.MethodPost,
		URL:       volumeEndpoint,
		Body:      body,
		QuotaUser: quotaUser,
	})
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, gateway.Malformed(usage.ProviderKeywordTool, "unexpected volume response")
	}
	if err := checkErrorField(payload); err != nil {
		return nil, err
	}

	volumes := buildVolumeMap(payload)
	s.volumeCache.Set(ctx, cacheKey, volumes, ideaTTL)
	return volumes, nil
}

// checkErrorField treats any payload carrying error/errors keys as an
// application-level failure even under HTTP 200.
func checkErrorField(payload any) error {
	record, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	if record["error"] != nil || record["errors"] != nil {
		return gateway.Malformed(usage.ProviderKeywordTool, "provider reported an error")
	}
	return nil
}

// extractKeywordStrings walks a payload of unknown shape collecting
// keyword strings from every envelope variant the provider is known to
// emit: bare strings, arrays, keyed containers, objects with a
// keyword-ish field, and maps keyed by the keywords themselves.
func extractKeywordStrings(payload any) []string {
	switch value := payload.(type) {
	case string:
		return []string{value}
	case []any:
		var collected []string
		for _, item := range value {
			collected = append(collected, extractKeywordStrings(item)...)
		}
		return collected
	case map[string]any:
		var collected []string
		direct := keywordField(value)
		if direct != "" {
			collected = append(collected, direct)
		}

		hasContainer := false
		for _, key := range []string{"results", "keywords", "data", "suggestions"} {
			if value[key] != nil {
				hasContainer = true
				collected = append(collected, extractKeywordStrings(value[key])...)
			}
		}

		if !hasContainer && direct == "" {
			keys := make([]string, 0, len(value))
			for key := range value {
				if cleaned := strings.TrimSpace(key); cleaned != "" {
					keys = append(keys, cleaned)
				}
			}
			sort.Strings(keys)
			collected = append(collected, keys...)
		}
		return collected
	}
	return nil
}

func keywordField(record map[string]any) string {
	for _, key := range []string{"keyword", "string", "value", "text"} {
		if candidate, ok := record[key].(string); ok {
			if cleaned := strings.TrimSpace(candidate); cleaned != "" {
				return cleaned
			}
		}
	}
	return ""
}

// extractVolumeItems walks a payload of unknown shape collecting the
// per-keyword volume records, recognized by a string or keyword field.
func extractVolumeItems(payload any) []map[string]any {
	switch value := payload.(type) {
	case []any:
		var items []map[string]any
		for _, item := range value {
			items = append(items, extractVolumeItems(item)...)
		}
		return items
	case map[string]any:
		var items []map[string]any
		_, hasString := value["string"].(string)
		_, hasKeyword := value["keyword"].(string)
		hasDirect := hasString || hasKeyword
		if hasDirect {
			items = append(items, value)
		}

		hasContainer := false
		for _, key := range []string{"results", "data", "keywords", "volumes"} {
			if value[key] != nil {
				hasContainer = true
				items = append(items, extractVolumeItems(value[key])...)
			}
		}

		if !hasContainer && !hasDirect {
			keys := make([]string, 0, len(value))
			for key := range value {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				items = append(items, extractVolumeItems(value[key])...)
			}
		}
		return items
	}
	return nil
}

func buildVolumeMap(payload any) map[string]volumeEntry {
	volumes := make(map[string]volumeEntry)
	for _, item := range extractVolumeItems(payload) {
		keyword := ""
		if candidate, ok := item["string"].(string); ok {
			keyword = strings.TrimSpace(candidate)
		} else if candidate, ok := item["keyword"].(string); ok {
			keyword = strings.TrimSpace(candidate)
		}
		if keyword == "" {
			continue
		}
		volumes[strings.ToLower(keyword)] = volumeEntry{
			Volume:         parseVolume(item["volume"]),
			MonthlyVolumes: extractMonthlyVolumes(item),
		}
	}
	return volumes
}

func parseVolume(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return 0
		}
		return parsed
	}
	return 0
}

// extractMonthlyVolumes rebuilds the trailing-12-month history from the
// provider's m1..m12 fields, ordered oldest first by the paired
// m#_month/m#_year fields. Slots missing either date field are skipped;
// nil means no history at all.
func extractMonthlyVolumes(item map[string]any) []float64 {
	type monthPoint struct {
		year, month int
		value       float64
	}
	var months []monthPoint

	for i := 1; i <= 12; i++ {
		month, monthOK := asInt(item[fmt.Sprintf("m%d_month", i)])
		year, yearOK := asInt(item[fmt.Sprintf("m%d_year", i)])
		if !monthOK || !yearOK {
			continue
		}
		months = append(months, monthPoint{
			year:  year,
			month: month,
			value: parseVolume(item[fmt.Sprintf("m%d", i)]),
		})
	}
	if len(months) == 0 {
		return nil
	}

	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	values := make([]float64, len(months))
	for i, entry := range months {
		values[i] = entry.value
	}
	return values
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
