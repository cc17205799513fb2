package keywordtool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/enzo-prism/yt-keywords/internal/cache"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/usage"

	"github.com/enzo-prism/yt-keywords/internal/gateway"
)

type fakeKeywordTool struct {
	suggestionCalls atomic.Int32
	volumeCalls     atomic.Int32
	trendsCalls     atomic.Int32

	suggestionBody map[string]any
	volumeBody     map[string]any
}

func (f *fakeKeywordTool) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "google-trends"):
			f.trendsCalls.Add(1)
			json.NewEncoder(w).Encode(f.suggestionBody)
		case strings.Contains(r.URL.Path, "/volume/"):
			f.volumeCalls.Add(1)
			json.NewEncoder(w).Encode(f.volumeBody)
		default:
			f.suggestionCalls.Add(1)
			json.NewEncoder(w).Encode(f.suggestionBody)
		}
	}
}

func testKWTService(t *testing.T, fake *fakeKeywordTool, trendsEnabled bool) *Service {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	origSuggestions, origVolume, origTrends := suggestionsEndpoint, volumeEndpoint, trendsSuggestionsEndpoint
	suggestionsEndpoint = server.URL + "/v2/search/suggestions/youtube"
	volumeEndpoint = server.URL + "/v2/search/volume/youtube"
	trendsSuggestionsEndpoint = server.URL + "/v2/search/suggestions/google-trends"
	t.Cleanup(func() {
		suggestionsEndpoint, volumeEndpoint, trendsSuggestionsEndpoint = origSuggestions, origVolume, origTrends
	})

	store := cache.NewTiered(cache.NewLRU[model.UsageState](4, 48*time.Hour), nil)
	ledger := usage.NewLedger(store, usage.Limits{})
	return NewService(ledger, "test-key", trendsEnabled, NewCaches(32, nil), gateway.Options{
		MinInterval: time.Millisecond,
	})
}

func TestGetIdeasWithVolumeSeedFirstOrderPreserved(t *testing.T) {
	fake := &fakeKeywordTool{
		suggestionBody: map[string]any{
			"results": []any{"video editing tips", "Video Editing", "video editing software"},
		},
		volumeBody: map[string]any{
			"results": []any{
				map[string]any{"string": "video editing", "volume": 9000.0},
				map[string]any{"string": "video editing tips", "volume": "1,500"},
			},
		},
	}
	svc := testKWTService(t, fake, false)

	ideas, err := svc.GetIdeasWithVolume(context.Background(), IdeaQuery{Seed: "video editing", Limit: 10})
	if err != nil {
		t.Fatalf("GetIdeasWithVolume failed: %v", err)
	}

	// Seed leads; "Video Editing" deduplicates against it case-insensitively.
	if len(ideas) != 3 {
		t.Fatalf("ideas = %d, want 3", len(ideas))
	}
	if ideas[0].Keyword != "video editing" {
		t.Errorf("first idea = %q, want seed", ideas[0].Keyword)
	}
	if ideas[1].Keyword != "video editing tips" || ideas[2].Keyword != "video editing software" {
		t.Errorf("suggestion order not preserved: %q, %q", ideas[1].Keyword, ideas[2].Keyword)
	}

	if ideas[0].Volume != 9000 {
		t.Errorf("seed volume = %v, want 9000", ideas[0].Volume)
	}
	// Comma-formatted string volume parses.
	if ideas[1].Volume != 1500 {
		t.Errorf("tips volume = %v, want 1500", ideas[1].Volume)
	}
	// No volume data: zero, no history.
	if ideas[2].Volume != 0 || ideas[2].MonthlyVolumes != nil {
		t.Errorf("software idea = %+v, want zero volume", ideas[2])
	}
}

func TestGetIdeasWithVolumeMonthlyHistorySorted(t *testing.T) {
	fake := &fakeKeywordTool{
		suggestionBody: map[string]any{"results": []any{}},
		volumeBody: map[string]any{
			"results": []any{
				map[string]any{
					"string": "video editing",
					"volume": 5000.0,
					// Out of order on purpose: Dec 2025 before Nov 2025.
					"m1": 300.0, "m1_month": 12.0, "m1_year": 2025.0,
					"m2": 200.0, "m2_month": 11.0, "m2_year": 2025.0,
					"m3": 400.0, "m3_month": 1.0, "m3_year": 2026.0,
				},
			},
		},
	}
	svc := testKWTService(t, fake, false)

	ideas, err := svc.GetIdeasWithVolume(context.Background(), IdeaQuery{Seed: "video editing"})
	if err != nil {
		t.Fatalf("GetIdeasWithVolume failed: %v", err)
	}
	history := ideas[0].MonthlyVolumes
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	// Oldest first: Nov 2025, Dec 2025, Jan 2026.
	if history[0] != 200 || history[1] != 300 || history[2] != 400 {
		t.Errorf("history = %v, want [200 300 400]", history)
	}
}

func TestGetIdeasWithVolumeCaching(t *testing.T) {
	fake := &fakeKeywordTool{
		suggestionBody: map[string]any{"results": []any{"video editing tips"}},
		volumeBody:     map[string]any{"results": []any{}},
	}
	svc := testKWTService(t, fake, false)
	ctx := context.Background()

	query := IdeaQuery{Seed: "video editing", Limit: 5}
	if _, err := svc.GetIdeasWithVolume(ctx, query); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := svc.GetIdeasWithVolume(ctx, query); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if fake.suggestionCalls.Load() != 1 || fake.volumeCalls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1 (second run cached)",
			fake.suggestionCalls.Load(), fake.volumeCalls.Load())
	}
}

func TestGetIdeasTrendsGating(t *testing.T) {
	fake := &fakeKeywordTool{
		suggestionBody: map[string]any{"results": []any{"video editing trend"}},
		volumeBody:     map[string]any{"results": []any{}},
	}

	disabled := testKWTService(t, fake, false)
	_, err := disabled.GetIdeasWithVolume(context.Background(), IdeaQuery{Seed: "video editing", Mode: ModeTrends})
	if err != ErrTrendsDisabled {
		t.Fatalf("err = %v, want ErrTrendsDisabled", err)
	}
	if fake.trendsCalls.Load() != 0 {
		t.Error("disabled trends must not reach the provider")
	}

	enabled := testKWTService(t, fake, true)
	if _, err := enabled.GetIdeasWithVolume(context.Background(), IdeaQuery{Seed: "video editing", Mode: ModeTrends}); err != nil {
		t.Fatalf("enabled trends failed: %v", err)
	}
	if fake.trendsCalls.Load() != 1 {
		t.Errorf("trends calls = %d, want 1", fake.trendsCalls.Load())
	}
	if fake.suggestionCalls.Load() != 0 {
		t.Error("trends mode should use the trends endpoint")
	}
}

func TestErrorFieldUnder200(t *testing.T) {
	fake := &fakeKeywordTool{
		suggestionBody: map[string]any{"error": map[string]any{"code": 42, "message": "bad"}},
	}
	svc := testKWTService(t, fake, false)

	if _, err := svc.GetIdeasWithVolume(context.Background(), IdeaQuery{Seed: "video editing"}); err == nil {
		t.Fatal("error field in a 200 response must fail the call")
	}
}

func TestExtractKeywordStringsShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"bare array", `["a b", "c d"]`, []string{"a b", "c d"}},
		{"keyed container", `{"results": ["a b"]}`, []string{"a b"}},
		{"nested containers", `{"data": {"suggestions": ["a b", "c d"]}}`, []string{"a b", "c d"}},
		{"object items", `{"results": [{"keyword": "a b"}, {"string": "c d"}]}`, []string{"a b", "c d"}},
		{"map keyed by keyword", `{"video tips": 1, "audio tips": 2}`, []string{"audio tips", "video tips"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload any
			if err := json.Unmarshal([]byte(tt.payload), &payload); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			got := extractKeywordStrings(payload)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestQueryDefaults(t *testing.T) {
	q := IdeaQuery{Seed: "  Video Editing  ", Limit: 500, Country: "us", Language: "EN"}
	q.applyDefaults()

	if q.Seed != "Video Editing" {
		t.Errorf("seed = %q", q.Seed)
	}
	if q.Limit != MaxLimit {
		t.Errorf("limit = %d, want capped at %d", q.Limit, MaxLimit)
	}
	if q.Country != "US" || q.Language != "en" {
		t.Errorf("country/language = %q/%q", q.Country, q.Language)
	}
	if q.Mode != ModeSuggestions {
		t.Errorf("mode = %q, want default", q.Mode)
	}
}
