package youtube

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
	"github.com/enzo-prism/yt-keywords/internal/gateway"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/usage"
)

const testChannelID = "UCabcdefghij1234567890AB"

type fakeChannelAPI struct {
	channelsCalls atomic.Int32
	searchCalls   atomic.Int32
	playlistCalls atomic.Int32
}

func (f *fakeChannelAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/channels"):
			f.channelsCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id": testChannelID,
					"statistics": map[string]any{
						"subscriberCount": "50000",
						"videoCount":      "200",
						"viewCount":       "9000000",
					},
					"contentDetails": map[string]any{
						"relatedPlaylists": map[string]any{"uploads": "UUabcdefghij1234567890AB"},
					},
				}},
			})

		case strings.HasSuffix(r.URL.Path, "/search"):
			f.searchCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id": map[string]any{"channelId": testChannelID},
				}},
			})

		case strings.HasSuffix(r.URL.Path, "/playlistItems"):
			f.playlistCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"contentDetails": map[string]any{"videoId": "up001"}},
					{"contentDetails": map[string]any{"videoId": "up002"}},
				},
			})

		case strings.HasSuffix(r.URL.Path, "/videos"):
			ids := strings.Split(r.URL.Query().Get("id"), ",")
			items := make([]map[string]any, 0)
			for _, id := range ids {
				items = append(items, map[string]any{
					"id": id,
					"snippet": map[string]any{
						"title":       "upload " + id,
						"publishedAt": time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339),
					},
					"statistics": map[string]any{"viewCount": "5000"},
				})
			}
			json.NewEncoder(w).Encode(map[string]any{"items": items})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func testChannelService(t *testing.T, fake *fakeChannelAPI) *Service {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	origSearch, origVideos, origChannels, origPlaylist := searchEndpoint, videosEndpoint, channelsEndpoint, playlistItemsEndpoint
	searchEndpoint = server.URL + "/search"
	videosEndpoint = server.URL + "/videos"
	channelsEndpoint = server.URL + "/channels"
	playlistItemsEndpoint = server.URL + "/playlistItems"
	t.Cleanup(func() {
		searchEndpoint, videosEndpoint, channelsEndpoint, playlistItemsEndpoint = origSearch, origVideos, origChannels, origPlaylist
	})

	store := cache.NewTiered(cache.NewLRU[model.UsageState](4, 48*time.Hour), nil)
	ledger := usage.NewLedger(store, usage.Limits{})
	return NewService(ledger, "test-key", NewCaches(32, nil), gateway.Options{
		MinInterval: time.Millisecond,
	})
}

func TestResolveChannelCanonicalIDPassthrough(t *testing.T) {
	fake := &fakeChannelAPI{}
	svc := testChannelService(t, fake)

	id, err := svc.ResolveChannel(context.Background(), testChannelID, "")
	if err != nil {
		t.Fatalf("ResolveChannel failed: %v", err)
	}
	if id != testChannelID {
		t.Errorf("id = %q, want passthrough", id)
	}
	if fake.channelsCalls.Load() != 0 || fake.searchCalls.Load() != 0 {
		t.Error("canonical id should not hit the network")
	}
}

func TestResolveChannelByHandle(t *testing.T) {
	fake := &fakeChannelAPI{}
	svc := testChannelService(t, fake)

	id, err := svc.ResolveChannel(context.Background(), "@somecreator", "")
	if err != nil {
		t.Fatalf("ResolveChannel failed: %v", err)
	}
	if id != testChannelID {
		t.Errorf("id = %q, want %q", id, testChannelID)
	}
	if fake.channelsCalls.Load() != 1 {
		t.Errorf("channels calls = %d, want 1", fake.channelsCalls.Load())
	}
	if fake.searchCalls.Load() != 0 {
		t.Error("handle resolution should not use search")
	}

	// Repeats are served from the resolve cache.
	if _, err := svc.ResolveChannel(context.Background(), "@somecreator", ""); err != nil {
		t.Fatalf("cached resolve failed: %v", err)
	}
	if fake.channelsCalls.Load() != 1 {
		t.Error("second resolve should be cached")
	}
}

func TestResolveChannelBySearch(t *testing.T) {
	fake := &fakeChannelAPI{}
	svc := testChannelService(t, fake)

	id, err := svc.ResolveChannel(context.Background(), "some creator show", "")
	if err != nil {
		t.Fatalf("ResolveChannel failed: %v", err)
	}
	if id != testChannelID {
		t.Errorf("id = %q, want %q", id, testChannelID)
	}
	if fake.searchCalls.Load() != 1 {
		t.Errorf("search calls = %d, want 1", fake.searchCalls.Load())
	}
}

func TestGetChannelProfile(t *testing.T) {
	fake := &fakeChannelAPI{}
	svc := testChannelService(t, fake)

	profile, err := svc.GetChannelProfile(context.Background(), testChannelID, "")
	if err != nil {
		t.Fatalf("GetChannelProfile failed: %v", err)
	}

	if profile.ChannelID != testChannelID {
		t.Errorf("channelID = %q", profile.ChannelID)
	}
	if profile.SubscriberCount != 50000 {
		t.Errorf("subscriberCount = %v, want 50000", profile.SubscriberCount)
	}
	if profile.AvgViews != 5000 {
		t.Errorf("avgViews = %v, want 5000", profile.AvgViews)
	}
	// Uploads are 10 days old: 5000 views / 10 days.
	if profile.AvgViewsPerDay < 400 || profile.AvgViewsPerDay > 600 {
		t.Errorf("avgViewsPerDay = %v, want ~500", profile.AvgViewsPerDay)
	}
	if fake.playlistCalls.Load() != 1 {
		t.Errorf("playlist calls = %d, want 1", fake.playlistCalls.Load())
	}
}
