package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enzo-prism/yt-keywords/internal/cache"
	"github.com/enzo-prism/yt-keywords/internal/gateway"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/usage"
)

// Endpoint URLs are vars so tests can point them at a local server.
var (
	searchEndpoint        = "https://www.googleapis.com/youtube/v3/search"
	videosEndpoint        = "https://www.googleapis.com/youtube/v3/videos"
	channelsEndpoint      = "https://www.googleapis.com/youtube/v3/channels"
	playlistItemsEndpoint = "https://www.googleapis.com/youtube/v3/playlistItems"
)

const (
	// Provider maximum for id-list lookups.
	maxBatchIDs = 50

	serpTTL    = 6 * time.Hour
	channelTTL = 12 * time.Hour
	recentTTL  = 6 * time.Hour
)

// Service owns all YouTube Data API access: the provider gateway, the
// per-endpoint caches, and the batch orchestration that turns keyword
// queries into the minimal set of provider calls.
type Service struct {
	gw *gateway.Gateway

	serpCache    *cache.Tiered[model.Serp]
	statsCache   *cache.Tiered[model.ChannelStats]
	uploadsCache *cache.Tiered[string]
	recentCache  *cache.Tiered[model.ChannelRecentMetrics]
	resolveCache *cache.Tiered[string]
}

// Caches groups the tiered caches the service reads and writes.
type Caches struct {
	Serp    *cache.Tiered[model.Serp]
	Stats   *cache.Tiered[model.ChannelStats]
	Uploads *cache.Tiered[string]
	Recent  *cache.Tiered[model.ChannelRecentMetrics]
	Resolve *cache.Tiered[string]
}

// NewCaches sizes the in-memory tiers and attaches the optional shared
// durable store. rdb may be nil.
func NewCaches(size int, rdb *redis.Client) Caches {
	return Caches{
		Serp:    cache.NewTiered(cache.NewLRU[model.Serp](size, serpTTL), rdb),
		Stats:   cache.NewTiered(cache.NewLRU[model.ChannelStats](size, channelTTL), rdb),
		Uploads: cache.NewTiered(cache.NewLRU[string](size, channelTTL), rdb),
		Recent:  cache.NewTiered(cache.NewLRU[model.ChannelRecentMetrics](size, recentTTL), rdb),
		Resolve: cache.NewTiered(cache.NewLRU[string](size, channelTTL), rdb),
	}
}

// NewService builds the YouTube service with its own gateway. The API
// key is injected on every call as a header; quota-user attribution is
// forwarded when present.
func NewService(ledger *usage.Ledger, apiKey string, caches Caches, opts gateway.Options) *Service {
	decorate := func(req *http.Request, quotaUser string) {
		req.Header.Set("X-Goog-Api-Key", apiKey)
		if quotaUser != "" {
			req.Header.Set("X-Goog-Quota-User", quotaUser)
		}
	}
	classify := func(status int, body []byte) *gateway.APIError {
		return gateway.ClassifyGoogleError(usage.ProviderYouTube, status, body)
	}
	gw := gateway.New(usage.ProviderYouTube, ledger, classify, decorate, endpointFromPath, opts)

	return &Service{
		gw:           gw,
		serpCache:    caches.Serp,
		statsCache:   caches.Stats,
		uploadsCache: caches.Uploads,
		recentCache:  caches.Recent,
		resolveCache: caches.Resolve,
	}
}

// endpointFromPath derives the ledger endpoint name from a request path.
func endpointFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return "unknown"
	}
	switch last := segments[len(segments)-1]; last {
	case "search", "videos", "channels", "playlistItems":
		return last
	}
	return "unknown"
}

// flexNumber tolerates numeric fields arriving as JSON numbers or as
// strings (YouTube statistics are strings on the wire). Unparseable
// values decode to zero rather than failing the whole payload.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(data, `"`)
	cleaned := strings.ReplaceAll(string(trimmed), ",", "")
	if cleaned == "" || cleaned == "null" {
		*n = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(parsed)
	return nil
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID   string `json:"videoId"`
			ChannelID string `json:"channelId"`
		} `json:"id"`
	} `json:"items"`
	PageInfo struct {
		TotalResults *flexNumber `json:"totalResults"`
	} `json:"pageInfo"`
	NextPageToken string `json:"nextPageToken"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			Tags         []string `json:"tags"`
			PublishedAt  string   `json:"publishedAt"`
			ChannelID    string   `json:"channelId"`
			ChannelTitle string   `json:"channelTitle"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    flexNumber `json:"viewCount"`
			LikeCount    flexNumber `json:"likeCount"`
			CommentCount flexNumber `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			SubscriberCount flexNumber `json:"subscriberCount"`
			VideoCount      flexNumber `json:"videoCount"`
			ViewCount       flexNumber `json:"viewCount"`
		} `json:"statistics"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// searchSnapshot is the ordered id list plus total-count estimate from
// one search call. Ordering fidelity for the final SERP comes only from
// this list.
type searchSnapshot struct {
	keyword      string
	ids          []string
	totalResults *float64
}

func (s *Service) fetchSearchSnapshot(ctx context.Context, keyword string, maxVideos int, quotaUser string) (searchSnapshot, error) {
	trimmed := strings.TrimSpace(keyword)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", trimmed)
	params.Set("order", "relevance")
	params.Set("maxResults", strconv.Itoa(maxVideos))
	params.Set("fields", "items(id(videoId),snippet(channelId,publishedAt)),pageInfo(totalResults)")

	body, err := s.gw.Execute(ctx, gateway.Request{
		Method:    http.MethodGet,
		URL:       searchEndpoint + "?" + params.Encode(),
		QuotaUser: quotaUser,
	})
	if err != nil {
		return searchSnapshot{}, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return searchSnapshot{}, gateway.Malformed(usage.ProviderYouTube, "unexpected search response")
	}

	snapshot := searchSnapshot{keyword: trimmed}
	for _, item := range parsed.Items {
		if item.ID.VideoID != "" {
			snapshot.ids = append(snapshot.ids, item.ID.VideoID)
		}
	}
	if parsed.PageInfo.TotalResults != nil {
		total := float64(*parsed.PageInfo.TotalResults)
		snapshot.totalResults = &total
	}
	return snapshot, nil
}

// fetchVideosByIDs resolves full metadata for ids, chunked at the
// provider's 50-id maximum. Result order is unspecified; callers
// re-project their own ordering.
func (s *Service) fetchVideosByIDs(ctx context.Context, ids []string, quotaUser string) (map[string]model.Video, error) {
	videos := make(map[string]model.Video, len(ids))
	if len(ids) == 0 {
		return videos, nil
	}

	for _, group := range chunk(ids, maxBatchIDs) {
		params := url.Values{}
		params.Set("part", "snippet,statistics,contentDetails")
		params.Set("id", strings.Join(group, ","))
		params.Set("fields", "items(id,snippet(title,description,tags,publishedAt,channelId,channelTitle,thumbnails),statistics(viewCount,likeCount,commentCount),contentDetails(duration))")

		body, err := s.gw.Execute(ctx, gateway.Request{
			Method:    http.MethodGet,
			URL:       videosEndpoint + "?" + params.Encode(),
			QuotaUser: quotaUser,
		})
		if err != nil {
			return nil, err
		}

		var parsed videosResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, gateway.Malformed(usage.ProviderYouTube, "unexpected videos response")
		}

		for _, item := range parsed.Items {
			videos[item.ID] = model.Video{
				ID:              item.ID,
				Title:           item.Snippet.Title,
				Description:     item.Snippet.Description,
				Tags:            orEmpty(item.Snippet.Tags),
				PublishedAt:     parseTimestamp(item.Snippet.PublishedAt),
				ViewCount:       float64(item.Statistics.ViewCount),
				LikeCount:       float64(item.Statistics.LikeCount),
				CommentCount:    float64(item.Statistics.CommentCount),
				URL:             "https://www.youtube.com/watch?v=" + item.ID,
				ChannelID:       item.Snippet.ChannelID,
				ChannelTitle:    item.Snippet.ChannelTitle,
				ThumbnailURL:    thumbnailURL(item.Snippet.Thumbnails),
				DurationSeconds: parseDurationSeconds(item.ContentDetails.Duration),
			}
		}
	}

	return videos, nil
}

// fetchChannelStats resolves stats for channel ids, consulting the
// channel cache first and batching only the misses.
func (s *Service) fetchChannelStats(ctx context.Context, channelIDs []string, quotaUser string) (map[string]model.ChannelStats, error) {
	stats := make(map[string]model.ChannelStats, len(channelIDs))
	var missing []string

	for _, id := range channelIDs {
		if cached, ok := s.statsCache.Get(ctx, "channel:"+id, channelTTL); ok {
			stats[id] = cached
		} else {
			missing = append(missing, id)
		}
	}

	for _, group := range chunk(missing, maxBatchIDs) {
		params := url.Values{}
		params.Set("part", "statistics")
		params.Set("id", strings.Join(group, ","))
		params.Set("fields", "items(id,statistics(subscriberCount,videoCount,viewCount))")

		body, err := s.gw.Execute(ctx, gateway.Request{
			Method:    http.MethodGet,
			URL:       channelsEndpoint + "?" + params.Encode(),
			QuotaUser: quotaUser,
		})
		if err != nil {
			return nil, err
		}

		var parsed channelsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, gateway.Malformed(usage.ProviderYouTube, "unexpected channels response")
		}

		for _, item := range parsed.Items {
			entry := model.ChannelStats{
				ChannelID:       item.ID,
				SubscriberCount: float64(item.Statistics.SubscriberCount),
				VideoCount:      float64(item.Statistics.VideoCount),
				ViewCount:       float64(item.Statistics.ViewCount),
			}
			stats[item.ID] = entry
			s.statsCache.Set(ctx, "channel:"+item.ID, entry, channelTTL)
		}
	}

	return stats, nil
}

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseDurationSeconds(value string) int {
	match := durationRe.FindStringSubmatch(value)
	if match == nil {
		return 0
	}
	hours, _ := strconv.Atoi(zeroIfEmpty(match[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(match[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(match[3]))
	return hours*3600 + minutes*60 + seconds
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func thumbnailURL(thumbnails map[string]struct {
	URL string `json:"url"`
}) string {
	for _, size := range []string{"high", "medium", "default"} {
		if thumb, ok := thumbnails[size]; ok && thumb.URL != "" {
			return thumb.URL
		}
	}
	return ""
}

func chunk(values []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(values); i += size {
		end := i + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[i:end])
	}
	return chunks
}

func orEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
