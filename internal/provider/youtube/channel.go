package youtube

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/enzo-prism/yt-keywords/internal/gateway"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/usage"
)

const (
	// Recent-upload sampling bounds.
	maxUploadPages  = 3
	recentSampleLen = 10
)

var channelIDRe = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// ResolveChannel turns user input into a canonical channel id.
// Canonical UC ids pass through untouched; @handles go through the
// forHandle lookup; anything else falls back to a channel search and
// takes the top hit. Resolution results are cached since inputs repeat.
func (s *Service) ResolveChannel(ctx context.Context, input, quotaUser string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if channelIDRe.MatchString(trimmed) {
		return trimmed, nil
	}

	key := "resolve:" + strings.ToLower(trimmed)
	if cached, ok := s.resolveCache.Get(ctx, key, channelTTL); ok {
		return cached, nil
	}

	var (
		id  string
		err error
	)
	if strings.HasPrefix(trimmed, "@") {
		id, err = s.resolveByHandle(ctx, trimmed, quotaUser)
	} else {
		id, err = s.resolveBySearch(ctx, trimmed, quotaUser)
	}
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", gateway.Malformed(usage.ProviderYouTube, "channel not found: "+trimmed)
	}

	s.resolveCache.Set(ctx, key, id, channelTTL)
	return id, nil
}

func (s *Service) resolveByHandle(ctx context.Context, handle, quotaUser string) (string, error) {
	params := url.Values{}
	params.Set("part", "id")
	params.Set("forHandle", handle)

	body, err := s.gw.Execute(ctx, gateway.Request{
		Method:    http.MethodGet,
		URL:       channelsEndpoint + "?" + params.Encode(),
		QuotaUser: quotaUser,
	})
	if err != nil {
		return "", err
	}

	var parsed channelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", gateway.Malformed(usage.ProviderYouTube, "unexpected channels response")
	}
	if len(parsed.Items) == 0 {
		return "", nil
	}
	return parsed.Items[0].ID, nil
}

func (s *Service) resolveBySearch(ctx context.Context, query, quotaUser string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "channel")
	params.Set("q", query)
	params.Set("maxResults", "1")
	params.Set("fields", "items(id(channelId))")

	body, err := s.gw.Execute(ctx, gateway.Request{
		Method:    http.MethodGet,
		URL:       searchEndpoint + "?" + params.Encode(),
		QuotaUser: quotaUser,
	})
	if err != nil {
		return "", err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", gateway.Malformed(usage.ProviderYouTube, "unexpected search response")
	}
	if len(parsed.Items) == 0 {
		return "", nil
	}
	return parsed.Items[0].ID.ChannelID, nil
}

// GetChannelProfile resolves input to a channel id and combines its
// lifetime stats with recent-upload averages.
func (s *Service) GetChannelProfile(ctx context.Context, input, quotaUser string) (model.ChannelProfile, error) {
	id, err := s.ResolveChannel(ctx, input, quotaUser)
	if err != nil {
		return model.ChannelProfile{}, err
	}

	stats, err := s.fetchChannelStats(ctx, []string{id}, quotaUser)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	lifetime, ok := stats[id]
	if !ok {
		return model.ChannelProfile{}, gateway.Malformed(usage.ProviderYouTube, "channel not found: "+id)
	}

	recent, err := s.recentMetrics(ctx, id, quotaUser)
	if err != nil {
		return model.ChannelProfile{}, err
	}

	return model.ChannelProfile{
		ChannelID:       id,
		SubscriberCount: lifetime.SubscriberCount,
		VideoCount:      lifetime.VideoCount,
		ViewCount:       lifetime.ViewCount,
		AvgViews:        recent.AvgViews,
		AvgViewsPerDay:  recent.AvgViewsPerDay,
	}, nil
}

// recentMetrics averages views and views-per-day over the channel's
// most recent uploads, sampled from its uploads playlist.
func (s *Service) recentMetrics(ctx context.Context, channelID, quotaUser string) (model.ChannelRecentMetrics, error) {
	key := "recent:" + channelID
	if cached, ok := s.recentCache.Get(ctx, key, recentTTL); ok {
		return cached, nil
	}

	playlistID, err := s.uploadsPlaylistID(ctx, channelID, quotaUser)
	if err != nil {
		return model.ChannelRecentMetrics{}, err
	}
	if playlistID == "" {
		return model.ChannelRecentMetrics{}, nil
	}

	ids, err := s.recentUploadIDs(ctx, playlistID, quotaUser)
	if err != nil {
		return model.ChannelRecentMetrics{}, err
	}
	if len(ids) > recentSampleLen {
		ids = ids[:recentSampleLen]
	}

	videos, err := s.fetchVideosByIDs(ctx, ids, quotaUser)
	if err != nil {
		return model.ChannelRecentMetrics{}, err
	}

	var views, viewsPerDay []float64
	now := time.Now()
	for _, id := range ids {
		video, ok := videos[id]
		if !ok {
			continue
		}
		ageDays := math.Max(1, now.Sub(video.PublishedAt).Hours()/24)
		views = append(views, video.ViewCount)
		viewsPerDay = append(viewsPerDay, video.ViewCount/ageDays)
	}

	metrics := model.ChannelRecentMetrics{
		AvgViews:       avg(views),
		AvgViewsPerDay: avg(viewsPerDay),
	}
	s.recentCache.Set(ctx, key, metrics, recentTTL)
	return metrics, nil
}

func (s *Service) uploadsPlaylistID(ctx context.Context, channelID, quotaUser string) (string, error) {
	key := "uploads:" + channelID
	if cached, ok := s.uploadsCache.Get(ctx, key, channelTTL); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", channelID)
	params.Set("fields", "items(id,contentDetails(relatedPlaylists(uploads)))")

	body, err := s.gw.Execute(ctx, gateway.Request{
		Method:    http.MethodGet,
		URL:       channelsEndpoint + "?" + params.Encode(),
		QuotaUser: quotaUser,
	})
	if err != nil {
		return "", err
	}

	var parsed channelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", gateway.Malformed(usage.ProviderYouTube, "unexpected channels response")
	}
	if len(parsed.Items) == 0 {
		return "", nil
	}

	playlistID := parsed.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if playlistID != "" {
		s.uploadsCache.Set(ctx, key, playlistID, channelTTL)
	}
	return playlistID, nil
}

func (s *Service) recentUploadIDs(ctx context.Context, playlistID, quotaUser string) ([]string, error) {
	var ids []string
	pageToken := ""

	for page := 0; page < maxUploadPages; page++ {
		params := url.Values{}
		params.Set("part", "contentDetails")
		params.Set("playlistId", playlistID)
		params.Set("maxResults", "50")
		params.Set("fields", "items(contentDetails(videoId)),nextPageToken")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		body, err := s.gw.Execute(ctx, gateway.Request{
			Method:    http.MethodGet,
			URL:       playlistItemsEndpoint + "?" + params.Encode(),
			QuotaUser: quotaUser,
		})
		if err != nil {
			return nil, err
		}

		var parsed playlistItemsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, gateway.Malformed(usage.ProviderYouTube, "unexpected playlistItems response")
		}

		for _, item := range parsed.Items {
			if item.ContentDetails.VideoID != "" {
				ids = append(ids, item.ContentDetails.VideoID)
			}
		}
		if parsed.NextPageToken == "" || len(ids) >= recentSampleLen {
			break
		}
		pageToken = parsed.NextPageToken
	}

	return ids, nil
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
