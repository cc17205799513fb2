package model

import "time"

// Video is one search result with full metadata and counters, enriched
// with its owning channel's subscriber count by the batch fetch.
type Video struct {
	ID                     string    `json:"id"`
	Title                  string    `json:"title"`
	Description            string    `json:"description"`
	Tags                   []string  `json:"tags"`
	PublishedAt            time.Time `json:"publishedAt"`
	ViewCount              float64   `json:"viewCount"`
	LikeCount              float64   `json:"likeCount"`
	CommentCount           float64   `json:"commentCount"`
	URL                    string    `json:"url"`
	ChannelID              string    `json:"channelId"`
	ChannelTitle           string    `json:"channelTitle"`
	ChannelSubscriberCount float64   `json:"channelSubscriberCount"`
	ThumbnailURL           string    `json:"thumbnailUrl"`
	DurationSeconds        int       `json:"durationSeconds"`
}

// Serp is the cached unit per (keyword, result count) pair. Videos keep
// the ordering of the search call that produced them.
type Serp struct {
	Keyword      string   `json:"keyword"`
	TotalResults *float64 `json:"totalResults"`
	Videos       []Video  `json:"videos"`
}

// ChannelStats holds a channel's lifetime counters.
type ChannelStats struct {
	ChannelID       string  `json:"channelId"`
	SubscriberCount float64 `json:"subscriberCount"`
	VideoCount      float64 `json:"videoCount"`
	ViewCount       float64 `json:"viewCount"`
}

// ChannelRecentMetrics summarizes a channel's most recent uploads.
type ChannelRecentMetrics struct {
	AvgViews       float64 `json:"avgViews"`
	AvgViewsPerDay float64 `json:"avgViewsPerDay"`
}

// ChannelProfile combines lifetime stats with recent-upload averages.
// Used to reweight opportunity scores for a specific caller's channel.
type ChannelProfile struct {
	ChannelID       string  `json:"channelId"`
	SubscriberCount float64 `json:"subscriberCount"`
	VideoCount      float64 `json:"videoCount"`
	ViewCount       float64 `json:"viewCount"`
	AvgViews        float64 `json:"avgViews"`
	AvgViewsPerDay  float64 `json:"avgViewsPerDay"`
}
