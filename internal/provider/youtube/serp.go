package youtube

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/enzo-prism/yt-keywords/internal/gateway"
	"github.com/enzo-prism/yt-keywords/internal/keywords"
	"github.com/enzo-prism/yt-keywords/internal/model"
)

const searchFanout = 4

// SerpOptions tune a batch fetch.
type SerpOptions struct {
	// StaleOnRateLimit serves expired cached results for the whole
	// batch when the provider rejects the refresh for quota or rate
	// reasons and every uncached keyword has a stale entry to fall
	// back on. Partial fallback is never done.
	StaleOnRateLimit bool
}

func serpKey(keyword string, maxVideos int) string {
	return fmt.Sprintf("serp:%s:%d", keywords.Normalize(keyword), maxVideos)
}

// GetSerp fetches the result page snapshot for one keyword.
func (s *Service) GetSerp(ctx context.Context, keyword string, maxVideos int, quotaUser string, opts SerpOptions) (model.Serp, bool, error) {
	serps, stale, err := s.GetSerpsBatch(ctx, []string{keyword}, maxVideos, quotaUser, opts)
	if err != nil {
		return model.Serp{}, false, err
	}
	return serps[0], stale, nil
}

// GetSerpsBatch resolves result pages for a set of keywords with the
// minimal number of provider calls: one search per uncached keyword,
// then one id-chunked videos pass and one id-chunked channels pass over
// the union of everything the searches returned. Per-keyword video
// ordering always matches the search response for that keyword.
//
// The returned flag reports whether any result was served from an
// expired cache entry under StaleOnRateLimit.
func (s *Service) GetSerpsBatch(ctx context.Context, kws []string, maxVideos int, quotaUser string, opts SerpOptions) ([]model.Serp, bool, error) {
	results := make([]model.Serp, len(kws))
	missing := make([]int, 0, len(kws))
	stale := make(map[int]model.Serp, len(kws))

	for i, kw := range kws {
		key := serpKey(kw, maxVideos)
		// Peek before the live read: Get evicts an expired entry, so
		// the fallback candidate has to be captured first.
		if entry, ok := s.serpCache.StaleEntry(key); ok {
			stale[i] = entry
		}
		if cached, ok := s.serpCache.Get(ctx, key, serpTTL); ok {
			results[i] = cached
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return results, false, nil
	}

	serps, err := s.fetchSerps(ctx, kws, missing, maxVideos, quotaUser)
	if err != nil {
		if opts.StaleOnRateLimit && gateway.IsRateLimited(err) && staleCovers(stale, missing) {
			log.Warn().
				Err(err).
				Int("keywords", len(missing)).
				Msg("youtube: serving stale results, provider rate limited")
			for _, idx := range missing {
				results[idx] = stale[idx]
			}
			return results, true, nil
		}
		return nil, false, err
	}

	for _, idx := range missing {
		results[idx] = serps[idx]
		s.serpCache.Set(ctx, serpKey(kws[idx], maxVideos), serps[idx], serpTTL)
	}
	return results, false, nil
}

// staleCovers reports whether every missing keyword has an expired
// entry to fall back on. All or nothing: one absent entry disables the
// fallback entirely.
func staleCovers(stale map[int]model.Serp, missing []int) bool {
	for _, idx := range missing {
		if _, ok := stale[idx]; !ok {
			return false
		}
	}
	return true
}

func (s *Service) fetchSerps(ctx context.Context, kws []string, missing []int, maxVideos int, quotaUser string) (map[int]model.Serp, error) {
	snapshots := make(map[int]searchSnapshot, len(missing))
	var mu sync.Mutex

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(searchFanout)
	for _, idx := range missing {
		grp.Go(func() error {
			snapshot, err := s.fetchSearchSnapshot(grpCtx, kws[idx], maxVideos, quotaUser)
			if err != nil {
				return err
			}
			mu.Lock()
			snapshots[idx] = snapshot
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	// Union of ids across all searches, insertion ordered, so shared
	// videos are fetched once.
	var videoIDs []string
	seen := make(map[string]bool)
	for _, idx := range missing {
		for _, id := range snapshots[idx].ids {
			if !seen[id] {
				seen[id] = true
				videoIDs = append(videoIDs, id)
			}
		}
	}

	videos, err := s.fetchVideosByIDs(ctx, videoIDs, quotaUser)
	if err != nil {
		return nil, err
	}

	var channelIDs []string
	seenChannels := make(map[string]bool)
	for _, id := range videoIDs {
		video, ok := videos[id]
		if !ok || video.ChannelID == "" || seenChannels[video.ChannelID] {
			continue
		}
		seenChannels[video.ChannelID] = true
		channelIDs = append(channelIDs, video.ChannelID)
	}

	stats, err := s.fetchChannelStats(ctx, channelIDs, quotaUser)
	if err != nil {
		return nil, err
	}

	serps := make(map[int]model.Serp, len(missing))
	for _, idx := range missing {
		snapshot := snapshots[idx]
		serp := model.Serp{
			Keyword:      strings.TrimSpace(kws[idx]),
			TotalResults: snapshot.totalResults,
			Videos:       make([]model.Video, 0, len(snapshot.ids)),
		}
		for _, id := range snapshot.ids {
			video, ok := videos[id]
			if !ok {
				// Deleted or privated between search and lookup.
				continue
			}
			if channel, ok := stats[video.ChannelID]; ok {
				video.ChannelSubscriberCount = channel.SubscriberCount
			}
			serp.Videos = append(serp.Videos, video)
		}
		serps[idx] = serp
	}
	return serps, nil
}
