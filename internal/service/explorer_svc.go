package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/enzo-prism/yt-keywords/internal/keywords"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/provider/keywordtool"
	"github.com/enzo-prism/yt-keywords/internal/provider/youtube"
	"github.com/enzo-prism/yt-keywords/internal/scoring"
	"github.com/enzo-prism/yt-keywords/internal/usage"
)

const (
	DefaultMaxKeywords = 25
	DefaultMaxVideos   = 30
	MaxKeywords        = 50
	MaxVideos          = 50

	// Cluster representatives carry at most this many siblings as
	// related keywords into scoring.
	relatedKeywordCap = 12
)

// SerpProvider is the search-provider surface the explorer consumes.
type SerpProvider interface {
	GetSerp(ctx context.Context, keyword string, maxVideos int, quotaUser string, opts youtube.SerpOptions) (model.Serp, bool, error)
	GetSerpsBatch(ctx context.Context, kws []string, maxVideos int, quotaUser string, opts youtube.SerpOptions) ([]model.Serp, bool, error)
	GetChannelProfile(ctx context.Context, channel, quotaUser string) (model.ChannelProfile, error)
}

// IdeaProvider is the demand-provider surface the explorer consumes.
type IdeaProvider interface {
	GetIdeasWithVolume(ctx context.Context, query keywordtool.IdeaQuery) ([]model.KeywordIdea, error)
}

// Explorer is the engine facade: keyword demand in, scored opportunity
// list out. It owns no state beyond the wired providers and ledger.
type Explorer struct {
	youtube SerpProvider
	ideas   IdeaProvider
	ledger  *usage.Ledger
}

func NewExplorer(yt SerpProvider, ideas IdeaProvider, ledger *usage.Ledger) *Explorer {
	return &Explorer{youtube: yt, ideas: ideas, ledger: ledger}
}

// GetIdeas returns keyword suggestions with demand volumes attached.
func (e *Explorer) GetIdeas(ctx context.Context, query keywordtool.IdeaQuery) ([]model.KeywordIdea, error) {
	return e.ideas.GetIdeasWithVolume(ctx, query)
}

// GetSerp fetches one keyword's result page, falling back to an expired
// cache entry when the provider rejects the refresh for rate reasons.
// The flag reports a stale serve.
func (e *Explorer) GetSerp(ctx context.Context, keyword string, maxVideos int, quotaUser string) (model.Serp, bool, error) {
	return e.youtube.GetSerp(ctx, keyword, maxVideos, quotaUser,
		youtube.SerpOptions{StaleOnRateLimit: true})
}

// GetChannelProfile resolves a channel reference and returns lifetime
// stats plus recent-upload averages.
func (e *Explorer) GetChannelProfile(ctx context.Context, channel, quotaUser string) (model.ChannelProfile, error) {
	return e.youtube.GetChannelProfile(ctx, channel, quotaUser)
}

// UsageSummary reports today's provider usage with costs applied.
func (e *Explorer) UsageSummary(ctx context.Context) model.UsageSummary {
	return e.ledger.Summarize(ctx)
}

// ExploreRequest parameterizes a full discovery run.
type ExploreRequest struct {
	Seed         string
	MaxKeywords  int
	MaxVideos    int
	Country      string
	Language     string
	Mode         keywordtool.SuggestionMode
	MinVolume    float64
	IncludeTerms []string
	ExcludeTerms []string
	HideNoise    bool
	Cluster      bool
	Channel      string
	ShowWeighted bool
	QuotaUser    string
}

// ExploreResult is one scored keyword, annotated with its cluster when
// clustering collapsed siblings into it.
type ExploreResult struct {
	model.OpportunityResult
	ClusterID    string `json:"clusterId,omitempty"`
	ClusterLabel string `json:"clusterLabel,omitempty"`
	ClusterSize  int    `json:"clusterSize,omitempty"`
}

// ExploreMeta summarizes how many candidates each pipeline stage kept.
// StaleUsed marks a run whose result pages came from expired cache
// entries because the provider was rate limited.
type ExploreMeta struct {
	TotalSuggestions int  `json:"totalSuggestions"`
	FilteredCount    int  `json:"filteredCount"`
	AnalyzedCount    int  `json:"analyzedCount"`
	Clustered        bool `json:"clustered"`
	StaleUsed        bool `json:"staleUsed"`
}

// ExploreResponse is the engine's full output for one seed.
type ExploreResponse struct {
	Seed        string          `json:"seed"`
	GeneratedAt string          `json:"generatedAt"`
	Results     []ExploreResult `json:"results"`
	Meta        ExploreMeta     `json:"meta"`
}

type analysisEntry struct {
	idea            model.KeywordIdea
	relatedKeywords []string
	clusterID       string
	clusterLabel    string
	clusterSize     int
}

// Explore runs the whole pipeline: suggestions with demand, noise and
// volume filtering, optional clustering to representatives, one batch
// of result-page fetches, and scoring against the batch's demand range.
// Results come back sorted by opportunity, best first.
func (e *Explorer) Explore(ctx context.Context, req ExploreRequest) (*ExploreResponse, error) {
	req.applyDefaults()

	// Over-fetch suggestions so filtering still leaves enough to rank.
	suggestionLimit := req.MaxKeywords * 3
	if suggestionLimit < 10 {
		suggestionLimit = 10
	}
	if suggestionLimit > keywordtool.MaxLimit {
		suggestionLimit = keywordtool.MaxLimit
	}

	ideas, err := e.ideas.GetIdeasWithVolume(ctx, keywordtool.IdeaQuery{
		Seed:      req.Seed,
		Limit:     suggestionLimit,
		Country:   req.Country,
		Language:  req.Language,
		Mode:      req.Mode,
		QuotaUser: req.QuotaUser,
	})
	if err != nil {
		return nil, err
	}

	filtered := dedupeIdeas(filterIdeas(ideas, req))

	minVol, maxVol := volumeRange(filtered)

	entries := buildAnalysisEntries(filtered, req.Cluster, req.MaxKeywords)

	var channelProfile *model.ChannelProfile
	if req.Channel != "" && req.ShowWeighted {
		profile, err := e.youtube.GetChannelProfile(ctx, req.Channel, req.QuotaUser)
		if err != nil {
			// Weighted scores are an overlay; the run proceeds without.
			log.Warn().Err(err).Str("channel", req.Channel).Msg("explore: channel profile unavailable")
		} else {
			channelProfile = &profile
		}
	}

	kws := make([]string, len(entries))
	for i, entry := range entries {
		kws[i] = entry.idea.Keyword
	}
	serps, staleUsed, err := e.youtube.GetSerpsBatch(ctx, kws, req.MaxVideos, req.QuotaUser,
		youtube.SerpOptions{StaleOnRateLimit: true})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]ExploreResult, len(entries))
	for i, entry := range entries {
		scored := scoring.ScoreKeywordOpportunity(scoring.Input{
			Keyword:         entry.idea.Keyword,
			Volume:          entry.idea.Volume,
			MonthlyVolumes:  entry.idea.MonthlyVolumes,
			Videos:          serps[i].Videos,
			TotalResults:    serps[i].TotalResults,
			MinVolume:       minVol,
			MaxVolume:       maxVol,
			RelatedKeywords: entry.relatedKeywords,
			ChannelProfile:  channelProfile,
			Now:             now,
		})
		results[i] = ExploreResult{
			OpportunityResult: scored,
			ClusterID:         entry.clusterID,
			ClusterLabel:      entry.clusterLabel,
			ClusterSize:       entry.clusterSize,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Scores.OpportunityScore > results[j].Scores.OpportunityScore
	})

	return &ExploreResponse{
		Seed:        req.Seed,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Results:     results,
		Meta: ExploreMeta{
			TotalSuggestions: len(ideas),
			FilteredCount:    len(filtered),
			AnalyzedCount:    len(results),
			Clustered:        req.Cluster,
			StaleUsed:        staleUsed,
		},
	}, nil
}

func (r *ExploreRequest) applyDefaults() {
	r.Seed = strings.TrimSpace(r.Seed)
	if r.MaxKeywords <= 0 {
		r.MaxKeywords = DefaultMaxKeywords
	}
	if r.MaxKeywords > MaxKeywords {
		r.MaxKeywords = MaxKeywords
	}
	if r.MaxVideos <= 0 {
		r.MaxVideos = DefaultMaxVideos
	}
	if r.MaxVideos > MaxVideos {
		r.MaxVideos = MaxVideos
	}
}

func filterIdeas(ideas []model.KeywordIdea, req ExploreRequest) []model.KeywordIdea {
	kept := make([]model.KeywordIdea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.Volume < req.MinVolume {
			continue
		}
		if req.HideNoise && keywords.IsLowSignalVariant(idea.Keyword, req.Seed) {
			continue
		}
		if !keywords.MatchesIncludeExclude(idea.Keyword, req.IncludeTerms, req.ExcludeTerms) {
			continue
		}
		kept = append(kept, idea)
	}
	return kept
}

// dedupeIdeas collapses ideas that normalize identically, keeping the
// highest-volume one and the first-seen position.
func dedupeIdeas(ideas []model.KeywordIdea) []model.KeywordIdea {
	index := make(map[string]int, len(ideas))
	deduped := make([]model.KeywordIdea, 0, len(ideas))
	for _, idea := range ideas {
		key := keywords.Normalize(idea.Keyword)
		if at, ok := index[key]; ok {
			if idea.Volume > deduped[at].Volume {
				deduped[at] = idea
			}
			continue
		}
		index[key] = len(deduped)
		deduped = append(deduped, idea)
	}
	return deduped
}

func volumeRange(ideas []model.KeywordIdea) (float64, float64) {
	if len(ideas) == 0 {
		return 0, 0
	}
	minVol, maxVol := ideas[0].Volume, ideas[0].Volume
	for _, idea := range ideas[1:] {
		if idea.Volume < minVol {
			minVol = idea.Volume
		}
		if idea.Volume > maxVol {
			maxVol = idea.Volume
		}
	}
	return minVol, maxVol
}

// buildAnalysisEntries picks which keywords to score. With clustering
// on, each cluster contributes its highest-volume member carrying up to
// twelve siblings as related keywords; otherwise every filtered idea
// stands alone. Either way the list is volume-sorted and capped.
func buildAnalysisEntries(filtered []model.KeywordIdea, cluster bool, maxKeywords int) []analysisEntry {
	var entries []analysisEntry

	if cluster {
		byKey := make(map[string]model.KeywordIdea, len(filtered))
		for _, idea := range filtered {
			byKey[keywords.Normalize(idea.Keyword)] = idea
		}
		for _, group := range keywords.Cluster(filtered) {
			members := make([]model.KeywordIdea, 0, len(group.Keywords))
			for _, kw := range group.Keywords {
				if idea, ok := byKey[keywords.Normalize(kw)]; ok {
					members = append(members, idea)
				}
			}
			if len(members) == 0 {
				continue
			}
			sort.SliceStable(members, func(i, j int) bool {
				return members[i].Volume > members[j].Volume
			})

			related := make([]string, 0, relatedKeywordCap)
			for _, member := range members {
				if len(related) == relatedKeywordCap {
					break
				}
				related = append(related, member.Keyword)
			}

			entries = append(entries, analysisEntry{
				idea:            members[0],
				relatedKeywords: related,
				clusterID:       group.ID,
				clusterLabel:    group.Label,
				clusterSize:     len(group.Keywords),
			})
		}
	} else {
		for _, idea := range filtered {
			entries = append(entries, analysisEntry{
				idea:            idea,
				relatedKeywords: []string{idea.Keyword},
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].idea.Volume > entries[j].idea.Volume
	})
	if len(entries) > maxKeywords {
		entries = entries[:maxKeywords]
	}
	return entries
}
