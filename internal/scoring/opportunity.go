package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/enzo-prism/yt-keywords/internal/keywords"
	"github.com/enzo-prism/yt-keywords/internal/model"
)

// Input carries everything needed to score one keyword against its
// batch. MinVolume/MaxVolume are the demand range observed across the
// batch the keyword was fetched with, so demand scores are comparable
// within a batch.
type Input struct {
	Keyword         string
	Volume          float64
	MonthlyVolumes  []float64
	Videos          []model.Video
	TotalResults    *float64
	MinVolume       float64
	MaxVolume       float64
	RelatedKeywords []string
	ChannelProfile  *model.ChannelProfile
	Now             time.Time
}

const (
	strongMatchFit     = 0.70
	dominanceThreshold = 1_000_000
)

// ScoreKeywordOpportunity combines demand, competition, on-page
// optimization, freshness, and trend momentum into a bounded composite
// score, optionally reweighted against the caller's own channel.
func ScoreKeywordOpportunity(in Input) model.OpportunityResult {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	normalizedKeyword := keywords.Normalize(in.Keyword)
	keywordTokens := keywords.Tokenize(in.Keyword)

	scored := make([]model.ScoredVideo, len(in.Videos))
	for i, video := range in.Videos {
		scored[i] = scoreVideo(video, normalizedKeyword, keywordTokens, now)
	}

	topFive := scored
	if len(topFive) > 5 {
		topFive = topFive[:5]
	}
	topTen := scored
	if len(topTen) > 10 {
		topTen = topTen[:10]
	}

	avgTopFit := average(collect(topFive, func(v model.ScoredVideo) float64 { return v.Fit }))
	weakFitRate := 0.0
	if len(topTen) > 0 {
		weak := 0
		for _, v := range topTen {
			if v.Fit < 0.5 {
				weak++
			}
		}
		weakFitRate = float64(weak) / float64(len(topTen))
	}

	ages := collect(topTen, func(v model.ScoredVideo) float64 { return v.AgeDays })
	medianVideoAgeDays := median(ages)

	// Freshness basis: youngest strong match, else the whole top-10
	// median with the no-strong-match flag raised.
	noStrongMatch := false
	bestGoodFitAgeDays := 0.0
	strongAges := make([]float64, 0, len(topTen))
	for _, v := range topTen {
		if v.Fit >= strongMatchFit {
			strongAges = append(strongAges, v.AgeDays)
		}
	}
	if len(strongAges) > 0 {
		bestGoodFitAgeDays = strongAges[0]
		for _, age := range strongAges[1:] {
			if age < bestGoodFitAgeDays {
				bestGoodFitAgeDays = age
			}
		}
	} else {
		noStrongMatch = true
		bestGoodFitAgeDays = medianVideoAgeDays
	}

	denom := math.Max(1, float64(len(topTen)))
	exactTitleRate := countRate(topTen, func(v model.ScoredVideo) bool { return v.ExactTitleMatch }, denom)
	earlyTitleRate := countRate(topTen, func(v model.ScoredVideo) bool { return v.EarlyTitleMatch }, denom)
	earlyDescRate := countRate(topTen, func(v model.ScoredVideo) bool { return v.EarlyDescMatch }, denom)
	tagRate := countRate(topTen, func(v model.ScoredVideo) bool { return v.ExactTagMatch }, denom)

	avgOverlap := average(collect(topTen, func(v model.ScoredVideo) float64 {
		return keywords.OverlapRatio(keywordTokens, keywords.Tokenize(v.Title+" "+v.Description))
	}))

	optimizationStrengthScore := round(clamp(
		0.35*exactTitleRate+0.15*earlyTitleRate+0.2*earlyDescRate+0.1*tagRate+0.2*avgOverlap,
		0, 1) * 100)

	// View-weighted misalignment: popular results that fit poorly signal
	// an exploitable gap.
	views := collect(topTen, func(v model.ScoredVideo) float64 { return v.ViewCount })
	minViews, maxViews := minMax(views)
	mismatchRaw := 0.0
	for _, v := range topTen {
		mismatchRaw += LogNorm(v.ViewCount, minViews, maxViews) * (1 - v.Fit)
	}
	mismatchHigh := mismatchRaw >= 0.6

	medianChannelSubs := median(collect(topTen, func(v model.ScoredVideo) float64 { return v.ChannelSubscriberCount }))
	medianViewsPerDay := median(collect(topTen, func(v model.ScoredVideo) float64 { return v.ViewsPerDay }))
	dominanceFactor := countRate(topTen, func(v model.ScoredVideo) bool {
		return v.ChannelSubscriberCount >= dominanceThreshold
	}, denom)

	totalResultsScore := 0.5
	if in.TotalResults != nil {
		totalResultsScore = LogNorm(*in.TotalResults, 1_000, 50_000_000)
	}
	subsScore := LogNorm(medianChannelSubs, 1_000, 2_000_000)
	viewsScore := LogNorm(medianViewsPerDay, 100, 100_000)
	competitionHardness := clamp(
		0.35*totalResultsScore+0.35*subsScore+0.2*viewsScore+0.1*dominanceFactor,
		0, 1)
	competitionScore := round((1 - competitionHardness) * 100)

	difficulty := round(clamp(
		0.7*competitionHardness+0.3*(float64(optimizationStrengthScore)/100),
		0, 1) * 100)

	searchVolumeScore := round(LogNorm(in.Volume, in.MinVolume, in.MaxVolume) * 100)

	freshnessRaw := clamp(bestGoodFitAgeDays/365, 0, 2)*0.6 + clamp(medianVideoAgeDays/365, 0, 2)*0.4
	freshnessScore := round(clamp(freshnessRaw/2, 0, 1) * 100)

	trendScore, trendRatio := computeTrendScore(in.MonthlyVolumes)

	optimizationWeaknessScore := 100 - optimizationStrengthScore

	// The trend weight is active only when a trend score exists; the
	// denominator renormalizes to the sum of active weights.
	trendWeight := 0.0
	trendValue := 0.0
	if trendScore != nil {
		trendWeight = 0.05
		trendValue = float64(*trendScore)
	}
	totalWeight := 0.35 + 0.25 + 0.2 + 0.15 + trendWeight

	opportunityScore := round(clamp(
		(0.35*float64(searchVolumeScore)+
			0.25*float64(competitionScore)+
			0.2*float64(optimizationWeaknessScore)+
			0.15*float64(freshnessScore)+
			trendWeight*trendValue)/math.Max(1, totalWeight),
		0, 100))

	serpPower := computeSerpPower(medianChannelSubs, medianViewsPerDay)
	var weightedOpportunityScore *int
	if in.ChannelProfile != nil && serpPower > 0 {
		channelPower := computeChannelPower(in.ChannelProfile)
		rankability := clamp(channelPower/serpPower, 0.5, 1.3)
		weighted := round(clamp(float64(opportunityScore)*rankability, 0, 100))
		weightedOpportunityScore = &weighted
	}

	difficultyLabel := "Hard"
	switch {
	case difficulty < 40:
		difficultyLabel = "Easy"
	case difficulty < 70:
		difficultyLabel = "Medium"
	}

	coverageLabel := "Weak"
	switch {
	case avgTopFit >= 0.75:
		coverageLabel = "Strong"
	case avgTopFit >= 0.55:
		coverageLabel = "Medium"
	}

	freshnessLabel := "Stale"
	switch {
	case bestGoodFitAgeDays < 90:
		freshnessLabel = "Fresh"
	case bestGoodFitAgeDays < 365:
		freshnessLabel = "Aging"
	}

	serpWeakness := buildSerpWeakness(exactTitleRate, earlyDescRate, tagRate,
		bestGoodFitAgeDays, noStrongMatch, mismatchHigh)

	bullets := []string{
		fmt.Sprintf("Search volume ~%d / month", round(in.Volume)),
		fmt.Sprintf("Competition is %s with median channel size %d",
			strings.ToLower(difficultyLabel), round(medianChannelSubs)),
	}
	if noStrongMatch {
		bullets = append(bullets, "No strong matches in the top results")
	} else {
		bullets = append(bullets, fmt.Sprintf("Best strong match is %d days old", round(bestGoodFitAgeDays)))
	}
	if mismatchHigh {
		bullets = append(bullets, "Popular videos only loosely match the keyword intent")
	} else {
		bullets = append(bullets, "Results show mixed alignment with the keyword")
	}

	explanations := model.ScoreExplanations{
		SearchVolume: []string{
			fmt.Sprintf("Monthly volume ~%d.", round(in.Volume)),
			fmt.Sprintf("Relative volume score %d/100.", searchVolumeScore),
		},
		Competition: []string{
			fmt.Sprintf("Median channel subs ~%d.", round(medianChannelSubs)),
			fmt.Sprintf("Dominance: %d%% of results over 1M subs.", round(dominanceFactor*100)),
		},
		Optimization: []string{
			fmt.Sprintf("Exact keyword in titles: %d%%.", round(exactTitleRate*100)),
			fmt.Sprintf("Average relevance score %d%%.", round(avgTopFit*100)),
		},
		Freshness: []string{
			fmt.Sprintf("Best strong match is %d days old.", round(bestGoodFitAgeDays)),
			fmt.Sprintf("Median SERP age %d days.", round(medianVideoAgeDays)),
		},
		SerpWeakness: serpWeakness,
	}
	if trendScore != nil {
		explanations.Trend = []string{
			fmt.Sprintf("Recent momentum %.2fx vs prior 3 months.", trendRatio),
			fmt.Sprintf("Trend score %d/100.", *trendScore),
		}
	}

	related := in.RelatedKeywords
	if related == nil {
		related = []string{}
	}

	return model.OpportunityResult{
		Keyword:        in.Keyword,
		Volume:         in.Volume,
		MonthlyVolumes: in.MonthlyVolumes,
		Scores: model.ScoreBreakdown{
			SearchVolumeScore:         searchVolumeScore,
			CompetitionScore:          competitionScore,
			OptimizationStrengthScore: optimizationStrengthScore,
			FreshnessScore:            freshnessScore,
			TrendScore:                trendScore,
			Difficulty:                difficulty,
			OpportunityScore:          opportunityScore,
			WeightedOpportunityScore:  weightedOpportunityScore,
		},
		Labels: model.ScoreLabels{
			Difficulty: difficultyLabel,
			Coverage:   coverageLabel,
			Freshness:  freshnessLabel,
		},
		AvgTopFit:         avgTopFit,
		WeakFitRate:       weakFitRate,
		BestAnswerAgeDays: bestGoodFitAgeDays,
		NoStrongMatch:     noStrongMatch,
		Bullets:           bullets,
		Explanations:      explanations,
		TopVideos:         scored,
		SerpMetrics: model.SerpMetrics{
			TotalResults:       in.TotalResults,
			MedianChannelSubs:  medianChannelSubs,
			MedianViewsPerDay:  medianViewsPerDay,
			MedianVideoAgeDays: medianVideoAgeDays,
			DominanceFactor:    dominanceFactor,
		},
		RelatedKeywords: related,
	}
}

func scoreVideo(video model.Video, normalizedKeyword string, keywordTokens []string, now time.Time) model.ScoredVideo {
	titleTokens := keywords.Tokenize(video.Title)
	descTokens := keywords.Tokenize(video.Description)
	tagTokens := keywords.Tokenize(strings.Join(video.Tags, " "))
	fit := FitScore(keywordTokens, titleTokens, descTokens, tagTokens)

	ageDays := ageInDays(video.PublishedAt, now)
	viewsPerDay := video.ViewCount
	if ageDays > 0 {
		viewsPerDay = video.ViewCount / ageDays
	}

	normalizedTitle := keywords.Normalize(video.Title)
	normalizedDesc := keywords.Normalize(video.Description)

	tagMatch := false
	for _, tag := range video.Tags {
		if keywords.Normalize(tag) == normalizedKeyword {
			tagMatch = true
			break
		}
	}

	return model.ScoredVideo{
		Video:           video,
		Fit:             fit,
		FitLabel:        FitLabel(fit),
		AgeDays:         ageDays,
		ViewsPerDay:     viewsPerDay,
		ExactTitleMatch: strings.Contains(normalizedTitle, normalizedKeyword),
		EarlyTitleMatch: strings.Contains(truncate(normalizedTitle, 60), normalizedKeyword),
		ExactDescMatch:  strings.Contains(normalizedDesc, normalizedKeyword),
		EarlyDescMatch:  strings.Contains(truncate(normalizedDesc, 200), normalizedKeyword),
		ExactTagMatch:   tagMatch,
	}
}

// computeTrendScore needs at least 6 months of history and a non-zero
// prior window; score = clamp((recentAvg/prevAvg − 0.5)/1.5, 0, 1)·100.
func computeTrendScore(monthlyVolumes []float64) (*int, float64) {
	if len(monthlyVolumes) < 6 {
		return nil, 0
	}

	recent := monthlyVolumes[len(monthlyVolumes)-3:]
	previous := monthlyVolumes[len(monthlyVolumes)-6 : len(monthlyVolumes)-3]
	recentAvg := average(recent)
	prevAvg := average(previous)
	if prevAvg <= 0 {
		return nil, 0
	}

	ratio := recentAvg / prevAvg
	score := round(clamp((ratio-0.5)/1.5, 0, 1) * 100)
	return &score, ratio
}

func computeChannelPower(profile *model.ChannelProfile) float64 {
	subsScore := LogNorm(profile.SubscriberCount, 500, 2_000_000)
	viewsScore := LogNorm(profile.AvgViewsPerDay, 50, 50_000)
	return clamp(0.6*subsScore+0.4*viewsScore, 0, 1)
}

func computeSerpPower(medianSubs, medianViewsPerDay float64) float64 {
	subsScore := LogNorm(medianSubs, 1_000, 2_000_000)
	viewsScore := LogNorm(medianViewsPerDay, 100, 100_000)
	return clamp(0.6*subsScore+0.4*viewsScore, 0, 1)
}

func buildSerpWeakness(exactTitleRate, earlyDescRate, tagRate, bestAnswerAgeDays float64, noStrongMatch, mismatchHigh bool) []string {
	var bullets []string
	if exactTitleRate < 0.4 {
		bullets = append(bullets, "Few top results use the exact keyword in the title.")
	}
	if earlyDescRate < 0.4 {
		bullets = append(bullets, "Descriptions rarely feature the exact keyword early.")
	}
	if tagRate < 0.2 {
		bullets = append(bullets, "Tags are weak or missing for the exact phrase.")
	}
	if noStrongMatch {
		bullets = append(bullets, "No strong matches in the top results.")
	} else if bestAnswerAgeDays > 180 {
		bullets = append(bullets, "Best matching video is aging, leaving room for a new entry.")
	}
	if mismatchHigh {
		bullets = append(bullets, "Popular videos are only loosely aligned with the keyword.")
	}
	return bullets
}

func ageInDays(publishedAt, now time.Time) float64 {
	if publishedAt.IsZero() {
		return 0
	}
	days := math.Floor(now.Sub(publishedAt).Hours() / 24)
	return math.Max(0, days)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round(v float64) int {
	return int(math.Round(v))
}

func collect(videos []model.ScoredVideo, f func(model.ScoredVideo) float64) []float64 {
	values := make([]float64, len(videos))
	for i, v := range videos {
		values[i] = f(v)
	}
	return values
}

func countRate(videos []model.ScoredVideo, pred func(model.ScoredVideo) bool, denom float64) float64 {
	count := 0
	for _, v := range videos {
		if pred(v) {
			count++
		}
	}
	return float64(count) / denom
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
