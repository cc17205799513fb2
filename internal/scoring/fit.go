package scoring

import "github.com/enzo-prism/yt-keywords/internal/keywords"

// FitScore is the weighted token overlap between a keyword and one
// result's title (0.6), description (0.3), and tags (0.1), in [0,1].
func FitScore(keywordTokens, titleTokens, descTokens, tagTokens []string) float64 {
	titleMatch := keywords.OverlapRatio(keywordTokens, titleTokens)
	descMatch := keywords.OverlapRatio(keywordTokens, descTokens)
	tagMatch := keywords.OverlapRatio(keywordTokens, tagTokens)

	return clamp(0.6*titleMatch+0.3*descMatch+0.1*tagMatch, 0, 1)
}

// FitLabel tiers a fit value: Strong >= 0.75, Medium >= 0.55, else Weak.
func FitLabel(fit float64) string {
	switch {
	case fit >= 0.75:
		return "Strong"
	case fit >= 0.55:
		return "Medium"
	}
	return "Weak"
}
