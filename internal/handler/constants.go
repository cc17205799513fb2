package handler

import (
	"github.com/gofiber/fiber/v3"
)

type optionItem struct {
	Code  string `json:"code,omitempty"`
	Value string `json:"value,omitempty"`
	Label string `json:"label"`
}

var countries = []optionItem{
	{Code: "US", Label: "United States"},
	{Code: "CA", Label: "Canada"},
	{Code: "GB", Label: "United Kingdom"},
	{Code: "AU", Label: "Australia"},
	{Code: "DE", Label: "Germany"},
	{Code: "FR", Label: "France"},
	{Code: "ES", Label: "Spain"},
	{Code: "IT", Label: "Italy"},
	{Code: "BR", Label: "Brazil"},
	{Code: "IN", Label: "India"},
	{Code: "JP", Label: "Japan"},
}

var languages = []optionItem{
	{Code: "en", Label: "English"},
	{Code: "es", Label: "Spanish"},
	{Code: "fr", Label: "French"},
	{Code: "de", Label: "German"},
	{Code: "pt", Label: "Portuguese"},
	{Code: "it", Label: "Italian"},
	{Code: "hi", Label: "Hindi"},
	{Code: "ja", Label: "Japanese"},
}

var suggestionModes = []optionItem{
	{Value: "suggestions", Label: "Autocomplete suggestions"},
	{Value: "questions", Label: "Questions"},
	{Value: "prepositions", Label: "Prepositions"},
	{Value: "trends", Label: "Google Trends suggestions"},
}

// scoringConstants mirrors the weights and thresholds the scoring
// engine applies, so clients can annotate breakdowns without
// hardcoding them.
var scoringConstants = fiber.Map{
	"opportunityWeights": fiber.Map{
		"searchVolume":    0.35,
		"competition":     0.25,
		"optimizationGap": 0.20,
		"freshness":       0.15,
		"trend":           0.05,
	},
	"thresholds": fiber.Map{
		"strongMatchFit":   0.70,
		"coverageStrong":   0.75,
		"coverageMedium":   0.55,
		"difficultyEasy":   40,
		"difficultyMedium": 70,
	},
}

type ConstantsHandler struct {
	trendsEnabled bool
}

func NewConstantsHandler(trendsEnabled bool) *ConstantsHandler {
	return &ConstantsHandler{trendsEnabled: trendsEnabled}
}

// Get handles GET /api/constants — the option lists and scoring
// constants clients render.
func (h *ConstantsHandler) Get(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"countries":       countries,
		"languages":       languages,
		"suggestionModes": suggestionModes,
		"scoring":         scoringConstants,
		"trendsEnabled":   h.trendsEnabled,
	})
}
