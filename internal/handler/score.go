package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/internal/middleware"
	"github.com/enzo-prism/yt-keywords/internal/provider/keywordtool"
	"github.com/enzo-prism/yt-keywords/internal/service"
)

type ScoreHandler struct {
	svc       *service.Explorer
	quotaSalt string
}

func NewScoreHandler(svc *service.Explorer, quotaSalt string) *ScoreHandler {
	return &ScoreHandler{svc: svc, quotaSalt: quotaSalt}
}

type scoreRequest struct {
	Seed             string `json:"seed"`
	MaxKeywords      int    `json:"maxKeywords"`
	VideosPerKeyword int    `json:"videosPerKeyword"`
	Country          string `json:"country"`
	Language         string `json:"language"`
	SuggestionMode   string `json:"suggestionMode"`
	MinVolume        int    `json:"minVolume"`
	Include          string `json:"include"`
	Exclude          string `json:"exclude"`
	HideNoise        *bool  `json:"hideNoise"`
	Cluster          *bool  `json:"cluster"`
	Channel          string `json:"channel"`
	ShowWeighted     bool   `json:"showWeighted"`
}

// Explore handles POST /api/score
func (h *ScoreHandler) Explore(c fiber.Ctx) error {
	var req scoreRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	seed, errMsg := middleware.ValidateSeed(req.Seed)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	mode := keywordtool.SuggestionMode(req.SuggestionMode)
	if req.SuggestionMode != "" && !keywordtool.ValidMode(mode) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD",
			"suggestionMode must be one of: suggestions, questions, prepositions, trends")
	}
	if req.MinVolume < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD",
			"minVolume must be non-negative")
	}

	// Noise hiding and clustering default on; explicit false disables.
	hideNoise := req.HideNoise == nil || *req.HideNoise
	cluster := req.Cluster == nil || *req.Cluster

	resp, err := h.svc.Explore(c.Context(), service.ExploreRequest{
		Seed:         seed,
		MaxKeywords:  middleware.ClampRange(req.MaxKeywords, 1, service.MaxKeywords, service.DefaultMaxKeywords),
		MaxVideos:    middleware.ClampRange(req.VideosPerKeyword, 1, service.MaxVideos, service.DefaultMaxVideos),
		Country:      req.Country,
		Language:     req.Language,
		Mode:         mode,
		MinVolume:    float64(req.MinVolume),
		IncludeTerms: splitTerms(req.Include),
		ExcludeTerms: splitTerms(req.Exclude),
		HideNoise:    hideNoise,
		Cluster:      cluster,
		Channel:      strings.TrimSpace(req.Channel),
		ShowWeighted: req.ShowWeighted,
		QuotaUser:    buildQuotaUser(c, h.quotaSalt),
	})
	if err != nil {
		return providerErrorResponse(c, err)
	}

	if Metrics.ExploreRuns != nil {
		Metrics.ExploreRuns.Inc()
	}
	return c.JSON(resp)
}

func splitTerms(value string) []string {
	if value == "" {
		return nil
	}
	var terms []string
	for _, term := range strings.Split(value, ",") {
		if cleaned := strings.TrimSpace(term); cleaned != "" {
			terms = append(terms, cleaned)
		}
	}
	return terms
}
