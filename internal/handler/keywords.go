package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/internal/middleware"
	"github.com/enzo-prism/yt-keywords/internal/provider/keywordtool"
	"github.com/enzo-prism/yt-keywords/internal/service"
)

type KeywordHandler struct {
	svc *service.Explorer
}

func NewKeywordHandler(svc *service.Explorer) *KeywordHandler {
	return &KeywordHandler{svc: svc}
}

type keywordRequest struct {
	Seed           string `json:"seed"`
	Limit          int    `json:"limit"`
	Country        string `json:"country"`
	Language       string `json:"language"`
	SuggestionMode string `json:"suggestionMode"`
}

// GetIdeas handles POST /api/keywords
func (h *KeywordHandler) GetIdeas(c fiber.Ctx) error {
	var req keywordRequest
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

	ideas, err := h.svc.GetIdeas(c.Context(), keywordtool.IdeaQuery{
		Seed:     seed,
		Limit:    middleware.ClampRange(req.Limit, 1, keywordtool.MaxLimit, keywordtool.DefaultLimit),
		Country:  req.Country,
		Language: req.Language,
		Mode:     mode,
	})
	if err != nil {
		return providerErrorResponse(c, err)
	}

	return c.JSON(ideas)
}
