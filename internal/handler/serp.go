package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/internal/middleware"
	"github.com/enzo-prism/yt-keywords/internal/service"
)

type SerpHandler struct {
	svc       *service.Explorer
	quotaSalt string
}

func NewSerpHandler(svc *service.Explorer, quotaSalt string) *SerpHandler {
	return &SerpHandler{svc: svc, quotaSalt: quotaSalt}
}

type serpRequest struct {
	Keyword   string `json:"keyword"`
	MaxVideos int    `json:"maxVideos"`
}

// GetSerp handles POST /api/youtube
func (h *SerpHandler) GetSerp(c fiber.Ctx) error {
	var req serpRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	keyword, errMsg := middleware.ValidateSeed(req.Keyword)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	maxVideos := middleware.ClampRange(req.MaxVideos, 1, service.MaxVideos, service.DefaultMaxVideos)

	serp, stale, err := h.svc.GetSerp(c.Context(), keyword, maxVideos, buildQuotaUser(c, h.quotaSalt))
	if err != nil {
		return providerErrorResponse(c, err)
	}

	if stale {
		c.Set("X-Cache-Status", "STALE_FALLBACK")
	}
	return c.JSON(serp)
}
