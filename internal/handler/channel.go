package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/internal/middleware"
	"github.com/enzo-prism/yt-keywords/internal/service"
)

type ChannelHandler struct {
	svc       *service.Explorer
	quotaSalt string
}

func NewChannelHandler(svc *service.Explorer, quotaSalt string) *ChannelHandler {
	return &ChannelHandler{svc: svc, quotaSalt: quotaSalt}
}

// GetProfile handles GET /api/channels?channel=X
// channel accepts a raw UC id, an @handle, or free text to search.
func (h *ChannelHandler) GetProfile(c fiber.Ctx) error {
	channel := strings.TrimSpace(fiber.Query[string](c, "channel"))
	if channel == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_PARAM",
			"channel query parameter is required")
	}

	profile, err := h.svc.GetChannelProfile(c.Context(), channel, buildQuotaUser(c, h.quotaSalt))
	if err != nil {
		return providerErrorResponse(c, err)
	}

	return c.JSON(profile)
}
