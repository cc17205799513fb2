package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/internal/service"
)

type UsageHandler struct {
	svc *service.Explorer
}

func NewUsageHandler(svc *service.Explorer) *UsageHandler {
	return &UsageHandler{svc: svc}
}

// GetSummary handles GET /api/usage
func (h *UsageHandler) GetSummary(c fiber.Ctx) error {
	return c.JSON(h.svc.UsageSummary(c.Context()))
}
