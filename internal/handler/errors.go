package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/internal/gateway"
	"github.com/enzo-prism/yt-keywords/internal/middleware"
	"github.com/enzo-prism/yt-keywords/internal/provider/keywordtool"
	"github.com/enzo-prism/yt-keywords/internal/usage"
)

// providerErrorResponse maps an upstream failure to the client-facing
// envelope. Rate and quota rejections surface as 429 so callers can
// back off; everything else is a generic 500 that never leaks the raw
// provider message.
func providerErrorResponse(c fiber.Ctx, err error) error {
	if errors.Is(err, keywordtool.ErrTrendsDisabled) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "TRENDS_DISABLED",
			"Google Trends suggestions are disabled")
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		if gateway.IsRateLimited(apiErr) {
			return middleware.ErrorResponse(c, fiber.StatusTooManyRequests, "RATE_LIMITED",
				"API rate limit exceeded ("+providerLabel(apiErr.Provider)+")")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "UPSTREAM_ERROR",
			providerLabel(apiErr.Provider)+" API request failed")
	}

	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR",
		"Request failed")
}

func providerLabel(provider string) string {
	switch provider {
	case usage.ProviderYouTube:
		return "YouTube"
	case usage.ProviderKeywordTool:
		return "KeywordTool"
	}
	return "upstream"
}
