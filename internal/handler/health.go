package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	rdb                   *redis.Client
	youtubeConfigured     bool
	keywordtoolConfigured bool
	startAt               time.Time
}

func NewHealthHandler(rdb *redis.Client, youtubeConfigured, keywordtoolConfigured bool) *HealthHandler {
	return &HealthHandler{
		rdb:                   rdb,
		youtubeConfigured:     youtubeConfigured,
		keywordtoolConfigured: keywordtoolConfigured,
		startAt:               time.Now(),
	}
}

// Live handles GET /health/live — liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready — readiness probe with dependency checks.
// Redis is optional so its absence degrades rather than fails readiness.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{
		"redis": checkRedis(ctx, h.rdb),
	}

	overallStatus := "healthy"
	if redisCheck, ok := checks["redis"].(fiber.Map); ok {
		if redisCheck["status"] == "down" {
			overallStatus = "degraded"
		}
	}

	resp := fiber.Map{
		"status":                overallStatus,
		"checks":                checks,
		"youtubeConfigured":     h.youtubeConfigured,
		"keywordtoolConfigured": h.keywordtoolConfigured,
		"uptime_seconds":        int(time.Since(h.startAt).Seconds()),
		"version":               "1.0.0",
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
