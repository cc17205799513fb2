package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/pkg/hash"
)

// buildQuotaUser derives an opaque per-caller key for provider-side
// fairness accounting. An explicit user id header wins; otherwise the
// caller's IP and user agent stand in. The salt keeps the hash from
// being linkable across deployments.
func buildQuotaUser(c fiber.Ctx, salt string) string {
	explicitID := c.Get("X-User-ID")

	base := "uid:" + explicitID
	if explicitID == "" {
		ip := strings.TrimSpace(strings.Split(c.Get("X-Forwarded-For"), ",")[0])
		if ip == "" {
			ip = c.IP()
		}
		base = "ip:" + ip + "|ua:" + c.Get("User-Agent")
	}

	return hash.SHA256Hex(base + "|" + salt)[:32]
}
