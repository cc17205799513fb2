package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

const (
	minSeedLen = 2
	maxSeedLen = 120
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateSeed checks that a seed keyword is present and within length
// limits. Returns the trimmed seed and an error message ("" when valid).
func ValidateSeed(seed string) (string, string) {
	seed = strings.TrimSpace(seed)
	if len(seed) < minSeedLen {
		return "", "seed must be at least 2 characters"
	}
	if len(seed) > maxSeedLen {
		return "", "seed must be at most 120 characters"
	}
	return seed, ""
}

// ClampRange bounds value to [min, max], substituting fallback when the
// value is unset (zero).
func ClampRange(value, min, max, fallback int) int {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
