package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	RedisURL    string
	LogLevel    string
	Environment string
	CORSOrigins string

	YouTubeAPIKey     string
	KeywordToolAPIKey string

	// QuotaSalt feeds the per-caller quota-user hash so the provider
	// keys cannot be correlated across deployments.
	QuotaSalt string

	// Daily limits for usage reporting. Nil means no limit configured,
	// which is distinct from a limit that has been exhausted.
	YouTubeDailyQuota     *int
	KeywordToolDailyLimit *int

	TrendsEnabled bool
}

func Load() *Config {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		YouTubeAPIKey:     getEnv("YOUTUBE_API_KEY", ""),
		KeywordToolAPIKey: getEnv("KEYWORDTOOL_API_KEY", ""),
		QuotaSalt:         getEnv("QUOTA_SALT", "yt-keywords"),

		YouTubeDailyQuota:     getEnvInt("YOUTUBE_DAILY_QUOTA"),
		KeywordToolDailyLimit: getEnvInt("KEYWORDTOOL_DAILY_LIMIT"),

		TrendsEnabled: os.Getenv("KEYWORDTOOL_TRENDS_ENABLED") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses a positive integer env var. Missing, malformed, or
// non-positive values all report as "not configured".
func getEnvInt(key string) *int {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
