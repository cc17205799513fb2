package main

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/enzo-prism/yt-keywords/internal/cache"
	"github.com/enzo-prism/yt-keywords/internal/config"
	"github.com/enzo-prism/yt-keywords/internal/gateway"
	"github.com/enzo-prism/yt-keywords/internal/handler"
	"github.com/enzo-prism/yt-keywords/internal/middleware"
	"github.com/enzo-prism/yt-keywords/internal/model"
	"github.com/enzo-prism/yt-keywords/internal/provider/keywordtool"
	"github.com/enzo-prism/yt-keywords/internal/provider/youtube"
	"github.com/enzo-prism/yt-keywords/internal/router"
	"github.com/enzo-prism/yt-keywords/internal/service"
	"github.com/enzo-prism/yt-keywords/internal/usage"
)

const (
	serpCacheSize    = 512
	keywordCacheSize = 512
	usageCacheSize   = 8
	usageTTL         = 48 * time.Hour
)

func main() {
	cfg := config.Load()

	middleware.InitLogger(cfg.LogLevel, "yt-keywords")
	handler.InitMetrics()

	rdb := cache.NewRedisClient(cfg.RedisURL)

	usageStore := cache.NewTiered(cache.NewLRU[model.UsageState](usageCacheSize, usageTTL), rdb)
	ledger := usage.NewLedger(usageStore, usage.Limits{
		YouTubeDailyQuota:     cfg.YouTubeDailyQuota,
		KeywordToolDailyLimit: cfg.KeywordToolDailyLimit,
	})

	yt := youtube.NewService(ledger, cfg.YouTubeAPIKey,
		youtube.NewCaches(serpCacheSize, rdb), gateway.Options{})
	ideas := keywordtool.NewService(ledger, cfg.KeywordToolAPIKey, cfg.TrendsEnabled,
		keywordtool.NewCaches(keywordCacheSize, rdb), gateway.Options{})

	explorer := service.NewExplorer(yt, ideas, ledger)

	app := fiber.New(fiber.Config{
		AppName:      "yt-keywords API",
		ServerHeader: "yt-keywords",
	})

	router.Setup(app, &router.Handlers{
		Keyword:   handler.NewKeywordHandler(explorer),
		Serp:      handler.NewSerpHandler(explorer, cfg.QuotaSalt),
		Score:     handler.NewScoreHandler(explorer, cfg.QuotaSalt),
		Channel:   handler.NewChannelHandler(explorer, cfg.QuotaSalt),
		Usage:     handler.NewUsageHandler(explorer),
		Constants: handler.NewConstantsHandler(cfg.TrendsEnabled),
		Health:    handler.NewHealthHandler(rdb, cfg.YouTubeAPIKey != "", cfg.KeywordToolAPIKey != ""),
	}, cfg.CORSOrigins)

	middleware.Logger.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Msg("yt-keywords backend starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		middleware.Logger.Fatal().Err(err).Msg("server exited")
	}
}
