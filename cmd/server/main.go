package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scamshield/scamshield/internal/analyzer"
	"github.com/scamshield/scamshield/internal/config"
	"github.com/scamshield/scamshield/internal/database"
	"github.com/scamshield/scamshield/internal/handler"
	"github.com/scamshield/scamshield/internal/location"
	"github.com/scamshield/scamshield/internal/queue"
	"github.com/scamshield/scamshield/internal/repository"
	"github.com/scamshield/scamshield/internal/router"
	"github.com/scamshield/scamshield/internal/service"
)

func main() {
	// .env is optional; real deployments inject variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	// Redis is optional: a nil client degrades the rate limiter and the
	// response cache to pass-throughs.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewProfileRepo(db)
	quota := repository.NewQuotaRepo(db)
	scans := repository.NewScanRepo(db)
	alerts := repository.NewAlertRepo(db)

	engine := analyzer.NewClient(cfg.AnalyzerURL, cfg.AnalyzerTimeout)

	var locator location.Provider
	if cfg.LocationURL != "" {
		locator = location.NewHTTPProvider(cfg.LocationURL, cfg.LocationTimeout)
	}

	admission := service.NewAdmission(profiles, quota, engine, scans, cfg.ScanDailyLimit, cfg.QuotaTZ)
	escalation := service.NewEscalation(users, scans, locator, queue.PublishSOSAlert, cfg.SOSDetailMax)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	scanH := handler.NewScanHandler(admission, scans, quota, profiles)
	alertH := handler.NewAlertHandler(alerts, profiles)
	profileH := handler.NewProfileHandler(profiles)
	sosH := handler.NewSOSHandler(escalation)

	// Background relay that drains the SOS queue into the notification log.
	// It reconnects on its own; a fatal return only happens on shutdown.
	go func() {
		if err := queue.StartSOSConsumer(); err != nil {
			log.Error().Err(err).Msg("sos consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterScan(e, scanH, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterAlerts(e, alertH, cfg.JWTSecret, config.LoadCacheConfig(), rdb)
	router.RegisterProfile(e, profileH, cfg.JWTSecret)
	router.RegisterSOS(e, sosH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
