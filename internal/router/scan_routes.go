package router

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/scamshield/scamshield/internal/config"
	"github.com/scamshield/scamshield/internal/handler"
	"github.com/scamshield/scamshield/internal/middleware"
)

// alertCacheVariant partitions the alert-feed cache per user: the feed a
// caller sees depends on their subscription tier, so entries must never be
// shared across users. The user_id context value is whatever numeric type
// the JWT claim decoded to, hence fmt.Sprint.
func alertCacheVariant(c echo.Context) string {
	if uid := c.Get("user_id"); uid != nil {
		return fmt.Sprint(uid)
	}
	return "anon"
}

// RegisterScan registers scan submission and the read endpoints derived
// from scan history. Submission carries the token-bucket rate limiter in
// front of the quota gate so bursts are smoothed before they reach the
// database.
func RegisterScan(e *echo.Echo, h *handler.ScanHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("USER", "ADMIN"))

	g.POST("/scans", h.Submit, middleware.NewTokenBucket(rlCfg, rdb))
	g.GET("/scans", h.List)
	g.GET("/quota", h.QuotaStatus)
	g.GET("/stats", h.Stats)
}

// RegisterAlerts registers the broadcast alert feed. Reads are cached in
// Redis per user; writes are restricted to administrators.
func RegisterAlerts(e *echo.Echo, h *handler.AlertHandler, jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	g.GET("/alerts", h.List,
		middleware.RequireRole("USER", "ADMIN"),
		middleware.NewRedisCache(cacheCfg, rdb, alertCacheVariant))
	g.POST("/alerts", h.Create, middleware.RequireRole("ADMIN"))
}

// RegisterProfile registers tier management: self-service tier read plus
// the admin-only write used by the billing integration.
func RegisterProfile(e *echo.Echo, h *handler.ProfileHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	g.GET("/tier", h.MyTier, middleware.RequireRole("USER", "ADMIN"))
	g.PUT("/users/:id/tier", h.SetTier, middleware.RequireRole("ADMIN"))
}

// RegisterSOS registers the emergency escalation endpoint.
func RegisterSOS(e *echo.Echo, h *handler.SOSHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("USER", "ADMIN"))

	g.POST("/sos", h.Trigger)
}
