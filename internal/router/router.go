// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openems/bed-allocation/internal/config"
	"github.com/openems/bed-allocation/internal/handler"
	"github.com/openems/bed-allocation/internal/middleware"
)

// RegisterRoutes registers endpoints that carry no middleware.  At the
// moment that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAmbulance registers the dispatch endpoint.  It is rate
// limited but never cached: every call mutates reservation state.
func RegisterAmbulance(e *echo.Echo, a *handler.AmbulanceHandler, rdb *redis.Client, rl config.RateLimitConfig) {
	g := e.Group("/v1/ambulance")
	g.Use(middleware.RateLimit(rdb, rl))
	g.POST("/find-nearest", a.FindNearest)
}

// RegisterHospitals registers the public directory endpoints with
// response caching.  These are read-only and safe to serve stale for
// the cache TTL.
func RegisterHospitals(e *echo.Echo, h *handler.HospitalHandler, rdb *redis.Client, cache config.CacheConfig) {
	cached := middleware.ResponseCache(rdb, cache)
	e.GET("/v1/hospitals", h.List, cached)
	e.GET("/v1/hospitals/nearby", h.Nearby, cached)
	e.GET("/v1/hospitals/:id", h.GetByID, cached)
	e.GET("/v1/search/hospitals", h.Search, cached)
}

// RegisterSOS registers emergency report intake and triage.  Intake
// is rate limited; triage reads and updates are not.
func RegisterSOS(e *echo.Echo, s *handler.SOSHandler, rdb *redis.Client, rl config.RateLimitConfig) {
	g := e.Group("/v1/sos")
	g.POST("/report", s.Report, middleware.RateLimit(rdb, rl))
	g.GET("/reports", s.List)
	g.GET("/reports/pending", s.ListPending)
	g.PUT("/reports/:id/status", s.UpdateStatus)
}
