package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-booking/internal/config"
	"github.com/iliyamo/event-seat-booking/internal/handler"
	"github.com/iliyamo/event-seat-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring systems to verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, the protected /v1/me
// endpoint requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	// Token issuing endpoints are rate limited to slow down credential
	// stuffing; the limiter fails open when Redis is unavailable.
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ORGANIZER", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterEvents wires the public browse surface and the ORGANIZER-only
// provisioning endpoint.  Browse responses are cached in Redis with a
// short TTL; the seat map is display-only so staleness of a few
// seconds is acceptable (the reserve endpoint never reads the cache).
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/events", h.ListEvents, cache)
	e.GET("/v1/events/:id", h.GetEvent, cache)
	e.GET("/v1/events/:id/seats", h.SeatMap, cache)

	org := e.Group("/v1")
	org.Use(middleware.JWTAuth(jwtSecret))
	org.Use(middleware.RequireRole("ORGANIZER"))
	org.POST("/events", h.CreateEvent)
}

// RegisterReservations wires the reservation coordinator and booking
// history behind JWT authentication.  The reserve endpoint carries its
// own rate limit bucket.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ORGANIZER", "CUSTOMER"))
	g.POST("/events/:id/reserve", h.Reserve, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.GET("/my-bookings", h.MyBookings)
}
