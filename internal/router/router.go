// Package router wires HTTP routes onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/scamshield/scamshield/internal/handler"
	"github.com/scamshield/scamshield/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me rides on the protected group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token, /refresh-access only mints a new
	// access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout takes a refresh token in the body, or a bearer token to end
	// all sessions, so it does not sit behind the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("USER", "ADMIN"))
	auth.GET("/me", a.Me)
}
