// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-planner/internal/handler"
	"github.com/iliyamo/travel-planner/internal/middleware"
	"github.com/iliyamo/travel-planner/internal/model"
)

// Guards are the middleware shared by the route groups. Cache and Limiter
// may be pass-through instances when Redis is unavailable.
type Guards struct {
	Auth    middleware.Authenticator
	Cache   *middleware.ResponseCache
	Limiter *middleware.RateLimiter
}

func (g Guards) protect() echo.MiddlewareFunc { return middleware.Protect(g.Auth) }

func (g Guards) only(roles ...model.Role) echo.MiddlewareFunc {
	return middleware.RequireRole(g.Auth, roles...)
}

// RegisterHealth exposes the liveness probe.
func RegisterHealth(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth exposes signup and login (rate limited) and the password
// change, which only user-role accounts may call.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, g Guards) {
	auth := e.Group("/auth")
	auth.POST("/signup", h.SignUp, g.Limiter.Middleware())
	auth.POST("/login", h.Login, g.Limiter.Middleware())
	auth.PUT("/updatePassword", h.UpdatePassword, g.protect(), g.only(model.RoleUser))
}

// RegisterTrips exposes public reads and admin-only writes.
func RegisterTrips(e *echo.Echo, h *handler.TripHandler, g Guards) {
	trips := e.Group("/trips")
	trips.GET("", h.List, g.Cache.Middleware())
	trips.GET("/search", h.Search, g.Cache.Middleware())
	trips.GET("/:id", h.Get)

	admin := []echo.MiddlewareFunc{g.protect(), g.only(model.RoleAdmin)}
	trips.POST("", h.Create, admin...)
	trips.PUT("/:id", h.Update, admin...)
	trips.DELETE("/:id", h.Delete, admin...)
}

// RegisterUsers exposes the caller's own profile to any signed-in account
// and the user directory to admins. The avatar route exists only when
// uploads are enabled.
func RegisterUsers(e *echo.Echo, h *handler.AccountHandler, g Guards, avatars bool) {
	users := e.Group("/users", g.protect())
	users.GET("/me", h.Me)
	users.PATCH("/me", h.UpdateMe)
	if avatars {
		users.POST("/me/avatar", h.Avatar)
	}

	admin := g.only(model.RoleAdmin)
	users.GET("", h.List, admin)
	users.POST("", h.Create, admin)
	users.GET("/:id", h.Get, admin)
	users.PUT("/:id", h.Update, admin)
	users.DELETE("/:id", h.Delete, admin)
}
