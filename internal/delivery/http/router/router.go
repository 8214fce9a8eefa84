// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"saasbase/internal/delivery/http/middleware"
	"saasbase/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	OAuthHandler      *handler.OAuthHandler
	SessionHandler    *handler.SessionHandler
	SessionMiddleware *middleware.SessionMiddleware
	RateLimit         *middleware.RateLimitMiddleware
	Registry          *prometheus.Registry
}

// router holds all the handlers that need to be registered.
type router struct {
	oauthHandler      *handler.OAuthHandler
	sessionHandler    *handler.SessionHandler
	sessionMiddleware *middleware.SessionMiddleware
	rateLimit         *middleware.RateLimitMiddleware
	registry          *prometheus.Registry
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		oauthHandler:      params.OAuthHandler,
		sessionHandler:    params.SessionHandler,
		sessionMiddleware: params.SessionMiddleware,
		rateLimit:         params.RateLimit,
		registry:          params.Registry,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Operational endpoints
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	{
		// Login flow; Apple's callback arrives as a cross-site form POST,
		// every other provider uses the GET redirect.
		api.GET("/login/:provider", r.oauthHandler.Begin, r.rateLimit.Limit)
		api.GET("/login/:provider/callback", r.oauthHandler.Callback)
		api.POST("/login/:provider/callback", r.oauthHandler.Callback)

		// Logout is deliberately outside the session guard: revoking a dead
		// session should still clear the cookie.
		api.POST("/logout", r.sessionHandler.Logout)
	}

	authed := api.Group("", r.sessionMiddleware.RequireSession)
	{
		authed.GET("/user/me", r.sessionHandler.Me)
		authed.POST("/logout/all", r.sessionHandler.LogoutAll)
	}
}
