// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/middleware"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/router/handler"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/policy"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	SessionHandler      *handler.SessionHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	Metrics             *metrics.AuthMetrics `optional:"true"`
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler         *handler.AuthHandler
	sessionHandler      *handler.SessionHandler
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	metrics             *metrics.AuthMetrics
	config              *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:         params.AuthHandler,
		sessionHandler:      params.SessionHandler,
		authMiddleware:      params.AuthMiddleware,
		rateLimitMiddleware: params.RateLimitMiddleware,
		metrics:             params.Metrics,
		config:              params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	if r.metrics != nil && r.config.Metrics != nil && r.config.Metrics.Enabled {
		e.GET(r.config.Metrics.Path, echo.WrapHandler(r.metrics.Handler()))
	}

	// Login and logout work from the raw carrier and skip the gate
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/login", r.authHandler.Login, r.rateLimitMiddleware.Handle)
		authGroup.POST("/logout", r.authHandler.Logout)
	}

	api := e.Group("/api")
	api.Use(r.authMiddleware.Authenticate)
	api.Use(r.authMiddleware.RequireAuth)

	apiAuth := api.Group("/auth")
	{
		apiAuth.GET("/me", r.authHandler.Me)
		apiAuth.POST("/logout-all", r.authHandler.LogoutEverywhere)
	}

	sessionsGroup := api.Group("/sessions")
	sessionsGroup.Use(r.authMiddleware.RequireCapability(policy.SessionSelf))
	{
		sessionsGroup.GET("", r.sessionHandler.ListSessions)
		sessionsGroup.GET("/stats", r.sessionHandler.GetSessionStatistics)
		sessionsGroup.DELETE("", r.sessionHandler.RevokeOtherSessions)
		sessionsGroup.DELETE("/:id", r.sessionHandler.RevokeSession)
	}

	adminGroup := api.Group("/admin")
	adminGroup.Use(r.authMiddleware.RequireCapability(policy.SessionAdministration))
	{
		adminGroup.POST("/principals/:id/sessions/revoke", r.sessionHandler.RevokePrincipalSessions)
	}
}
