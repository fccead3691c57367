package routes

import (
	"context"
	"net/http"
	"time"

	"academy/api/handler"
	"academy/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// HealthChecker reports whether backing stores are reachable.
type HealthChecker func(ctx context.Context) error

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	AuthMiddleware middleware.AuthMiddleware
	Flood          *middleware.FloodGuard
	Health         HealthChecker
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware middleware.AuthMiddleware, flood *middleware.FloodGuard) *Router {
	if flood == nil {
		flood = middleware.NewFloodGuard(rate.Limit(10), 20, 10*time.Minute)
	}
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
		Flood:          flood,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	auth := e.Group("/auth", r.Flood.Middleware())
	auth.POST("/register", r.Auth.Register)
	auth.POST("/verify-email", r.Auth.VerifyEmail)
	auth.PUT("/verify-email", r.Auth.ResendVerification)
	auth.POST("/forgot-password", r.Auth.PasswordForgot)
	auth.PUT("/forgot-password", r.Auth.PasswordReset)
	auth.POST("/resend-reset-code", r.Auth.PasswordResendCode)
	auth.POST("/login", r.Auth.Login)
	auth.POST("/logout", r.Auth.Logout)
	auth.GET("/google/login", r.Auth.GoogleLogin)
	auth.GET("/google/callback", r.Auth.GoogleCallback)

	e.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)
	e.GET("/healthz", r.healthz)
}

func (r *Router) healthz(c echo.Context) error {
	if r.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := r.Health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
