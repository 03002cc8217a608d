// Package http provides the HTTP servers, routing and shared middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/wardenauth/warden/internal/auth/http"
	authUseCase "github.com/wardenauth/warden/internal/auth/usecase"
	authzHTTP "github.com/wardenauth/warden/internal/authz/http"
	authzService "github.com/wardenauth/warden/internal/authz/service"
	"github.com/wardenauth/warden/internal/config"
	"github.com/wardenauth/warden/internal/metrics"
	principalHTTP "github.com/wardenauth/warden/internal/principal/http"
)

const dbPingTimeout = 2 * time.Second

// adminPermission guards every administrative endpoint. It is an ordinary
// permission string, granted through roles like any other.
const adminPermission = "warden:admin"

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is built separately with
// SetupRouter, so tests can mount a minimal one.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig carries the handlers and services the router mounts.
type RouterConfig struct {
	Config             *config.Config
	MeterProvider      *metrics.Provider
	AuthHandler        *authHTTP.AuthHandler
	PrincipalHandler   *principalHTTP.PrincipalHandler
	RoleHandler        *authzHTTP.RoleHandler
	PolicyHandler      *authzHTTP.PolicyHandler
	DecisionLogHandler *authzHTTP.DecisionLogHandler
	AuthUseCase        authUseCase.AuthUseCase
	RbacEvaluator      authzService.RbacEvaluator
}

// SetupRouter builds the full route tree:
//
//   - /health and /ready, unauthenticated
//   - /v1/auth sign-in, refresh and revoke, unauthenticated, rate limited
//     per client IP
//   - /v1/auth/me and /v1/authorize, authenticated, rate limited per
//     principal
//   - /v1/admin/*, authenticated and additionally guarded by the
//     warden:admin permission
func (s *Server) SetupRouter(rc *RouterConfig) {
	cfg := rc.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	router.Use(createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger))

	if cfg.MetricsEnabled && rc.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(rc.MeterProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Credential endpoints: the refresh token or password is the
	// credential, so no authentication middleware, only per-IP limiting.
	public := v1.Group("/auth")
	if cfg.RateLimitSignInEnabled {
		public.Use(authHTTP.SignInRateLimitMiddleware(
			cfg.RateLimitSignInRequestsPerSec, cfg.RateLimitSignInBurst, s.logger))
	}
	public.POST("/sign-in", rc.AuthHandler.SignInHandler)
	public.POST("/refresh", rc.AuthHandler.RefreshHandler)
	public.POST("/revoke", rc.AuthHandler.RevokeHandler)

	authenticated := v1.Group("")
	authenticated.Use(authHTTP.AuthenticationMiddleware(rc.AuthUseCase, s.logger))
	if cfg.RateLimitEnabled {
		authenticated.Use(authHTTP.RateLimitMiddleware(
			cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	authenticated.GET("/auth/me", rc.AuthHandler.MeHandler)
	authenticated.POST("/authorize", rc.AuthHandler.AuthorizeHandler)

	admin := authenticated.Group("/admin")
	admin.Use(authHTTP.RequirePermission(adminPermission, rc.RbacEvaluator, s.logger))

	admin.POST("/principals", rc.PrincipalHandler.CreateHandler)
	admin.GET("/principals", rc.PrincipalHandler.GetByEmailHandler)
	admin.GET("/principals/:id", rc.PrincipalHandler.GetHandler)
	admin.PUT("/principals/:id/enabled", rc.PrincipalHandler.SetEnabledHandler)
	admin.POST("/principals/:id/unlock", rc.PrincipalHandler.UnlockHandler)

	admin.POST("/roles", rc.RoleHandler.CreateHandler)
	admin.GET("/roles", rc.RoleHandler.ListHandler)
	admin.GET("/roles/:id", rc.RoleHandler.GetHandler)
	admin.POST("/role-assignments", rc.RoleHandler.AssignHandler)
	admin.POST("/role-assignments/:id/end", rc.RoleHandler.EndAssignmentHandler)

	admin.POST("/policies", rc.PolicyHandler.CreateHandler)
	admin.GET("/policies", rc.PolicyHandler.ListHandler)
	admin.GET("/policies/:key", rc.PolicyHandler.GetHandler)
	admin.POST("/policies/:key/versions", rc.PolicyHandler.CreateVersionHandler)
	admin.GET("/policies/:key/versions", rc.PolicyHandler.ListVersionsHandler)
	admin.POST("/policies/:key/versions/:version/activate", rc.PolicyHandler.ActivateVersionHandler)

	admin.GET("/decision-logs", rc.DecisionLogHandler.ListHandler)
	admin.POST("/decision-logs/verify", rc.DecisionLogHandler.VerifyHandler)

	s.router = router
}

// GetHandler returns the router as an http.Handler. Nil until SetupRouter
// has been called. Used by integration tests to mount the full route tree
// on a test server.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness to serve traffic, including a
// database ping.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dbPingTimeout)
	defer cancel()

	if s.db == nil {
		components["database"] = "error"
	} else if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("readiness check: database ping failed", slog.Any("error", err))
		components["database"] = "error"
	}

	if components["database"] != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server with the previously built router.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
