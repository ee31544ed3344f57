// Package api wires together all HTTP routes for the checklist backend.
//
// Route grouping philosophy:
//   - Submission routes (link validation, link resolution, direct checklist
//     creation) are intentionally unauthenticated. Field technicians open a
//     shared single-use URL on site and submit the inspection form without
//     holding credentials.
//   - Everything that reads or mutates existing data requires a bearer token.
//     User management and the aggregate stats endpoint additionally require
//     the admin role.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/config"
	"github.com/checklist-rve/checklist-rve/internal/jobs"
	"github.com/checklist-rve/checklist-rve/internal/kv"
	"github.com/checklist-rve/checklist-rve/internal/middleware"
	"github.com/checklist-rve/checklist-rve/internal/repositories"
	"github.com/checklist-rve/checklist-rve/internal/safego"
)

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	linkSweeper  *jobs.LinkSweeper
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.linkSweeper != nil {
		bg.linkSweeper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, store kv.Store) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(store, cfg.Auth.BcryptCost)
	checklistRepo := repositories.NewChecklistRepository(store)
	linkRepo := repositories.NewLinkRepository(store, checklistRepo, cfg.Links.TTL)
	typeRepo := repositories.NewTypeRepository(store)

	// Start the expired-link sweeper unless disabled
	var linkSweeper *jobs.LinkSweeper
	if cfg.Jobs.LinkSweepInterval > 0 {
		linkSweeper = jobs.NewLinkSweeper(linkRepo, cfg.Jobs.LinkSweepInterval)
		safego.GoNamed("link-sweeper", func() {
			linkSweeper.Start(context.Background())
		})
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(store))

	// API version
	router.GET("/version", versionHandler())

	// Initialize handlers
	authHandlers := NewAuthHandlers(cfg, userRepo)
	checklistHandlers := NewChecklistHandlers(checklistRepo)
	linkHandlers := NewLinkHandlers(cfg, linkRepo)
	typeHandlers := NewTypeHandlers(typeRepo)
	userHandlers := NewUserHandlers(userRepo)
	statsHandlers := NewStatsHandlers(userRepo, checklistRepo, linkRepo)

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.APIRateLimitConfig(cfg))

	apiV1 := router.Group("/api/v1")
	{
		// Credential endpoints (no auth required, strictly rate limited)
		authGroup := apiV1.Group("")
		if cfg.Security.RateLimitEnabled {
			authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		}
		{
			authGroup.POST("/auth/login", authHandlers.LoginHandler())
			authGroup.POST("/auth/register", authHandlers.RegisterHandler())
			authGroup.POST("/init-admin", authHandlers.InitAdminHandler())
		}

		// Submission endpoints (no auth required, rate limited)
		publicGroup := apiV1.Group("")
		if cfg.Security.RateLimitEnabled {
			publicGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		}
		{
			publicGroup.GET("/links/:token", linkHandlers.ValidateHandler())
			publicGroup.POST("/links/:token", linkHandlers.ResolveHandler())
			publicGroup.POST("/checklists", checklistHandlers.CreateHandler())
		}

		// Authenticated-only endpoints
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(userRepo))
		if cfg.Security.RateLimitEnabled {
			authenticatedGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		}
		{
			authenticatedGroup.GET("/checklists", checklistHandlers.ListHandler())
			authenticatedGroup.PUT("/checklists/:id", checklistHandlers.UpdateHandler())
			authenticatedGroup.DELETE("/checklists/:id", checklistHandlers.DeleteHandler())

			authenticatedGroup.PUT("/links", linkHandlers.IssueHandler())
			authenticatedGroup.GET("/links", linkHandlers.ListActiveHandler())

			authenticatedGroup.GET("/checklist-types", typeHandlers.ListHandler())
			authenticatedGroup.POST("/checklist-types", typeHandlers.CreateHandler())
			authenticatedGroup.PUT("/checklist-types/:id", typeHandlers.UpdateHandler())

			// Admin-only surface
			adminGroup := authenticatedGroup.Group("")
			adminGroup.Use(middleware.RequireAdmin())
			{
				adminGroup.GET("/users", userHandlers.ListHandler())
				adminGroup.POST("/users", userHandlers.CreateHandler())
				adminGroup.PUT("/users/:email", userHandlers.UpdateHandler())
				adminGroup.DELETE("/users/:email", userHandlers.DeleteHandler())

				adminGroup.GET("/admin/stats/dashboard", statsHandlers.DashboardHandler())
			}
		}
	}

	bg := &BackgroundServices{
		linkSweeper:  linkSweeper,
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter},
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(store kv.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check key-value store connection
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "store connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging through the global
// slog handler configured in telemetry.SetupLogger.
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID := c.GetString(middleware.RequestIDKey)

		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", requestID),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
