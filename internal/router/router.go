package router

import (
	"net/http"
	"strings"

	"github.com/anonto42/page-comments/backend/internal/autoreply"
	"github.com/anonto42/page-comments/backend/internal/graph"
	"github.com/anonto42/page-comments/backend/internal/handlers"
	"github.com/anonto42/page-comments/backend/internal/middleware"
	"github.com/anonto42/page-comments/backend/internal/realtime"
	"github.com/anonto42/page-comments/backend/internal/repositories"
	"github.com/anonto42/page-comments/backend/pkg/config"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// Dependencies are the services the routes are wired to
type Dependencies struct {
	Config     *config.Config
	Logger     logging.Logger
	Comments   repositories.CommentRepository
	Templates  repositories.TemplateRepository
	Graph      *graph.Router
	OAuth      handlers.OAuthService
	Dispatcher *autoreply.Dispatcher
	Syncer     *autoreply.Syncer
	Hub        *realtime.Hub
	// Firebase is optional; nil disables ID token login
	Firebase middleware.IDTokenVerifier
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg := deps.Config
	logger := deps.Logger

	// Health check and realtime feed - always accessible
	health := handlers.NewHealthHandler(deps.Graph.Live(), deps.Hub.ClientCount)
	e.GET("/health", health.HealthCheck)
	e.GET("/ws", echo.WrapHandler(http.HandlerFunc(deps.Hub.ServeWS)))

	api := e.Group("/api")

	// --- Unprotected routes: login flow and platform push ---
	authHandler := handlers.NewAuthHandler(deps.OAuth, cfg.SessionSecret, cfg.SessionTTL)
	authHandler.RegisterAuthRoutes(api.Group("/auth"))

	webhookHandler := handlers.NewWebhookHandler(cfg.Facebook.VerifyToken, cfg.Facebook.AppSecret, deps.Syncer, logger)
	webhookHandler.RegisterWebhookRoutes(api.Group("/webhook"))
	logger.Info("Auth and webhook routes configured")

	// --- Operator routes ---
	operatorAuth := middleware.OperatorAuth(middleware.AuthConfig{
		Required:      cfg.AuthRequired,
		SessionSecret: cfg.SessionSecret,
		Firebase:      deps.Firebase,
		Logger:        logger,
	})

	comments := api.Group("/comments", operatorAuth)
	templateHandler := handlers.NewTemplateHandler(deps.Templates)
	templateHandler.RegisterTemplateRoutes(comments.Group("/auto-replies/templates"))

	commentHandler := handlers.NewCommentHandler(deps.Comments, deps.Dispatcher)
	commentHandler.RegisterCommentRoutes(comments)

	facebookHandler := handlers.NewFacebookHandler(deps.Graph, deps.Dispatcher, deps.Syncer)
	facebookHandler.RegisterFacebookRoutes(api.Group("/facebook", operatorAuth))
	logger.WithField("auth_required", cfg.AuthRequired).Info("Comment, template and facebook routes configured")

	if cfg.PublicDir != "" {
		e.Use(eMiddleware.StaticWithConfig(eMiddleware.StaticConfig{
			Root:  cfg.PublicDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return strings.HasPrefix(path, "/api") || path == "/ws" || path == "/health"
			},
		}))
		logger.WithField("dir", cfg.PublicDir).Info("Serving dashboard static files")
	}
}
