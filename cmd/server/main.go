package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/page-comments/backend/internal/autoreply"
	"github.com/anonto42/page-comments/backend/internal/graph"
	"github.com/anonto42/page-comments/backend/internal/metrics"
	"github.com/anonto42/page-comments/backend/internal/middleware"
	"github.com/anonto42/page-comments/backend/internal/realtime"
	"github.com/anonto42/page-comments/backend/internal/repositories"
	"github.com/anonto42/page-comments/backend/internal/router"
	"github.com/anonto42/page-comments/backend/internal/validators"
	"github.com/anonto42/page-comments/backend/pkg/config"
	"github.com/anonto42/page-comments/backend/pkg/firebase"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections; without connection strings the stores stay in memory
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB()

	comments, templates := initStores(ctx, cfg, db, logger)

	if cfg.SeedDemoData {
		if err := repositories.SeedDemoData(ctx, comments, templates, time.Now()); err != nil {
			logger.WithError(err).Fatal("Failed to seed demo data")
		}
		logger.Info("Demo data seeded")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Graph API
	graphOpts := graph.Options{
		BaseURL:     cfg.Facebook.BaseURL,
		APIVersion:  cfg.Facebook.APIVersion,
		AccessToken: cfg.Facebook.AccessToken,
		Timeout:     cfg.Facebook.Timeout,
		MaxRetries:  cfg.Facebook.MaxRetries,
		Logger:      logger,
	}
	var live graph.Client
	if cfg.Facebook.AccessToken != "" {
		live = graph.NewHTTPClient(graphOpts)
	} else {
		logger.Warn("FACEBOOK_ACCESS_TOKEN not set; running in demo mode")
	}
	client := graph.NewRouter(live, graph.NewStubClient(), cfg.Facebook.DemoFallback, logger)

	oauthOpts := graphOpts
	oauthOpts.AccessToken = ""
	oauth := graph.NewOAuth(graph.OAuthOptions{
		AppID:     cfg.Facebook.AppID,
		AppSecret: cfg.Facebook.AppSecret,
		Graph:     oauthOpts,
	})

	// Realtime fan-out
	hub := realtime.NewHub(logger)
	go hub.Run(ctx)
	publishers := realtime.Fanout{hub}
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := realtime.NewAMQPPublisher(cfg.RabbitMQURL, realtime.DefaultExchange)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to RabbitMQ")
		}
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
		logger.Info("Publishing comment events to RabbitMQ")
	}

	dispatcher := autoreply.NewDispatcher(comments, templates, client, publishers, logger).WithMetrics(m)
	syncer := autoreply.NewSyncer(client, comments, dispatcher, publishers, logger).WithMetrics(m)

	if cfg.PollInterval > 0 && cfg.Facebook.PageID != "" {
		go autoreply.NewPoller(syncer, cfg.Facebook.PageID, cfg.PollInterval, logger).Run(ctx)
	}

	// Initialize Firebase when operator ID tokens are accepted
	var verifier middleware.IDTokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Firebase")
		}
		verifier = firebaseApp.AuthClient
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e, cfg, logger)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Comments:   comments,
		Templates:  templates,
		Graph:      client,
		OAuth:      oauth,
		Dispatcher: dispatcher,
		Syncer:     syncer,
		Hub:        hub,
		Firebase:   verifier,
	})

	var metricsServer *http.Server
	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Start server
	go func() {
		logger.WithField("port", cfg.Port).Info("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
}

// initStores picks Postgres for templates and Mongo for comments when they
// are configured, and in-memory stores otherwise
func initStores(ctx context.Context, cfg *config.Config, db *config.DB, logger logging.Logger) (repositories.CommentRepository, repositories.TemplateRepository) {
	var templates repositories.TemplateRepository = repositories.NewMemoryTemplateRepository()
	if db.Postgres != nil {
		pg := repositories.NewPostgresTemplateRepository(db.Postgres)
		if err := pg.Migrate(); err != nil {
			logger.WithError(err).Fatal("Failed to migrate templates table")
		}
		templates = pg
		logger.Info("Templates stored in PostgreSQL")
	}

	var comments repositories.CommentRepository = repositories.NewMemoryCommentRepository()
	if db.Mongo != nil {
		mongoRepo := repositories.NewMongoCommentRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to create comment indexes")
		}
		comments = mongoRepo
		logger.Info("Comments stored in MongoDB")
	}
	return comments, templates
}
