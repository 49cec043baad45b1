package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deedapi/internal/config"
	"deedapi/internal/database"
	"deedapi/internal/database/migration"
	handlers "deedapi/internal/http/handler"
	"deedapi/internal/http/middleware"
	"deedapi/internal/mail"
	"deedapi/internal/metrics"
	"deedapi/internal/otel"
	"deedapi/internal/repository/postgres"
	"deedapi/internal/service"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC

	// Initialize OpenTelemetry tracing (degrades to noop on exporter failure)
	shutdownTracing, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run idempotent schema migrations
	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize the Mailgun notification transport
	mailer, err := mail.NewMailgun(cfg.Mailgun)
	if err != nil {
		log.Fatalf("failed to initialize mailer: %v", err)
	}

	// Prometheus registry with process/go collectors plus domain counters
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	signingMetrics, err := metrics.NewSigningMetrics(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	// Initialize repositories and services
	deedRepo := postgres.NewDeedPostgres(db)
	signerRepo := postgres.NewSignerPostgres(db)
	tokenRepo := postgres.NewTokenPostgres(db)
	coopRepo := postgres.NewCooperativePostgres(db)
	auditRepo := postgres.NewAuditLogPostgres(db)

	tokenTTL := time.Duration(cfg.Token.TTLDays) * 24 * time.Hour
	tokenSvc := service.NewTokenService(tokenRepo, signerRepo, deedRepo, auditRepo, signingMetrics, tokenTTL)
	deedSvc := service.NewDeedService(deedRepo, signerRepo, coopRepo, auditRepo, tokenSvc, mailer, signingMetrics, cfg.BaseURL)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, deedSvc, tokenSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
