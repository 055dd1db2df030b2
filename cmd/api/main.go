package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"docforge/docs"
	"docforge/internal/access"
	"docforge/internal/config"
	"docforge/internal/database"
	"docforge/internal/database/migration"
	handlers "docforge/internal/http/handler"
	"docforge/internal/http/middleware"
	"docforge/internal/logger"
	"docforge/internal/otel"
	"docforge/internal/postprocess"
	"docforge/internal/render"
	"docforge/internal/repository/postgres"
	"docforge/internal/service"
	"docforge/internal/storage"
)

// @title DocForge API
// @version 1.0
// @BasePath /
func main() {
	ctx := context.Background()
	loc := time.Local

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	zl, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	// Initialize OpenTelemetry tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		zl.Fatal("failed to initialize tracing", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zl.Warn("tracing shutdown", "error", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		zl.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		zl.Fatal("failed to run migrations", "error", err)
	}

	// Object storage backend: local filesystem or MinIO, per STORAGE_KIND
	objStore, err := storage.New(cfg.Storage, zl)
	if err != nil {
		zl.Fatal("failed to initialize object storage", "error", err)
	}

	// Rendering and post-processing pipeline
	engines := render.NewEngines(render.NewChromeRenderer(time.Duration(cfg.Render.TimeoutSec) * time.Second))
	chain := postprocess.NewChain(postprocess.NewPDFEncrypter(cfg.Crypto), zl)
	acl := access.NewEngine()

	// Repositories and services
	tmplRepo := postgres.NewTemplatePostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	logRepo := postgres.NewAccessLogPostgres(db)

	tmplSvc := service.NewTemplateService(objStore, tmplRepo, zl)
	docSvc := service.NewDocumentService(objStore, tmplRepo, docRepo, logRepo, engines, chain, acl, zl)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Prometheus metrics with a dedicated registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		zl.Fatal("failed to register metrics", "error", err)
	}

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, tmplSvc, docSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		zl.Fatal("failed to start server", "error", err)
	}
}
