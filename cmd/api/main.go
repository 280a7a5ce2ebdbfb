package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doclib/docs"
	"doclib/internal/chat"
	"doclib/internal/config"
	"doclib/internal/events"
	handlers "doclib/internal/http/handler"
	"doclib/internal/http/middleware"
	"doclib/internal/logging"
	"doclib/internal/otel"
	"doclib/internal/progress"
	"doclib/internal/service"
)

// @title Document Library API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	logging.SetDefault(logging.New(os.Stdout, loc))
	log := logging.Component("api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	blobs, err := newStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document storage")
	}

	repo, closeRepo, err := newRepository(ctx, cfg, blobs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metadata store")
	}
	defer closeRepo()

	publisher := events.Publisher(events.Noop{})
	if cfg.NATS.URL != "" {
		np, err := events.NewNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Warn().Err(err).Msg("document events disabled")
		} else {
			publisher = np
		}
	}
	defer publisher.Close()

	hub := progress.NewHub()
	defer hub.Close()

	docSvc := service.NewDocumentService(blobs, repo, service.Options{
		Location:  loc,
		Progress:  hub,
		Publisher: publisher,
	})

	if cfg.Documents.SeedStatic {
		seeded, err := docSvc.Seed(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed static documents")
		}
		if seeded {
			log.Info().Str("event", "static_documents_seeded").Msg("")
		}
	}

	deps := handlers.Deps{Health: repo, Docs: docSvc, Progress: hub}
	if client, err := chat.NewClient(cfg.Chat); err == nil {
		deps.Chat = client
	} else if !errors.Is(err, chat.ErrNotConfigured) {
		log.Warn().Err(err).Msg("chat proxy disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "upload_progress_tracked",
			Help: "Upload ids with progress state held in memory.",
		}, func() float64 { return float64(hub.Tracked()) }),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.Documents.MaxUploadMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

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

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, deps)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("event", "http_listening").Str("addr", addr).Msg("")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("failed to start server")
		}
	case <-ctx.Done():
		log.Info().Str("event", "http_shutdown").Msg("")
		// end open progress streams before draining connections
		hub.Close()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
