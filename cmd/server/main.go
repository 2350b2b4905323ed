package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/adapter/cache"
	"github.com/seu-repo/voicebridge/internal/adapter/eventbus"
	"github.com/seu-repo/voicebridge/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/voicebridge/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/voicebridge/internal/adapter/intent"
	"github.com/seu-repo/voicebridge/internal/adapter/queue"
	wsAdapter "github.com/seu-repo/voicebridge/internal/adapter/websocket"
	"github.com/seu-repo/voicebridge/internal/observability/telemetry"
	"github.com/seu-repo/voicebridge/internal/ports"
	"github.com/seu-repo/voicebridge/internal/service/action"
	"github.com/seu-repo/voicebridge/internal/service/executor"
	"github.com/seu-repo/voicebridge/internal/service/health"
	"github.com/seu-repo/voicebridge/internal/service/resolver"
	"github.com/seu-repo/voicebridge/internal/service/scheduler"
	"github.com/seu-repo/voicebridge/internal/service/uistate"
	"github.com/seu-repo/voicebridge/pkg/config"
)

const (
	serviceName    = "voicebridge"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting VoiceBridge",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, serviceVersion, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Initialize Confirmation Store (Redis, or in-process fallback)
	var store ports.Cache
	if cfg.Redis.URL != "" {
		store, err = cache.NewRedisStore(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	} else {
		logger.Info("No Redis URL configured, using in-process confirmation store")
		store = cache.NewLocalStore(time.Minute, logger)
	}
	defer store.Close()

	// 5. Initialize Message Queue (NATS, optional event mirror)
	var messageQueue queue.MessageQueue
	if cfg.NATS.URL != "" {
		messageQueue, err = queue.NewNATSQueue(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer messageQueue.Close()
	}

	// 6. Core Pipeline
	registry := uistate.NewRegistry(logger)
	bus := eventbus.New(logger)
	res := resolver.New(cfg.UI.TabAliases, logger)
	validator := action.NewValidator(cfg.UI.Routes, logger)

	intentClient := intent.NewClient(intent.Config{
		BaseURL: cfg.Intent.BaseURL,
		APIKey:  cfg.Intent.APIKey,
		Timeout: cfg.Intent.Timeout,
	}, logger)

	exec := executor.New(registry, nil, bus, res, executor.Config{
		VerifyPollInterval: cfg.Executor.VerifyPollInterval,
		VerifyTimeout:      cfg.Executor.VerifyTimeout,
	}, logger)

	userID := cfg.Intent.UserID
	if userID == "" {
		userID = "host"
	}
	sched := scheduler.New(userID, registry, intentClient, exec, validator, store, bus, scheduler.Config{
		SyncInterval:    cfg.Scheduler.SyncInterval,
		Debounce:        cfg.Scheduler.Debounce,
		RequestTimeout:  cfg.Scheduler.RequestTimeout,
		ConfirmationTTL: cfg.Scheduler.ConfirmationTTL,
	}, logger)

	// Every snapshot push queues a debounced sync.
	registry.OnChange(sched.NotifyStateChanged)

	schedCtx, stopScheduler := context.WithCancel(context.Background())
	go sched.Run(schedCtx)

	// 7. WebSocket Hub (actions and toasts back to the host)
	wsHub := wsAdapter.NewHub()
	go wsHub.Run()
	unbridge := wsAdapter.BridgeBus(wsHub, bus, logger)
	defer unbridge()

	if messageQueue != nil {
		unmirror := queue.MirrorEvents(bus, messageQueue, logger)
		defer unmirror()
	}

	// 8. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))
	app.Use(middleware.CircuitBreaker())

	// Health Check Endpoints
	healthService := health.NewService(&health.Config{
		Version:       serviceVersion,
		Store:         store,
		NatsURL:       cfg.NATS.URL,
		IntentBaseURL: cfg.Intent.BaseURL,
	}, logger)
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		path := cfg.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, func(c *fiber.Ctx) error {
			handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
			handler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")
	protected := v1.Group("", middleware.AuthRequired(cfg.JWT.Secret))

	// UI state routes
	uiHandler := handlers.NewUIStateHandler(registry, sched, logger)
	protected.Post("/ui/state", uiHandler.Push)
	protected.Get("/ui/state", uiHandler.Current)
	protected.Post("/ui/events/route-change", uiHandler.RouteChange)
	protected.Post("/ui/events/visibility", uiHandler.Visibility)

	// Voice routes
	voiceHandler := handlers.NewVoiceHandler(sched, logger)
	protected.Post("/voice/transcript", voiceHandler.SubmitTranscript)
	protected.Post("/voice/confirm", voiceHandler.Confirm)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) {
		userID := c.Query("userId", "host")
		wsHub.AddClient(c, userID)
	}))

	// 9. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
