package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/credilift/callback-service/internal/adapters/memstore"
	"github.com/credilift/callback-service/internal/adapters/notify"
	"github.com/credilift/callback-service/internal/adapters/ports"
	"github.com/credilift/callback-service/internal/adapters/redisstore"
	"github.com/credilift/callback-service/internal/config"
	callbackHandler "github.com/credilift/callback-service/internal/handlers/callback"
	internalmw "github.com/credilift/callback-service/internal/middleware"
	"github.com/credilift/callback-service/internal/services/notification"
	"github.com/credilift/callback-service/internal/services/reconcile"
	"github.com/credilift/callback-service/internal/services/recovery"
	"github.com/credilift/callback-service/pkg/middleware"
	"github.com/credilift/callback-service/pkg/observability"
	"github.com/credilift/callback-service/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting callback reconciliation service",
		zap.Int("port", cfg.Server.Port),
	)

	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	health := observability.NewHealthChecker()

	// Client state store: Redis when configured, in-process otherwise.
	var store ports.StateStore
	if cfg.Redis.Addr != "" {
		redisStore := redisstore.NewFromOptions(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		store = redisStore
		health.Register("redis", redisStore)
		shutdownMgr.RegisterCloser("redis", redisStore)
		logger.Info("Using Redis client state store", zap.String("addr", cfg.Redis.Addr))
	} else {
		memStore := memstore.New()
		store = memStore
		health.Register("state_store", memStore)
		logger.Warn("REDIS_ADDR not set, using in-process state store")
	}

	// Notification collaborator.
	var notifier ports.ReceiptNotifier
	if cfg.Notification.URL != "" {
		notifier = notify.NewReceiptClient(cfg.Notification.URL, cfg.Notification.Secret, cfg.Notification.Timeout, logger)
		logger.Info("Notification collaborator configured", zap.String("url", cfg.Notification.URL))
	} else {
		notifier = notify.NewNopNotifier(logger)
		logger.Warn("NOTIFY_URL not set, receipts will be dropped")
	}

	// Reconciliation pipeline shared by all three entry points.
	inflight := shutdown.NewInFlightTracker("notification_dispatch", logger)
	dispatcher := notification.NewDispatcher(notifier, inflight, logger, cfg.Notification.Timeout)
	classifier := reconcile.NewClassifier(cfg.Classifier.Rules)
	router := reconcile.NewRouter(cfg.Routes)
	pipeline := reconcile.NewPipeline(classifier, router, dispatcher, logger)

	listener := recovery.NewListener(pipeline, store, logger, cfg.Recovery.StateTTL)

	webhookH := callbackHandler.NewWebhookHandler(pipeline, logger)
	redirectH := callbackHandler.NewRedirectHandler(pipeline, logger)
	recoveryH := callbackHandler.NewRecoveryHandler(listener, logger)

	// HTTP surface.
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	securityHeaders := internalmw.NewSecurityHeaders(cfg.Logger.Development)

	r := chi.NewRouter()
	r.Use(internalmw.RequestLogger(logger))
	r.Use(securityHeaders.Middleware)

	r.Route("/api/v1/callbacks", func(r chi.Router) {
		// The webhook arrives server-to-server; the other two are
		// browser-facing and rate limited per IP.
		r.Post("/webhook", webhookH.HandleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.Middleware)
			r.Get("/redirect", redirectH.HandleRedirect)
			r.Post("/recover", recoveryH.HandleScan)
			r.Post("/remember", recoveryH.HandleRemember)
		})
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), health, logger)
	logger.Info("Metrics server started", zap.Int("port", cfg.Server.MetricsPort))

	// LIFO: the HTTP server stops taking callbacks first, then pending
	// notification dispatches drain, then everything else closes.
	shutdownMgr.Register("metrics_server", func(context.Context) error {
		return observability.ShutdownMetricsServer(metricsServer)
	})
	shutdownMgr.Register("rate_limiter", func(context.Context) error {
		rateLimiter.Shutdown()
		return nil
	})
	shutdownMgr.Register("notification_dispatches", inflight.Shutdown)
	shutdownMgr.Register("http_server", server.Shutdown)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	shutdownMgr.WaitForShutdown()
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	if cfg.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	zapCfg := zap.NewProductionConfig()
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, _ := zapCfg.Build()
	return logger
}
