package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfwatch/shelfwatch/internal/monitor"
	"github.com/shelfwatch/shelfwatch/internal/monitor/alerting"
	httpDelivery "github.com/shelfwatch/shelfwatch/internal/monitor/delivery/http"
	"github.com/shelfwatch/shelfwatch/internal/monitor/detector"
	"github.com/shelfwatch/shelfwatch/internal/monitor/notify"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/kafka"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
	"github.com/shelfwatch/shelfwatch/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "monitor-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting monitor service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the inventory store
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	st, err := store.NewRedisStore(ctx, redisAddr)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("addr", redisAddr).Msg("Failed to connect to store")
	}
	defer st.Close()

	logger.Logger.Info().Str("addr", redisAddr).Msg("Store initialized successfully")

	// Kafka event publisher (optional)
	var bus monitor.EventBus
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		publisher, err := kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("brokers", brokers).Msg("Failed to connect to Kafka")
		}
		defer publisher.Close()
		bus = publisher

		logger.Logger.Info().Str("brokers", brokers).Msg("Kafka publisher initialized")
	} else {
		logger.Logger.Warn().Msg("KAFKA_BROKERS not set, event publishing disabled")
	}

	// Notification channel (optional)
	var channel notify.Channel
	if webhookURL := getEnv("WEBHOOK_URL", ""); webhookURL != "" {
		webhook, err := notify.NewWebhookChannel(webhookURL)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Invalid webhook URL")
		}
		channel = webhook

		logger.Logger.Info().Msg("Webhook notification channel initialized")
	} else {
		logger.Logger.Warn().Msg("WEBHOOK_URL not set, notifications disabled")
	}

	// Detection engine
	clock := detector.SystemClock()
	sched := detector.SystemScheduler()
	generator := alerting.NewGenerator(clock, sched, st, channel)
	engine := monitor.NewEngine(st, generator, bus, clock, sched)
	defer engine.Close()

	go func() {
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Logger.Fatal().Err(err).Msg("Detection engine stopped")
		}
	}()

	handler := httpDelivery.NewMonitorHandler(st, engine, clock)

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8084")
	srv := startHTTPServer(handler, httpPort)

	// Wait for interrupt signal
	<-ctx.Done()

	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to shut down HTTP server")
	}
}

func startHTTPServer(handler *httpDelivery.MonitorHandler, port string) *http.Server {
	// Setup router
	router := mux.NewRouter()

	// Get middleware configuration
	middlewareConfig := httpDelivery.DefaultMiddlewareConfig()

	// Register all middlewares using middleware registration system
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := httpDelivery.SetupCORS(middlewareConfig)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: c(router),
	}

	go func() {
		logger.Logger.Info().
			Str("port", port).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	return srv
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
