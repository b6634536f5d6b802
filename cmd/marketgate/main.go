package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketgate/internal/api"
	"marketgate/internal/config"
	"marketgate/internal/license"
	"marketgate/internal/logger"
	"marketgate/internal/market"
	"marketgate/internal/models"
	"marketgate/internal/observability"
	"marketgate/internal/ratelimit"
	"marketgate/internal/upstream"
	"marketgate/internal/usage"
	"marketgate/internal/version"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *showVersion {
		fmt.Println(ver.String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize the upstream provider client
	client := upstream.NewClient(cfg.Upstream)
	if !client.Configured() {
		slog.Warn("Upstream API key not configured, provider calls will be rejected upstream")
	}

	// Wrap the provider with instrumentation if metrics are enabled
	var provider upstream.Provider = client
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedProvider(client)
		if err != nil {
			slog.Error("Failed to create instrumented provider", "error", err)
			os.Exit(1)
		}
		provider = instrumented
	}

	// Initialize the market service
	marketService := market.NewService(provider)

	// Initialize usage accounting if enabled
	var usageStore usage.Store
	if cfg.Usage.Enabled {
		usageStore, err = usage.New(cfg.Usage)
		if err != nil {
			slog.Error("Failed to initialize usage store", "error", err)
			os.Exit(1)
		}
		defer usageStore.Close()
	}

	// Initialize HTTP handlers
	handlers := api.NewHandlers(marketService, usageStore, client.Configured())

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	// Protection chain: license validation, then rate limiting, then
	// usage accounting, applied to every data route.
	protection := []mux.MiddlewareFunc{
		license.Middleware(license.NewValidator(cfg.Security.LicenseKeys)),
	}

	if cfg.Security.RateLimit.Enabled {
		limiter, err := initializeLimiter(cfg.Security.RateLimit)
		if err != nil {
			slog.Error("Failed to initialize rate limiter", "error", err)
			os.Exit(1)
		}
		defer limiter.Close()
		protection = append(protection, ratelimit.Middleware(limiter))
	}

	if usageStore != nil {
		protection = append(protection, usage.Middleware(usageStore))
	}

	routeOpts = append(routeOpts, api.WithProtection(protection...))

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr, "version", ver.Version)

		var err error
		if cfg.Server.TLSEnabled {
			if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
				slog.Error("TLS is enabled but cert file or key file is not specified")
				os.Exit(1)
			}
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown metrics server
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// initializeLimiter creates a rate limiter backed by the configured store.
func initializeLimiter(cfg models.RateLimitConfig) (ratelimit.Limiter, error) {
	switch cfg.Store {
	case models.RateLimitStoreMemory:
		return ratelimit.NewMemoryLimiter(cfg.Requests, cfg.Window, cfg.SweepInterval), nil
	case models.RateLimitStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return ratelimit.NewRedisLimiter(client, cfg.Requests, cfg.Window)
	default:
		return nil, fmt.Errorf("unsupported rate limit store: %s", cfg.Store)
	}
}
