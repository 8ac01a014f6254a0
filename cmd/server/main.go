package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/teamnewpipe/np-web-api/configs"
	"github.com/teamnewpipe/np-web-api/internal/application/services"
	"github.com/teamnewpipe/np-web-api/internal/core/domain/apidata"
	"github.com/teamnewpipe/np-web-api/internal/core/ports"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/health"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/httpserver"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/memstore"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/metrics"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/redis"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/reporting"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/repositories"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/sources"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting np-web-api...")

	// Crash reporting is optional
	var reporter ports.ErrorReporter = reporting.NopReporter{}
	if cfg.Sentry.DSN != "" {
		sentryReporter, err := reporting.NewSentryReporter(cfg.Sentry.DSN, cfg.Server.Environment)
		if err != nil {
			logger.Fatal("Failed to initialize Sentry:", err)
		}
		defer sentryReporter.Flush(2 * time.Second)
		reporter = sentryReporter
		logger.Info("Sentry error reporting enabled")
	}

	// Upstream data source
	client := sources.NewClient(&sources.ClientConfig{
		Timeout:           cfg.Upstream.Timeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
		UserAgent:         cfg.Upstream.UserAgent,
	}, logger)
	aggregator := sources.NewAggregator(client, &sources.Config{
		GitHubAPIURL:    cfg.Upstream.GitHubAPIURL,
		GitHubWebURL:    cfg.Upstream.GitHubWebURL,
		GitHubRepo:      cfg.Upstream.GitHubRepo,
		GitHubToken:     cfg.Upstream.GitHubToken,
		TranslationsURL: cfg.Upstream.TranslationsURL,
		Package:         cfg.Upstream.Package,
		NewPipeRepoURL:  cfg.Upstream.NewPipeRepoURL,
		FDroidRepoURL:   cfg.Upstream.FDroidRepoURL,
		MetadataURL:     cfg.Upstream.MetadataURL,
	}, reporter, logger)

	refreshMetrics, err := metrics.NewRefreshMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to register refresh metrics:", err)
	}

	gate, err := services.NewRefreshGate[apidata.Data](aggregator, memstore.NewSlotStore[apidata.Data](), &services.RefreshGateConfig{
		NormalTimeout: cfg.Cache.NormalTimeout,
		ErrorTimeout:  cfg.Cache.ErrorTimeout,
		Observer:      refreshMetrics,
		Reporter:      reporter,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create refresh gate:", err)
	}

	hcSlice := []ports.HealthChecker{health.NewDataHealthChecker(gate)}

	// Per-client rate limiting needs Redis
	var rateLimiterService ports.RateLimiterService
	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")

		rateLimiterConfig := &services.RateLimiterConfig{
			DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
			BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
			Window:                   cfg.RateLimit.Window,
			KeyPrefix:                cfg.RateLimit.KeyPrefix,
		}
		rateLimiterService = services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(redisClient), rateLimiterConfig, logger)
		hcSlice = append(hcSlice, health.NewRedisHealthChecker(redisClient))
	} else {
		logger.Info("REDIS_HOST not set, client rate limiting disabled")
	}

	if cfg.Cache.WarmOnStart {
		go func() {
			res := gate.Get(context.Background())
			logger.WithField("status", res.Status).Info("Initial refresh finished")
		}()
	}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		DataService:        gate,
		RateLimiterService: rateLimiterService,
		HealthCheckers:     hcSlice,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown:", err)
		return
	}

	logger.Info("Server exited")
}
