// Command apiserver serves the MolFrag HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appFrag "github.com/turtacn/MolFrag/internal/application/fragmentation"
	"github.com/turtacn/MolFrag/internal/config"
	"github.com/turtacn/MolFrag/internal/infrastructure/database/redis"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/MolFrag/internal/interfaces/http"
	"github.com/turtacn/MolFrag/internal/interfaces/http/handlers"
	"github.com/turtacn/MolFrag/internal/interfaces/http/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting MolFrag API server",
		logging.String("version", config.Version),
		logging.String("addr", cfg.Server.Addr()),
	)

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.AppMetrics
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            cfg.Metrics.Subsystem,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	svcOpts := []appFrag.Option{appFrag.WithMetrics(metrics)}
	var checkers []handlers.HealthChecker
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer client.Close()

		cache := redis.NewRedisCache(client, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
			redis.WithTTLJitter(0.1),
		)
		svcOpts = append(svcOpts, appFrag.WithCache(cache, cfg.Redis.DefaultTTL))
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "redis", Fn: client.Ping})
	}

	svc := appFrag.NewService(cfg.Fragmentation, logger, svcOpts...)
	if configPath != "" {
		watchDefaults(configPath, svc, logger)
	}

	rateCfg := middleware.DefaultRateLimitConfig()
	rateCfg.RequestsPerSecond = cfg.Server.RateLimitRPS
	rateCfg.BurstSize = cfg.Server.RateLimitBurst
	rateLimiter := middleware.NewRateLimitMiddleware(rateCfg)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.Server.CORSAllowedOrigins
	corsCfg.AllowWildcard = true

	router := httpserver.NewRouter(httpserver.RouterConfig{
		FragmentationHandler: handlers.NewFragmentationHandler(svc, logger, cfg.Server.RequestTimeout, cfg.Server.MaxBodySize),
		HealthHandler:        handlers.NewHealthHandler(config.Version, metrics, checkers...),
		CORSMiddleware:       middleware.NewCORSMiddleware(corsCfg),
		LoggingMiddleware:    middleware.NewLoggingMiddleware(logger, metrics, middleware.DefaultLoggingConfig()),
		RateLimitMiddleware:  rateLimiter,
		Logger:               logger,
		MetricsCollector:     collector,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger, rateLimiter)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown error", logging.Err(err))
		return err
	}
	logger.Info("MolFrag API server stopped")
	return nil
}

// watchDefaults hot-reloads the fragmentation defaults when the config file
// changes.  Other sections need a restart.
func watchDefaults(configPath string, svc appFrag.Service, logger logging.Logger) {
	r, ok := svc.(appFrag.Reloadable)
	if !ok {
		return
	}
	err := config.Watch(configPath, func(c *config.Config) {
		r.UpdateDefaults(c.Fragmentation)
	}, func(err error) {
		logger.Warn("config reload failed", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
