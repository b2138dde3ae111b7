// Command worker consumes fragmentation jobs from Kafka and publishes their
// results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appFrag "github.com/turtacn/MolFrag/internal/application/fragmentation"
	"github.com/turtacn/MolFrag/internal/config"
	"github.com/turtacn/MolFrag/internal/infrastructure/database/redis"
	"github.com/turtacn/MolFrag/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/MolFrag/internal/interfaces/http"
	"github.com/turtacn/MolFrag/internal/interfaces/http/handlers"
	"github.com/turtacn/MolFrag/internal/interfaces/worker"
)

const (
	defaultHealthPort = 8081
	defaultJobTimeout = 5 * time.Minute
	topicSetupTimeout = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port of the health and metrics endpoint")
	jobTimeout := flag.Duration("job-timeout", defaultJobTimeout, "upper bound for one fragmentation job")
	flag.Parse()

	if err := run(*configPath, *healthPort, *jobTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, healthPort int, jobTimeout time.Duration) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
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

	logger.Info("starting MolFrag worker",
		logging.String("version", config.Version),
		logging.String("group", cfg.Kafka.GroupID),
		logging.String("topic", cfg.Kafka.RequestTopic),
	)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	metrics := prometheus.NewAppMetrics(collector)

	svcOpts := []appFrag.Option{appFrag.WithMetrics(metrics)}
	jobOpts := []worker.Option{worker.WithMetrics(metrics)}
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
		jobOpts = append(jobOpts, worker.WithLocker(redis.NewLocker(client, cfg.Redis.KeyPrefix, logger)))
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "redis", Fn: client.Ping})
	}

	svc := appFrag.NewService(cfg.Fragmentation, logger, svcOpts...)
	if configPath != "" {
		watchDefaults(configPath, svc, logger)
	}

	ensureTopics(cfg.Kafka, logger)

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		MaxRetries:   cfg.Kafka.MaxRetries,
		BatchSize:    cfg.Kafka.BatchSize,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("init producer: %w", err)
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		GroupID:     cfg.Kafka.GroupID,
		Topics:      []string{cfg.Kafka.RequestTopic},
		StartOffset: cfg.Kafka.StartOffset,
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      cfg.Kafka.MaxRetries,
			RetryBackoff:    cfg.Kafka.RetryBackoff,
			DeadLetterTopic: cfg.Kafka.DLQTopic,
		},
	}, producer, logger)
	if err != nil {
		return fmt.Errorf("init consumer: %w", err)
	}

	jobs := worker.NewJobHandler(worker.Config{
		ResultTopic: cfg.Kafka.ResultTopic,
		JobTimeout:  jobTimeout,
	}, svc, producer, logger, jobOpts...)
	consumer.Subscribe(cfg.Kafka.RequestTopic, jobs.Handle)

	healthCfg := cfg.Server
	healthCfg.Port = healthPort
	healthSrv := httpserver.NewServer(healthCfg, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(config.Version, metrics, checkers...),
		Logger:           logger,
		MetricsCollector: collector,
	}), logger)
	go func() {
		if err := healthSrv.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))

	// Closing the consumer cancels in-flight jobs; their offsets stay
	// uncommitted so another member picks them up.
	cancel()
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", logging.Err(err))
	}
	m := consumer.Metrics()
	logger.Info("consumer drained",
		logging.Int64("processed", m.Processed),
		logging.Int64("failed", m.Failed),
		logging.Int64("dead_lettered", m.DeadLettered),
	)

	if err := healthSrv.Shutdown(context.Background()); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	logger.Info("MolFrag worker stopped")
	return nil
}

// ensureTopics creates the job topics when the broker allows it.  Clusters
// that manage topics out of band reject the request; the worker still
// starts.
func ensureTopics(cfg config.KafkaConfig, logger logging.Logger) {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		logger.Warn("topic manager unavailable", logging.Err(err))
		return
	}
	defer tm.Close()

	ctx, cancel := context.WithTimeout(context.Background(), topicSetupTimeout)
	defer cancel()
	if err := tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.RequestTopic, cfg.ResultTopic, cfg.DLQTopic)); err != nil {
		logger.Warn("ensure topics failed", logging.Err(err))
	}
}

// watchDefaults hot-reloads the fragmentation defaults when the config file
// changes.
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
