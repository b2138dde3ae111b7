// Package config defines the configuration structures for MolFrag.  No I/O or
// parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	// RateLimitRPS is the sustained per-client request rate.  Zero disables
	// rate limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// FragmentationConfig carries the engine defaults applied to every request
// that does not override them.
type FragmentationConfig struct {
	// MaxValueHeavyAtoms rejects fragmentations whose core has more heavy
	// atoms.  Zero disables the filter.
	MaxValueHeavyAtoms int `mapstructure:"max_value_heavy_atoms"`

	// MinKeyValueRatio rejects fragmentations whose leaf-to-core heavy atom
	// ratio falls below it.  Zero disables the filter.
	MinKeyValueRatio float64 `mapstructure:"min_key_value_ratio"`

	LeafCacheCapacity     int `mapstructure:"leaf_cache_capacity"`
	TripletEagerThreshold int `mapstructure:"triplet_eager_threshold"`
	MaxCuts               int `mapstructure:"max_cuts"`

	// BondPattern names the matcher selecting cuttable bonds.
	BondPattern string `mapstructure:"bond_pattern"`

	RemoveExplicitHydrogens    bool `mapstructure:"remove_explicit_hydrogens"`
	AllowDoubleCutOfSingleBond bool `mapstructure:"allow_double_cut_of_single_bond"`

	// BatchConcurrency bounds the number of molecules fragmented in parallel.
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Mode         string        `mapstructure:"mode"` // "standalone" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the asynchronous job transport parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	RequestTopic string        `mapstructure:"request_topic"`
	ResultTopic  string        `mapstructure:"result_topic"`
	DLQTopic     string        `mapstructure:"dlq_topic"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	BatchSize    int           `mapstructure:"batch_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	StartOffset  string        `mapstructure:"start_offset"` // "earliest" | "latest"
}

// MetricsConfig holds the prometheus naming parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
}

// Config is the root configuration structure.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Fragmentation FragmentationConfig `mapstructure:"fragmentation"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("config: server.max_body_size must be ≥ 0, got %d", c.Server.MaxBodySize)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be ≥ 0, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("config: server.rate_limit_burst must be ≥ 1 when rate limiting is enabled, got %d", c.Server.RateLimitBurst)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	f := c.Fragmentation
	if f.MaxValueHeavyAtoms < 0 {
		return fmt.Errorf("config: fragmentation.max_value_heavy_atoms must be ≥ 0, got %d", f.MaxValueHeavyAtoms)
	}
	if f.MinKeyValueRatio < 0 {
		return fmt.Errorf("config: fragmentation.min_key_value_ratio must be ≥ 0, got %g", f.MinKeyValueRatio)
	}
	if f.LeafCacheCapacity < 1 {
		return fmt.Errorf("config: fragmentation.leaf_cache_capacity must be ≥ 1, got %d", f.LeafCacheCapacity)
	}
	if f.TripletEagerThreshold < 1 {
		return fmt.Errorf("config: fragmentation.triplet_eager_threshold must be ≥ 1, got %d", f.TripletEagerThreshold)
	}
	if f.MaxCuts < 1 {
		return fmt.Errorf("config: fragmentation.max_cuts must be ≥ 1, got %d", f.MaxCuts)
	}
	switch f.BondPattern {
	case "acyclic-single", "acyclic-single-carbon", "all-single":
	default:
		return fmt.Errorf("config: fragmentation.bond_pattern %q is invalid; expected acyclic-single|acyclic-single-carbon|all-single", f.BondPattern)
	}
	if f.BatchConcurrency < 1 {
		return fmt.Errorf("config: fragmentation.batch_concurrency must be ≥ 1, got %d", f.BatchConcurrency)
	}

	if c.Redis.Enabled {
		switch c.Redis.Mode {
		case "standalone":
			if c.Redis.Addr == "" {
				return fmt.Errorf("config: redis.addr is required")
			}
		case "cluster":
			if len(c.Redis.Addrs) == 0 {
				return fmt.Errorf("config: redis.addrs must contain at least one address in cluster mode")
			}
		default:
			return fmt.Errorf("config: redis.mode %q is invalid; expected standalone|cluster", c.Redis.Mode)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}
	if c.Kafka.RequestTopic == "" || c.Kafka.ResultTopic == "" {
		return fmt.Errorf("config: kafka.request_topic and kafka.result_topic are required")
	}
	switch c.Kafka.StartOffset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("config: kafka.start_offset %q is invalid; expected earliest|latest", c.Kafka.StartOffset)
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}
	return nil
}

//Personal.AI order the ending
