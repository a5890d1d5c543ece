package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Detectors DetectorsConfig `yaml:"detectors" mapstructure:"detectors"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// EngineConfig configures the scoring engine.
type EngineConfig struct {
	Mode        string `yaml:"mode" mapstructure:"mode"`
	ProfilePath string `yaml:"profile_path" mapstructure:"profile_path"`
}

// DetectorsConfig holds the external detector clients and the shared
// failure handling around them. Labeler picks the label backend when
// both vision and claude credentials are present.
type DetectorsConfig struct {
	Labeler  string         `yaml:"labeler" mapstructure:"labeler"`
	Vision   VisionConfig   `yaml:"vision" mapstructure:"vision"`
	Roboflow RoboflowConfig `yaml:"roboflow" mapstructure:"roboflow"`
	Claude   ClaudeConfig   `yaml:"claude" mapstructure:"claude"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Breaker  BreakerConfig  `yaml:"breaker" mapstructure:"breaker"`
}

// VisionConfig holds the label annotation API settings.
type VisionConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RoboflowConfig holds the hosted object-detection model settings.
type RoboflowConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	Model      string  `yaml:"model" mapstructure:"model"`
	Version    string  `yaml:"version" mapstructure:"version"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Confidence float64 `yaml:"confidence" mapstructure:"confidence"`
}

// ClaudeConfig holds the Claude vision labeler settings.
type ClaudeConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RetryConfig configures detector call retries.
type RetryConfig struct {
	Attempts    int `yaml:"attempts" mapstructure:"attempts"`
	BaseDelayMS int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
}

// BreakerConfig configures the per-detector circuit breakers.
type BreakerConfig struct {
	Threshold    int `yaml:"threshold" mapstructure:"threshold"`
	CooldownSecs int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// CacheConfig configures the detector-response cache.
type CacheConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	URL      string `yaml:"url" mapstructure:"url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// TTL returns the cache entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// FetchConfig configures remote photo retrieval for batch runs.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerHost float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	MaxMB       int64   `yaml:"max_mb" mapstructure:"max_mb"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OCEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("engine.mode", "hybrid")
	v.SetDefault("detectors.claude.model", "claude-haiku-4-5-20251001")
	v.SetDefault("detectors.roboflow.confidence", 40)
	v.SetDefault("detectors.retry.attempts", 3)
	v.SetDefault("detectors.retry.base_delay_ms", 200)
	v.SetDefault("detectors.retry.max_delay_ms", 2000)
	v.SetDefault("detectors.breaker.threshold", 5)
	v.SetDefault("detectors.breaker.cooldown_secs", 30)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.url", "ocean-sentinel.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.max_conns", 10)
	v.SetDefault("cache.min_conns", 2)
	v.SetDefault("fetch.user_agent", "ocean-sentinel/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_host", 5)
	v.SetDefault("fetch.burst", 5)
	v.SetDefault("fetch.max_mb", 20)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given run
// mode. Shared settings are checked for every mode; mode-specific
// requirements are layered on top.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Engine.Mode {
	case "", "heuristic", "remote", "hybrid":
	default:
		errs = append(errs, fmt.Sprintf("engine.mode must be heuristic, remote, or hybrid, got %q", c.Engine.Mode))
	}

	switch c.Cache.Driver {
	case "", "sqlite", "postgres", "none":
	default:
		errs = append(errs, fmt.Sprintf("cache.driver must be sqlite, postgres, or none, got %q", c.Cache.Driver))
	}
	if c.Cache.TTLHours < 0 {
		errs = append(errs, "cache.ttl_hours must be >= 0")
	}

	switch c.Detectors.Labeler {
	case "", "vision", "claude":
	default:
		errs = append(errs, fmt.Sprintf("detectors.labeler must be vision or claude, got %q", c.Detectors.Labeler))
	}
	if c.Detectors.Roboflow.Confidence < 0 || c.Detectors.Roboflow.Confidence > 100 {
		errs = append(errs, "detectors.roboflow.confidence must be between 0 and 100")
	}
	if c.Detectors.Retry.Attempts < 1 {
		errs = append(errs, "detectors.retry.attempts must be >= 1")
	}

	switch mode {
	case "analyze":
		// No extra requirements. Heuristic scoring works offline.
	case "batch":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
			errs = append(errs, "batch.concurrency must be between 1 and 64")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
			errs = append(errs, "batch.concurrency must be between 1 and 64")
		}
	case "cache":
		if c.Cache.Driver == "none" {
			errs = append(errs, "cache.driver is none, nothing to manage")
		}
		if c.Cache.URL == "" {
			errs = append(errs, "cache.url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
