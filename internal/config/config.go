package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/intake-cli/internal/refstore"
	"github.com/sells-group/intake-cli/internal/resolver"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Voyage    VoyageConfig    `yaml:"voyage" mapstructure:"voyage"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Resolver  resolver.Config `yaml:"resolver" mapstructure:"resolver"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Health    HealthConfig    `yaml:"health" mapstructure:"health"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the reference store backend.
type StoreConfig struct {
	Driver       string              `yaml:"driver" mapstructure:"driver"`
	DatabaseURL  string              `yaml:"database_url" mapstructure:"database_url"`
	EmbeddingDim int                 `yaml:"embedding_dim" mapstructure:"embedding_dim"`
	Pool         refstore.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// VoyageConfig holds Voyage AI embeddings API settings.
type VoyageConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Model     string  `yaml:"model" mapstructure:"model"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// CacheConfig configures the read-through entity cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Capacity int           `yaml:"capacity" mapstructure:"capacity"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// HealthConfig configures the provider health tracker.
type HealthConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
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
	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.embedding_dim", 512)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("voyage.base_url", "https://api.voyageai.com/v1")
	v.SetDefault("voyage.model", "voyage-3-lite")
	v.SetDefault("voyage.rate_limit", 10.0)
	v.SetDefault("voyage.rate_burst", 20)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("health.failure_threshold", 3)

	rc := resolver.DefaultConfig()
	v.SetDefault("resolver.top_k", rc.TopK)
	v.SetDefault("resolver.max_alternatives", rc.MaxAlternatives)
	v.SetDefault("resolver.auto_accept_threshold", rc.AutoAcceptThreshold)
	v.SetDefault("resolver.tiebreak_threshold", rc.TiebreakThreshold)
	v.SetDefault("resolver.score_margin", rc.ScoreMargin)
	v.SetDefault("resolver.tiebreak_confidence", rc.TiebreakConfidence)
	v.SetDefault("resolver.tiebreak_candidates", rc.TiebreakCandidates)
	v.SetDefault("resolver.tiebreak_model", rc.TiebreakModel)
	v.SetDefault("resolver.tiebreak_max_tokens", rc.TiebreakMaxTokens)
	v.SetDefault("resolver.provider_timeout", rc.ProviderTimeout)
	v.SetDefault("resolver.item_workers", rc.ItemWorkers)
	v.SetDefault("resolver.quantity_swap_ratio", rc.QuantitySwapRatio)

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
