package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocoder   GeocoderConfig   `yaml:"geocoder" mapstructure:"geocoder"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// GeocoderConfig configures the upstream geocoding provider.
type GeocoderConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	Language       string  `yaml:"language" mapstructure:"language"`
	ResultLimit    int     `yaml:"result_limit" mapstructure:"result_limit"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MinQueryLength int     `yaml:"min_query_length" mapstructure:"min_query_length"`
}

// Timeout returns the per-request provider timeout.
func (g GeocoderConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// SearchConfig configures the interactive search controller and result paging.
type SearchConfig struct {
	DebounceMs        int    `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	PerPage           int    `yaml:"per_page" mapstructure:"per_page"`
	PopularCitiesFile string `yaml:"popular_cities_file" mapstructure:"popular_cities_file"`
}

// Debounce returns the quiet period before a typed query is searched.
func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// CacheConfig selects and configures the geocode result cache.
type CacheConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"` // none, memory, redis, sqlite, postgres
	TTLSecs       int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	SweepSecs     int    `yaml:"sweep_secs" mapstructure:"sweep_secs"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// SweepInterval is how often the sqlite and postgres drivers delete expired
// rows. Zero disables the sweep.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepSecs) * time.Second
}

// ResilienceConfig controls retry and circuit breaking around provider calls.
type ResilienceConfig struct {
	RetryAttempts    int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs   int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CITYSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "UrbanScope-CitySearch/1.0")
	v.SetDefault("geocoder.language", "en")
	v.SetDefault("geocoder.result_limit", 10)
	v.SetDefault("geocoder.timeout_secs", 8)
	v.SetDefault("geocoder.rate_limit", 1.0)
	v.SetDefault("geocoder.min_query_length", 2)
	v.SetDefault("search.debounce_ms", 500)
	v.SetDefault("search.per_page", 8)
	v.SetDefault("search.popular_cities_file", "")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl_secs", 86400)
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.sqlite_path", "citysearch.db")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.sweep_secs", 600)
	v.SetDefault("resilience.retry_attempts", 2)
	v.SetDefault("resilience.retry_backoff_ms", 250)
	v.SetDefault("resilience.breaker_threshold", 5)
	v.SetDefault("resilience.breaker_reset_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the geocoder and controller cannot run with.
func (c *Config) Validate() error {
	if c.Geocoder.BaseURL == "" {
		return eris.New("config: geocoder.base_url is required")
	}
	if c.Geocoder.UserAgent == "" {
		return eris.New("config: geocoder.user_agent is required by the provider usage policy")
	}
	if c.Geocoder.ResultLimit <= 0 || c.Geocoder.ResultLimit > 50 {
		return eris.Errorf("config: geocoder.result_limit must be in [1,50], got %d", c.Geocoder.ResultLimit)
	}
	if c.Search.DebounceMs < 0 {
		return eris.Errorf("config: search.debounce_ms must not be negative, got %d", c.Search.DebounceMs)
	}
	switch c.Cache.Driver {
	case "none", "memory", "redis", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown cache.driver %q", c.Cache.Driver)
	}
	if c.Cache.Driver == "postgres" && c.Cache.DatabaseURL == "" {
		return eris.New("config: cache.database_url is required for the postgres driver")
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
