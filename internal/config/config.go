// README: Config loader: defaults, optional config.yaml, then BROKER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig with an empty Addr selects the in-memory quote store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type DBConfig struct {
	// An empty DSN selects the in-memory booking store.
	DSN string `mapstructure:"dsn"`
}

type QuoteConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LifecycleConfig struct {
	Dwell time.Duration `mapstructure:"dwell"`
}

type MarketsConfig struct {
	// Enabled limits which catalog markets get providers. Empty means all.
	Enabled []string `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Config struct {
	Env       string          `mapstructure:"env"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	Quote     QuoteConfig     `mapstructure:"quote"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Markets   MarketsConfig   `mapstructure:"markets"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

var defaults = map[string]any{
	"env":                   "development",
	"http.addr":             ":8080",
	"http.shutdown_timeout": "10s",
	"db.dsn":                "",
	"redis.addr":            "",
	"redis.password":        "",
	"redis.db":              0,
	"amqp.url":              "",
	"amqp.exchange":         "booking_topic",
	"quote.ttl":             "5m",
	"lifecycle.dwell":       "3s",
	"markets.enabled":       []string{},
	"rate_limit.rps":        20.0,
	"rate_limit.burst":      40,
	"log.level":             "info",
	"cors.allowed_origins":  []string{"http://localhost:3000"},
}

// Load reads configuration from paths (defaulting to "." and "./config"). A missing
// config.yaml is not an error. Environment variables use the BROKER_ prefix with
// dots replaced by underscores, e.g. BROKER_HTTP_ADDR.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("BROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Quote.TTL <= 0 {
		return Config{}, fmt.Errorf("quote.ttl must be positive, got %s", cfg.Quote.TTL)
	}
	if cfg.Lifecycle.Dwell <= 0 {
		return Config{}, fmt.Errorf("lifecycle.dwell must be positive, got %s", cfg.Lifecycle.Dwell)
	}
	return cfg, nil
}
