// Package config loads service configuration from defaults, an optional
// TOML or YAML file and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/egannguyen/printshop-backend/internal/service"
)

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `toml:"http" yaml:"http"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Kafka    KafkaConfig    `toml:"kafka" yaml:"kafka"`
	Redis    RedisConfig    `toml:"redis" yaml:"redis"`
	Orders   OrdersConfig   `toml:"orders" yaml:"orders"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Tracing  TracingConfig  `toml:"tracing" yaml:"tracing"`
}

type HTTPConfig struct {
	Addr                string `toml:"addr" yaml:"addr"`
	ShutdownTimeoutSecs int    `toml:"shutdown_timeout_secs" yaml:"shutdown_timeout_secs"`
}

// ShutdownTimeout is the grace period for in-flight requests.
func (c HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `toml:"driver" yaml:"driver"`
	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string `toml:"dsn" yaml:"dsn"`
	// Seed inserts the default catalog on first start.
	Seed bool `toml:"seed" yaml:"seed"`
}

type KafkaConfig struct {
	Enabled bool     `toml:"enabled" yaml:"enabled"`
	Brokers []string `toml:"brokers" yaml:"brokers"`
	GroupID string   `toml:"group_id" yaml:"group_id"`
}

type RedisConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	URL       string `toml:"url" yaml:"url"`
	Namespace string `toml:"namespace" yaml:"namespace"`
	TTLSecs   int    `toml:"ttl_secs" yaml:"ttl_secs"`
}

// TTL is the lifetime of a cached catalog listing.
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

type OrdersConfig struct {
	RequiredFields  []string `toml:"required_fields" yaml:"required_fields"`
	StrictLineItems bool     `toml:"strict_line_items" yaml:"strict_line_items"`
	MaxLineItems    int      `toml:"max_line_items" yaml:"max_line_items"`
	DefaultStatus   string   `toml:"default_status" yaml:"default_status"`
}

type TracingConfig struct {
	// Exporter is "none", "stdout" or "otlp".
	Exporter string `toml:"exporter" yaml:"exporter"`
	Endpoint string `toml:"endpoint" yaml:"endpoint"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":10000", ShutdownTimeoutSecs: 10},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "printshop.db",
			Seed:   true,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			GroupID: "printshop-notifications",
		},
		Redis: RedisConfig{
			URL:       "redis://localhost:6379/0",
			Namespace: "printshop",
			TTLSecs:   300,
		},
		Orders: OrdersConfig{
			RequiredFields: append([]string(nil), service.DefaultRequiredFields...),
			MaxLineItems:   service.DefaultMaxLineItems,
			DefaultStatus:  "new",
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{Exporter: "none", Endpoint: "localhost:4317"},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DATABASE_URL", c.Database.DSN)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Tracing.Exporter = getEnv("TRACING_EXPORTER", c.Tracing.Exporter)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	for key, dst := range map[string]*bool{
		"KAFKA_ENABLED":     &c.Kafka.Enabled,
		"REDIS_ENABLED":     &c.Redis.Enabled,
		"STRICT_LINE_ITEMS": &c.Orders.StrictLineItems,
		"DATABASE_SEED":     &c.Database.Seed,
	} {
		if v := getEnv(key, ""); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka is enabled but no brokers are configured")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return errors.New("redis is enabled but no url is configured")
	}
	if err := service.ValidateRequiredFields(c.Orders.RequiredFields); err != nil {
		return err
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Tracing.Exporter)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ComposerOptions converts the orders section for the composer.
func (c OrdersConfig) ComposerOptions() service.ComposerOptions {
	return service.ComposerOptions{
		RequiredFields:  c.RequiredFields,
		StrictLineItems: c.StrictLineItems,
		MaxLineItems:    c.MaxLineItems,
	}
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
