// Package config loads service settings from a YAML file, an optional .env
// file and the process environment, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/database"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigin      string        `yaml:"cors_origin"`
}

// RedisConfig enables the dance-search cache when URL is set.
type RedisConfig struct {
	URL           string        `yaml:"url"`
	DanceCacheTTL time.Duration `yaml:"dance_cache_ttl"`
}

// AMQPConfig enables taught-lesson publishing when URL is set.
type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Storage  string          `yaml:"storage"`
	Database database.Config `yaml:"database"`
	// Timezone is the business's IANA zone; "now" for the commit queue is
	// evaluated here.
	Timezone      string      `yaml:"timezone"`
	MaxWindowDays int         `yaml:"max_window_days"`
	Redis         RedisConfig `yaml:"redis"`
	AMQP          AMQPConfig  `yaml:"amqp"`
	Metrics       bool        `yaml:"metrics"`
	Log           LogConfig   `yaml:"log"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigin:      "*",
		},
		Storage:       DriverPostgres,
		Database:      database.DefaultConfig(),
		Timezone:      wallclock.DefaultZone,
		MaxWindowDays: 366,
		Redis:         RedisConfig{DanceCacheTTL: 10 * time.Minute},
		AMQP:          AMQPConfig{Queue: "lesson.taught"},
		Metrics:       true,
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. A missing .env or YAML file is not an
// error; an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills zero values with defaults so partially-filled files work.
func (c *Config) Normalize() {
	def := DefaultConfig()
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage == "" {
		c.Storage = def.Storage
	}
	if c.Server.Listen == "" {
		c.Server.Listen = def.Server.Listen
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.MaxWindowDays <= 0 {
		c.MaxWindowDays = def.MaxWindowDays
	}
	if c.Redis.DanceCacheTTL <= 0 {
		c.Redis.DanceCacheTTL = def.Redis.DanceCacheTTL
	}
	if c.AMQP.Queue == "" {
		c.AMQP.Queue = def.AMQP.Queue
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Database.Attempts <= 0 {
		c.Database.Attempts = def.Database.Attempts
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage)
	}
	if _, err := wallclock.LoadZone(c.Timezone); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Location returns the loaded business zone.
func (c *Config) Location() *time.Location {
	loc, err := wallclock.LoadZone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Listen, "LISTEN_ADDR")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LISTEN_ADDR") == "" {
		c.Server.Listen = ":" + port
	}
	setString(&c.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&c.Storage, "STORAGE_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Timezone, "BUSINESS_TIMEZONE")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.AMQP.URL, "AMQP_URL")
	setString(&c.AMQP.Queue, "AMQP_QUEUE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if err := setDuration(&c.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Redis.DanceCacheTTL, "DANCE_CACHE_TTL"); err != nil {
		return err
	}
	if err := setInt(&c.MaxWindowDays, "MAX_WINDOW_DAYS"); err != nil {
		return err
	}
	return setBool(&c.Metrics, "METRICS_ENABLED")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}
