package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/database"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Postgres database.PostgresConfig
	Redis    database.RedisConfig
	Session  SessionConfig
	Audit    AuditConfig
	LogLevel observability.LogLevel

	// LogLevelName is the textual level from env or file, parsed into
	// LogLevel during Load
	LogLevelName string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes)
	HealthPort string
}

// SessionConfig holds session lifetime configuration
type SessionConfig struct {
	TTL time.Duration
}

// AuditConfig holds audit trail retention configuration
type AuditConfig struct {
	Retention time.Duration
}

// fileConfig is the YAML file schema. Durations are strings in Go
// duration syntax ("15s", "12h") so the file reads naturally.
type fileConfig struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            string `yaml:"port"`
		HealthPort      string `yaml:"health_port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		IdleTimeout     string `yaml:"idle_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Postgres struct {
		URL      string `yaml:"url"`
		MaxConns int    `yaml:"max_conns"`
		MinConns int    `yaml:"min_conns"`
	} `yaml:"postgres"`
	Redis struct {
		URL      string `yaml:"url"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Audit struct {
		Retention string `yaml:"retention"`
	} `yaml:"audit"`
	LogLevel string `yaml:"log_level"`
}

// Load builds configuration from environment variables, optionally
// overlaid by a YAML file named in TRACKREC_CONFIG_FILE. Environment
// variables win over file values so deployments can override a shared
// file per instance.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("TRACKREC_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.LogLevel = observability.ParseLogLevel(cfg.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "8081",
		},
		Postgres: database.PostgresConfig{
			URL:         "postgres://localhost:5432/trackrec?sslmode=disable",
			MaxConns:    25,
			MinConns:    5,
			Timeout:     5 * time.Second,
			MaxLifetime: 30 * time.Minute,
			MaxIdleTime: 5 * time.Minute,
		},
		Redis: database.RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		Session: SessionConfig{
			TTL: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Retention: 90 * 24 * time.Hour,
		},
		LogLevelName: "info",
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.Server.Host, fc.Server.Host)
	setString(&c.Server.Port, fc.Server.Port)
	setString(&c.Server.HealthPort, fc.Server.HealthPort)
	if err := setDuration(&c.Server.ReadTimeout, fc.Server.ReadTimeout); err != nil {
		return err
	}
	if err := setDuration(&c.Server.WriteTimeout, fc.Server.WriteTimeout); err != nil {
		return err
	}
	if err := setDuration(&c.Server.IdleTimeout, fc.Server.IdleTimeout); err != nil {
		return err
	}
	if err := setDuration(&c.Server.ShutdownTimeout, fc.Server.ShutdownTimeout); err != nil {
		return err
	}

	setString(&c.Postgres.URL, fc.Postgres.URL)
	setInt(&c.Postgres.MaxConns, fc.Postgres.MaxConns)
	setInt(&c.Postgres.MinConns, fc.Postgres.MinConns)

	setString(&c.Redis.URL, fc.Redis.URL)
	setString(&c.Redis.Password, fc.Redis.Password)
	setInt(&c.Redis.DB, fc.Redis.DB)
	setInt(&c.Redis.PoolSize, fc.Redis.PoolSize)

	if err := setDuration(&c.Session.TTL, fc.Session.TTL); err != nil {
		return err
	}
	if err := setDuration(&c.Audit.Retention, fc.Audit.Retention); err != nil {
		return err
	}
	setString(&c.LogLevelName, fc.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("failed to parse duration %q: %w", v, err)
	}
	*dst = d
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("TRACKREC_HOST", c.Server.Host)
	c.Server.Port = getEnv("TRACKREC_PORT", c.Server.Port)
	c.Server.HealthPort = getEnv("TRACKREC_HEALTH_PORT", c.Server.HealthPort)
	c.Server.ReadTimeout = getEnvDuration("TRACKREC_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("TRACKREC_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("TRACKREC_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("TRACKREC_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Postgres.URL = getEnv("TRACKREC_DATABASE_URL", c.Postgres.URL)
	c.Postgres.MaxConns = getEnvInt("TRACKREC_DATABASE_MAX_CONNS", c.Postgres.MaxConns)
	c.Postgres.MinConns = getEnvInt("TRACKREC_DATABASE_MIN_CONNS", c.Postgres.MinConns)
	c.Postgres.Timeout = getEnvDuration("TRACKREC_DATABASE_TIMEOUT", c.Postgres.Timeout)

	c.Redis.URL = getEnv("TRACKREC_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("TRACKREC_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("TRACKREC_REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = getEnvInt("TRACKREC_REDIS_POOL_SIZE", c.Redis.PoolSize)

	c.Session.TTL = getEnvDuration("TRACKREC_SESSION_TTL", c.Session.TTL)
	c.Audit.Retention = getEnvDuration("TRACKREC_AUDIT_RETENTION", c.Audit.Retention)
	c.LogLevelName = getEnv("TRACKREC_LOG_LEVEL", c.LogLevelName)
}

// Validate checks the configuration for startup-blocking mistakes
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Postgres.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	return nil
}

// getEnv returns a string environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
