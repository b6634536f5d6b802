// Package models - Service configuration and operational settings.
// This file defines the configuration structures for all service components.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, security, upstream, etc.)
// - Environment-friendly defaults that work out of the box
// - Comprehensive validation to catch misconfigurations early
// - Security-first approach with safe defaults
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rate limit store type constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Usage store type constants
const (
	UsageStoreMemory   = "memory"
	UsageStoreSQLite   = "sqlite"
	UsageStorePostgres = "postgres"
)

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Security: License keys and rate limiting
// - Upstream: Market-data provider connection settings
// - Usage: Per-license usage accounting
// - Logging: Structured logging and output configuration
// - Metrics / Observability: Monitoring, metrics, and tracing
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Security      SecurityConfig      `yaml:"security" json:"security"`           // License keys and rate limiting
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`           // Market-data provider settings
	Usage         UsageConfig         `yaml:"usage" json:"usage"`                 // Usage accounting
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Prometheus metrics endpoint
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing and service identity
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

type SecurityConfig struct {
	LicenseKeys []string        `yaml:"license_keys" json:"license_keys"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig configures the per-license fixed-window limiter.
// SweepInterval controls eviction of stale window entries: zero disables the
// background sweeper and entries are only ever refreshed in place.
type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Requests      int           `yaml:"requests" json:"requests"`
	Window        time.Duration `yaml:"window" json:"window"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
	Store         string        `yaml:"store" json:"store"`
	Redis         RedisConfig   `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// UpstreamConfig holds the market-data provider connection settings.
// MaxRequestsPerSecond throttles outbound calls client-side; zero disables
// the throttle.
type UpstreamConfig struct {
	BaseURL              string        `yaml:"base_url" json:"base_url"`
	APIKey               string        `yaml:"api_key" json:"api_key"`
	Timeout              time.Duration `yaml:"timeout" json:"timeout"`
	MaxRequestsPerSecond int           `yaml:"max_requests_per_second" json:"max_requests_per_second"`
}

type UsageConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Type    string `yaml:"type" json:"type"`
	DSN     string `yaml:"dsn" json:"dsn"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: Standard non-privileged HTTP port
// - 30-second server timeouts: Balance between user experience and resource protection
// - 100 requests / 60s window: Conservative per-license ceiling
// - 15-second upstream timeout, no retries
// - Structured JSON logging: Better for log aggregation and analysis
// - Metrics enabled by default for monitoring
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"*"},
				MaxAge:         86400,
			},
		},
		Security: SecurityConfig{
			LicenseKeys: []string{"test-license-123", "prod-license-456"},
			RateLimit: RateLimitConfig{
				Enabled:       true,
				Requests:      100,
				Window:        60 * time.Second,
				SweepInterval: 0,
				Store:         RateLimitStoreMemory,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL:              "https://api.polygon.io",
			Timeout:              15 * time.Second,
			MaxRequestsPerSecond: 0,
		},
		Usage: UsageConfig{
			Enabled: false,
			Type:    UsageStoreMemory,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "marketgate",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("invalid upstream config: %w", err)
	}

	if err := c.Usage.Validate(); err != nil {
		return fmt.Errorf("invalid usage config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (sec *SecurityConfig) Validate() error {
	if len(sec.LicenseKeys) == 0 {
		return errors.New("at least one license key must be configured")
	}
	for _, key := range sec.LicenseKeys {
		if strings.TrimSpace(key) == "" {
			return errors.New("license key cannot be empty")
		}
	}

	rl := sec.RateLimit
	if !rl.Enabled {
		return nil
	}

	if rl.Requests <= 0 {
		return errors.New("rate limit requests must be positive")
	}
	if rl.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if rl.SweepInterval < 0 {
		return errors.New("rate limit sweep interval cannot be negative")
	}

	switch rl.Store {
	case RateLimitStoreMemory:
	case RateLimitStoreRedis:
		if rl.Redis.Addr == "" {
			return errors.New("redis address is required when rate limit store is redis")
		}
	default:
		return fmt.Errorf("invalid rate limit store: %s", rl.Store)
	}

	return nil
}

func (uc *UpstreamConfig) Validate() error {
	if uc.BaseURL == "" {
		return errors.New("upstream base URL cannot be empty")
	}

	if uc.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}

	if uc.MaxRequestsPerSecond < 0 {
		return errors.New("upstream max requests per second cannot be negative")
	}

	return nil
}

func (uc *UsageConfig) Validate() error {
	if !uc.Enabled {
		return nil
	}

	switch uc.Type {
	case UsageStoreMemory:
	case UsageStoreSQLite, UsageStorePostgres:
		if uc.DSN == "" {
			return fmt.Errorf("DSN is required for %s usage store", uc.Type)
		}
	default:
		return fmt.Errorf("invalid usage store type: %s", uc.Type)
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, vl := range validLevels {
		if lc.Level == vl {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	found = false
	for _, vf := range validFormats {
		if lc.Format == vf {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	found = false
	for _, vo := range validOutputs {
		if lc.Output == vo {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}
