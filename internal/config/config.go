package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"marketgate/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables.
// PORT, POLYGON_API_KEY and VALID_LICENSE_KEYS are honored without the
// MARKETGATE_ prefix for compatibility with existing deployments.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("MARKETGATE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	} else if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("MARKETGATE_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("MARKETGATE_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("MARKETGATE_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("MARKETGATE_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("MARKETGATE_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("MARKETGATE_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("MARKETGATE_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Security configuration
	if keys := os.Getenv("MARKETGATE_LICENSE_KEYS"); keys != "" {
		config.Security.LicenseKeys = splitKeys(keys)
	} else if keys := os.Getenv("VALID_LICENSE_KEYS"); keys != "" {
		config.Security.LicenseKeys = splitKeys(keys)
	}

	if enabled := os.Getenv("MARKETGATE_RATE_LIMIT_ENABLED"); enabled != "" {
		config.Security.RateLimit.Enabled = strings.ToLower(enabled) == "true"
	}

	if requests := os.Getenv("MARKETGATE_RATE_LIMIT_REQUESTS"); requests != "" {
		if n, err := strconv.Atoi(requests); err == nil {
			config.Security.RateLimit.Requests = n
		}
	}

	if window := os.Getenv("MARKETGATE_RATE_LIMIT_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			config.Security.RateLimit.Window = d
		}
	}

	if sweep := os.Getenv("MARKETGATE_RATE_LIMIT_SWEEP_INTERVAL"); sweep != "" {
		if d, err := time.ParseDuration(sweep); err == nil {
			config.Security.RateLimit.SweepInterval = d
		}
	}

	if store := os.Getenv("MARKETGATE_RATE_LIMIT_STORE"); store != "" {
		config.Security.RateLimit.Store = store
	}

	if addr := os.Getenv("MARKETGATE_REDIS_ADDR"); addr != "" {
		config.Security.RateLimit.Redis.Addr = addr
	}

	if password := os.Getenv("MARKETGATE_REDIS_PASSWORD"); password != "" {
		config.Security.RateLimit.Redis.Password = password
	}

	if db := os.Getenv("MARKETGATE_REDIS_DB"); db != "" {
		if dbNum, err := strconv.Atoi(db); err == nil {
			config.Security.RateLimit.Redis.DB = dbNum
		}
	}

	// Upstream configuration
	if baseURL := os.Getenv("MARKETGATE_UPSTREAM_BASE_URL"); baseURL != "" {
		config.Upstream.BaseURL = baseURL
	}

	if apiKey := os.Getenv("MARKETGATE_POLYGON_API_KEY"); apiKey != "" {
		config.Upstream.APIKey = apiKey
	} else if apiKey := os.Getenv("POLYGON_API_KEY"); apiKey != "" {
		config.Upstream.APIKey = apiKey
	}

	if timeout := os.Getenv("MARKETGATE_UPSTREAM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Upstream.Timeout = d
		}
	}

	if rps := os.Getenv("MARKETGATE_UPSTREAM_MAX_RPS"); rps != "" {
		if n, err := strconv.Atoi(rps); err == nil {
			config.Upstream.MaxRequestsPerSecond = n
		}
	}

	// Usage accounting configuration
	if enabled := os.Getenv("MARKETGATE_USAGE_ENABLED"); enabled != "" {
		config.Usage.Enabled = strings.ToLower(enabled) == "true"
	}

	if storeType := os.Getenv("MARKETGATE_USAGE_TYPE"); storeType != "" {
		config.Usage.Type = storeType
	}

	if dsn := os.Getenv("MARKETGATE_USAGE_DSN"); dsn != "" {
		config.Usage.DSN = dsn
	}

	// Logging configuration
	if level := os.Getenv("MARKETGATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("MARKETGATE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("MARKETGATE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("MARKETGATE_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("MARKETGATE_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("MARKETGATE_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("MARKETGATE_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if name := os.Getenv("MARKETGATE_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if tracing := os.Getenv("MARKETGATE_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("MARKETGATE_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("MARKETGATE_TRACING_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

// splitKeys parses a comma-separated license key list, trimming whitespace
// and dropping empty entries.
func splitKeys(raw string) []string {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
