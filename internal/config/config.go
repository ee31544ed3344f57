// Package config loads and validates the checklist service configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the RVE_ prefix (e.g., RVE_REDIS_HOST
// overrides redis.host in the YAML). This layering allows the same binary to
// run with a config.yaml in local development and with pure environment variables
// in containerized deployments.
//
// The JWT_SECRET variable has no RVE_ prefix because it may be injected by
// infrastructure tooling (e.g., Kubernetes secrets) that does not know the
// application-specific prefix and treats it as a generic secret name.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	KV        KVConfig        `mapstructure:"kv"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Links     LinksConfig     `mapstructure:"links"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	PublicURL    string        `mapstructure:"public_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GetPublicURL returns the public-facing URL used when building shareable
// checklist links. When server.public_url is set it is returned as-is;
// otherwise it falls back to server.base_url. The distinction matters in
// reverse-proxied deployments where the internal listen address (base_url)
// differs from the URL technicians actually open (public_url).
func (s *ServerConfig) GetPublicURL() string {
	if s.PublicURL != "" {
		return s.PublicURL
	}
	return s.BaseURL
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// KVConfig selects the key-value backend
type KVConfig struct {
	// Backend is "redis" for production or "memory" for local development
	Backend string `mapstructure:"backend"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GetAddress returns the Redis address in host:port format
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// TokenTTL is the lifetime of issued session tokens
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// BcryptCost is the bcrypt work factor for password hashing
	BcryptCost int `mapstructure:"bcrypt_cost"`
	// Bootstrap holds the first-run administrator account
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

// BootstrapConfig holds the first-run administrator credentials.
// The account is only created when no user with the email exists yet.
type BootstrapConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// LinksConfig holds single-use link configuration
type LinksConfig struct {
	// TTL is how long an issued link stays valid before it expires
	TTL time.Duration `mapstructure:"ttl"`
	// PublicPath is the frontend path the link token is appended to
	PublicPath string `mapstructure:"public_path"`
}

// SecurityConfig holds CORS and rate limiting configuration
type SecurityConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	RateLimitEnabled bool     `mapstructure:"rate_limit_enabled"`
	RateLimitPerMin  int      `mapstructure:"rate_limit_per_min"`
	RateLimitBurst   int      `mapstructure:"rate_limit_burst"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds metrics configuration
type TelemetryConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	MetricsPort    int  `mapstructure:"metrics_port"`
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	// LinkSweepInterval is how often the expired-link sweeper runs.
	// Zero disables the sweeper.
	LinkSweepInterval time.Duration `mapstructure:"link_sweep_interval"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set config file path if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config.yaml in common locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/checklist-rve")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	// Enable environment variable support
	v.SetEnvPrefix("RVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind environment variables for nested structures
	// This is necessary because AutomaticEnv() doesn't work well with Unmarshal()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	// Unmarshal configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variables in sensitive fields
	cfg.Redis.Password = expandEnv(cfg.Redis.Password)
	cfg.Auth.Bootstrap.Password = expandEnv(cfg.Auth.Bootstrap.Password)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// KV defaults
	v.SetDefault("kv.backend", "redis")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Auth defaults
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.bootstrap.email", "")
	v.SetDefault("auth.bootstrap.password", "")
	v.SetDefault("auth.bootstrap.name", "Administrador")

	// Links defaults
	v.SetDefault("links.ttl", "720h")
	v.SetDefault("links.public_path", "/checklist")

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.rate_limit_enabled", true)
	v.SetDefault("security.rate_limit_per_min", 120)
	v.SetDefault("security.rate_limit_burst", 30)
	v.SetDefault("security.trusted_proxies", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.metrics_port", 9090)

	// Jobs defaults
	v.SetDefault("jobs.link_sweep_interval", "1h")
}

// bindEnvVars explicitly binds environment variables to config keys.
// This is necessary because AutomaticEnv() doesn't work well with nested structs during Unmarshal.
// viper.BindEnv only errors when called with zero keys; since every key here is a non-empty
// hardcoded string, any error indicates a programming bug and is surfaced to the caller.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.base_url",
		"server.public_url",
		"server.read_timeout",
		"server.write_timeout",

		// KV
		"kv.backend",

		// Redis
		"redis.host",
		"redis.port",
		"redis.password",
		"redis.db",
		"redis.pool_size",
		"redis.min_idle_conns",
		"redis.dial_timeout",
		"redis.read_timeout",
		"redis.write_timeout",

		// Auth
		"auth.token_ttl",
		"auth.bcrypt_cost",
		"auth.bootstrap.email",
		"auth.bootstrap.password",
		"auth.bootstrap.name",

		// Links
		"links.ttl",
		"links.public_path",

		// Security
		"security.allowed_origins",
		"security.rate_limit_enabled",
		"security.rate_limit_per_min",
		"security.rate_limit_burst",
		"security.trusted_proxies",

		// Logging
		"logging.level",
		"logging.format",

		// Telemetry
		"telemetry.metrics_enabled",
		"telemetry.metrics_port",

		// Jobs
		"jobs.link_sweep_interval",
	}

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("error binding env var for %s: %w", key, err)
		}
	}

	return nil
}

// expandEnv expands environment variables in the format ${VAR_NAME}
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	// Validate KV backend
	validBackends := map[string]bool{"redis": true, "memory": true}
	if !validBackends[c.KV.Backend] {
		return fmt.Errorf("invalid kv backend: %s (must be redis or memory)", c.KV.Backend)
	}

	// Validate Redis if selected
	if c.KV.Backend == "redis" {
		if c.Redis.Host == "" {
			return fmt.Errorf("redis.host is required when using the redis backend")
		}
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis port: %d", c.Redis.Port)
		}
	}

	// Validate auth
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("invalid auth.bcrypt_cost: %d (must be between 4 and 31)", c.Auth.BcryptCost)
	}
	if c.Auth.Bootstrap.Email != "" && len(c.Auth.Bootstrap.Password) < 6 {
		return fmt.Errorf("auth.bootstrap.password must be at least 6 characters")
	}

	// Validate links
	if c.Links.TTL <= 0 {
		return fmt.Errorf("links.ttl must be positive")
	}

	// Validate logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be json or text)", c.Logging.Format)
	}

	// Validate telemetry
	if c.Telemetry.MetricsEnabled {
		if c.Telemetry.MetricsPort < 1 || c.Telemetry.MetricsPort > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Telemetry.MetricsPort)
		}
		if c.Telemetry.MetricsPort == c.Server.Port {
			return fmt.Errorf("metrics port must differ from server port")
		}
	}

	return nil
}
