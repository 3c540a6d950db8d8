package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Upstream UpstreamConfig
	Registry RegistryConfig
	Logging  LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AuthConfig holds API authentication configuration
type AuthConfig struct {
	APIKey string
}

// UpstreamConfig bounds every upstream call and batch fan-out
type UpstreamConfig struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxBatchSize   int
	MaxConcurrent  int
}

// RegistryConfig controls the symbol registry refresh scheduler
type RegistryConfig struct {
	RefreshInterval time.Duration
	StaleAfter      time.Duration
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")

	// Upstream defaults
	v.SetDefault("upstream.connectTimeout", "10s")
	v.SetDefault("upstream.requestTimeout", "30s")
	v.SetDefault("upstream.maxBatchSize", 50)
	v.SetDefault("upstream.maxConcurrent", 8)

	// Registry defaults
	v.SetDefault("registry.refreshInterval", "6h")
	v.SetDefault("registry.staleAfter", "24h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
