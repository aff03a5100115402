// Package config loads the sync client's configuration from environment
// variables and an optional YAML file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roomsync/roomsync-client/logger"
	"github.com/spf13/viper"
)

// Environment represents the running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Storage drivers for the persisted session state.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// ServerConfig names the environment the client runs against.
type ServerConfig struct {
	Environment Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
}

// APIConfig holds REST transport settings.
type APIConfig struct {
	BaseURL        string `mapstructure:"BASE_URL" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"TIMEOUT_SECONDS" yaml:"timeout_seconds"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RealtimeConfig holds notification channel settings.
type RealtimeConfig struct {
	Enabled              bool   `mapstructure:"ENABLED" yaml:"enabled"`
	URL                  string `mapstructure:"URL" yaml:"url"`
	MaxReconnectAttempts int    `mapstructure:"MAX_RECONNECT_ATTEMPTS" yaml:"max_reconnect_attempts"`
	ReconnectDelayMs     int    `mapstructure:"RECONNECT_DELAY_MS" yaml:"reconnect_delay_ms"`
	MaxReconnectDelayMs  int    `mapstructure:"MAX_RECONNECT_DELAY_MS" yaml:"max_reconnect_delay_ms"`
	PingIntervalSeconds  int    `mapstructure:"PING_INTERVAL_SECONDS" yaml:"ping_interval_seconds"`
}

func (c RealtimeConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

func (c RealtimeConfig) MaxReconnectDelay() time.Duration {
	return time.Duration(c.MaxReconnectDelayMs) * time.Millisecond
}

func (c RealtimeConfig) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSeconds) * time.Second
}

// StorageConfig selects where the session credentials and snapshot live.
type StorageConfig struct {
	Driver        string `mapstructure:"DRIVER" yaml:"driver"`
	Path          string `mapstructure:"PATH" yaml:"path"`
	KeyPrefix     string `mapstructure:"KEY_PREFIX" yaml:"key_prefix"`
	RedisAddress  string `mapstructure:"REDIS_ADDRESS" yaml:"redis_address"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"REDIS_DB" yaml:"redis_db"`
}

// Config aggregates all configuration sections.
type Config struct {
	Server   ServerConfig   `mapstructure:"SERVER" yaml:"server"`
	API      APIConfig      `mapstructure:"API" yaml:"api"`
	Realtime RealtimeConfig `mapstructure:"REALTIME" yaml:"realtime"`
	Storage  StorageConfig  `mapstructure:"STORAGE" yaml:"storage"`
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roomsync"
	}
	return filepath.Join(home, ".roomsync")
}

// LoadConfig reads defaults, the optional file named by ROOMSYNC_CONFIG and
// the environment, then validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("API.BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API.TIMEOUT_SECONDS", 15)
	v.SetDefault("REALTIME.ENABLED", true)
	v.SetDefault("REALTIME.URL", "ws://localhost:5000/ws")
	v.SetDefault("REALTIME.MAX_RECONNECT_ATTEMPTS", 5)
	v.SetDefault("REALTIME.RECONNECT_DELAY_MS", 1000)
	v.SetDefault("REALTIME.MAX_RECONNECT_DELAY_MS", 5000)
	v.SetDefault("REALTIME.PING_INTERVAL_SECONDS", 25)
	v.SetDefault("STORAGE.DRIVER", StorageFile)
	v.SetDefault("STORAGE.PATH", defaultStoragePath())
	v.SetDefault("STORAGE.KEY_PREFIX", "roomsync")
	v.SetDefault("STORAGE.REDIS_ADDRESS", "")
	v.SetDefault("STORAGE.REDIS_PASSWORD", "")
	v.SetDefault("STORAGE.REDIS_DB", 0)

	if path := os.Getenv("ROOMSYNC_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
		{"API.BASE_URL", "ROOMSYNC_API_URL"},
		{"API.TIMEOUT_SECONDS", "ROOMSYNC_API_TIMEOUT_SECONDS"},
		{"REALTIME.ENABLED", "ROOMSYNC_REALTIME_ENABLED"},
		{"REALTIME.URL", "ROOMSYNC_REALTIME_URL"},
		{"REALTIME.MAX_RECONNECT_ATTEMPTS", "ROOMSYNC_REALTIME_MAX_RECONNECT_ATTEMPTS"},
		{"REALTIME.RECONNECT_DELAY_MS", "ROOMSYNC_REALTIME_RECONNECT_DELAY_MS"},
		{"REALTIME.MAX_RECONNECT_DELAY_MS", "ROOMSYNC_REALTIME_MAX_RECONNECT_DELAY_MS"},
		{"REALTIME.PING_INTERVAL_SECONDS", "ROOMSYNC_REALTIME_PING_INTERVAL_SECONDS"},
		{"STORAGE.DRIVER", "ROOMSYNC_STORAGE_DRIVER"},
		{"STORAGE.PATH", "ROOMSYNC_STORAGE_PATH"},
		{"STORAGE.KEY_PREFIX", "ROOMSYNC_STORAGE_KEY_PREFIX"},
		{"STORAGE.REDIS_ADDRESS", "REDIS_ADDRESS"},
		{"STORAGE.REDIS_PASSWORD", "REDIS_PASSWORD"},
		{"STORAGE.REDIS_DB", "REDIS_DB"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Infow("Configuration loaded",
		"environment", cfg.Server.Environment,
		"api_base_url", cfg.API.BaseURL,
		"realtime_enabled", cfg.Realtime.Enabled,
		"realtime_url", cfg.Realtime.URL,
		"storage_driver", cfg.Storage.Driver,
	)
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	if err := validateAbsoluteURL("api base URL", cfg.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if cfg.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}

	if cfg.Realtime.Enabled {
		if err := validateAbsoluteURL("realtime URL", cfg.Realtime.URL, "ws", "wss", "http", "https"); err != nil {
			return err
		}
		if cfg.Realtime.MaxReconnectAttempts < 0 {
			return fmt.Errorf("realtime max reconnect attempts must not be negative")
		}
		if cfg.Realtime.ReconnectDelayMs <= 0 || cfg.Realtime.MaxReconnectDelayMs <= 0 {
			return fmt.Errorf("realtime reconnect delays must be positive")
		}
		if cfg.Realtime.MaxReconnectDelayMs < cfg.Realtime.ReconnectDelayMs {
			return fmt.Errorf("realtime max reconnect delay must not be below the initial delay")
		}
		if cfg.Realtime.PingIntervalSeconds <= 0 {
			return fmt.Errorf("realtime ping interval must be positive")
		}
	}

	switch cfg.Storage.Driver {
	case StorageFile, StorageSQLite:
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the %s driver", cfg.Storage.Driver)
		}
	case StorageRedis:
		if cfg.Storage.RedisAddress == "" {
			return fmt.Errorf("redis address is required for the redis storage driver")
		}
	case StorageMemory:
		logger.GetLogger().Warn("Memory storage selected; the session will not survive a restart")
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return nil
}

func validateAbsoluteURL(name, raw string, schemes ...string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", name, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("invalid %s '%s': scheme must be one of %v", name, raw, schemes)
}
