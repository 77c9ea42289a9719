// Package config loads the settings that choose and configure a cache
// backend. Settings come from environment variables (Load) or from a YAML
// file (LoadFile, Discover).
//
// Environment Variables:
//
// Backend Selection:
//   - CACHE_BACKEND: "local", "redis" or empty to decide from the Redis settings
//   - CACHE_SIZE_LIMIT: maximum number of local entries, 0 for unbounded (default: 0)
//   - CACHE_CONFIG_FILE: YAML file consulted when nothing else selects a backend (default: globalcache.yaml)
//   - LOG_LEVEL: Logging level (default: info)
//
// Redis Configuration:
//   - REDIS_CONFIGURATION: redis:// URL or comma-separated host:port list
//   - REDIS_INSTANCE_NAME: prefix applied to every key
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: connection pool size per node (default: 10)
//   - REDIS_WORKERS: concurrent reads when listing values, 0 for a CPU based default (default: 0)
//
// A YAML file has the same settings:
//
//	redis_configuration:
//	  configuration: "cache-1:6379,cache-2:6379"
//	  instance_name: "orders:"
//	local:
//	  size_limit: 10000
//
// The presence of redis_configuration.configuration selects Redis.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "globalcache/internal/common/errors"
)

// Backend names accepted in CACHE_BACKEND and the backend field of a file.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// DefaultConfigFile is the file Discover looks for when no path is given.
const DefaultConfigFile = "globalcache.yaml"

// Config holds the cache settings.
type Config struct {
	// Backend is BackendLocal, BackendRedis or empty. Empty means Redis when
	// Redis.Configuration is set and undecided otherwise.
	Backend    string      `yaml:"backend"`
	ConfigFile string      `yaml:"-"`
	LogLevel   string      `yaml:"log_level"`
	Local      LocalConfig `yaml:"local"`
	Redis      RedisConfig `yaml:"redis_configuration"`
}

// LocalConfig configures the in-process backend.
type LocalConfig struct {
	SizeLimit int `yaml:"size_limit"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Configuration string `yaml:"configuration"`
	InstanceName  string `yaml:"instance_name"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	PoolSize      int    `yaml:"pool_size"`
	Workers       int    `yaml:"workers"`
}

// Load creates a Config from environment variables. It does not validate
// the result.
func Load() *Config {
	return &Config{
		Backend:    strings.ToLower(getEnv("CACHE_BACKEND", "")),
		ConfigFile: getEnv("CACHE_CONFIG_FILE", DefaultConfigFile),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Local: LocalConfig{
			SizeLimit: getIntEnv("CACHE_SIZE_LIMIT", 0),
		},
		Redis: RedisConfig{
			Configuration: getEnv("REDIS_CONFIGURATION", ""),
			InstanceName:  getEnv("REDIS_INSTANCE_NAME", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getIntEnv("REDIS_DB", 0),
			PoolSize:      getIntEnv("REDIS_POOL_SIZE", 10),
			Workers:       getIntEnv("REDIS_WORKERS", 0),
		},
	}
}

// LoadFile reads a YAML config file. ${VAR} references in the file are
// expanded from the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, apperrors.ConfigError("invalid config file").
			WithContext("path", path).
			WithContext("error", err.Error())
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.ConfigFile = path
	return cfg, nil
}

// Discover loads path, or DefaultConfigFile when path is empty. found is
// false when the file does not exist.
func Discover(path string) (cfg *Config, found bool, err error) {
	if path == "" {
		path = DefaultConfigFile
	}
	cfg, err = LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// UsesRedis reports whether the settings select the Redis backend.
func (c *Config) UsesRedis() bool {
	switch c.Backend {
	case BackendRedis:
		return true
	case BackendLocal:
		return false
	default:
		return c.Redis.Configuration != ""
	}
}

// Decided reports whether the settings select a backend at all.
func (c *Config) Decided() bool {
	return c.Backend != "" || c.Redis.Configuration != ""
}

// Validate checks the settings for values no backend can use.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendLocal, BackendRedis:
	default:
		return apperrors.ConfigError("CACHE_BACKEND must be 'local' or 'redis'").
			WithContext("backend", c.Backend)
	}

	if c.Local.SizeLimit < 0 {
		return apperrors.ConfigError("CACHE_SIZE_LIMIT must not be negative")
	}

	if c.UsesRedis() {
		if c.Redis.DB < 0 || c.Redis.DB > 15 {
			return apperrors.ConfigError("REDIS_DB must be a number between 0 and 15")
		}
		if c.Redis.PoolSize < 0 {
			return apperrors.ConfigError("REDIS_POOL_SIZE must not be negative")
		}
		if c.Redis.Workers < 0 {
			return apperrors.ConfigError("REDIS_WORKERS must not be negative")
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns defaultValue when the variable is unset or not an
// integer.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}
