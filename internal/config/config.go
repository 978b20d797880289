package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Names storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel        string        `yaml:"log-level" env:"TTT_LOG_LEVEL" env-default:"info"`
	Host            string        `yaml:"host" env:"TTT_HOST" env-default:"127.0.0.1"`
	Port            int           `yaml:"port" env:"TTT_PORT" env-default:"5000"`
	HTTPPort        int           `yaml:"http-port" env:"TTT_HTTP_PORT" env-default:"0"`
	MaxRequestSize  int           `yaml:"max-request-size" env:"TTT_MAX_REQUEST_SIZE" env-default:"1024"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"TTT_SHUTDOWN_TIMEOUT" env-default:"10s"`
	Names           Names         `yaml:"names"`
	Redis           Redis         `yaml:"redis"`
}

type Names struct {
	Storage string   `yaml:"storage" env:"TTT_NAMES_STORAGE" env-default:"memory"`
	Pool    []string `yaml:"pool" env:"TTT_NAMES_POOL" env-separator:","`
}

type Redis struct {
	URL      string `yaml:"url" env:"TTT_REDIS_URL" env-default:"redis://localhost:6379"`
	PoolSize int    `yaml:"pool-size" env:"TTT_REDIS_POOL_SIZE" env-default:"10"`
}

// Load reads the YAML file at path, if any, then applies environment overrides and defaults
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http-port out of range: %d", c.HTTPPort))
	}
	if c.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Errorf("max-request-size must be positive: %d", c.MaxRequestSize))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must not be negative: %s", c.ShutdownTimeout))
	}
	switch c.Names.Storage {
	case StorageMemory, StorageRedis:
	default:
		errs = append(errs, fmt.Errorf("names.storage must be %q or %q: %q", StorageMemory, StorageRedis, c.Names.Storage))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr returns the game server's host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HTTPAddr returns the admin API's listen address, or "" when it is disabled
func (c *Config) HTTPAddr() string {
	if c.HTTPPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// SlogLevel returns the configured log level, falling back to info
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps a level name such as debug, warn or info+2 to a slog level.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log-level %q", s)
	}
	return level, nil
}
