package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration values for the voting service. Values come
// from an optional YAML file, overridden by environment variables.
type Config struct {
	HTTPPort int `yaml:"http_port"`
	// SQLiteDSN selects the persistent store. An empty value runs the
	// service on the in-memory store.
	SQLiteDSN        string        `yaml:"sqlite_dsn"`
	DefaultMaxVoters int           `yaml:"default_max_voters"`
	ViewCacheTTL     time.Duration `yaml:"view_cache_ttl"`
	EventBufferSize  int           `yaml:"event_buffer_size"`
	LogLevel         string        `yaml:"log_level"`
}

// Load parses configuration from the optional YAML file named by
// SLOTPOLL_CONFIG_PATH and the current process environment. Environment
// variables win over file values.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "",
		DefaultMaxVoters: 0,
		ViewCacheTTL:     15 * time.Second,
		EventBufferSize:  64,
		LogLevel:         "info",
	}

	if path := strings.TrimSpace(os.Getenv("SLOTPOLL_CONFIG_PATH")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SLOTPOLL_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SLOTPOLL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SLOTPOLL_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if capValue := strings.TrimSpace(os.Getenv("SLOTPOLL_DEFAULT_MAX_VOTERS")); capValue != "" {
		maxVoters, err := strconv.Atoi(capValue)
		if err != nil || maxVoters < 0 {
			invalid = append(invalid, "SLOTPOLL_DEFAULT_MAX_VOTERS")
		} else {
			cfg.DefaultMaxVoters = maxVoters
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SLOTPOLL_VIEW_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SLOTPOLL_VIEW_CACHE_TTL")
		} else {
			cfg.ViewCacheTTL = ttl
		}
	}

	if sizeValue := strings.TrimSpace(os.Getenv("SLOTPOLL_EVENT_BUFFER_SIZE")); sizeValue != "" {
		size, err := strconv.Atoi(sizeValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "SLOTPOLL_EVENT_BUFFER_SIZE")
		} else {
			cfg.EventBufferSize = size
		}
	}

	if level := strings.TrimSpace(os.Getenv("SLOTPOLL_LOG_LEVEL")); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, "SLOTPOLL_LOG_LEVEL")
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
