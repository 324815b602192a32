// Package config loads container settings from YAML, JSON or the environment.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "FAKEIT_"

// Config holds container settings.
type Config struct {
	ReentrancyDetection bool      `yaml:"reentrancy_detection" json:"reentrancy_detection"`
	Metrics             Toggle    `yaml:"metrics" json:"metrics"`
	Tracing             Toggle    `yaml:"tracing" json:"tracing"`
	Log                 LogConfig `yaml:"log" json:"log"`
}

// Toggle switches an optional feature on.
type Toggle struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // text | json | discard
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ReentrancyDetection: true,
		Log:                 LogConfig{Level: "info", Format: "discard"},
	}
}

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data over the defaults.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromJSON parses JSON data over the defaults.
func FromJSON(data []byte) (Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromEnv reads FAKEIT_* variables over the defaults. Listed .env files are
// loaded first when present; a missing file is not an error.
func FromEnv(envFiles ...string) (Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	cfg.ReentrancyDetection = envBool("REENTRANCY_DETECTION", cfg.ReentrancyDetection)
	cfg.Metrics.Enabled = envBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Tracing.Enabled = envBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Log.Level = env("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = env("LOG_FORMAT", cfg.Log.Format)
	return cfg, cfg.Validate()
}

// Validate reports unknown log levels or formats.
func (c Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "discard":
		return nil
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
}

// Logger builds the slog logger described by the Log section, writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts))
	case "text":
		return slog.New(slog.NewTextHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(io.Discard, opts))
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
