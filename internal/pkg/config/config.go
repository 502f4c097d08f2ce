// Package config loads orchestrator configuration from config.yaml and
// LOAN_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is read when no explicit config path is given.
const DefaultPath = "config.yaml"

// EnvPrefix prefixes environment overrides. LOAN_SERVER__PORT sets server.port.
const EnvPrefix = "LOAN_"

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Logging    LoggingConfig    `koanf:"logging"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Seed       SeedConfig       `koanf:"seed"`
	Validation ValidationConfig `koanf:"validation"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, postgres, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
	// Database is the generic database configuration for multi-dialect support
	Database DatabaseConfig `koanf:"database"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig is the generic database configuration supporting multiple dialects.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres
	DSN    string `koanf:"dsn"`    // Data source name / connection string
}

type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
}

// ClassifierConfig configures the LLM used by sentiment_check.
type ClassifierConfig struct {
	Enabled          bool          `koanf:"enabled"`
	APIKey           string        `koanf:"api_key"`
	BaseURL          string        `koanf:"base_url"`
	Model            string        `koanf:"model"`
	MaxPurposeTokens int           `koanf:"max_purpose_tokens"`
	Timeout          time.Duration `koanf:"timeout"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// SeedConfig controls loading the embedded demo pipelines and applications
// at server start.
type SeedConfig struct {
	Enabled bool `koanf:"enabled"`
}

type ValidationConfig struct {
	// StrictConditions rejects pipelines whose terminal rule conditions use
	// an unknown comparison operator.
	StrictConditions bool `koanf:"strict_conditions"`
}

var defaults = map[string]any{
	"server.port":                   8000,
	"server.cors_origins":           []string{"*"},
	"server.request_timeout":        "30s",
	"storage.type":                  "sqlite",
	"storage.sqlite.path":           "loan_pipeline.db",
	"logging.level":                 "info",
	"logging.format":                "json",
	"classifier.model":              "gpt-5-mini",
	"classifier.max_purpose_tokens": 512,
	"classifier.timeout":            "20s",
	"telemetry.service_name":        "loan-orchestrator",
	"validation.strict_conditions":  true,
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads DefaultPath and the environment.
func Load() (*Config, error) {
	return LoadFile(DefaultPath)
}

// LoadFile reads path (a missing file is not an error), applies LOAN_
// environment overrides and fills defaults.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Classifier.APIKey = substituteEnvVars(cfg.Classifier.APIKey)
	if cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the runtime cannot act on.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("storage.type: unsupported value %q", c.Storage.Type)
	}
	if c.Storage.Type == "postgres" && c.Storage.Database.DSN == "" {
		return errors.New("storage.database.dsn is required for postgres")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
