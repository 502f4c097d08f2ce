package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 30s", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLite.Path != "loan_pipeline.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Classifier.Enabled {
		t.Error("Classifier.Enabled = true, want false by default")
	}
	if cfg.Classifier.MaxPurposeTokens != 512 {
		t.Errorf("Classifier.MaxPurposeTokens = %d, want 512", cfg.Classifier.MaxPurposeTokens)
	}
	if !cfg.Validation.StrictConditions {
		t.Error("Validation.StrictConditions = false, want true")
	}
}

func TestLoadFile_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("MY_OPENAI_KEY", "sk-from-env")
	t.Setenv("LOAN_SERVER__PORT", "9090")
	t.Setenv("LOAN_LOGGING__LEVEL", "debug")

	path := writeConfig(t, `
server:
  port: 8001
  cors_origins: ["http://localhost:3000"]
storage:
  type: memory
classifier:
  enabled: true
  api_key: ${MY_OPENAI_KEY}
  timeout: 5s
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want env override 9090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Storage.Type = %q, want memory", cfg.Storage.Type)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Classifier.APIKey != "sk-from-env" {
		t.Errorf("Classifier.APIKey = %q, want substituted value", cfg.Classifier.APIKey)
	}
	if cfg.Classifier.Timeout != 5*time.Second {
		t.Errorf("Classifier.Timeout = %v, want 5s", cfg.Classifier.Timeout)
	}
}

func TestLoadFile_OpenAIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Classifier.APIKey != "sk-fallback" {
		t.Errorf("Classifier.APIKey = %q, want sk-fallback", cfg.Classifier.APIKey)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown storage", "storage:\n  type: mysql\n"},
		{"postgres without dsn", "storage:\n  type: postgres\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tt.body)); err == nil {
				t.Error("LoadFile() error = nil, want validation error")
			}
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("A", "one")
	if got := substituteEnvVars("${A}-${UNSET_VAR_X}"); got != "one-" {
		t.Errorf("substituteEnvVars() = %q, want %q", got, "one-")
	}
}
