package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/loanbox/orchestrator/internal/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_LevelVarIsLive(t *testing.T) {
	var buf bytes.Buffer
	logger, level := New(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	level.Set(slog.LevelDebug)
	logger.Debug("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("output = %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Info("run completed", slog.String("final_status", "APPROVED"))

	if !strings.Contains(buf.String(), `"final_status":"APPROVED"`) {
		t.Errorf("output = %q", buf.String())
	}
}
