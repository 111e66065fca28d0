package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/magicformula/pkg/config"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewWithWriter_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&config.Config{Env: "test", LogLevel: tt.level, LogFormat: "json"}, &buf)
			if log.Level() != tt.want {
				t.Errorf("Expected level %v, got %v", tt.want, log.Level())
			}
		})
	}
}

func TestWithLevel_OverridesWithoutTouchingConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: "test", LogLevel: "warn", LogFormat: "json"}
	base := NewWithWriter(cfg, &buf)

	verbose := base.WithLevel("debug")
	if verbose.Level() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %v", verbose.Level())
	}
	if base.Level() != zerolog.WarnLevel {
		t.Errorf("Expected base logger to stay at warn, got %v", base.Level())
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected config LogLevel to stay warn, got %q", cfg.LogLevel)
	}

	verbose.Module("cli").Debug("wired")
	entry := decode(t, &buf)
	if entry["message"] != "wired" || entry["env"] != "test" {
		t.Errorf("Unexpected entry %v", entry)
	}

	buf.Reset()
	base.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected base logger to drop debug output, got %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "test", LogLevel: "warn", LogFormat: "json"}, &buf)

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("Expected info to be filtered, got %q", buf.String())
	}

	log.Warnf("provider %s failed", "finnhub")
	entry := decode(t, &buf)
	if entry["level"] != "warn" || entry["message"] != "provider finnhub failed" {
		t.Errorf("Unexpected entry: %v", entry)
	}
	if entry["env"] != "test" {
		t.Errorf("Expected env field, got %v", entry["env"])
	}
}

func TestModuleAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "test", LogLevel: "debug", LogFormat: "json"}, &buf)

	log.Module("fetcher").WithFields(map[string]interface{}{
		"symbol": "AAPL",
		"pe":     25.2,
	}).Debug("metrics resolved")

	entry := decode(t, &buf)
	if entry["module"] != "fetcher" {
		t.Errorf("Expected module fetcher, got %v", entry["module"])
	}
	if entry["symbol"] != "AAPL" {
		t.Errorf("Expected symbol AAPL, got %v", entry["symbol"])
	}
	if entry["pe"] != 25.2 {
		t.Errorf("Expected pe 25.2, got %v", entry["pe"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "test", LogLevel: "debug", LogFormat: "json"}, &buf)

	log.WithError(errors.New("status 503")).Error("provider failed")

	entry := decode(t, &buf)
	if entry["error"] != "status 503" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: "console"}, &buf)

	log.Info("screener finished")
	if !strings.Contains(buf.String(), "screener finished") {
		t.Errorf("Expected console output to contain message, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.WithField("k", "v").Error("ignored")
	if log.Level() != zerolog.Disabled {
		t.Errorf("Expected disabled level, got %v", log.Level())
	}
}
