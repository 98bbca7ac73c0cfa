package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log JSON %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil || logger.Logger == nil {
		t.Fatal("NewLogger() returned an empty logger")
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected slog.Level
	}{
		{"debug level", "DEBUG", slog.LevelDebug},
		{"info level", "INFO", slog.LevelInfo},
		{"warn level", "WARN", slog.LevelWarn},
		{"warning level", "WARNING", slog.LevelWarn},
		{"error level", "ERROR", slog.LevelError},
		{"lowercase debug", "debug", slog.LevelDebug},
		{"padded", " warn ", slog.LevelWarn},
		{"invalid level", "INVALID", slog.LevelInfo},
		{"empty value", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(LevelEnv, tt.envValue)
			if level := getLogLevelFromEnv(); level != tt.expected {
				t.Errorf("getLogLevelFromEnv() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestNewLoggerWithWriter_RespectsLevel(t *testing.T) {
	t.Setenv(LevelEnv, "WARN")
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)

	logger.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info entry written at WARN level: %s", buf.String())
	}

	logger.Warn(context.Background(), "shown", "tick", 7)
	entry := decode(t, &buf)
	if entry["msg"] != "shown" || entry["tick"] != float64(7) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestCorrelationID(t *testing.T) {
	t.Run("generate correlation ID", func(t *testing.T) {
		id1 := GenerateCorrelationID()
		id2 := GenerateCorrelationID()
		if len(id1) != 16 {
			t.Errorf("GenerateCorrelationID() returned wrong length: %d", len(id1))
		}
		if id1 == id2 {
			t.Error("GenerateCorrelationID() returned duplicate IDs")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "run-42")
		if got := GetCorrelationID(ctx); got != "run-42" {
			t.Errorf("GetCorrelationID() = %q, want %q", got, "run-42")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if got := GetCorrelationID(context.Background()); got != "" {
			t.Errorf("GetCorrelationID() = %q, want empty string", got)
		}
	})

	t.Run("auto-generate", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "")
		if got := GetCorrelationID(ctx); len(got) != 16 {
			t.Errorf("auto-generated correlation ID = %q", got)
		}
	})
}

func TestSanitizeAttributes(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		expected string
	}{
		{"password field", slog.String("password", "secret123"), "[REDACTED]"},
		{"recorder dsn", slog.String("recorder_dsn", "postgres://u:p@h/db"), "[REDACTED]"},
		{"auth token", slog.String("auth_token", "abc"), "[REDACTED]"},
		{"tick kept", slog.Int("tick", 12), "12"},
		{"session kept", slog.Int("session_id", 3), "3"},
		{"key kept", slog.String("key", "g"), "g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeAttributes(nil, tt.attr)
			if result.Value.String() != tt.expected {
				t.Errorf("sanitizeAttributes() = %q, want %q", result.Value.String(), tt.expected)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithLevel(&buf, slog.LevelDebug)
	ctx := WithCorrelationID(context.Background(), "test-id-123")

	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"info", func() { logger.Info(ctx, "message", "mode", "escort") }, "INFO"},
		{"warn", func() { logger.Warn(ctx, "message", "mode", "escort") }, "WARN"},
		{"debug", func() { logger.Debug(ctx, "message", "mode", "escort") }, "DEBUG"},
		{"error", func() { logger.Error(ctx, "message", errors.New("boom"), "mode", "escort") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			entry := decode(t, &buf)

			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %v", entry["level"], tt.level)
			}
			if entry["correlation_id"] != "test-id-123" {
				t.Errorf("correlation_id = %v", entry["correlation_id"])
			}
			if entry["mode"] != "escort" {
				t.Errorf("mode = %v", entry["mode"])
			}
		})
	}

	buf.Reset()
	logger.Error(ctx, "message", errors.New("boom"))
	if entry := decode(t, &buf); entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithLevel(&buf, slog.LevelInfo).With("component", "recorder")

	logger.Info(context.Background(), "opened")
	if entry := decode(t, &buf); entry["component"] != "recorder" {
		t.Errorf("component = %v, want recorder", entry["component"])
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error(context.Background(), "dropped", errors.New("x"))
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() logger should not be enabled at ERROR")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}

	original := errors.New("original error")
	wrapped := WrapError(original, "failed to open recorder %s", "sqlite")
	if wrapped.Error() != "failed to open recorder sqlite: original error" {
		t.Errorf("WrapError() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, original) {
		t.Error("WrapError() should preserve original error")
	}
}

func TestLogWithoutCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithLevel(&buf, slog.LevelInfo)

	logger.Info(context.Background(), "test message")
	if strings.Contains(buf.String(), "correlation_id") {
		t.Error("log should not contain correlation_id when none is set in context")
	}
}
