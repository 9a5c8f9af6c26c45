package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{
			name:   "json format with info level",
			level:  slog.LevelInfo,
			format: "json",
		},
		{
			name:   "text format with debug level",
			level:  slog.LevelDebug,
			format: "text",
		},
		{
			name:   "default format (json) with error level",
			level:  slog.LevelError,
			format: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if logger.Logger == nil {
				t.Fatal("expected non-nil underlying logger")
			}
		})
	}
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "text")
	logger.Info("engine ready", "engines", 2)

	output := buf.String()
	if !strings.Contains(output, "msg=\"engine ready\"") {
		t.Errorf("expected text-formatted message, got: %s", output)
	}
	if !strings.Contains(output, "engines=2") {
		t.Errorf("expected attribute in output, got: %s", output)
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) == nil {
		t.Fatal("expected default logger for nil")
	}
	l := Discard()
	if OrDefault(l) != l {
		t.Error("expected the given logger back")
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	tests := []struct {
		name      string
		ctx       context.Context
		expectKey bool
		expectMsg bool
	}{
		{
			name:      "context with stream key and message id",
			ctx:       WithMessageID(WithStreamKey(context.Background(), "anon-123"), "msg-9"),
			expectKey: true,
			expectMsg: true,
		},
		{
			name:      "context with stream key only",
			ctx:       WithStreamKey(context.Background(), "anon-123"),
			expectKey: true,
		},
		{
			name: "bare context",
			ctx:  context.Background(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			logger.WithContext(tt.ctx).Info("test message")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid json output: %v", err)
			}
			_, hasKey := entry[FieldStreamKey]
			if hasKey != tt.expectKey {
				t.Errorf("stream key present = %v, want %v: %s", hasKey, tt.expectKey, buf.String())
			}
			_, hasMsg := entry[FieldMessageID]
			if hasMsg != tt.expectMsg {
				t.Errorf("message id present = %v, want %v: %s", hasMsg, tt.expectMsg, buf.String())
			}
		})
	}
}

func TestStreamKeyFrom(t *testing.T) {
	if got := StreamKeyFrom(context.Background()); got != "" {
		t.Errorf("expected empty stream key, got %q", got)
	}
	ctx := WithStreamKey(context.Background(), "user-1")
	if got := StreamKeyFrom(ctx); got != "user-1" {
		t.Errorf("expected user-1, got %q", got)
	}
}

func TestLevelMethods(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *Logger, ctx context.Context)
		level string
	}{
		{
			name:  "info",
			log:   func(l *Logger, ctx context.Context) { l.InfoContext(ctx, "level test") },
			level: "INFO",
		},
		{
			name:  "warn",
			log:   func(l *Logger, ctx context.Context) { l.WarnContext(ctx, "level test") },
			level: "WARN",
		},
		{
			name:  "error",
			log:   func(l *Logger, ctx context.Context) { l.ErrorContext(ctx, "level test") },
			level: "ERROR",
		},
		{
			name:  "debug",
			log:   func(l *Logger, ctx context.Context) { l.DebugContext(ctx, "level test") },
			level: "DEBUG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			logger := &Logger{Logger: slog.New(handler)}

			tt.log(logger, WithStreamKey(context.Background(), "anon-1"))

			output := buf.String()
			if !strings.Contains(output, "level test") {
				t.Errorf("expected message in output, got: %s", output)
			}
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected %s level in output, got: %s", tt.level, output)
			}
			if !strings.Contains(output, "anon-1") {
				t.Errorf("expected stream key in output, got: %s", output)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	enriched := logger.With("service", "mediabridge", "version", "1.0")
	if enriched == nil {
		t.Fatal("expected non-nil logger from With()")
	}

	enriched.Info("test message")
	output := buf.String()

	if !strings.Contains(output, "mediabridge") {
		t.Errorf("expected service field in output, got: %s", output)
	}
	if !strings.Contains(output, "1.0") {
		t.Errorf("expected version field in output, got: %s", output)
	}
}

func TestWithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	logger.WithGroup("video").Info("test message", "sessions", 1)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if _, ok := entry["video"]; !ok {
		t.Errorf("expected 'video' group in output, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{name: "debug level", input: "debug", expected: slog.LevelDebug},
		{name: "info level", input: "info", expected: slog.LevelInfo},
		{name: "warn level", input: "warn", expected: slog.LevelWarn},
		{name: "error level", input: "error", expected: slog.LevelError},
		{name: "invalid level defaults to info", input: "invalid", expected: slog.LevelInfo},
		{name: "empty string defaults to info", input: "", expected: slog.LevelInfo},
		{name: "uppercase DEBUG", input: "DEBUG", expected: slog.LevelInfo}, // Case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	logger := New(slog.LevelInfo, "json")
	SetDefault(logger)

	if slog.Default() != logger.Logger {
		t.Error("SetDefault did not update slog.Default()")
	}
}
