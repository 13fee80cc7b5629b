package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"suryacli/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "both",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger is nil")
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}

	logger.Info("test message", "key", "value")

	// Close before reading so the write is flushed on every platform.
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(content, &logEntry); err != nil {
		t.Errorf("Log output is not valid JSON: %v", err)
	}

	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("Expected key='value', got %v", logEntry["key"])
	}
	if logEntry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", logEntry["level"])
	}
}

func TestInitializeLogger_ReturnsSameLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: filepath.Join(t.TempDir(), "test.log"),
	}

	first, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	second, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Second initialization returned error: %v", err)
	}
	if first != second {
		t.Error("Second initialization returned a different logger")
	}
	if GetLogger() != first {
		t.Error("GetLogger did not return the initialized logger")
	}
}

func TestTraceIDInjection(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	cfg := config.LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	// A span context placed on the context is the only trace source.
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	if err != nil {
		t.Fatalf("Failed to build trace ID: %v", err)
	}
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	if err != nil {
		t.Fatalf("Failed to build span ID: %v", err)
	}
	spanCtx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(context.Background(), "no span on this one")
	logger.InfoContext(spanCtx, "span on this one")

	// Attribute chaining must not drop the trace handler.
	logger.With(slog.String("component", "pipeline")).InfoContext(spanCtx, "derived logger")

	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 log lines, got %d", len(lines))
	}

	var noSpan, withSpan, derived map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &noSpan); err != nil {
		t.Fatalf("Failed to parse first log line: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &withSpan); err != nil {
		t.Fatalf("Failed to parse second log line: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &derived); err != nil {
		t.Fatalf("Failed to parse third log line: %v", err)
	}

	if _, ok := noSpan["trace_id"]; ok {
		t.Errorf("Expected no trace_id without a span, got %v", noSpan["trace_id"])
	}
	if withSpan["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("Expected trace_id from span context, got %v", withSpan["trace_id"])
	}
	if derived["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("Expected trace_id on derived logger, got %v", derived["trace_id"])
	}
	if derived["component"] != "pipeline" {
		t.Errorf("Expected component='pipeline', got %v", derived["component"])
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			ResetLoggerForTesting()
			defer ResetLoggerForTesting()

			tempDir := t.TempDir()
			logFile := filepath.Join(tempDir, "test.log")

			cfg := config.LoggingConfig{
				Level:    tt.level,
				Format:   "json",
				Output:   "file",
				FilePath: logFile,
			}

			logger, err := InitializeLogger(cfg)
			if err != nil {
				t.Fatalf("Failed to initialize logger: %v", err)
			}

			switch tt.level {
			case "debug":
				logger.Debug("test debug")
			case "info":
				logger.Info("test info")
			case "warn":
				logger.Warn("test warn")
			case "error":
				logger.Error("test error")
			}

			CloseLogFile()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("Failed to read log file: %v", err)
			}

			var logEntry map[string]interface{}
			if err := json.Unmarshal(content, &logEntry); err != nil {
				t.Fatalf("Failed to parse log JSON: %v", err)
			}

			if logEntry["level"] != tt.expected {
				t.Errorf("Expected level=%s, got %v", tt.expected, logEntry["level"])
			}
		})
	}

	t.Run("info below error threshold is dropped", func(t *testing.T) {
		ResetLoggerForTesting()
		defer ResetLoggerForTesting()

		logFile := filepath.Join(t.TempDir(), "test.log")

		cfg := config.LoggingConfig{
			Level:    "error",
			Format:   "json",
			Output:   "file",
			FilePath: logFile,
		}

		logger, err := InitializeLogger(cfg)
		if err != nil {
			t.Fatalf("Failed to initialize logger: %v", err)
		}

		logger.Info("should not appear")
		CloseLogFile()

		content, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("Failed to read log file: %v", err)
		}
		if strings.TrimSpace(string(content)) != "" {
			t.Errorf("Expected empty log file, got %q", string(content))
		}
	})
}

func TestTextFormat(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "test.log")

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "text",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("text format line", "step", "load")
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "level=INFO") {
		t.Errorf("Expected level=INFO in text output, got %q", text)
	}
	if !strings.Contains(text, `msg="text format line"`) {
		t.Errorf("Expected message in text output, got %q", text)
	}
	if !strings.Contains(text, "step=load") {
		t.Errorf("Expected step attribute in text output, got %q", text)
	}
}

func TestFileOutputCreatesParentDirs(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "nested", "test.log")

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	if _, err := InitializeLogger(cfg); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	defer CloseLogFile()

	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("Expected log file at nested path: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
