package app

import (
	"context"
	"log/slog"
	"testing"
)

func TestLogLevelParsing(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logLevel(&Config{LogLevel: in}); got != want {
			t.Errorf("logLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if got := logLevel(nil); got != slog.LevelInfo {
		t.Errorf("logLevel(nil) = %v, want info", got)
	}
}

func TestNewLoggerAppliesLevel(t *testing.T) {
	logger := NewLogger(&Config{LogLevel: "warn"})
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be suppressed at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn should be enabled at warn level")
	}
}
