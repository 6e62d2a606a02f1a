package utils

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitLogger_SetsLevel(t *testing.T) {
	InitLogger("error")
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}
	if got := levelVar.Level(); got != slog.LevelError {
		t.Fatalf("level = %v, want %v", got, slog.LevelError)
	}
	InitLogger("info")
}
