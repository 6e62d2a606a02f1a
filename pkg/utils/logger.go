package utils

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
	levelVar   = new(slog.LevelVar)
)

// InitLogger installs the process-wide slog logger. level is one of
// debug, info, warn or error; anything else falls back to info.
func InitLogger(level string) {
	levelVar.Set(ParseLevel(level))
	loggerOnce.Do(func() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
		slog.SetDefault(logger)
	})
}

// GetLogger returns the process logger, initializing it at info level if
// InitLogger has not run yet.
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
		slog.SetDefault(logger)
	})
	return logger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
