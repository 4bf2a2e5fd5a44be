package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var log *slog.Logger

func init() {
	level := slog.LevelInfo
	if os.Getenv("CARYDES_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewTextHandler(os.Stderr, opts)
	log = slog.New(handler)
}

// Setup reconfigures the process logger once config is loaded. When toFile is
// set, operational logs are teed to an append-only file alongside stderr.
// Called once from main before any messages are accepted.
func Setup(level string, toFile bool, path string) error {
	var out io.Writer = os.Stderr

	if toFile && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}

		out = io.MultiWriter(os.Stderr, f)
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	log = slog.New(slog.NewTextHandler(out, opts))

	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
