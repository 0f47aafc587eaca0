package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

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

func BuildLogger(w io.Writer, level string) *slog.Logger {
	ops := &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(level),
	}
	return slog.New(slog.NewJSONHandler(w, ops))
}

// Open builds a logger appending to path. The terminal belongs to the UI, so
// when the file cannot be opened logs are discarded.
func Open(path, level string) (*slog.Logger, func() error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() error { return nil }
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.DiscardHandler), func() error { return nil }
	}
	return BuildLogger(f, level), f.Close
}

func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}
