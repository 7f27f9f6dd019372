// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", s)
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Init builds the logger for a command run. Records always go to stderr; when
// file is set they are appended there too. The returned close func releases the
// file and is safe to call when no file was opened.
func Init(level, file string) (*slog.Logger, func() error, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }
	if file == "" {
		lg := New(os.Stderr, lvl)
		slog.SetDefault(lg)
		return lg, noop, nil
	}
	_ = os.MkdirAll(filepath.Dir(file), 0o755)
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		lg := New(os.Stderr, lvl)
		lg.Error("log file open failed; using stderr only", "path", file, "error", err)
		slog.SetDefault(lg)
		return lg, noop, nil
	}
	mw := io.MultiWriter(f, os.Stderr)
	lg := New(mw, lvl)
	slog.SetDefault(lg)
	log.SetOutput(mw)
	return lg, f.Close, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError+1)
}
