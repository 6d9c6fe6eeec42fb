// Package logging configures the console logger for quill commands.
// Command output goes to stdout, so logs always default to stderr. The
// CLI attaches one logger to the command context and every service below
// it logs through From(ctx).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/m-mizutani/clog"
)

type contextKey struct{}

var loggerKey = contextKey{}

// levels maps accepted --log-level values
var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New("info", os.Stderr)
)

// New creates a console logger writing to w (stderr when nil). An
// unknown level falls back to info. Goerr attribute expansion is enabled
// so wrapped errors print their attached values.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	logLevel, ok := levels[strings.ToLower(level)]
	if !ok {
		logLevel = slog.LevelInfo
	}

	handler := clog.New(
		clog.WithWriter(w),
		clog.WithLevel(logLevel),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
		clog.WithAttrHook(clog.GoerrHook),
	)
	return slog.New(handler)
}

// Default returns the process-wide logger
func Default() *slog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. The CLI calls this once
// after parsing the log-level flag.
func SetDefault(logger *slog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// With attaches a logger to the context
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// From returns the logger attached to the context, or the process-wide
// default when none is attached
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return Default()
}
