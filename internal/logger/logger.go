// Package logger provides the process-wide structured logger for truckscout.
//
// The CLI configures the handler once via Init. Code without a context
// logs through Debug/Info/Warn/Error. Code on a request path logs through
// the *Context variants, which pick up attributes attached upstream with
// NewContext (for example the listing href during an extraction).
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Options configures the logger.
type Options struct {
	Debug  bool         // Debug level
	Quiet  bool         // Errors only; wins over Debug
	JSON   bool         // JSON handler instead of text
	Output io.Writer    // Default: stderr
	Logger *slog.Logger // Used as-is; other options are ignored
}

var (
	mu   sync.RWMutex
	base = newLogger(Options{})
)

type ctxKey struct{}

func newLogger(opts Options) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}

	level := slog.LevelInfo
	switch {
	case opts.Quiet:
		level = slog.LevelError
	case opts.Debug:
		level = slog.LevelDebug
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: level}

	if opts.JSON {
		return slog.New(slog.NewJSONHandler(out, ho))
	}
	return slog.New(slog.NewTextHandler(out, ho))
}

// Init replaces the process logger.
func Init(opts Options) {
	l := newLogger(opts)
	mu.Lock()
	base = l
	mu.Unlock()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// NewContext returns a copy of ctx whose logger carries args in addition
// to the attributes already attached to ctx.
func NewContext(ctx context.Context, args ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(args...))
}

// FromContext returns the logger attached by NewContext, or the process
// logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return current()
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).ErrorContext(ctx, msg, args...)
}
