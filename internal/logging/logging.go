// Package logging sets up the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// levelRouter sends records below ERROR to out and ERROR+ to errOut.
type levelRouter struct {
	min    slog.Level
	out    slog.Handler
	errOut slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.errOut.Handle(ctx, r)
	}
	return lr.out.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		out:    lr.out.WithAttrs(attrs),
		errOut: lr.errOut.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		out:    lr.out.WithGroup(name),
		errOut: lr.errOut.WithGroup(name),
	}
}

// ParseLevel maps debug, info, warn and error to a slog level. Anything
// else is treated as info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// NewHandler builds a handler writing text records below ERROR to out and
// ERROR+ to errOut.
func NewHandler(out, errOut io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	return &levelRouter{
		min:    level,
		out:    slog.NewTextHandler(out, opts),
		errOut: slog.NewTextHandler(errOut, opts),
	}
}

// Setup installs the default logger. INFO and WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also appended to that
// file. The returned cleanup closes the file and is never nil.
func Setup(logPath string, level slog.Level) (func(), error) {
	cleanup := func() {}

	out := io.Writer(os.Stdout)
	errOut := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out = io.MultiWriter(os.Stdout, f)
		errOut = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(NewHandler(out, errOut, level)))
	return cleanup, nil
}
