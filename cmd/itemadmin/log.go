package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter is a slog.Handler that drops records below minLevel and sends
// ERROR+ to stderr, everything else to stdout.
type levelRouter struct {
	minLevel slog.Leveler
	stdout   slog.Handler
	stderr   slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.minLevel.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		minLevel: lr.minLevel,
		stdout:   lr.stdout.WithAttrs(attrs),
		stderr:   lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		minLevel: lr.minLevel,
		stdout:   lr.stdout.WithGroup(name),
		stderr:   lr.stderr.WithGroup(name),
	}
}

func newLevelRouter(minLevel slog.Leveler, stdout, stderr io.Writer) *levelRouter {
	opts := &slog.HandlerOptions{Level: minLevel}
	return &levelRouter{
		minLevel: minLevel,
		stdout:   slog.NewTextHandler(stdout, opts),
		stderr:   slog.NewTextHandler(stderr, opts),
	}
}

// setupLogger installs the default logger at the named level ("debug",
// "info", "warn" or "error"). If logPath is non-empty, records are also
// appended to that file. The returned cleanup closes the file, if opened.
func setupLogger(level, logPath string) (func(), error) {
	var minLevel slog.Level
	if err := minLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(newLevelRouter(minLevel, stdoutW, stderrW)))
	return cleanup, nil
}
