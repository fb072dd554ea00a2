package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Self-log rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 5
	DefaultMaxBackups = 2
	DefaultMaxAgeDays = 7
)

// Config describes where the supervisor's own diagnostic log goes. The
// colored console handler is always installed; the rotating file log is
// added when Dir is set, so a failed run can be reconstructed afterwards.
type Config struct {
	Dir        string // directory for devstack.log; empty disables the file log
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds the tool's slog.Logger: colored console output plus an optional
// rotating debug log file.
func (c Config) New() (*slog.Logger, func()) {
	console := NewColorTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.Level}, false)
	if c.Dir == "" {
		return slog.New(console), func() {}
	}
	_ = os.MkdirAll(c.Dir, 0o750)
	fileSink := &lj.Logger{
		Filename:   filepath.Join(c.Dir, "devstack.log"),
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
	}
	fileHandler := slog.NewTextHandler(fileSink, &slog.HandlerOptions{Level: slog.LevelDebug})
	closer := func() { _ = fileSink.Close() }
	return slog.New(teeHandler{console, fileHandler}), closer
}

// teeHandler fans records out to the console and the file sink.
type teeHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.console.Enabled(ctx, level) || t.file.Enabled(ctx, level)
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	if t.console.Enabled(ctx, r.Level) {
		firstErr = t.console.Handle(ctx, r.Clone())
	}
	if t.file.Enabled(ctx, r.Level) {
		if err := t.file.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{t.console.WithAttrs(attrs), t.file.WithAttrs(attrs)}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{t.console.WithGroup(name), t.file.WithGroup(name)}
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
