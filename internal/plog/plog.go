// Package plog provides the leveled logger used throughout the input
// processing pipeline for "log and continue" failure paths: a missed
// keybind press, a settings-save failure, a temp-layer activation that
// the keymap layer API rejected.
//
// No third-party structured-logging library appears in the example
// dependency pack's actual call sites, so this wraps the standard
// library's log/slog rather than adopting one; see DESIGN.md.
package plog

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the narrow logging surface used by this module's packages.
// Components are handed one (optionally scoped via With) rather than
// reaching for a package-level global.
type Logger struct {
	h *slog.Logger
}

// New returns a Logger writing to the given handler. A nil handler
// defaults to a text handler on os.Stderr at Info level.
func New(h slog.Handler) Logger {
	if h == nil {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return Logger{h: slog.New(h)}
}

// Discard returns a Logger that drops everything. Useful as a zero-cost
// default for instances created without an explicit logger.
func Discard() Logger {
	return New(discardHandler{})
}

// With returns a Logger scoped with the given key/value pairs, e.g.
// log.With("instance", name).
func (l Logger) With(args ...any) Logger {
	return Logger{h: l.h.With(args...)}
}

func (l Logger) Debug(msg string, args ...any) { l.h.Debug(msg, args...) }
func (l Logger) Info(msg string, args ...any)  { l.h.Info(msg, args...) }
func (l Logger) Warn(msg string, args ...any)  { l.h.Warn(msg, args...) }
func (l Logger) Error(msg string, args ...any) { l.h.Error(msg, args...) }

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
