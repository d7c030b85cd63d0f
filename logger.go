// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler backs the default logger; renders are silent until the CLI or
// an embedding program installs one.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs l for the render driver and the CPU backend, then walks
// the backend registry and hands l to every registered renderer that has a
// SetLogger method. Backends registered later receive it from [Register].
// Pass nil to restore silence.
//
// Log levels:
//   - [slog.LevelDebug]: buffer sizes, dispatch shape, worker counts
//   - [slog.LevelInfo]: backend selection, adapter name, render duration
//   - [slog.LevelWarn]: resource release errors, service shutdown
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	for _, name := range registry.Available() {
		propagateLogger(registry.Get(name), l)
	}
}

// Logger returns the current logger. Backends fall back to it before the
// registry has handed them one.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands l to r if r keeps its own logger.
func propagateLogger(r Renderer, l *slog.Logger) {
	if ls, ok := r.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
