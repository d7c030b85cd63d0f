// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package vulkan

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/mandelbrot"
)

// logger is handed over by mandelbrot.SetLogger, which walks the backend
// registry and calls Renderer.SetLogger on the registered instance. Before
// the first hand-over the package logs through mandelbrot.Logger.
var logger atomic.Pointer[slog.Logger]

func slogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return mandelbrot.Logger()
}

func setLogger(l *slog.Logger) { logger.Store(l) }
