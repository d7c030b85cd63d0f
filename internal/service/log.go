// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package service

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// logFormatter adapts chi's request logging to slog.
type logFormatter struct {
	logger *slog.Logger
}

func (f *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &logEntry{
		logger: f.logger.With(
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		),
	}
}

type logEntry struct {
	logger *slog.Logger
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	e.logger.Info("service: request", "status", status, "bytes", bytes, "elapsed", elapsed)
}

func (e *logEntry) Panic(v any, stack []byte) {
	e.logger.Error("service: panic", "value", v, "stack", string(stack))
}
