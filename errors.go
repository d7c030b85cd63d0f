// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("mandelbrot: invalid parameters")

// ErrBackendUnavailable indicates the selected backend cannot run: it is not
// compiled in, the device layer failed, or the device lacks a capability.
var ErrBackendUnavailable = errors.New("mandelbrot: backend unavailable")

// RenderError is returned by [Render] for every failure. It records the
// backend and the stage that failed and unwraps to the underlying cause, so
// errors.Is(err, ErrInvalidParams) and errors.Is(err, ErrBackendUnavailable)
// classify it.
type RenderError struct {
	Backend Backend
	Op      string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("mandelbrot: %s backend: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidParams}, args...)...)
}
