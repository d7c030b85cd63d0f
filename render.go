// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"errors"
	"fmt"
	"time"
)

// ProgressFunc observes render progress. done counts collected pixels out of
// total. It is called from the rendering goroutine and must not block.
type ProgressFunc func(done, total int)

// RenderOption configures a single render.
type RenderOption func(*renderOptions)

type renderOptions struct {
	progress ProgressFunc
}

// WithProgress reports progress roughly every 1% of the pixels.
// Only the CPU backend reports progress.
func WithProgress(fn ProgressFunc) RenderOption {
	return func(o *renderOptions) {
		o.progress = fn
	}
}

// Render validates p and fills out with p.Width*p.Height colour words on the
// backend selected by p.Backend.
//
// Every error is a *RenderError. Use errors.Is with ErrInvalidParams or
// ErrBackendUnavailable to classify it.
func Render(p Params, out []uint32, opts ...RenderOption) error {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		return &RenderError{Backend: p.Backend, Op: "validate", Err: err}
	}
	if len(out) != p.Width*p.Height {
		return &RenderError{Backend: p.Backend, Op: "validate",
			Err: invalidf("output holds %d words, want %d", len(out), p.Width*p.Height)}
	}

	r := lookup(p.Backend)
	if r == nil {
		return &RenderError{Backend: p.Backend, Op: "select",
			Err: fmt.Errorf("%w: not registered (import backend/%s)", ErrBackendUnavailable, p.Backend)}
	}

	log := Logger()
	log.Debug("render start", "backend", r.Name(), "width", p.Width, "height", p.Height,
		"max_iter", p.MaxIter, "samples", p.Samples, "precision", p.Precision)

	start := time.Now()
	if err := r.Render(p, out, o.progress); err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			return err
		}
		return &RenderError{Backend: p.Backend, Op: "render", Err: err}
	}
	log.Info("render complete", "backend", r.Name(), "pixels", len(out), "elapsed", time.Since(start))
	return nil
}

// RenderRaster allocates a raster for p and renders into it.
func RenderRaster(p Params, opts ...RenderOption) (*Raster, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, &RenderError{Backend: p.Backend, Op: "validate",
			Err: invalidf("dimensions %dx%d must be positive", p.Width, p.Height)}
	}
	r := NewRaster(p.Width, p.Height)
	if err := Render(p, r.Pix, opts...); err != nil {
		return nil, err
	}
	return r, nil
}
