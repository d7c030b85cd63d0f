// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package progress draws a terminal progress bar for CPU renders.
package progress

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb"
)

// Reporter receives render progress. Update matches mandelbrot.ProgressFunc.
type Reporter interface {
	Update(done, total int)
	Finish()
}

// New returns a Reporter for total pixels writing to stderr. When enabled is
// false the returned Reporter does nothing.
func New(total int, enabled bool) Reporter {
	if !enabled {
		return nop{}
	}
	return NewWriter(total, os.Stderr)
}

// NewWriter returns a bar that writes to w.
func NewWriter(total int, w io.Writer) Reporter {
	bar := pb.New(total)
	bar.Output = w
	bar.ShowPercent = true
	bar.ShowCounters = true
	bar.ShowBar = true
	bar.ShowSpeed = false
	bar.ShowTimeLeft = false
	bar.ShowFinalTime = false
	bar.ManualUpdate = true
	return &barReporter{bar: bar}
}

// barReporter redraws only when the render reports progress.
type barReporter struct {
	once sync.Once
	bar  *pb.ProgressBar
}

func (r *barReporter) Update(done, total int) {
	r.once.Do(func() {
		r.bar.SetTotal(total)
		r.bar.Start()
	})
	r.bar.Set(done)
	r.bar.Update()
}

func (r *barReporter) Finish() {
	r.once.Do(func() { r.bar.Start() })
	r.bar.Finish()
}

type nop struct{}

func (nop) Update(int, int) {}
func (nop) Finish()         {}
