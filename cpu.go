// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/mandelbrot/internal/kernel"
)

// cpuRenderer renders with a pool of goroutines.
//
// Workers claim whole rows from a shared atomic ticket, so fast interior rows
// and slow boundary rows balance without a static partition. Results travel
// as (index, colour) pairs over one channel to the calling goroutine, which is
// the only writer of out.
type cpuRenderer struct{}

func (cpuRenderer) Name() string { return BackendCPU.String() }

func (cpuRenderer) Render(p Params, out []uint32, progress ProgressFunc) error {
	Logger().Debug("cpu: starting workers", "threads", min(p.Threads, p.Height), "rows", p.Height)
	if p.Precision == PrecisionSingle {
		renderRows[float32](p, out, progress)
	} else {
		renderRows[float64](p, out, progress)
	}
	return nil
}

type pixel struct {
	index  int
	colour uint32
}

func renderRows[F kernel.Float](p Params, out []uint32, progress ProgressFunc) {
	view := kernel.NewViewport[F](p.Width, p.Height, p.Samples, p.CentreX, p.CentreY, p.ScaleY)

	// Workers beyond the row count would find the ticket exhausted.
	workers := min(p.Threads, p.Height)

	var nextRow atomic.Int64
	pixels := make(chan pixel, p.Width)

	var wg sync.WaitGroup
	for id := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimRows(view, p, id, &nextRow, pixels)
		}()
	}
	go func() {
		wg.Wait()
		close(pixels)
	}()

	total := len(out)
	step := max(total/100, 1)
	done := 0
	for px := range pixels {
		out[px.index] = px.colour
		done++
		if progress != nil && (done%step == 0 || done == total) {
			progress(done, total)
		}
	}
}

// claimRows runs one worker until the ticket passes the last row.
func claimRows[F kernel.Float](view kernel.Viewport[F], p Params, id int, nextRow *atomic.Int64, pixels chan<- pixel) {
	flags := uint32(p.ColourFlags)
	if p.Colourise {
		flags = kernel.WorkerFlags(id)
	}
	maxIter := uint32(p.MaxIter)       //nolint:gosec // validated < MaxUint32
	maxColours := uint32(p.MaxColours) //nolint:gosec // validated power of two

	for {
		iy := int(nextRow.Add(1) - 1)
		if iy >= p.Height {
			return
		}
		base := iy * p.Width
		for ix := range p.Width {
			avg := view.Pixel(ix, iy, maxIter)
			pixels <- pixel{index: base + ix, colour: kernel.Colour(avg, maxIter, maxColours, flags)}
		}
	}
}
