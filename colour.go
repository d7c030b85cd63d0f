// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import "github.com/gogpu/mandelbrot/internal/kernel"

// EncodeColour maps an averaged escape time to a 0x00BBGGRR word.
// maxColours must be a power of two.
func EncodeColour(avg, maxIter, maxColours uint32, flags uint8) uint32 {
	return kernel.Colour(avg, maxIter, maxColours, uint32(flags))
}

// WorkerFlags returns the colour flags used for a CPU worker in colourise
// mode. The result is always in 1..7, so no worker is black.
func WorkerFlags(workerID int) uint8 {
	return uint8(kernel.WorkerFlags(workerID))
}
