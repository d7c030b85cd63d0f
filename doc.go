// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package mandelbrot renders escape-time images of the Mandelbrot set.
//
// # Overview
//
// A render is described by an immutable [Params] value and writes a dense
// row-major raster of 32-bit words whose low 24 bits hold a 0x00BBGGRR colour.
// Three interchangeable backends produce identical output for identical
// parameters and working precision:
//
//   - cpu: a pool of goroutines that claim rows from a shared atomic ticket
//     and stream (index, colour) pairs to a single collector.
//   - opencl: an OpenCL C kernel dispatched over a (height, width) grid.
//   - vulkan: a WGSL compute shader dispatched through gogpu/wgpu's Vulkan HAL.
//
// The CPU backend is always available. GPU backends register themselves when
// their package is imported:
//
//	import _ "github.com/gogpu/mandelbrot/backend/all"
//
// # Quick Start
//
//	p := mandelbrot.DefaultParams()
//	p.Width, p.Height = 800, 600
//	r, err := mandelbrot.RenderRaster(p)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png.Encode(f, r) // *Raster implements image.Image
//
// # Colour Encoding
//
// The averaged escape time is scaled to [0, MaxColours) and copied into the
// byte lanes selected by the 3-bit colour flags (bit 0 red, bit 1 green,
// bit 2 blue). MaxColours must be a power of two.
//
// # Logging
//
// The package is silent by default. Use [SetLogger] to route diagnostics
// to a [log/slog] logger.
package mandelbrot

// Version is the current version of the library.
const Version = "0.4.0"
