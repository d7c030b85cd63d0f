// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package vulkan registers the Vulkan compute backend.
//
// The backend dispatches the escape-time kernel as a WGSL compute shader,
// compiled to SPIR-V by naga, through the gogpu/wgpu Vulkan HAL. It is
// enabled with a blank import:
//
//	import _ "github.com/gogpu/mandelbrot/backend/vulkan"
//
// Double precision requires the adapter's ShaderFloat64 feature. Without it
// a [mandelbrot.PrecisionDouble] render fails with
// [mandelbrot.ErrBackendUnavailable]; [mandelbrot.PrecisionSingle] runs on
// every adapter.
//
// Builds with the nogpu tag register nothing and every Vulkan render fails
// with [mandelbrot.ErrBackendUnavailable].
package vulkan
