// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package all registers every rendering backend compiled into the binary.
//
//	import _ "github.com/gogpu/mandelbrot/backend/all"
package all

import (
	// Each backend registers itself with mandelbrot.Register in init().
	_ "github.com/gogpu/mandelbrot/backend/opencl"
	_ "github.com/gogpu/mandelbrot/backend/vulkan"
)
