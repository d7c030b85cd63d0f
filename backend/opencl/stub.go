// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !opencl

package opencl

import (
	"fmt"

	"github.com/gogpu/mandelbrot"
)

func init() {
	mandelbrot.Register(mandelbrot.BackendOpenCL, func() mandelbrot.Renderer { return stubRenderer{} })
}

type stubRenderer struct{}

func (stubRenderer) Name() string { return mandelbrot.BackendOpenCL.String() }

func (stubRenderer) Render(mandelbrot.Params, []uint32, mandelbrot.ProgressFunc) error {
	return fmt.Errorf("%w: opencl: built without the opencl tag", mandelbrot.ErrBackendUnavailable)
}
