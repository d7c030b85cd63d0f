// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build nogpu

package vulkan

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/mandelbrot"
)

// SetDeviceProvider always fails in nogpu builds.
func SetDeviceProvider(any) error {
	return fmt.Errorf("%w: vulkan: built with nogpu", mandelbrot.ErrBackendUnavailable)
}

// AdapterInfo reports an unknown adapter in nogpu builds.
func AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

// SupportsFloat64 is false in nogpu builds.
func SupportsFloat64() bool { return false }
