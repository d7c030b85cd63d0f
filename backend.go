// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"fmt"
	"strings"
)

// Backend selects the execution backend of a render.
type Backend uint8

const (
	// BackendCPU renders on goroutines. Always available.
	BackendCPU Backend = iota

	// BackendOpenCL renders with an OpenCL kernel (build tag "opencl").
	BackendOpenCL

	// BackendVulkan renders with a compute shader on the Vulkan HAL.
	BackendVulkan
)

var backendNames = [...]string{
	BackendCPU:    "cpu",
	BackendOpenCL: "opencl",
	BackendVulkan: "vulkan",
}

// String returns the registry name of the backend.
func (b Backend) String() string {
	if int(b) < len(backendNames) {
		return backendNames[b]
	}
	return fmt.Sprintf("backend(%d)", uint8(b))
}

// IsGPU reports whether the backend dispatches to a device.
// GPU backends require dimensions that are multiples of 8.
func (b Backend) IsGPU() bool {
	return b == BackendOpenCL || b == BackendVulkan
}

func (b Backend) valid() bool { return int(b) < len(backendNames) }

// ParseBackend converts a name such as "cpu", "opencl" ("ocl") or "vulkan"
// to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu", "":
		return BackendCPU, nil
	case "opencl", "ocl":
		return BackendOpenCL, nil
	case "vulkan", "vk":
		return BackendVulkan, nil
	}
	return BackendCPU, fmt.Errorf("mandelbrot: unknown backend %q", s)
}

// Precision is the real type used for coordinates and iteration variables.
type Precision uint8

const (
	// PrecisionDouble computes in float64.
	PrecisionDouble Precision = iota

	// PrecisionSingle computes in float32. It runs on GPU devices without
	// 64-bit float support, where PrecisionDouble is rejected.
	PrecisionSingle
)

func (p Precision) String() string {
	switch p {
	case PrecisionDouble:
		return "double"
	case PrecisionSingle:
		return "single"
	default:
		return fmt.Sprintf("precision(%d)", uint8(p))
	}
}
