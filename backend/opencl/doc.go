// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package opencl registers the OpenCL backend.
//
// The real implementation needs cgo and an OpenCL ICD loader and is compiled
// only with the opencl build tag:
//
//	go build -tags opencl ./cmd/mandelbrot
//
// Without the tag the package registers a renderer that fails with
// [mandelbrot.ErrBackendUnavailable], so selecting the backend reports a
// clear error instead of an unregistered backend.
//
// Double precision requires the cl_khr_fp64 device extension.
package opencl
