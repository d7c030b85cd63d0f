// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"slices"

	"github.com/gogpu/gpucontext"
)

// Renderer is an execution backend. Implementations fill out, which has
// exactly p.Width*p.Height elements, with one colour word per pixel.
// Parameters are validated before Render is called.
//
// GPU backends are provided by the backend/ packages and opt in through a
// blank import:
//
//	import _ "github.com/gogpu/mandelbrot/backend/vulkan"
type Renderer interface {
	// Name returns the backend name ("cpu", "opencl", "vulkan").
	Name() string

	// Render computes the raster. progress may be nil; backends that cannot
	// observe partial completion never call it.
	Render(p Params, out []uint32, progress ProgressFunc) error
}

// Closer is implemented by renderers that hold device resources.
type Closer interface {
	Close()
}

var registry = gpucontext.NewRegistry[Renderer](
	gpucontext.WithPriority(BackendCPU.String(), BackendVulkan.String(), BackendOpenCL.String()),
)

func init() {
	Register(BackendCPU, func() Renderer { return cpuRenderer{} })
}

// Register installs the factory for a backend, replacing any previous one.
// Factories of device backends should return a shared instance so the
// device and pipeline are created once per process.
//
// Register is typically called from an init function.
func Register(b Backend, factory func() Renderer) {
	registry.Register(b.String(), factory)
	if r := factory(); r != nil {
		propagateLogger(r, Logger())
	}
}

// Backends returns the sorted names of the registered backends.
func Backends() []string {
	names := registry.Available()
	slices.Sort(names)
	return names
}

// HasBackend reports whether b has a registered renderer.
func HasBackend(b Backend) bool {
	return registry.Has(b.String())
}

// CloseBackends releases device resources held by registered renderers.
// Later renders reacquire them.
func CloseBackends() {
	for _, name := range registry.Available() {
		if c, ok := registry.Get(name).(Closer); ok {
			c.Close()
		}
	}
}

func lookup(b Backend) Renderer {
	return registry.Get(b.String())
}
