// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"errors"
	"log/slog"
	"slices"
	"testing"
)

// fakeRenderer fills the raster with a constant and records its calls.
type fakeRenderer struct {
	name   string
	fill   uint32
	err    error
	calls  int
	closed bool
	logger *slog.Logger
}

func (f *fakeRenderer) Name() string { return f.name }

func (f *fakeRenderer) Render(_ Params, out []uint32, _ ProgressFunc) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for i := range out {
		out[i] = f.fill
	}
	return nil
}

func (f *fakeRenderer) Close()                   { f.closed = true }
func (f *fakeRenderer) SetLogger(l *slog.Logger) { f.logger = l }

func registerFake(t *testing.T, b Backend, f *fakeRenderer) {
	t.Helper()
	Register(b, func() Renderer { return f })
	t.Cleanup(func() { registry.Unregister(b.String()) })
}

func TestCPUAlwaysRegistered(t *testing.T) {
	if !HasBackend(BackendCPU) {
		t.Fatal("cpu backend not registered")
	}
	if !slices.Contains(Backends(), "cpu") {
		t.Errorf("Backends() = %v, want cpu included", Backends())
	}
}

func TestRegisterRoutesRender(t *testing.T) {
	fake := &fakeRenderer{name: "vulkan", fill: 0xABCDEF}
	registerFake(t, BackendVulkan, fake)

	p := testParams(16, 8)
	p.Backend = BackendVulkan
	out := make([]uint32, 16*8)
	if err := Render(p, out); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("renderer called %d times, want 1", fake.calls)
	}
	for i, w := range out {
		if w != 0xABCDEF {
			t.Fatalf("out[%d] = %#x, want 0xabcdef", i, w)
		}
	}
}

func TestRegisterPropagatesCurrentLogger(t *testing.T) {
	orig := Logger()
	custom := slog.New(slog.DiscardHandler)
	SetLogger(custom)
	t.Cleanup(func() { SetLogger(orig) })

	fake := &fakeRenderer{name: "opencl"}
	registerFake(t, BackendOpenCL, fake)

	if fake.logger != custom {
		t.Error("Register did not hand the current logger to the renderer")
	}
}

func TestBackendErrorIsWrapped(t *testing.T) {
	cause := errors.New("device lost")
	registerFake(t, BackendOpenCL, &fakeRenderer{name: "opencl", err: cause})

	p := testParams(8, 8)
	p.Backend = BackendOpenCL
	err := Render(p, make([]uint32, 64))

	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("error %v is not a *RenderError", err)
	}
	if re.Backend != BackendOpenCL || re.Op != "render" {
		t.Errorf("RenderError = {%v %q}, want {opencl render}", re.Backend, re.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("RenderError does not unwrap to the backend cause")
	}
}

func TestCloseBackends(t *testing.T) {
	fake := &fakeRenderer{name: "vulkan"}
	registerFake(t, BackendVulkan, fake)

	CloseBackends()
	if !fake.closed {
		t.Error("CloseBackends did not close the renderer")
	}
}
