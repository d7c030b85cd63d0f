// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"errors"
	"math"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("DefaultParams().Validate() = %v", err)
	}
	if p.Width != 1024 || p.Height != 768 {
		t.Errorf("size = %dx%d, want 1024x768", p.Width, p.Height)
	}
	if p.CentreX != -0.75 || p.CentreY != 0 || p.ScaleY != 2.5 {
		t.Errorf("view = (%v,%v) scale %v", p.CentreX, p.CentreY, p.ScaleY)
	}
	if p.Threads != runtime.NumCPU() {
		t.Errorf("threads = %d, want %d", p.Threads, runtime.NumCPU())
	}
	if p.Backend != BackendCPU || p.Precision != PrecisionDouble {
		t.Errorf("backend/precision = %v/%v", p.Backend, p.Precision)
	}
}

func TestScaleXAndViewport(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height, p.ScaleY = 200, 100, 2
	if got := p.ScaleX(); got != 4 {
		t.Errorf("ScaleX() = %v, want 4", got)
	}
	minX, maxX, minY, maxY := p.Viewport()
	if minX != -2.75 || maxX != 1.25 || minY != -1 || maxY != 1 {
		t.Errorf("Viewport() = %v %v %v %v", minX, maxX, minY, maxY)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
		ok     bool
	}{
		{"default", func(*Params) {}, true},
		{"zero width", func(p *Params) { p.Width = 0 }, false},
		{"negative height", func(p *Params) { p.Height = -4 }, false},
		{"zero iterations", func(p *Params) { p.MaxIter = 0 }, false},
		{"zero samples", func(p *Params) { p.Samples = 0 }, false},
		{"max samples", func(p *Params) { p.Samples = math.MaxUint16; p.MaxIter = 1 }, true},
		{"samples over 16 bits", func(p *Params) { p.Samples = math.MaxUint16 + 1; p.MaxIter = 1 }, false},
		{"sample sum overflows", func(p *Params) { p.Samples = 65535; p.MaxIter = 2 }, false},
		{"sample sum at limit", func(p *Params) { p.Samples = 16; p.MaxIter = math.MaxUint32 / 256; p.MaxColours = 1 }, true},
		{"sample sum past limit", func(p *Params) { p.Samples = 16; p.MaxIter = math.MaxUint32/256 + 1; p.MaxColours = 1 }, false},
		{"colour product overflows", func(p *Params) { p.MaxIter = 1 << 24; p.MaxColours = 512 }, false},
		{"colour product at limit", func(p *Params) { p.MaxIter = 1<<24 - 1; p.MaxColours = 256 }, true},
		{"iterations at 32 bits", func(p *Params) { p.MaxIter = math.MaxUint32; p.MaxColours = 1 }, false},
		{"colours not power of two", func(p *Params) { p.MaxColours = 100 }, false},
		{"zero colours", func(p *Params) { p.MaxColours = 0 }, false},
		{"one colour", func(p *Params) { p.MaxColours = 1 }, true},
		{"1024 colours", func(p *Params) { p.MaxColours = 1024 }, true},
		{"flags out of range", func(p *Params) { p.ColourFlags = 8 }, false},
		{"flags zero", func(p *Params) { p.ColourFlags = 0 }, true},
		{"nan centre", func(p *Params) { p.CentreX = math.NaN() }, false},
		{"inf centre", func(p *Params) { p.CentreY = math.Inf(-1) }, false},
		{"zero scale", func(p *Params) { p.ScaleY = 0 }, false},
		{"negative scale", func(p *Params) { p.ScaleY = -1 }, false},
		{"zero threads cpu", func(p *Params) { p.Threads = 0 }, false},
		{"zero threads gpu", func(p *Params) { p.Threads = 0; p.Backend = BackendVulkan }, true},
		{"gpu odd width", func(p *Params) { p.Width = 1020; p.Backend = BackendOpenCL }, false},
		{"gpu odd height", func(p *Params) { p.Height = 770; p.Backend = BackendVulkan }, false},
		{"cpu odd size", func(p *Params) { p.Width, p.Height = 1021, 767 }, true},
		{"unknown backend", func(p *Params) { p.Backend = Backend(9) }, false},
		{"unknown precision", func(p *Params) { p.Precision = Precision(3) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrInvalidParams) {
					t.Errorf("error %v does not wrap ErrInvalidParams", err)
				}
			}
		})
	}
}

func TestCacheName(t *testing.T) {
	p := DefaultParams()
	if got, want := p.CacheName(), "1024-768-256-256--0.75-0-2.5-1-7-false.png"; got != want {
		t.Errorf("CacheName() = %q, want %q", got, want)
	}

	p.CentreX, p.CentreY, p.ScaleY = 0.1, -1e-7, 0.000001
	p.Colourise = true
	p.Samples = 3
	if got, want := p.CacheName(), "1024-768-256-256-0.1--0.0000001-0.000001-3-7-true.png"; got != want {
		t.Errorf("CacheName() = %q, want %q", got, want)
	}

	// Threads and backend do not change the pixels.
	q := DefaultParams()
	q.Threads = 99
	q.Backend = BackendVulkan
	if q.CacheName() != DefaultParams().CacheName() {
		t.Error("CacheName depends on threads or backend")
	}

	q.Precision = PrecisionSingle
	if got, want := q.CacheName(), "1024-768-256-256--0.75-0-2.5-1-7-false-single.png"; got != want {
		t.Errorf("single CacheName() = %q, want %q", got, want)
	}
}

func TestParamsString(t *testing.T) {
	p := DefaultParams()
	p.Threads = 4
	s := p.String()
	for _, want := range []string{"1024x768", "centre=(-0.75, 0)", "scale=2.5", "iterations=256", "backend=cpu", "threads=4"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}

	p.Backend = BackendVulkan
	if strings.Contains(p.String(), "threads=") {
		t.Errorf("GPU summary mentions threads: %q", p.String())
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
		ok   bool
	}{
		{"cpu", BackendCPU, true},
		{"", BackendCPU, true},
		{"OpenCL", BackendOpenCL, true},
		{"ocl", BackendOpenCL, true},
		{"vulkan", BackendVulkan, true},
		{" vk ", BackendVulkan, true},
		{"metal", BackendCPU, false},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseBackend(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBackendString(t *testing.T) {
	for b, want := range map[Backend]string{
		BackendCPU:    "cpu",
		BackendOpenCL: "opencl",
		BackendVulkan: "vulkan",
		Backend(7):    "backend(7)",
	} {
		if got := b.String(); got != want {
			t.Errorf("Backend(%d).String() = %q, want %q", uint8(b), got, want)
		}
	}
	if BackendCPU.IsGPU() || !BackendOpenCL.IsGPU() || !BackendVulkan.IsGPU() {
		t.Error("IsGPU misclassifies a backend")
	}
}
