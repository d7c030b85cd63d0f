// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"math"
	"slices"
	"testing"
)

// testParams returns the overview parameters at the given size on one thread.
func testParams(width, height int) Params {
	p := DefaultParams()
	p.Width, p.Height = width, height
	p.Threads = 1
	return p
}

func mustRender(t *testing.T, p Params) []uint32 {
	t.Helper()
	out := make([]uint32, p.Width*p.Height)
	if err := Render(p, out); err != nil {
		t.Fatalf("Render(%v): %v", p, err)
	}
	return out
}

func TestCPUCoverage(t *testing.T) {
	p := testParams(37, 23)
	p.Threads = 5
	out := make([]uint32, p.Width*p.Height)
	for i := range out {
		out[i] = 0xFFFFFFFF
	}
	if err := Render(p, out); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i, w := range out {
		if w>>24 != 0 {
			t.Fatalf("out[%d] = %#x was not written", i, w)
		}
	}
}

func TestCPUDeterministic(t *testing.T) {
	p := testParams(64, 48)
	p.Threads = 4
	a := mustRender(t, p)
	b := mustRender(t, p)
	if !slices.Equal(a, b) {
		t.Error("two renders with identical params differ")
	}
}

func TestCPUThreadsIndependent(t *testing.T) {
	p := testParams(16, 16)
	one := mustRender(t, p)
	for _, threads := range []int{2, 3, 8, 32} {
		p.Threads = threads
		if got := mustRender(t, p); !slices.Equal(one, got) {
			t.Errorf("threads=%d differs from threads=1", threads)
		}
	}
}

// Scenario: 16x16 overview on one thread. The centre pixel maps exactly to
// -0.75+0i and the pixels left of it sit inside the period-2 bulb.
func TestCPUHugeThreadCount(t *testing.T) {
	p := testParams(32, 8)
	want := mustRender(t, p)

	for _, threads := range []int{100000, math.MaxInt} {
		p.Threads = threads
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate(threads=%d): %v", threads, err)
		}
		if got := mustRender(t, p); !slices.Equal(got, want) {
			t.Errorf("threads=%d differs from the single-threaded render", threads)
		}
	}
}

func TestCPUOverviewInteriorBlack(t *testing.T) {
	p := testParams(16, 16)
	out := mustRender(t, p)
	for _, xy := range [][2]int{{8, 8}, {7, 8}, {7, 7}} {
		if w := out[xy[1]*16+xy[0]]; w != 0 {
			t.Errorf("pixel (%d,%d) = %#06x, want black", xy[0], xy[1], w)
		}
	}
	if out[15] == 0 {
		t.Error("top-right corner is black, expected escaped colour")
	}
}

func TestCPUBlackInterior(t *testing.T) {
	for _, size := range [][2]int{{16, 16}, {64, 48}, {100, 60}} {
		p := testParams(size[0], size[1])
		p.MaxIter = 512
		out := mustRender(t, p)
		centre := (p.Height/2)*p.Width + p.Width/2
		if out[centre] != 0 {
			t.Errorf("%dx%d: centre pixel = %#06x, want 0", p.Width, p.Height, out[centre])
		}
	}
}

// Row iy samples y = -s/2 + iy*dy, so with centre_y = 0 row iy mirrors row
// height-iy. Dyadic scale and height keep the sample coordinates exact.
func TestCPUSymmetry(t *testing.T) {
	p := testParams(64, 64)
	p.Threads = 4
	out := mustRender(t, p)
	for y := 1; y < p.Height; y++ {
		for x := range p.Width {
			a, b := out[y*p.Width+x], out[(p.Height-y)*p.Width+x]
			if a != b {
				t.Fatalf("pixel (%d,%d) = %#x, mirror = %#x", x, y, a, b)
			}
		}
	}
}

// Scenario: red-only flags with 2x2 supersampling.
func TestCPUColourMaskRed(t *testing.T) {
	p := testParams(64, 64)
	p.Samples = 2
	p.ColourFlags = ColourRed
	r := NewRaster(p.Width, p.Height)
	if err := Render(p, r.Pix); err != nil {
		t.Fatal(err)
	}
	nonzero := 0
	for i, w := range r.Pix {
		if w == 0 {
			continue
		}
		nonzero++
		red, green, blue := r.RGB(i)
		if green != 0 || blue != 0 || red == 0 {
			t.Fatalf("pixel %d = %#06x, want red only", i, w)
		}
	}
	if nonzero == 0 {
		t.Error("no coloured pixels")
	}
}

func TestCPUColourMaskAllFlags(t *testing.T) {
	for flags := uint8(0); flags <= 7; flags++ {
		p := testParams(32, 24)
		p.ColourFlags = flags
		for i, w := range mustRender(t, p) {
			for k := range 3 {
				if lane := (w >> (8 * k)) & 0xFF; lane != 0 && flags&(1<<k) == 0 {
					t.Fatalf("flags=%d pixel %d = %#06x: lane %d set", flags, i, w, k)
				}
			}
		}
	}
}

func TestCPUColouriseSingleWorkerIsRed(t *testing.T) {
	p := testParams(32, 32)
	p.Colourise = true
	p.ColourFlags = ColourBlue
	for i, w := range mustRender(t, p) {
		if w&^0xFF != 0 {
			t.Fatalf("pixel %d = %#06x, worker 0 should paint red only", i, w)
		}
	}
}

func TestCPUColouriseUsesWorkerHues(t *testing.T) {
	p := testParams(64, 64)
	p.Colourise = true
	p.Threads = 7
	for i, w := range mustRender(t, p) {
		if w == 0 {
			continue
		}
		ok := false
		for id := range 7 {
			if w&^(EncodeColour(255, 256, 256, WorkerFlags(id))) == 0 {
				ok = true
				break
			}
		}
		if !ok {
			t.Fatalf("pixel %d = %#06x does not match any worker hue", i, w)
		}
	}
}

func TestCPUSupersamplingKeepsUniformRegions(t *testing.T) {
	tests := []struct {
		name   string
		cx, cy float64
		scale  float64
	}{
		// |c| < 1/4 lies inside the main cardioid.
		{"interior", 0, 0, 0.2},
		// |c| > 2 escapes before the first iteration.
		{"exterior", 10, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, samples := range []int{1, 2, 4} {
				p := testParams(24, 16)
				p.CentreX, p.CentreY, p.ScaleY = tt.cx, tt.cy, tt.scale
				p.Samples = samples
				for i, w := range mustRender(t, p) {
					if w != 0 {
						t.Fatalf("samples=%d pixel %d = %#06x, want black", samples, i, w)
					}
				}
			}
		})
	}
}

// Scenario: the cusp of the main cardioid. The real axis left of 0.25 is
// inside the set; the right edge escapes within the budget.
func TestCPUCardioidCusp(t *testing.T) {
	p := testParams(128, 128)
	p.CentreX, p.CentreY, p.ScaleY = 0.25, 0, 0.01
	p.MaxIter = 512
	p.Threads = 4
	out := mustRender(t, p)

	row := out[64*p.Width : 65*p.Width]
	for x := 0; x < 60; x++ {
		if row[x] != 0 {
			t.Errorf("axis pixel %d = %#06x, want black", x, row[x])
		}
	}
	if row[p.Width-1] == 0 {
		t.Error("right edge of the axis did not escape")
	}

	black := 0
	for _, w := range out {
		if w == 0 {
			black++
		}
	}
	t.Logf("black pixels: %.1f%%", 100*float64(black)/float64(len(out)))
}

func TestCPUSinglePrecisionClose(t *testing.T) {
	p := testParams(64, 48)
	double := mustRender(t, p)
	p.Precision = PrecisionSingle
	single := mustRender(t, p)

	agree := 0
	for i := range double {
		if double[i]>>16 == single[i]>>16 {
			agree++
		}
	}
	if frac := float64(agree) / float64(len(double)); frac < 0.9 {
		t.Errorf("single and double agree on %.1f%% of pixels, want >= 90%%", 100*frac)
	}
}

func TestCPUProgress(t *testing.T) {
	p := testParams(40, 30)
	p.Threads = 3
	var calls, last int
	err := Render(p, make([]uint32, 40*30), WithProgress(func(done, total int) {
		if total != 1200 {
			t.Errorf("total = %d, want 1200", total)
		}
		if done <= last {
			t.Errorf("progress went from %d to %d", last, done)
		}
		last = done
		calls++
	}))
	if err != nil {
		t.Fatal(err)
	}
	if last != 1200 {
		t.Errorf("final progress = %d, want 1200", last)
	}
	if calls < 100 || calls > 101 {
		t.Errorf("progress called %d times, want ~100", calls)
	}
}
