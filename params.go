// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"fmt"
	"math"
	"math/bits"
	"runtime"
	"strconv"
	"strings"

	"github.com/gogpu/mandelbrot/internal/kernel"
)

// Colour flag bits. A flag value selects which byte lanes of a pixel carry
// the scaled escape time.
const (
	ColourRed   uint8 = uint8(kernel.FlagRed)
	ColourGreen uint8 = uint8(kernel.FlagGreen)
	ColourBlue  uint8 = uint8(kernel.FlagBlue)
	ColourWhite uint8 = uint8(kernel.FlagWhite)
)

// Params describes a single render. The zero value is not usable;
// start from [DefaultParams].
type Params struct {
	// Width and Height of the raster in pixels.
	Width, Height int

	// CentreX and CentreY locate the viewport centre in the complex plane.
	CentreX, CentreY float64

	// ScaleY is the vertical extent of the viewport. The horizontal extent
	// is derived from the aspect ratio, see [Params.ScaleX].
	ScaleY float64

	// MaxIter is the iteration cap. Points that never escape are treated
	// as inside the set.
	MaxIter int

	// MaxColours is the colour quantisation. Must be a power of two.
	MaxColours int

	// Samples is the per-axis supersampling factor (Samples² subsamples).
	Samples int

	// ColourFlags is a 3-bit channel mask (bit 0 red, 1 green, 2 blue).
	ColourFlags uint8

	// Colourise derives the flags from the worker id on the CPU backend,
	// which exposes the work distribution. Ignored by GPU backends.
	Colourise bool

	// Threads is the CPU worker count. Ignored by GPU backends.
	Threads int

	// Backend selects the executor.
	Backend Backend

	// Precision selects float64 or float32 arithmetic.
	Precision Precision
}

// DefaultParams returns the parameters of the full-set overview.
func DefaultParams() Params {
	return Params{
		Width:       1024,
		Height:      768,
		CentreX:     -0.75,
		CentreY:     0,
		ScaleY:      2.5,
		MaxIter:     256,
		MaxColours:  256,
		Samples:     1,
		ColourFlags: ColourWhite,
		Threads:     runtime.NumCPU(),
		Backend:     BackendCPU,
		Precision:   PrecisionDouble,
	}
}

// ScaleX returns the horizontal extent of the viewport.
func (p Params) ScaleX() float64 {
	return p.ScaleY * float64(p.Width) / float64(p.Height)
}

// Viewport returns the bounds of the rendered region of the complex plane.
func (p Params) Viewport() (minX, maxX, minY, maxY float64) {
	sx := p.ScaleX()
	return p.CentreX - sx/2, p.CentreX + sx/2, p.CentreY - p.ScaleY/2, p.CentreY + p.ScaleY/2
}

// Validate reports the first violated constraint, wrapped in ErrInvalidParams.
// The escape-time sum of a pixel and the colour product are 32-bit on every
// backend, so their bounds are checked here.
func (p Params) Validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0:
		return invalidf("dimensions %dx%d must be positive", p.Width, p.Height)
	case p.MaxIter <= 0:
		return invalidf("max iterations %d must be positive", p.MaxIter)
	case p.MaxIter >= math.MaxUint32:
		return invalidf("max iterations %d out of range", p.MaxIter)
	case p.MaxColours <= 0 || p.MaxColours > math.MaxUint32 || bits.OnesCount64(uint64(p.MaxColours)) != 1:
		return invalidf("max colours %d must be a power of two", p.MaxColours)
	case p.Samples <= 0:
		return invalidf("samples %d must be positive", p.Samples)
	case p.Samples > math.MaxUint16:
		return invalidf("samples %d out of range", p.Samples)
	case uint64(p.MaxIter) > math.MaxUint32/(uint64(p.Samples)*uint64(p.Samples)):
		return invalidf("samples² × max iterations (%d² × %d) exceeds 32 bits", p.Samples, p.MaxIter)
	case uint64(p.MaxIter) > math.MaxUint32/uint64(p.MaxColours):
		return invalidf("max iterations × max colours (%d × %d) exceeds 32 bits", p.MaxIter, p.MaxColours)
	case uint64(p.Width)*uint64(p.Samples) > math.MaxUint32 || uint64(p.Height)*uint64(p.Samples) > math.MaxUint32:
		return invalidf("dimensions %dx%d × samples %d exceed 32 bits", p.Width, p.Height, p.Samples)
	case p.ColourFlags > ColourWhite:
		return invalidf("colour flags %d exceed 3 bits", p.ColourFlags)
	case !finite(p.CentreX) || !finite(p.CentreY):
		return invalidf("centre (%v, %v) must be finite", p.CentreX, p.CentreY)
	case !finite(p.ScaleY) || p.ScaleY <= 0:
		return invalidf("scale %v must be positive and finite", p.ScaleY)
	case !p.Backend.valid():
		return invalidf("unknown backend %v", p.Backend)
	case p.Precision != PrecisionDouble && p.Precision != PrecisionSingle:
		return invalidf("unknown precision %v", p.Precision)
	case p.Backend == BackendCPU && p.Threads <= 0:
		return invalidf("threads %d must be positive", p.Threads)
	case p.Backend.IsGPU() && (p.Width%8 != 0 || p.Height%8 != 0):
		return invalidf("%s backend needs dimensions divisible by 8, got %dx%d", p.Backend, p.Width, p.Height)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// String returns a one-line summary of the parameters.
func (p Params) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d centre=(%s, %s) scale=%s iterations=%d colours=%d samples=%d colour=%d",
		p.Width, p.Height, formatFloat(p.CentreX), formatFloat(p.CentreY), formatFloat(p.ScaleY),
		p.MaxIter, p.MaxColours, p.Samples, p.ColourFlags)
	if p.Colourise {
		b.WriteString(" colourise")
	}
	fmt.Fprintf(&b, " backend=%s precision=%s", p.Backend, p.Precision)
	if p.Backend == BackendCPU {
		fmt.Fprintf(&b, " threads=%d", p.Threads)
	}
	return b.String()
}

// CacheName returns a file name that encodes every parameter affecting the
// pixels, for content-addressed caching of encoded images. Single-precision
// names carry a "-single" suffix before the extension.
func (p Params) CacheName() string {
	suffix := ""
	if p.Precision == PrecisionSingle {
		suffix = "-single"
	}
	return fmt.Sprintf("%d-%d-%d-%d-%s-%s-%s-%d-%d-%t%s.png",
		p.Width, p.Height, p.MaxIter, p.MaxColours,
		formatFloat(p.CentreX), formatFloat(p.CentreY), formatFloat(p.ScaleY),
		p.Samples, p.ColourFlags, p.Colourise, suffix)
}

// formatFloat prints the shortest decimal that round-trips, never in
// exponent form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
