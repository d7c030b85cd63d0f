// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package kernel implements the escape-time computation shared by every
// rendering backend.
//
// The functions here are the reference semantics: the OpenCL and WGSL kernel
// sources generated by internal/shader evaluate the same expressions in the
// same order, so a GPU render in a given precision matches a CPU render in
// that precision bit for bit.
package kernel

// Float is the working precision of a render.
type Float interface {
	~float32 | ~float64
}

// Viewport maps pixel and subsample coordinates to points of the complex
// plane. All fields are stored in the working precision F.
type Viewport[F Float] struct {
	Width, Height int
	Samples       int

	MinX, MinY F
	DX, DY     F
}

// NewViewport derives the sampling grid for a width x height raster centred
// on (cx, cy) with vertical extent scaleY.
//
// The horizontal extent is derived: scaleX = scaleY * width / height.
func NewViewport[F Float](width, height, samples int, cx, cy, scaleY float64) Viewport[F] {
	sy := F(scaleY)
	sx := F(F(sy*F(width)) / F(height))
	return Viewport[F]{
		Width:   width,
		Height:  height,
		Samples: samples,
		MinX:    F(cx) - sx/2,
		MinY:    F(cy) - sy/2,
		DX:      sx / F(width*samples),
		DY:      sy / F(height*samples),
	}
}

// Point returns the coordinate of subsample (sx, sy) of pixel (ix, iy).
func (v Viewport[F]) Point(ix, iy, sx, sy int) (x0, y0 F) {
	x0 = v.MinX + F(F(ix*v.Samples+sx)*v.DX)
	y0 = v.MinY + F(F(iy*v.Samples+sy)*v.DY)
	return x0, y0
}

// Escape iterates z <- z² + c from z = c and returns the iteration count at
// which |z| reached 2.
//
// The loop runs while x²+y² < 4 and iter <= maxIter, so a point that never
// escapes returns maxIter+1.
func Escape[F Float](x0, y0 F, maxIter uint32) uint32 {
	x, y := x0, y0
	var iter uint32
	for {
		xx := F(x * x)
		yy := F(y * y)
		if !(xx+yy < 4 && iter <= maxIter) {
			break
		}
		xy := F(x * y)
		x, y = F(xx-yy)+x0, F(2*xy)+y0
		iter++
	}
	return iter
}

// Pixel returns the supersampled escape time of pixel (ix, iy).
//
// Subsamples that exhausted the iteration budget contribute 0; the sum is
// integer-divided by samples².
func (v Viewport[F]) Pixel(ix, iy int, maxIter uint32) uint32 {
	var total uint32
	for sy := 0; sy < v.Samples; sy++ {
		for sx := 0; sx < v.Samples; sx++ {
			x0, y0 := v.Point(ix, iy, sx, sy)
			if it := Escape(x0, y0, maxIter); it <= maxIter {
				total += it
			}
		}
	}
	return total / uint32(v.Samples*v.Samples) //nolint:gosec // samples is validated positive
}
