// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mandelbrot

import (
	"image"
	"image/color"
)

// Raster is a row-major buffer of packed colour words. Bits 23..16 hold
// blue, 15..8 green and 7..0 red. The top byte is unused.
//
// Raster implements image.Image with opaque alpha.
type Raster struct {
	Width, Height int
	Pix           []uint32
}

// NewRaster allocates a zeroed (black) raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, width*height),
	}
}

// RGB unpacks the pixel at linear index i.
func (r *Raster) RGB(i int) (red, green, blue uint8) {
	w := r.Pix[i]
	return uint8(w), uint8(w >> 8), uint8(w >> 16) //nolint:gosec // byte lanes
}

// ColorModel implements image.Image.
func (r *Raster) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// At implements image.Image.
func (r *Raster) At(x, y int) color.Color {
	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return color.RGBA{}
	}
	red, green, blue := r.RGB(y*r.Width + x)
	return color.RGBA{R: red, G: green, B: blue, A: 0xff}
}

// ToRGBA converts the raster to an *image.RGBA, which every standard
// encoder handles on its fast path.
func (r *Raster) ToRGBA() *image.RGBA {
	img := image.NewRGBA(r.Bounds())
	for i := range r.Pix {
		red, green, blue := r.RGB(i)
		j := i * 4
		img.Pix[j+0] = red
		img.Pix[j+1] = green
		img.Pix[j+2] = blue
		img.Pix[j+3] = 0xff
	}
	return img
}
