// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vulkan

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/mandelbrot"
	"github.com/gogpu/mandelbrot/internal/shader"
)

// packParams serializes the shader Params record: six u32 fields followed by
// scale_y, centre_x and centre_y in the working precision, little endian.
func packParams(p mandelbrot.Params, double bool) []byte {
	buf := make([]byte, shader.ParamsSize(double))
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(p.Width))       //nolint:gosec // validated positive
	le.PutUint32(buf[4:], uint32(p.Height))      //nolint:gosec // validated positive
	le.PutUint32(buf[8:], uint32(p.Samples))     //nolint:gosec // validated positive
	le.PutUint32(buf[12:], uint32(p.MaxIter))    //nolint:gosec // validated < MaxUint32
	le.PutUint32(buf[16:], uint32(p.ColourFlags))
	le.PutUint32(buf[20:], uint32(p.MaxColours)) //nolint:gosec // validated power of two
	if double {
		le.PutUint64(buf[24:], math.Float64bits(p.ScaleY))
		le.PutUint64(buf[32:], math.Float64bits(p.CentreX))
		le.PutUint64(buf[40:], math.Float64bits(p.CentreY))
	} else {
		le.PutUint32(buf[24:], math.Float32bits(float32(p.ScaleY)))
		le.PutUint32(buf[28:], math.Float32bits(float32(p.CentreX)))
		le.PutUint32(buf[32:], math.Float32bits(float32(p.CentreY)))
	}
	return buf
}
