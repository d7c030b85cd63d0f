// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shader generates the device kernels of the GPU backends.
//
// Both kernels are rendered from templates for one working precision and
// evaluate the escape-time loop in the same order as internal/kernel:
// the termination predicate is iter <= max_iter, the bailout is x²+y² < 4,
// and subsample counts are integer-averaged before colour encoding.
package shader

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/gogpu/naga"
)

// Workgroup is the edge of the square compute workgroup. GPU renders need
// dimensions divisible by it.
const Workgroup = 8

// Entry points.
const (
	WGSLEntry   = "main"
	OpenCLEntry = "mandelbrot"
)

//go:embed shaders/mandelbrot.wgsl
var wgslTemplate string

//go:embed shaders/mandelbrot.cl
var openCLTemplate string

var (
	wgslTmpl   = template.Must(template.New("wgsl").Parse(wgslTemplate))
	openCLTmpl = template.Must(template.New("opencl").Parse(openCLTemplate))
)

type templateData struct {
	Real      string
	Suffix    string
	Double    bool
	Workgroup int
	Entry     string
}

func data(double bool) templateData {
	d := templateData{Real: "f32", Suffix: "f", Workgroup: Workgroup, Entry: OpenCLEntry}
	if double {
		d.Real, d.Suffix, d.Double = "f64", "lf", true
	}
	return d
}

func execute(t *template.Template, d templateData) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		// Templates are embedded and data is fixed.
		panic(fmt.Sprintf("shader: %s: %v", t.Name(), err))
	}
	return buf.String()
}

// WGSL returns the compute shader source in f64 or f32.
func WGSL(double bool) string {
	return execute(wgslTmpl, data(double))
}

// OpenCL returns the OpenCL C kernel source in double or float. The double
// variant enables cl_khr_fp64.
func OpenCL(double bool) string {
	d := data(double)
	if double {
		d.Real = "double"
	} else {
		d.Real = "float"
	}
	return execute(openCLTmpl, d)
}

// CompileSPIRV compiles WGSL to SPIR-V words with naga.
func CompileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile wgsl: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: spir-v length %d is not word aligned", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// ParamsSize returns the byte size of the WGSL Params record.
func ParamsSize(double bool) int {
	if double {
		return 6*4 + 3*8
	}
	return 6*4 + 3*4
}
