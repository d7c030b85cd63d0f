// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build opencl

package opencl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"github.com/gogpu/mandelbrot"
	"github.com/gogpu/mandelbrot/internal/shader"
)

var defaultRenderer = &Renderer{}

func init() {
	mandelbrot.Register(mandelbrot.BackendOpenCL, func() mandelbrot.Renderer { return defaultRenderer })
}

// Renderer runs the escape-time kernel on the first OpenCL device of the
// first platform, preferring GPUs. The context, queue and compiled programs
// are cached until Close.
type Renderer struct {
	mu sync.Mutex

	device  *cl.Device
	context *cl.Context
	queue   *cl.CommandQueue

	// Keyed by precision: true for the double kernel.
	programs map[bool]*program

	logger atomic.Pointer[slog.Logger]
}

type program struct {
	program *cl.Program
	kernel  *cl.Kernel
}

var _ mandelbrot.Renderer = (*Renderer)(nil)

func (r *Renderer) Name() string { return mandelbrot.BackendOpenCL.String() }

// SetLogger implements the logger propagation of mandelbrot.SetLogger.
func (r *Renderer) SetLogger(l *slog.Logger) { r.logger.Store(l) }

func (r *Renderer) log() *slog.Logger {
	if l := r.logger.Load(); l != nil {
		return l
	}
	return mandelbrot.Logger()
}

// Render implements mandelbrot.Renderer.
func (r *Renderer) Render(p mandelbrot.Params, out []uint32, _ mandelbrot.ProgressFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureContext(); err != nil {
		return fmt.Errorf("%w: opencl: %w", mandelbrot.ErrBackendUnavailable, err)
	}
	double := p.Precision == mandelbrot.PrecisionDouble
	if double && !strings.Contains(r.device.Extensions(), "cl_khr_fp64") {
		return fmt.Errorf("%w: opencl: device %q lacks cl_khr_fp64", mandelbrot.ErrBackendUnavailable, r.device.Name())
	}
	prog, err := r.programFor(double)
	if err != nil {
		return fmt.Errorf("%w: opencl: %w", mandelbrot.ErrBackendUnavailable, err)
	}
	if err := r.run(prog.kernel, p, double, out); err != nil {
		return fmt.Errorf("%w: opencl: %w", mandelbrot.ErrBackendUnavailable, err)
	}
	return nil
}

// Close releases the compiled programs, queue and context.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, prog := range r.programs {
		prog.kernel.Release()
		prog.program.Release()
		delete(r.programs, key)
	}
	if r.queue != nil {
		r.queue.Release()
		r.queue = nil
	}
	if r.context != nil {
		r.context.Release()
		r.context = nil
	}
	r.device = nil
}

func (r *Renderer) ensureContext() error {
	if r.context != nil {
		return nil
	}
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return fmt.Errorf("get platforms: %w", err)
	}
	if len(platforms) == 0 {
		return errors.New("no OpenCL platforms")
	}
	platform := platforms[0]

	devices, err := platform.GetDevices(cl.DeviceTypeGPU)
	if err != nil || len(devices) == 0 {
		devices, err = platform.GetDevices(cl.DeviceTypeAll)
	}
	if err != nil {
		return fmt.Errorf("get devices: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("platform %q has no devices", platform.Name())
	}
	device := devices[0]

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return fmt.Errorf("create command queue: %w", err)
	}

	r.device, r.context, r.queue = device, context, queue
	r.log().Info("opencl: device initialized", "platform", platform.Name(), "device", device.Name(),
		"fp64", strings.Contains(device.Extensions(), "cl_khr_fp64"))
	return nil
}

func (r *Renderer) programFor(double bool) (*program, error) {
	if prog, ok := r.programs[double]; ok {
		return prog, nil
	}
	clProgram, err := r.context.CreateProgramWithSource([]string{shader.OpenCL(double)})
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	if err := clProgram.BuildProgram([]*cl.Device{r.device}, ""); err != nil {
		clProgram.Release()
		return nil, fmt.Errorf("build program: %w", err)
	}
	kernel, err := clProgram.CreateKernel(shader.OpenCLEntry)
	if err != nil {
		clProgram.Release()
		return nil, fmt.Errorf("create kernel: %w", err)
	}

	prog := &program{program: clProgram, kernel: kernel}
	if r.programs == nil {
		r.programs = make(map[bool]*program, 2)
	}
	r.programs[double] = prog
	r.log().Debug("opencl: kernel built", "double", double)
	return prog, nil
}

// run sets the kernel arguments, enqueues a (height, width) range and reads
// the buffer back with a blocking read.
func (r *Renderer) run(kernel *cl.Kernel, p mandelbrot.Params, double bool, out []uint32) error {
	size := len(out) * 4
	buf, err := r.context.CreateEmptyBuffer(cl.MemWriteOnly, size)
	if err != nil {
		return fmt.Errorf("create buffer: %w", err)
	}
	defer buf.Release()

	if err := setArgs(kernel, p, double, buf); err != nil {
		return err
	}

	r.log().Debug("opencl: enqueue", "global", []int{p.Height, p.Width}, "buffer_bytes", size)
	event, err := r.queue.EnqueueNDRangeKernel(kernel, nil, []int{p.Height, p.Width}, nil, nil)
	if err != nil {
		return fmt.Errorf("enqueue kernel: %w", err)
	}
	defer event.Release()

	readEvent, err := r.queue.EnqueueReadBuffer(buf, true, 0, size, unsafe.Pointer(&out[0]), []*cl.Event{event})
	if err != nil {
		return fmt.Errorf("read buffer: %w", err)
	}
	defer readEvent.Release()

	if err := r.queue.Finish(); err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	return nil
}

func setArgs(kernel *cl.Kernel, p mandelbrot.Params, double bool, buf *cl.MemObject) error {
	reals := []float64{p.CentreX, p.CentreY, p.ScaleY}
	set := func(index int, err error) error {
		if err != nil {
			return fmt.Errorf("set kernel arg %d: %w", index, err)
		}
		return nil
	}

	if err := set(0, kernel.SetArgUint32(0, uint32(p.MaxIter))); err != nil { //nolint:gosec // validated
		return err
	}
	for i, v := range reals {
		index := 1 + i
		var err error
		if double {
			err = kernel.SetArgUnsafe(index, 8, unsafe.Pointer(&v))
		} else {
			err = kernel.SetArgFloat32(index, float32(v))
		}
		if err := set(index, err); err != nil {
			return err
		}
	}
	if err := set(4, kernel.SetArgUint32(4, uint32(p.Samples))); err != nil { //nolint:gosec // validated
		return err
	}
	if err := set(5, kernel.SetArgUint32(5, uint32(p.ColourFlags))); err != nil {
		return err
	}
	if err := set(6, kernel.SetArgUint32(6, uint32(p.MaxColours))); err != nil { //nolint:gosec // validated
		return err
	}
	return set(7, kernel.SetArgBuffer(7, buf))
}
