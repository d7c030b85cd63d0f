// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package vulkan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/mandelbrot"
	"github.com/gogpu/mandelbrot/internal/shader"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var defaultRenderer = &Renderer{}

func init() {
	mandelbrot.Register(mandelbrot.BackendVulkan, func() mandelbrot.Renderer { return defaultRenderer })
}

// Renderer dispatches the escape-time shader on a Vulkan device.
//
// The device, queue and compute pipelines are created on first use and
// cached until Close. Renders are serialized by an internal mutex.
type Renderer struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo
	features gputypes.Features

	// Keyed by precision: true for the f64 shader.
	pipelines map[bool]*computePipeline

	ready          bool
	externalDevice bool // shared device, not destroyed on Close
}

type computePipeline struct {
	shader       hal.ShaderModule
	dataLayout   hal.BindGroupLayout
	paramsLayout hal.BindGroupLayout
	pipeLayout   hal.PipelineLayout
	pipeline     hal.ComputePipeline
}

var _ mandelbrot.Renderer = (*Renderer)(nil)

func (r *Renderer) Name() string { return mandelbrot.BackendVulkan.String() }

// SetLogger implements the logger propagation of mandelbrot.SetLogger.
func (r *Renderer) SetLogger(l *slog.Logger) { setLogger(l) }

// Render implements mandelbrot.Renderer. Progress is not observable on the
// device and is never reported.
func (r *Renderer) Render(p mandelbrot.Params, out []uint32, _ mandelbrot.ProgressFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureDevice(); err != nil {
		return fmt.Errorf("%w: vulkan: %w", mandelbrot.ErrBackendUnavailable, err)
	}

	double := p.Precision == mandelbrot.PrecisionDouble
	if err := r.checkPrecision(double); err != nil {
		return err
	}

	pl, err := r.pipelineFor(double)
	if err != nil {
		return fmt.Errorf("%w: vulkan: %w", mandelbrot.ErrBackendUnavailable, err)
	}
	if err := r.dispatch(pl, p, double, out); err != nil {
		return fmt.Errorf("%w: vulkan: %w", mandelbrot.ErrBackendUnavailable, err)
	}
	return nil
}

// checkPrecision rejects double precision on devices opened without
// ShaderFloat64.
func (r *Renderer) checkPrecision(double bool) error {
	if double && !r.features.Contains(gputypes.FeatureShaderFloat64) {
		return fmt.Errorf("%w: vulkan: adapter %q lacks ShaderFloat64 (use single precision)",
			mandelbrot.ErrBackendUnavailable, r.info.Name)
	}
	return nil
}

// Close releases the pipelines and, unless shared, the device.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Renderer) closeLocked() {
	r.destroyPipelines()
	if !r.externalDevice {
		if r.device != nil {
			if err := r.device.WaitIdle(); err != nil {
				slogger().Warn("vulkan: wait idle before destroy", "err", err)
			}
			r.device.Destroy()
		}
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.device = nil
	r.instance = nil
	r.queue = nil
	r.features = 0
	r.info = gputypes.AdapterInfo{}
	r.ready = false
	r.externalDevice = false
}

// SetDeviceProvider switches the renderer to a device owned by an external
// provider. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. The enabled features of a shared device
// are unknown, so double-precision renders on it fail with
// mandelbrot.ErrBackendUnavailable.
func (r *Renderer) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("vulkan: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("vulkan: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("vulkan: provider HalQueue is not hal.Queue")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeLocked()
	r.device = device
	r.queue = queue
	r.externalDevice = true
	r.info = gputypes.AdapterInfo{Name: "external", DeviceType: gputypes.DeviceTypeOther, Backend: gputypes.BackendVulkan}
	if ip, ok := provider.(interface{ AdapterInfo() gpucontext.AdapterInfo }); ok {
		r.info.Name = ip.AdapterInfo().Name
	}
	r.ready = true
	slogger().Info("vulkan: switched to shared GPU device", "adapter", r.info.Name)
	return nil
}

// AdapterInfo reports the adapter in use. It initializes the device if
// needed and returns the zero value when Vulkan is unavailable.
func (r *Renderer) AdapterInfo() gpucontext.AdapterInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureDevice(); err != nil {
		return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	}
	return gpucontext.AdapterInfo{Name: r.info.Name, Type: adapterType(r.info.DeviceType)}
}

// SupportsFloat64 reports whether renders run in double precision when
// asked to.
func (r *Renderer) SupportsFloat64() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureDevice() == nil && r.features.Contains(gputypes.FeatureShaderFloat64)
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

func (r *Renderer) ensureDevice() error {
	if r.ready {
		return nil
	}
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan HAL not registered")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsVulkan})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return errors.New("no GPU adapters found")
	}
	selected := &adapters[0]

	// hal.Adapter.Open takes no queue family argument: the HAL picks a
	// family with compute and transfer support itself, so the family with
	// the highest queue count cannot be requested here.
	features := selected.Features & gputypes.Features(gputypes.FeatureShaderFloat64)
	openDev, err := selected.Adapter.Open(features, selected.Capabilities.Limits)
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("open device: %w", err)
	}

	r.instance = instance
	r.device = openDev.Device
	r.queue = openDev.Queue
	r.info = selected.Info
	r.features = features
	r.ready = true
	slogger().Info("vulkan: device initialized", "adapter", r.info.Name, "type", r.info.DeviceType,
		"shader_f64", features.Contains(gputypes.FeatureShaderFloat64))
	return nil
}

func (r *Renderer) pipelineFor(double bool) (*computePipeline, error) {
	if pl, ok := r.pipelines[double]; ok {
		return pl, nil
	}
	pl, err := r.createPipeline(double)
	if err != nil {
		return nil, err
	}
	if r.pipelines == nil {
		r.pipelines = make(map[bool]*computePipeline, 2)
	}
	r.pipelines[double] = pl
	return pl, nil
}

func (r *Renderer) createPipeline(double bool) (*computePipeline, error) {
	label := "mandelbrot_f32"
	if double {
		label = "mandelbrot_f64"
	}
	spirv, err := shader.CompileSPIRV(shader.WGSL(double))
	if err != nil {
		return nil, err
	}

	pl := &computePipeline{}
	pl.shader, err = r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	pl.dataLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_data_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		r.destroyPipeline(pl)
		return nil, fmt.Errorf("create data bind group layout: %w", err)
	}

	pl.paramsLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_params_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
		},
	})
	if err != nil {
		r.destroyPipeline(pl)
		return nil, fmt.Errorf("create params bind group layout: %w", err)
	}

	pl.pipeLayout, err = r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{pl.dataLayout, pl.paramsLayout},
	})
	if err != nil {
		r.destroyPipeline(pl)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	pl.pipeline, err = r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label + "_pipeline",
		Layout:  pl.pipeLayout,
		Compute: hal.ComputeState{Module: pl.shader, EntryPoint: shader.WGSLEntry},
	})
	if err != nil {
		r.destroyPipeline(pl)
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}

	slogger().Debug("vulkan: pipeline created", "label", label, "spirv_words", len(spirv))
	return pl, nil
}

func (r *Renderer) destroyPipelines() {
	for key, pl := range r.pipelines {
		r.destroyPipeline(pl)
		delete(r.pipelines, key)
	}
}

func (r *Renderer) destroyPipeline(pl *computePipeline) {
	if r.device == nil {
		return
	}
	if pl.pipeline != nil {
		r.device.DestroyComputePipeline(pl.pipeline)
	}
	if pl.pipeLayout != nil {
		r.device.DestroyPipelineLayout(pl.pipeLayout)
	}
	if pl.paramsLayout != nil {
		r.device.DestroyBindGroupLayout(pl.paramsLayout)
	}
	if pl.dataLayout != nil {
		r.device.DestroyBindGroupLayout(pl.dataLayout)
	}
	if pl.shader != nil {
		r.device.DestroyShaderModule(pl.shader)
	}
}

// dispatch runs one render: upload params, one compute pass over
// (w/8, h/8) workgroups, copy to a host-visible staging buffer, wait for the
// submission and read back.
func (r *Renderer) dispatch(pl *computePipeline, p mandelbrot.Params, double bool, out []uint32) error {
	dataSize := uint64(len(out)) * 4
	params := packParams(p, double)

	dataBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandelbrot_data", Size: dataSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create data buffer: %w", err)
	}
	defer r.device.DestroyBuffer(dataBuf)

	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandelbrot_staging", Size: dataSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	// MapWrite keeps the buffer host-visible for HAL-level WriteBuffer.
	paramsBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandelbrot_params", Size: uint64(len(params)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageMapWrite,
	})
	if err != nil {
		return fmt.Errorf("create params buffer: %w", err)
	}
	defer r.device.DestroyBuffer(paramsBuf)

	if err := r.queue.WriteBuffer(paramsBuf, 0, params); err != nil {
		return fmt.Errorf("write params: %w", err)
	}

	dataGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "mandelbrot_data_bind", Layout: pl.dataLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: dataBuf.NativeHandle(), Offset: 0, Size: dataSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create data bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(dataGroup)

	paramsGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "mandelbrot_params_bind", Layout: pl.paramsLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: uint64(len(params))}},
		},
	})
	if err != nil {
		return fmt.Errorf("create params bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(paramsGroup)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "mandelbrot_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("mandelbrot"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	groupsX := uint32(p.Width / shader.Workgroup)  //nolint:gosec // validated positive
	groupsY := uint32(p.Height / shader.Workgroup) //nolint:gosec // validated positive
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "mandelbrot_pass"})
	pass.SetPipeline(pl.pipeline)
	pass.SetBindGroup(0, dataGroup, nil)
	pass.SetBindGroup(1, paramsGroup, nil)
	pass.Dispatch(groupsX, groupsY, 1)
	pass.End()

	encoder.CopyBufferToBuffer(dataBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: dataSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	slogger().Debug("vulkan: dispatch", "groups_x", groupsX, "groups_y", groupsY,
		"buffer_bytes", dataSize, "f64", double)

	subIdx, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if done := r.queue.PollCompleted(); done < subIdx {
		return fmt.Errorf("submission %d not complete after idle (completed %d)", subIdx, done)
	}

	mapping, err := r.device.MapBuffer(stagingBuf, 0, dataSize)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(mapping.Ptr), dataSize)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(src[i*4:])
	}
	if err := r.device.UnmapBuffer(stagingBuf); err != nil {
		slogger().Warn("vulkan: unmap staging buffer", "err", err)
	}
	return nil
}

// SetDeviceProvider makes the registered renderer use a shared HAL device.
func SetDeviceProvider(provider any) error {
	return defaultRenderer.SetDeviceProvider(provider)
}

// AdapterInfo reports the adapter of the registered renderer.
func AdapterInfo() gpucontext.AdapterInfo {
	return defaultRenderer.AdapterInfo()
}

// SupportsFloat64 reports whether the registered renderer can honour
// mandelbrot.PrecisionDouble.
func SupportsFloat64() bool {
	return defaultRenderer.SupportsFloat64()
}
