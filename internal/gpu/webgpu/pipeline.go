package webgpu

import (
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"framekit/internal/gpu"
	"framekit/internal/logging"
)

// pipelineKey is the bound state a render pipeline is baked from.
type pipelineKey struct {
	vs       *shader
	ps       *shader
	layout   *inputLayout
	raster   *rasterizerState
	depth    *depthStencilState
	topology gpu.Topology
	hasDepth bool
}

type pipeline struct {
	entries  []wgpu.BindGroupLayoutEntry
	bgl      *wgpu.BindGroupLayout
	layout   *wgpu.PipelineLayout
	pipeline *wgpu.RenderPipeline
}

func (p *pipeline) release() {
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.layout != nil {
		p.layout.Release()
	}
	if p.bgl != nil {
		p.bgl.Release()
	}
}

// defaultDepth applies when a depth view is bound without a depth state.
var defaultDepth = gpu.DepthStencilDescriptor{
	DepthEnable: true,
	DepthWrite:  true,
	DepthFunc:   gpu.CompareLess,
}

// pipelineFor returns the cached pipeline for key, building it on first use.
func (d *Device) pipelineFor(key pipelineKey) (*pipeline, error) {
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}
	p, err := d.buildPipeline(key)
	if err != nil {
		return nil, err
	}
	d.pipelines[key] = p
	logging.Logger().Debug("webgpu: pipeline built", "vs", key.vs.code.Entry, "ps", key.ps.code.Entry, "cached", len(d.pipelines))
	return p, nil
}

func (d *Device) buildPipeline(key pipelineKey) (*pipeline, error) {
	var raster *gpu.RasterizerDescriptor
	if key.raster != nil {
		raster = &key.raster.desc
	}
	prim, err := primitiveState(key.topology, raster)
	if err != nil {
		return nil, err
	}
	var depth *wgpu.DepthStencilState
	if key.hasDepth {
		desc := defaultDepth
		if key.depth != nil {
			desc = key.depth.desc
		}
		depth = depthStencilState(&desc, raster)
	}

	p := &pipeline{entries: bindGroupLayoutEntries(key.vs.code, key.ps.code)}
	label := key.vs.code.Entry + "/" + key.ps.code.Entry

	p.bgl, err = d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: p.entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: bind group layout %s: %w", label, err)
	}
	p.layout, err = d.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bgl},
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("webgpu: pipeline layout %s: %w", label, err)
	}
	p.pipeline, err = d.dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     key.vs.module,
			EntryPoint: key.vs.code.Entry,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(key.layout.stride),
				StepMode:    wgpu.VertexStepMode_Vertex,
				Attributes:  key.layout.attrs,
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     key.ps.module,
			EntryPoint: key.ps.code.Entry,
			Targets: []wgpu.ColorTargetState{{
				Format:    d.targetFormat,
				Blend:     &wgpu.BlendState_Replace,
				WriteMask: wgpu.ColorWriteMask_All,
			}},
		},
		Primitive:    prim,
		DepthStencil: depth,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("webgpu: render pipeline %s: %w", label, err)
	}
	return p, nil
}
