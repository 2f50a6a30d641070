package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/voxdraw/voxelrt/rt/shaders"
)

// ResolvePass averages the MSAA HDR samples, tonemaps them and writes the
// surface. sRGB surfaces get linear output; others are gamma encoded in the
// shader.
type ResolvePass struct {
	device    *wgpu.Device
	Pipeline  *wgpu.RenderPipeline
	bgl       *wgpu.BindGroupLayout
	BindGroup *wgpu.BindGroup
}

func IsSRGB(format wgpu.TextureFormat) bool {
	switch format {
	case wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return false
}

func resolveEntryPoint(format wgpu.TextureFormat) string {
	if IsSRGB(format) {
		return "fs_srgb"
	}
	return "fs_linear"
}

func NewResolvePass(device *wgpu.Device, surfaceFormat wgpu.TextureFormat) (*ResolvePass, error) {
	p := &ResolvePass{device: device}
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Resolve Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ResolveWGSL},
	})
	if err != nil {
		return nil, err
	}

	p.bgl, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ResolveBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  true,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Resolve Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bgl},
	})
	if err != nil {
		return nil, err
	}

	p.Pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Resolve Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: resolveEntryPoint(surfaceFormat),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    surfaceFormat,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Bind points the pass at a new HDR view. Called after every resize.
func (p *ResolvePass) Bind(hdr *wgpu.TextureView) error {
	bg, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "ResolveBindGroup",
		Layout:  p.bgl,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, TextureView: hdr}},
	})
	if err != nil {
		return err
	}
	if p.BindGroup != nil {
		p.BindGroup.Release()
	}
	p.BindGroup = bg
	return nil
}

func (p *ResolvePass) Encode(encoder *wgpu.CommandEncoder, view *wgpu.TextureView) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Resolve Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	return pass.End()
}

func (p *ResolvePass) Release() {
	if p.BindGroup != nil {
		p.BindGroup.Release()
	}
}
