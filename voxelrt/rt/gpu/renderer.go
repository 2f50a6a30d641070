package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/voxdraw/voxelrt/rt/core"
	"github.com/gekko3d/voxdraw/voxelrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MainSampleCount is the MSAA level of the HDR target.
	MainSampleCount = 4
	MaxPointLights  = 32

	hdrFormat         = wgpu.TextureFormatRGBA16Float
	mainDepthFormat   = wgpu.TextureFormatDepth24Plus
	uniformSize       = 144
	pointLightStride  = 32
	lightsUniformSize = MaxPointLights * pointLightStride
)

// Logger is the subset of the application logger the renderer reports to.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type RendererConfig struct {
	ClearColor wgpu.Color
	Ambient    float32
	Shadows    bool
	Shadow     ShadowConfig
}

func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		ClearColor: wgpu.Color{R: 0.53, G: 0.81, B: 0.92, A: 1},
		Ambient:    0.15,
		Shadows:    true,
		Shadow:     DefaultShadowConfig(),
	}
}

// ScopeTimer receives CPU timings for the renderer's stages.
type ScopeTimer interface {
	BeginScope(name string)
	EndScope(name string)
}

type nopTimer struct{}

func (nopTimer) BeginScope(string) {}
func (nopTimer) EndScope(string)   {}

// FrameInput is everything one frame draws.
type FrameInput struct {
	Objects []*core.VoxelObjectDraw
	Camera  *core.Camera
	Sun     *core.DirectionalLight
	Lights  []core.PointLight
}

// indirectPass is the part of a render pass the voxel draw needs.
type indirectPass interface {
	SetVertexBuffer(slot uint32, buf Buffer, offset, size uint64)
	MultiDrawIndirect(buf Buffer, offset uint64, count uint32)
}

type renderPass struct {
	enc *wgpu.RenderPassEncoder
}

func (p renderPass) SetVertexBuffer(slot uint32, buf Buffer, offset, size uint64) {
	p.enc.SetVertexBuffer(slot, raw(buf), offset, size)
}

func (p renderPass) MultiDrawIndirect(buf Buffer, offset uint64, count uint32) {
	// The binding takes the encoder again and the buffer by value.
	p.enc.MultiDrawIndirect(p.enc, *raw(buf), offset, count)
}

// drawVoxels binds the instance and vertex-index streams and issues one
// multi-draw over every face draw. It reports false when there was nothing
// to draw.
func drawVoxels(pass indirectPass, bufs *BufferManager, drawCount uint32) bool {
	if drawCount == 0 {
		return false
	}
	pass.SetVertexBuffer(0, bufs.Instances.Buffer(), 0, bufs.Instances.Size())
	pass.SetVertexBuffer(1, bufs.Vertices.Buffer(), 0, bufs.Vertices.Size())
	pass.MultiDrawIndirect(bufs.Indirect.Buffer(), 0, drawCount)
	return true
}

// voxelVertexLayouts: slot 0 is per-instance face records, slot 1 the
// per-vertex owning object index.
func voxelVertexLayouts() []wgpu.VertexBufferLayout {
	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: core.InstanceStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatUint32, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatUint32, Offset: 4, ShaderLocation: 1},
			},
		},
		{
			ArrayStride: VertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatUint32, Offset: 0, ShaderLocation: 2},
			},
		},
	}
}

// Renderer draws voxel objects into a multisampled HDR target and resolves
// it onto the surface.
type Renderer struct {
	Config RendererConfig
	Log    Logger
	Timer  ScopeTimer

	device *wgpu.Device
	queue  *wgpu.Queue

	Buffers   *BufferManager
	assembler *Assembler
	Shadow    *ShadowPass
	Resolve   *ResolvePass

	pipeline   *wgpu.RenderPipeline
	bgl        *wgpu.BindGroupLayout
	bindGroup  *wgpu.BindGroup
	bindGen    uint64
	uniformBuf *wgpu.Buffer
	lightsBuf  *wgpu.Buffer

	width, height uint32
	sizeDirty     bool
	hdr           *wgpu.Texture
	hdrView       *wgpu.TextureView
	depth         *wgpu.Texture
	depthView     *wgpu.TextureView

	lightScratch []byte
	lastDropped  int

	// LastDrawCount is the number of indirect draws in the last frame.
	LastDrawCount uint32
}

func NewRenderer(device *wgpu.Device, surfaceFormat wgpu.TextureFormat, width, height uint32, cfg RendererConfig, log Logger) (*Renderer, error) {
	r := &Renderer{
		Config:    cfg,
		Log:       log,
		Timer:     nopTimer{},
		device:    device,
		queue:     device.GetQueue(),
		Buffers:   NewBufferManager(WrapDevice(device)),
		assembler: NewAssembler(),
		width:     max(width, 1),
		height:    max(height, 1),
		sizeDirty: true,
	}

	var err error
	if r.Shadow, err = NewShadowPass(device, cfg.Shadow); err != nil {
		return nil, fmt.Errorf("gpu: shadow pass: %w", err)
	}
	if r.Resolve, err = NewResolvePass(device, surfaceFormat); err != nil {
		return nil, fmt.Errorf("gpu: resolve pass: %w", err)
	}
	if err = r.createMainPipeline(); err != nil {
		return nil, fmt.Errorf("gpu: main pipeline: %w", err)
	}

	if r.uniformBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "UniformBuf",
		Size:  uniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return nil, err
	}
	if r.lightsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "LightsBuf",
		Size:  lightsUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) createMainPipeline() error {
	module, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Voxel Main Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.MainPassWGSL()},
	})
	if err != nil {
		return err
	}

	both := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	r.bgl, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "VoxelMainBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: both,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: lightsUniformSize,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cascadeUniformSize,
				},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
		},
	})
	if err != nil {
		return err
	}
	layout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Voxel Main Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.bgl},
	})
	if err != nil {
		return err
	}

	r.pipeline, err = r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Voxel Main Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    voxelVertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    hdrFormat,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleStrip,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            mainDepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionGreater,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: MainSampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	return err
}

// Resize records the new surface size. Targets are rebuilt on the next
// Render.
func (r *Renderer) Resize(width, height uint32) {
	if width == 0 || height == 0 || (width == r.width && height == r.height) {
		return
	}
	r.width, r.height = width, height
	r.sizeDirty = true
}

func (r *Renderer) Size() (uint32, uint32) { return r.width, r.height }

func (r *Renderer) ensureTargets() error {
	if !r.sizeDirty {
		return nil
	}
	r.releaseTargets()
	size := wgpu.Extent3D{Width: r.width, Height: r.height, DepthOrArrayLayers: 1}

	var err error
	r.hdr, err = r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "HDR Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   MainSampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        hdrFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return err
	}
	if r.hdrView, err = r.hdr.CreateView(nil); err != nil {
		return err
	}
	r.depth, err = r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Main Depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   MainSampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        mainDepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	if r.depthView, err = r.depth.CreateView(nil); err != nil {
		return err
	}
	if err = r.Resolve.Bind(r.hdrView); err != nil {
		return err
	}
	r.sizeDirty = false
	r.Log.Debugf("render targets %dx%d msaa=%d", r.width, r.height, MainSampleCount)
	return nil
}

func (r *Renderer) releaseTargets() {
	if r.hdrView != nil {
		r.hdrView.Release()
		r.hdrView = nil
	}
	if r.hdr != nil {
		r.hdr.Release()
		r.hdr = nil
	}
	if r.depthView != nil {
		r.depthView.Release()
		r.depthView = nil
	}
	if r.depth != nil {
		r.depth.Release()
		r.depth = nil
	}
}

// frameCamera is a copy of cam with the aspect of the render target. The
// caller's camera is left untouched.
func frameCamera(cam *core.Camera, width, height uint32) core.Camera {
	c := *cam
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
	return c
}

// Render draws one frame into view.
func (r *Renderer) Render(in FrameInput, view *wgpu.TextureView) error {
	if in.Camera == nil {
		return fmt.Errorf("gpu: render without a camera")
	}
	if err := r.ensureTargets(); err != nil {
		return fmt.Errorf("gpu: render targets: %w", err)
	}

	r.Buffers.BeginFrame()
	cam := frameCamera(in.Camera, r.width, r.height)
	viewProj := cam.ViewProjection()

	r.Timer.BeginScope("Assemble")
	frame := r.assembler.Assemble(in.Objects, viewProj)
	r.Timer.EndScope("Assemble")
	if err := frame.Validate(); err != nil {
		return err
	}

	r.Timer.BeginScope("Upload")
	realloc := r.Buffers.Stats.Reallocations
	_, err := r.Buffers.UploadFrame(frame)
	r.Timer.EndScope("Upload")
	if err != nil {
		return err
	}
	if n := r.Buffers.Stats.Reallocations - realloc; n > 0 {
		r.Log.Debugf("reallocated %d frame buffers (instances %d bytes, transforms %d bytes)",
			n, r.Buffers.Instances.Size(), r.Buffers.Transforms.Size())
	}
	drawCount := frame.DrawCount()
	r.LastDrawCount = drawCount

	cascades := uint32(0)
	if r.Config.Shadows && in.Sun != nil {
		r.Timer.BeginScope("Shadow")
		err := r.Shadow.Render(in.Sun.Transform, r.Buffers, drawCount)
		r.Timer.EndScope("Shadow")
		if err != nil {
			return err
		}
		cascades = CascadeCount
	}

	var dropped int
	var lightCount uint32
	r.lightScratch, lightCount, dropped = packLights(r.lightScratch[:0], in.Lights, MaxPointLights)
	if dropped != r.lastDropped {
		if dropped > 0 {
			r.Log.Warnf("%d point lights exceed the limit of %d and are ignored", dropped, MaxPointLights)
		}
		r.lastDropped = dropped
	}
	r.queue.WriteBuffer(r.lightsBuf, 0, r.lightScratch)
	r.queue.WriteBuffer(r.uniformBuf, 0, packUniforms(&cam, in.Sun, viewProj, lightCount, cascades, r.Config))

	if err := r.bind(); err != nil {
		return err
	}

	r.Timer.BeginScope("Main")
	defer r.Timer.EndScope("Main")
	encoder, err := r.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Main Encoder"})
	if err != nil {
		return err
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Voxel Main Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       r.hdrView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: r.Config.ClearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 0.0,
		},
	})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	drawVoxels(renderPass{pass}, r.Buffers, drawCount)
	if err := pass.End(); err != nil {
		return err
	}

	if err := r.Resolve.Encode(encoder, view); err != nil {
		return err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	r.queue.Submit(cmd)
	return nil
}

// bind rebuilds the main bind group after the transform buffer was
// reallocated.
func (r *Renderer) bind() error {
	if r.bindGroup != nil && r.bindGen == r.Buffers.Transforms.Generation {
		return nil
	}
	bg, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "VoxelMainBindGroup",
		Layout: r.bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: r.lightsBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: raw(r.Buffers.Transforms.Buffer()), Size: wgpu.WholeSize},
			{Binding: 3, Buffer: r.Shadow.CascadeBuf, Size: wgpu.WholeSize},
			{Binding: 4, TextureView: r.Shadow.AtlasView},
		},
	})
	if err != nil {
		return err
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
	}
	r.bindGroup = bg
	r.bindGen = r.Buffers.Transforms.Generation
	return nil
}

func packUniforms(cam *core.Camera, sun *core.DirectionalLight, viewProj mgl32.Mat4, lights, cascades uint32, cfg RendererConfig) []byte {
	buf := make([]byte, 0, uniformSize)
	buf = appendMat4(buf, viewProj)
	buf = appendVec3Padded(buf, cam.Position, 1)
	if sun != nil {
		buf = appendVec3Padded(buf, sun.Direction(), sun.Intensity)
		buf = appendVec3Padded(buf, sun.Color, 0)
	} else {
		buf = appendVec4(buf, [4]float32{0, -1, 0, 0})
		buf = appendVec4(buf, [4]float32{})
	}
	buf = appendU32(buf, lights, cfg.Shadow.TileSize, cfg.Shadow.AtlasSize, cascades)
	buf = appendVec4(buf, [4]float32{cfg.Shadow.DepthBias, cfg.Ambient, 0, 0})
	return buf
}

// packLights fills the fixed-size light array. Lights beyond limit are
// dropped and counted.
func packLights(dst []byte, lights []core.PointLight, limit int) ([]byte, uint32, int) {
	n := min(len(lights), limit)
	for _, l := range lights[:n] {
		dst = appendVec3Padded(dst, l.Color, l.Range)
		dst = appendVec3Padded(dst, l.Position, l.Intensity)
	}
	for i := n; i < limit; i++ {
		dst = appendVec4(dst, [4]float32{})
		dst = appendVec4(dst, [4]float32{})
	}
	return dst, uint32(n), len(lights) - n
}

func (r *Renderer) Release() {
	r.releaseTargets()
	r.Buffers.Release()
	r.Shadow.Release()
	r.Resolve.Release()
	if r.bindGroup != nil {
		r.bindGroup.Release()
	}
	for _, b := range []*wgpu.Buffer{r.uniformBuf, r.lightsBuf} {
		if b != nil {
			b.Release()
		}
	}
}
