package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/voxdraw/voxelrt/rt/core"
	"github.com/gekko3d/voxdraw/voxelrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	CascadeCount         = 4
	shadowUniformSize    = 64
	cascadeUniformSize   = CascadeCount*64 + 16
	shadowScratchFormat  = wgpu.TextureFormatDepth32Float
	shadowAtlasFormat    = wgpu.TextureFormatR32Float
	shadowBytesPerTexel  = 4
	copyBytesPerRowAlign = 256
)

// ShadowConfig describes the static cascade layout.
type ShadowConfig struct {
	AtlasSize   uint32
	TileSize    uint32
	HalfExtents [CascadeCount]float32
	Near, Far   float32
	DepthBias   float32
}

func DefaultShadowConfig() ShadowConfig {
	return ShadowConfig{
		AtlasSize:   4096,
		TileSize:    2048,
		HalfExtents: [CascadeCount]float32{125, 250, 500, 1000},
		Near:        -1000,
		Far:         1000,
		DepthBias:   0.0005,
	}
}

func (c ShadowConfig) Validate() error {
	if c.TileSize == 0 || c.AtlasSize != 2*c.TileSize {
		return fmt.Errorf("gpu: shadow atlas %d must be twice the tile size %d", c.AtlasSize, c.TileSize)
	}
	if (c.TileSize*shadowBytesPerTexel)%copyBytesPerRowAlign != 0 {
		return fmt.Errorf("gpu: shadow tile %d must be a multiple of %d texels", c.TileSize, copyBytesPerRowAlign/shadowBytesPerTexel)
	}
	for i := 0; i < CascadeCount; i++ {
		if c.HalfExtents[i] <= 0 || (i > 0 && c.HalfExtents[i] <= c.HalfExtents[i-1]) {
			return fmt.Errorf("gpu: cascade half extents must be positive and increasing, got %v", c.HalfExtents)
		}
	}
	if c.Far <= c.Near {
		return fmt.Errorf("gpu: shadow far %v must exceed near %v", c.Far, c.Near)
	}
	return nil
}

// CascadeViewProjections builds one orthographic view-projection per
// cascade. Every cascade uses the light transform unchanged; only the
// half extent differs.
func CascadeViewProjections(light *core.Transform, cfg ShadowConfig) [CascadeCount]mgl32.Mat4 {
	view := light.WorldToObject()
	var out [CascadeCount]mgl32.Mat4
	for i := range out {
		out[i] = core.ReversedOrtho(cfg.HalfExtents[i], cfg.Near, cfg.Far).Mul4(view)
	}
	return out
}

// QuadrantOrigin is the atlas texel where cascade i's tile starts:
// (0,0), (tile,0), (0,tile), (tile,tile).
func QuadrantOrigin(i int, tile uint32) [2]uint32 {
	return [2]uint32{uint32(i%2) * tile, uint32(i/2) * tile}
}

// cascadeEncoder is the GPU work done per cascade.
type cascadeEncoder interface {
	WriteViewProj(vp mgl32.Mat4)
	DrawCascade(cascade int, drawCount uint32, origin [2]uint32) error
	WriteMatrices(vps [CascadeCount]mgl32.Mat4, halfExtents [CascadeCount]float32)
}

func runCascades(enc cascadeEncoder, light *core.Transform, cfg ShadowConfig, drawCount uint32) ([CascadeCount]mgl32.Mat4, error) {
	vps := CascadeViewProjections(light, cfg)
	for i, vp := range vps {
		enc.WriteViewProj(vp)
		if err := enc.DrawCascade(i, drawCount, QuadrantOrigin(i, cfg.TileSize)); err != nil {
			return vps, fmt.Errorf("gpu: shadow cascade %d: %w", i, err)
		}
	}
	enc.WriteMatrices(vps, cfg.HalfExtents)
	return vps, nil
}

// ShadowPass renders the cascades into a reused scratch depth target and
// copies each tile into its quadrant of the atlas.
type ShadowPass struct {
	Config ShadowConfig

	device *wgpu.Device
	queue  *wgpu.Queue

	Pipeline   *wgpu.RenderPipeline
	bgl        *wgpu.BindGroupLayout
	BindGroup  *wgpu.BindGroup
	bindGen    uint64
	uniformBuf *wgpu.Buffer
	CascadeBuf *wgpu.Buffer

	scratch     *wgpu.Texture
	scratchView *wgpu.TextureView
	staging     *wgpu.Buffer
	Atlas       *wgpu.Texture
	AtlasView   *wgpu.TextureView

	ViewProjections [CascadeCount]mgl32.Mat4

	buffers *BufferManager
}

func NewShadowPass(device *wgpu.Device, cfg ShadowConfig) (*ShadowPass, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &ShadowPass{Config: cfg, device: device, queue: device.GetQueue()}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Shadow Depth Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ShadowPassWGSL()},
	})
	if err != nil {
		return nil, err
	}

	s.bgl, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ShadowBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: shadowUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Shadow Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{s.bgl},
	})
	if err != nil {
		return nil, err
	}

	s.Pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Shadow Depth Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_shadow",
			Buffers:    voxelVertexLayouts(),
		},
		Fragment: nil,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleStrip,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            shadowScratchFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionGreater,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	if s.uniformBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ShadowUniformBuf",
		Size:  shadowUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return nil, err
	}
	if s.CascadeBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CascadeBuf",
		Size:  cascadeUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return nil, err
	}
	tile := cfg.TileSize
	if s.staging, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ShadowStagingBuf",
		Size:  uint64(tile) * uint64(tile) * shadowBytesPerTexel,
		Usage: wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return nil, err
	}

	s.scratch, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Shadow Scratch Depth",
		Size:          wgpu.Extent3D{Width: tile, Height: tile, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        shadowScratchFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	if s.scratchView, err = s.scratch.CreateView(nil); err != nil {
		return nil, err
	}

	s.Atlas, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Shadow Atlas",
		Size:          wgpu.Extent3D{Width: cfg.AtlasSize, Height: cfg.AtlasSize, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        shadowAtlasFormat,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	if s.AtlasView, err = s.Atlas.CreateView(nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Render runs all cascades. Each cascade is its own submission so the
// shared uniform can be rewritten in between.
func (s *ShadowPass) Render(light *core.Transform, bufs *BufferManager, drawCount uint32) error {
	if err := s.bind(bufs); err != nil {
		return err
	}
	s.buffers = bufs
	vps, err := runCascades(s, light, s.Config, drawCount)
	s.ViewProjections = vps
	return err
}

func (s *ShadowPass) bind(bufs *BufferManager) error {
	if s.BindGroup != nil && s.bindGen == bufs.Transforms.Generation {
		return nil
	}
	bg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ShadowBindGroup",
		Layout: s.bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: s.uniformBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: raw(bufs.Transforms.Buffer()), Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	if s.BindGroup != nil {
		s.BindGroup.Release()
	}
	s.BindGroup = bg
	s.bindGen = bufs.Transforms.Generation
	return nil
}

func (s *ShadowPass) WriteViewProj(vp mgl32.Mat4) {
	s.queue.WriteBuffer(s.uniformBuf, 0, appendMat4(nil, vp))
}

func (s *ShadowPass) DrawCascade(cascade int, drawCount uint32, origin [2]uint32) error {
	encoder, err := s.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Shadow Encoder"})
	if err != nil {
		return err
	}
	defer encoder.Release()
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Shadow Cascade Pass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            s.scratchView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 0.0,
		},
	})
	pass.SetPipeline(s.Pipeline)
	pass.SetBindGroup(0, s.BindGroup, nil)
	drawVoxels(renderPass{pass}, s.buffers, drawCount)
	if err := pass.End(); err != nil {
		return err
	}

	if err := copyTile(encoder, s.scratch, s.staging, s.Atlas, s.Config.TileSize, origin); err != nil {
		return err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	s.queue.Submit(cmd)
	return nil
}

// tileCopier is the copy half of a command encoder.
type tileCopier interface {
	CopyTextureToBuffer(src *wgpu.ImageCopyTexture, dst *wgpu.ImageCopyBuffer, size *wgpu.Extent3D) error
	CopyBufferToTexture(src *wgpu.ImageCopyBuffer, dst *wgpu.ImageCopyTexture, size *wgpu.Extent3D) error
}

// copyTile moves one rendered depth tile into its atlas quadrant. Depth
// textures can only be copied whole, so the tile goes through a buffer.
func copyTile(enc tileCopier, scratch *wgpu.Texture, staging *wgpu.Buffer, atlas *wgpu.Texture, tile uint32, origin [2]uint32) error {
	extent := wgpu.Extent3D{Width: tile, Height: tile, DepthOrArrayLayers: 1}
	layout := wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  tile * shadowBytesPerTexel,
		RowsPerImage: tile,
	}
	err := enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  scratch,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectDepthOnly,
		},
		&wgpu.ImageCopyBuffer{Buffer: staging, Layout: layout},
		&extent,
	)
	if err != nil {
		return fmt.Errorf("copy depth to staging: %w", err)
	}
	err = enc.CopyBufferToTexture(
		&wgpu.ImageCopyBuffer{Buffer: staging, Layout: layout},
		&wgpu.ImageCopyTexture{
			Texture:  atlas,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: origin[0], Y: origin[1]},
		},
		&extent,
	)
	if err != nil {
		return fmt.Errorf("copy staging to atlas %v: %w", origin, err)
	}
	return nil
}

func (s *ShadowPass) WriteMatrices(vps [CascadeCount]mgl32.Mat4, halfExtents [CascadeCount]float32) {
	buf := make([]byte, 0, cascadeUniformSize)
	for _, vp := range vps {
		buf = appendMat4(buf, vp)
	}
	buf = appendVec4(buf, halfExtents)
	s.queue.WriteBuffer(s.CascadeBuf, 0, buf)
}

func (s *ShadowPass) Release() {
	for _, t := range []*wgpu.Texture{s.scratch, s.Atlas} {
		if t != nil {
			t.Release()
		}
	}
	for _, b := range []*wgpu.Buffer{s.uniformBuf, s.CascadeBuf, s.staging} {
		if b != nil {
			b.Release()
		}
	}
}
