package app

import (
	"fmt"
	"time"

	"github.com/gekko3d/voxdraw"
	"github.com/gekko3d/voxdraw/voxelrt/rt/core"
	"github.com/gekko3d/voxdraw/voxelrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// modelGap is the spacing between models laid out along +X.
const modelGap = 8

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Settings *voxdraw.Config
	Log      voxdraw.Logger
	Models   *voxdraw.ModelServer

	Renderer *gpu.Renderer
	Scene    *core.Scene
	Camera   *core.Camera
	Profiler *Profiler

	MouseCaptured bool
	Sensitivity   float32
	MoveSpeed     float32

	DroppedFrames int
	FrameCount    int

	layoutX      float32
	framedAt     uint64
	lastTime     time.Time
	lastX, lastY float64
}

func NewApp(window *glfw.Window, settings *voxdraw.Config, log voxdraw.Logger, models *voxdraw.ModelServer) *App {
	return &App{
		Window:      window,
		Settings:    settings,
		Log:         log,
		Models:      models,
		Scene:       core.NewScene(),
		Camera:      core.NewCamera(),
		Profiler:    NewProfiler(),
		Sensitivity: 0.003,
		MoveSpeed:   40,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	// Indirect draws carry a non-zero first instance.
	a.Device, err = adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: []wgpu.FeatureName{wgpu.FeatureNameIndirectFirstInstance},
	})
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]
	for _, f := range caps.Formats {
		if gpu.IsSRGB(f) {
			format = f
			break
		}
	}
	presentMode := wgpu.PresentModeFifo
	if !a.Settings.Window.VSync {
		presentMode = wgpu.PresentModeImmediate
	}
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(a.Adapter, a.Device, a.Config)

	a.Renderer, err = gpu.NewRenderer(a.Device, format, uint32(width), uint32(height), a.Settings.GPU(), a.Log)
	if err != nil {
		return err
	}
	a.Renderer.Timer = a.Profiler
	a.Log.Infof("surface %dx%d format %v", width, height, format)
	a.lastTime = time.Now()
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	a.Renderer.Resize(uint32(w), uint32(h))
}

// Update collects decoded models, moves the camera and reframes it when
// the scene changed.
func (a *App) Update() {
	now := time.Now()
	dt := float32(now.Sub(a.lastTime).Seconds())
	a.lastTime = now

	a.ingest(a.Models.Poll())
	a.frameScene()
	a.moveCamera(dt)
}

func (a *App) ingest(results []voxdraw.LoadResult) int {
	added := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		t := core.NewTransform()
		t.Position, a.layoutX = placeModel(a.layoutX, r.Model.Size)
		obj, err := core.NewVoxelObjectDraw(r.Model, t)
		if err != nil {
			a.Log.Errorf("%s: %v", r.Name, err)
			continue
		}
		a.Scene.Add(obj)
		a.Log.Infof("added %s: %d faces in %s", r.Name, obj.InstanceCount(), r.Elapsed)
		added++
	}
	return added
}

// placeModel puts a model of the given size to the right of cursor, resting
// on y = 0, and returns the advanced cursor.
func placeModel(cursor float32, size [3]uint32) (mgl32.Vec3, float32) {
	half := mgl32.Vec3{float32(size[0] / 2), float32(size[1] / 2), float32(size[2] / 2)}
	pos := mgl32.Vec3{cursor + half[0], half[1], 0}
	return pos, cursor + float32(size[0]) + modelGap
}

func (a *App) frameScene() {
	if a.framedAt == a.Scene.Version {
		return
	}
	a.framedAt = a.Scene.Version
	minB, maxB, ok := a.Scene.Bounds()
	if !ok {
		return
	}
	a.Camera.Frame(minB, maxB)
	center := minB.Add(maxB).Mul(0.5)
	sun := core.NewDirectionalLight(center.Add(mgl32.Vec3{300, 600, 200}), center)
	sun.Color = a.Scene.Sun.Color
	sun.Intensity = a.Scene.Sun.Intensity
	a.Scene.Sun = sun
}

func (a *App) moveCamera(dt float32) {
	if a.Window == nil {
		return
	}
	if a.MouseCaptured {
		x, y := a.Window.GetCursorPos()
		a.Camera.Yaw += float32(x-a.lastX) * a.Sensitivity
		a.Camera.Pitch -= float32(y-a.lastY) * a.Sensitivity
		a.Camera.Pitch = mgl32.Clamp(a.Camera.Pitch, -1.55, 1.55)
		a.lastX, a.lastY = x, y
	}

	fwd := a.Camera.Forward()
	right := fwd.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	step := a.MoveSpeed * dt
	if a.Window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		step *= 4
	}
	move := map[glfw.Key]mgl32.Vec3{
		glfw.KeyW: fwd,
		glfw.KeyS: fwd.Mul(-1),
		glfw.KeyD: right,
		glfw.KeyA: right.Mul(-1),
		glfw.KeyE: {0, 1, 0},
		glfw.KeyQ: {0, -1, 0},
	}
	for key, dir := range move {
		if a.Window.GetKey(key) == glfw.Press {
			a.Camera.Position = a.Camera.Position.Add(dir.Mul(step))
		}
	}
}

func (a *App) SetMouseCaptured(captured bool) {
	a.MouseCaptured = captured
	if captured {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		a.lastX, a.lastY = a.Window.GetCursorPos()
	} else {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

// Render draws one frame. A surface that cannot hand out a texture drops
// the frame and is reconfigured.
func (a *App) Render() {
	a.Profiler.BeginScope("Acquire")
	next, err := a.Surface.GetCurrentTexture()
	a.Profiler.EndScope("Acquire")
	if err != nil || next == nil {
		a.dropFrame(err)
		return
	}
	defer next.Release()

	view, err := next.CreateView(nil)
	if err != nil {
		a.dropFrame(err)
		return
	}
	defer view.Release()

	a.Profiler.BeginScope("Render")
	err = a.Renderer.Render(gpu.FrameInput{
		Objects: a.Scene.Objects(),
		Camera:  a.Camera,
		Sun:     a.Scene.Sun,
		Lights:  a.Scene.Lights,
	}, view)
	a.Profiler.EndScope("Render")
	if err != nil {
		a.Log.Errorf("render: %v", err)
		return
	}

	a.Profiler.BeginScope("Present")
	a.Surface.Present()
	a.Profiler.EndScope("Present")

	a.FrameCount++
	a.recordStats()
}

func (a *App) dropFrame(err error) {
	a.DroppedFrames++
	a.Log.Debugf("dropped frame %d: %v", a.FrameCount, err)
	if w, h := a.Window.GetFramebufferSize(); w > 0 && h > 0 {
		a.Config.Width, a.Config.Height = uint32(w), uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

func (a *App) recordStats() {
	instances := 0
	for _, o := range a.Scene.Objects() {
		instances += o.InstanceCount()
	}
	stats := a.Renderer.Buffers.Stats
	a.Profiler.SetCount("Objects", a.Scene.Len())
	a.Profiler.SetCount("Instances", instances)
	a.Profiler.SetCount("Draws", int(a.Renderer.LastDrawCount))
	a.Profiler.SetCount("Reallocations", stats.Reallocations)
	a.Profiler.SetCount("SkippedUploads", stats.SkippedUploads)
	a.Profiler.SetCount("DroppedFrames", a.DroppedFrames)

	if every := a.Settings.Renderer.ProfileEvery; every > 0 && a.FrameCount%every == 0 && a.Log.DebugEnabled() {
		a.Log.Debugf("frame %d\n%s", a.FrameCount, a.Profiler.GetStatsString())
	}
}

func (a *App) Release() {
	if a.Renderer != nil {
		a.Renderer.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}
