package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/voxdraw"
	"github.com/gekko3d/voxdraw/voxelrt/rt/app"
	"github.com/gekko3d/voxdraw/voxelrt/rt/volume"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("voxelrt", flag.ExitOnError)
	flags := voxdraw.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: voxelrt [flags] model.vxm [model.vox ...]\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	cfg, err := voxdraw.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	cfg.ApplyFlags(flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := voxdraw.NewDefaultLogger("voxelrt", cfg.Logging)
	defer log.Close()

	models := voxdraw.NewModelServer(cfg.Assets.DecodeWorkers, log)
	defer models.Close()
	paths := append(cfg.Assets.Models, fs.Args()...)
	for _, path := range paths {
		models.Load(path)
	}
	if len(paths) == 0 {
		log.Infof("no models given, loading demo scene")
		for _, d := range volume.DemoModels() {
			models.Generate(d.Name, d.Build)
		}
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, log, models)
	if err := application.Init(); err != nil {
		log.Errorf("renderer init: %v", err)
		return err
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			application.SetMouseCaptured(!application.MouseCaptured)
		case glfw.KeyF3:
			log.SetDebug(!log.DebugEnabled())
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
	return nil
}
