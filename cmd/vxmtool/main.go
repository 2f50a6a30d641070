package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/voxdraw/voxelrt/rt/core"
	"github.com/gekko3d/voxdraw/voxelrt/rt/export"
	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vxmtool <command> [args]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  info input.vxm                         (print version, size, voxel and face counts)")
	fmt.Fprintln(w, "  glb input.vxm output.glb               (export every voxel face as a GLB mesh)")
	fmt.Fprintln(w, "  preview [-scale N] input.vxm out.png   (top-down height shaded preview)")
	fmt.Fprintln(w, "  pack input.vxm output.vxm.zst          (zstd-compress a model)")
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
		} else {
			fmt.Fprintln(os.Stderr, "vxmtool:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "info":
		if len(args) != 2 {
			return errUsage
		}
		return info(args[1], stdout)
	case "glb":
		if len(args) != 3 {
			return errUsage
		}
		m, err := vxm.Load(args[1])
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
		return export.SaveGLB(args[2], m, name)
	case "preview":
		fs := flag.NewFlagSet("preview", flag.ContinueOnError)
		scale := fs.Int("scale", 4, "integer upscale factor")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return errUsage
		}
		return preview(fs.Arg(0), fs.Arg(1), *scale)
	case "pack":
		if len(args) != 3 {
			return errUsage
		}
		return pack(args[1], args[2])
	}
	return errUsage
}

func info(path string, w io.Writer) error {
	m, err := vxm.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "file:        %s\n", path)
	fmt.Fprintf(w, "version:     %d\n", m.Version)
	fmt.Fprintf(w, "size:        %dx%dx%d\n", m.Size[0], m.Size[1], m.Size[2])
	fmt.Fprintf(w, "voxels:      %d\n", m.VoxelCount())
	fmt.Fprintf(w, "palette:     %d\n", len(m.Palette))
	fmt.Fprintf(w, "fingerprint: %016x\n", m.Fingerprint())
	if buckets, err := core.ExtractFaces(m); err != nil {
		fmt.Fprintf(w, "faces:       %v\n", err)
	} else {
		fmt.Fprintf(w, "faces:       %d\n", buckets.Len())
	}
	return nil
}

func preview(in, out string, scale int) error {
	m, err := vxm.Load(in)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WritePreviewPNG(f, m, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// pack verifies the input decodes before compressing it.
func pack(in, out string) error {
	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	if _, err := vxm.Decode(raw); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	packed, err := vxm.Compress(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(out, packed, 0o644)
}
