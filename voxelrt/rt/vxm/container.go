package vxm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// decoders are stateless between calls when used through DecodeAll, so one
// shared instance serves every worker.
var zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

// DecodeCompressed accepts either a zstd frame wrapping a VXM stream or a
// raw VXM stream.
func DecodeCompressed(data []byte) (*Model, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return Decode(data)
	}
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("vxm: zstd: %w", err)
	}
	return Decode(raw)
}

// Compress wraps a raw VXM stream in a zstd frame.
func Compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeFile dispatches on the file name: .vxm, .vxm.zst / .zst or .vox.
func DecodeFile(name string, data []byte) (*Model, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zst"):
		return DecodeCompressed(data)
	case strings.HasSuffix(lower, ".vxm"):
		return Decode(data)
	case strings.HasSuffix(lower, ".vox"):
		return DecodeVox(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(name))
}

// Load reads and decodes a model file from disk.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeFile(path, data)
}
