// Package voxcolor packs palette colours into the 16-bit HSL word carried by
// instance records.
//
// Layout: bit 15 occupancy, bits 14-9 hue (6 bits), bits 8-4 saturation
// (5 bits), bits 3-0 lightness (4 bits).
package voxcolor

import (
	"image/color"
	"math"
)

const (
	HueBits        = 6
	SaturationBits = 5
	LightnessBits  = 4

	Occupied uint16 = 1 << 15

	hueShift        = 9
	saturationShift = 4
)

// RGBToHSL converts components in [0,1]. Hue is returned normalised to [0,1).
func RGBToHSL(r, g, b float32) (h, s, l float32) {
	maxc := max(r, g, b)
	minc := min(r, g, b)
	delta := maxc - minc
	l = (maxc + minc) / 2

	if delta == 0 {
		return 0, 0, l
	}
	if l <= 0.5 {
		s = delta / (maxc + minc)
	} else {
		s = delta / (2 - maxc - minc)
	}

	switch maxc {
	case r:
		h = float32(math.Mod(float64((g-b)/delta), 6))
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}
	return h / 360, s, l
}

// HSLToRGB is the inverse of RGBToHSL.
func HSLToRGB(h, s, l float32) (r, g, b float32) {
	if s == 0 {
		return l, l, l
	}
	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// ToNBits rescales an 8-bit value to n bits, rounding to nearest.
func ToNBits(v uint8, n uint) uint16 {
	maxv := uint32(1)<<n - 1
	return uint16((uint32(v)*maxv + 127) / 255)
}

// FromNBits rescales an n-bit value back to 8 bits.
func FromNBits(v uint16, n uint) uint8 {
	maxv := uint32(1)<<n - 1
	return uint8((uint32(v)*255 + maxv/2) / maxv)
}

func unit8(v float32) uint8 {
	return uint8(math.Round(float64(v) * 255))
}

// Pack quantises c into the occupied 16-bit HSL word. Alpha is ignored.
func Pack(c color.RGBA) uint16 {
	h, s, l := RGBToHSL(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255)
	return Quantize(unit8(h), unit8(s), unit8(l))
}

// Quantize packs 8-bit HSL components.
func Quantize(h, s, l uint8) uint16 {
	return Occupied |
		ToNBits(h, HueBits)<<hueShift |
		ToNBits(s, SaturationBits)<<saturationShift |
		ToNBits(l, LightnessBits)
}

// Components returns the 8-bit HSL components of a packed word.
func Components(w uint16) (h, s, l uint8) {
	h = FromNBits(w>>hueShift&(1<<HueBits-1), HueBits)
	s = FromNBits(w>>saturationShift&(1<<SaturationBits-1), SaturationBits)
	l = FromNBits(w&(1<<LightnessBits-1), LightnessBits)
	return h, s, l
}

// Unpack reconstructs an opaque colour from a packed word.
func Unpack(w uint16) color.RGBA {
	h, s, l := Components(w)
	r, g, b := HSLToRGB(float32(h)/255, float32(s)/255, float32(l)/255)
	return color.RGBA{R: unit8(r), G: unit8(g), B: unit8(b), A: 255}
}
