package pixfmt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CanDecodeF32 reports whether DecodeF32 supports f. Compressed formats
// cannot be converted per pixel.
func (f Format) CanDecodeF32() bool {
	return f.Defined() && !f.IsCompressed()
}

// CanEncodeF32 reports whether EncodeF32 supports f.
func (f Format) CanEncodeF32() bool {
	return f.Defined() && !f.IsCompressed()
}

// DecodeF32 unpacks pixels from src into canonical 4-component float
// vectors. len(dst) must be a multiple of 4; len(dst)/4 pixels are
// converted. Channels the format lacks decode to 0, except alpha which
// decodes to 1.
func (f Format) DecodeF32(src []byte, dst []float32) error {
	if !f.CanDecodeF32() {
		return fmt.Errorf("%w: %s", ErrNoFloatCodec, f)
	}
	pixels := len(dst) / 4
	bpp := int(f.BlockByteSize())
	if len(src) < pixels*bpp {
		return fmt.Errorf("%w: %d bytes for %d pixels of %s", ErrShortBuffer, len(src), pixels, f)
	}
	channels := int(f.ChannelCount())

	for p := 0; p < pixels; p++ {
		px := src[p*bpp : (p+1)*bpp]
		out := dst[p*4 : p*4+4]
		out[0], out[1], out[2], out[3] = 0, 0, 0, 1

		switch f {
		case R8, RG8, RGB8, RGBA8:
			for c := 0; c < channels; c++ {
				out[c] = float32(px[c]) / 255
			}
		case SRGBA8:
			for c := 0; c < 3; c++ {
				out[c] = srgbToLinear(px[c])
			}
			out[3] = float32(px[3]) / 255
		case BGRA8:
			out[0] = float32(px[2]) / 255
			out[1] = float32(px[1]) / 255
			out[2] = float32(px[0]) / 255
			out[3] = float32(px[3]) / 255
		case R16F, RG16F, RGB16F, RGBA16F:
			for c := 0; c < channels; c++ {
				out[c] = halfToFloat(binary.LittleEndian.Uint16(px[c*2:]))
			}
		case R32F, RG32F, RGB32F, RGBA32F:
			for c := 0; c < channels; c++ {
				out[c] = math.Float32frombits(binary.LittleEndian.Uint32(px[c*4:]))
			}
		case R32U, RG32U, RGB32U, RGBA32U:
			for c := 0; c < channels; c++ {
				out[c] = float32(binary.LittleEndian.Uint32(px[c*4:]))
			}
		}
	}
	return nil
}

// EncodeF32 packs canonical 4-component float vectors from src into pixels
// in dst. len(src) must be a multiple of 4; len(src)/4 pixels are
// converted. Normalized formats clamp to [0,1].
func (f Format) EncodeF32(src []float32, dst []byte) error {
	if !f.CanEncodeF32() {
		return fmt.Errorf("%w: %s", ErrNoFloatCodec, f)
	}
	pixels := len(src) / 4
	bpp := int(f.BlockByteSize())
	if len(dst) < pixels*bpp {
		return fmt.Errorf("%w: %d bytes for %d pixels of %s", ErrShortBuffer, len(dst), pixels, f)
	}
	channels := int(f.ChannelCount())

	for p := 0; p < pixels; p++ {
		in := src[p*4 : p*4+4]
		px := dst[p*bpp : (p+1)*bpp]

		switch f {
		case R8, RG8, RGB8, RGBA8:
			for c := 0; c < channels; c++ {
				px[c] = unormByte(in[c])
			}
		case SRGBA8:
			for c := 0; c < 3; c++ {
				px[c] = linearToSrgb(in[c])
			}
			px[3] = unormByte(in[3])
		case BGRA8:
			px[0] = unormByte(in[2])
			px[1] = unormByte(in[1])
			px[2] = unormByte(in[0])
			px[3] = unormByte(in[3])
		case R16F, RG16F, RGB16F, RGBA16F:
			for c := 0; c < channels; c++ {
				binary.LittleEndian.PutUint16(px[c*2:], floatToHalf(in[c]))
			}
		case R32F, RG32F, RGB32F, RGBA32F:
			for c := 0; c < channels; c++ {
				binary.LittleEndian.PutUint32(px[c*4:], math.Float32bits(in[c]))
			}
		case R32U, RG32U, RGB32U, RGBA32U:
			for c := 0; c < channels; c++ {
				v := in[c]
				if v < 0 {
					v = 0
				}
				if v > math.MaxUint32 {
					v = math.MaxUint32
				}
				binary.LittleEndian.PutUint32(px[c*4:], uint32(v))
			}
		}
	}
	return nil
}

func unormByte(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func srgbToLinear(c byte) float32 {
	cs := float64(c) / 255
	if cs <= 0.04045 {
		return float32(cs / 12.92)
	}
	return float32(math.Pow((cs+0.055)/1.055, 2.4))
}

func linearToSrgb(v float32) byte {
	cl := float64(v)
	if cl <= 0 {
		return 0
	}
	var cs float64
	if cl <= 0.0031308 {
		cs = cl * 12.92
	} else {
		cs = 1.055*math.Pow(cl, 1/2.4) - 0.055
	}
	if cs >= 1 {
		return 255
	}
	return byte(cs*255 + 0.5)
}

// halfToFloat widens an IEEE 754 half-precision value.
func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF

	var bits uint32
	switch {
	case exp == 0:
		if mant == 0 {
			bits = sign << 31
		} else {
			// Subnormal half; renormalize for float32.
			shift := uint32(0)
			for mant&0x400 == 0 {
				mant <<= 1
				shift++
			}
			mant &= 0x3FF
			bits = sign<<31 | (113-shift)<<23 | mant<<13
		}
	case exp == 0x1F:
		bits = sign<<31 | 0xFF<<23 | mant<<13
	default:
		bits = sign<<31 | (exp-15+127)<<23 | mant<<13
	}
	return math.Float32frombits(bits)
}

// floatToHalf narrows to IEEE 754 half precision, truncating the mantissa.
// Overflow maps to infinity, underflow to zero.
func floatToHalf(v float32) uint16 {
	bits := math.Float32bits(v)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF

	switch {
	case bits>>23&0xFF == 0xFF:
		if mant != 0 {
			return sign | 0x7C00 | 0x200
		}
		return sign | 0x7C00
	case exp >= 0x1F:
		return sign | 0x7C00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		return sign | uint16((mant|0x800000)>>uint32(14-exp))
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}
