package pixfmt

// Legacy OpenGL enums carried by KTX v1 headers.
const (
	glUnsignedByte = 0x1401
	glUnsignedInt  = 0x1405
	glFloat        = 0x1406
	glHalfFloat    = 0x140B

	glRed  = 0x1903
	glRGB  = 0x1907
	glRGBA = 0x1908
	glBGRA = 0x80E1
	glRG   = 0x8227

	glR8          = 0x8229
	glRG8         = 0x822B
	glRGB8        = 0x8051
	glRGBA8       = 0x8058
	glSRGB8Alpha8 = 0x8C43

	glR16F    = 0x822D
	glRG16F   = 0x822F
	glRGB16F  = 0x881B
	glRGBA16F = 0x881A

	glR32F    = 0x822E
	glRG32F   = 0x8230
	glRGB32F  = 0x8815
	glRGBA32F = 0x8814

	glR32UI    = 0x8236
	glRG32UI   = 0x823C
	glRGB32UI  = 0x8D71
	glRGBA32UI = 0x8D70

	glCompressedRGBS3TCDXT1  = 0x83F0
	glCompressedRGBAS3TCDXT1 = 0x83F1
	glCompressedRGBAS3TCDXT3 = 0x83F2
	glCompressedRGBAS3TCDXT5 = 0x83F3
	glCompressedRedRGTC1     = 0x8DBB
	glCompressedRGRGTC2      = 0x8DBD
)

// GLFormat is the legacy GL description of a format as stored in a KTX v1
// header. Compressed formats carry zero Type and Format fields.
type GLFormat struct {
	Type               uint32
	TypeSize           uint32
	Format             uint32
	InternalFormat     uint32
	BaseInternalFormat uint32
}

// FromGL resolves a format from the legacy GL type/format/internal-format
// triple of a KTX v1 header. Unknown triples resolve to Undefined.
func FromGL(glType, glFormat, glInternalFormat uint32) Format {
	if glType == 0 && glFormat == 0 {
		switch glInternalFormat {
		case glCompressedRGBS3TCDXT1, glCompressedRGBAS3TCDXT1:
			return BC1
		case glCompressedRGBAS3TCDXT3:
			return BC2
		case glCompressedRGBAS3TCDXT5:
			return BC3
		case glCompressedRedRGTC1:
			return BC4
		case glCompressedRGRGTC2:
			return BC5
		}
		return Undefined
	}

	// A sized internal format pins the encoding exactly.
	switch glInternalFormat {
	case glR8:
		return R8
	case glRG8:
		return RG8
	case glRGB8:
		return RGB8
	case glRGBA8:
		if glFormat == glBGRA {
			return BGRA8
		}
		return RGBA8
	case glSRGB8Alpha8:
		return SRGBA8
	case glR16F:
		return R16F
	case glRG16F:
		return RG16F
	case glRGB16F:
		return RGB16F
	case glRGBA16F:
		return RGBA16F
	case glR32F:
		return R32F
	case glRG32F:
		return RG32F
	case glRGB32F:
		return RGB32F
	case glRGBA32F:
		return RGBA32F
	case glR32UI:
		return R32U
	case glRG32UI:
		return RG32U
	case glRGB32UI:
		return RGB32U
	case glRGBA32UI:
		return RGBA32U
	}

	// Unsized headers fall back to the base format and component type.
	switch glType {
	case glUnsignedByte:
		switch glFormat {
		case glRed:
			return R8
		case glRG:
			return RG8
		case glRGB:
			return RGB8
		case glRGBA:
			return RGBA8
		case glBGRA:
			return BGRA8
		}
	case glHalfFloat:
		switch glFormat {
		case glRed:
			return R16F
		case glRG:
			return RG16F
		case glRGB:
			return RGB16F
		case glRGBA:
			return RGBA16F
		}
	case glFloat:
		switch glFormat {
		case glRed:
			return R32F
		case glRG:
			return RG32F
		case glRGB:
			return RGB32F
		case glRGBA:
			return RGBA32F
		}
	case glUnsignedInt:
		switch glFormat {
		case glRed:
			return R32U
		case glRG:
			return RG32U
		case glRGB:
			return RGB32U
		case glRGBA:
			return RGBA32U
		}
	}
	return Undefined
}

// ToGL returns the legacy GL description for a format, for writing KTX v1
// headers. The second result is false when no mapping exists.
func ToGL(f Format) (GLFormat, bool) {
	switch f {
	case R8:
		return GLFormat{glUnsignedByte, 1, glRed, glR8, glRed}, true
	case RG8:
		return GLFormat{glUnsignedByte, 1, glRG, glRG8, glRG}, true
	case RGB8:
		return GLFormat{glUnsignedByte, 1, glRGB, glRGB8, glRGB}, true
	case RGBA8:
		return GLFormat{glUnsignedByte, 1, glRGBA, glRGBA8, glRGBA}, true
	case SRGBA8:
		return GLFormat{glUnsignedByte, 1, glRGBA, glSRGB8Alpha8, glRGBA}, true
	case BGRA8:
		return GLFormat{glUnsignedByte, 1, glBGRA, glRGBA8, glRGBA}, true
	case R16F:
		return GLFormat{glHalfFloat, 2, glRed, glR16F, glRed}, true
	case RG16F:
		return GLFormat{glHalfFloat, 2, glRG, glRG16F, glRG}, true
	case RGB16F:
		return GLFormat{glHalfFloat, 2, glRGB, glRGB16F, glRGB}, true
	case RGBA16F:
		return GLFormat{glHalfFloat, 2, glRGBA, glRGBA16F, glRGBA}, true
	case R32F:
		return GLFormat{glFloat, 4, glRed, glR32F, glRed}, true
	case RG32F:
		return GLFormat{glFloat, 4, glRG, glRG32F, glRG}, true
	case RGB32F:
		return GLFormat{glFloat, 4, glRGB, glRGB32F, glRGB}, true
	case RGBA32F:
		return GLFormat{glFloat, 4, glRGBA, glRGBA32F, glRGBA}, true
	case R32U:
		return GLFormat{glUnsignedInt, 4, glRed, glR32UI, glRed}, true
	case RG32U:
		return GLFormat{glUnsignedInt, 4, glRG, glRG32UI, glRG}, true
	case RGB32U:
		return GLFormat{glUnsignedInt, 4, glRGB, glRGB32UI, glRGB}, true
	case RGBA32U:
		return GLFormat{glUnsignedInt, 4, glRGBA, glRGBA32UI, glRGBA}, true
	case BC1:
		return GLFormat{0, 1, 0, glCompressedRGBAS3TCDXT1, glRGBA}, true
	case BC2:
		return GLFormat{0, 1, 0, glCompressedRGBAS3TCDXT3, glRGBA}, true
	case BC3:
		return GLFormat{0, 1, 0, glCompressedRGBAS3TCDXT5, glRGBA}, true
	case BC4:
		return GLFormat{0, 1, 0, glCompressedRedRGTC1, glRed}, true
	case BC5:
		return GLFormat{0, 1, 0, glCompressedRGRGTC2, glRG}, true
	}
	return GLFormat{}, false
}
