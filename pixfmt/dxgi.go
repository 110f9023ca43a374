package pixfmt

// FromDXGI resolves a format from a DXGI_FORMAT code, as found in DDS DX10
// extension headers. Unknown codes resolve to Undefined.
func FromDXGI(dxgi uint32) Format {
	switch dxgi {
	case 2: // R32G32B32A32_FLOAT
		return RGBA32F
	case 3: // R32G32B32A32_UINT
		return RGBA32U
	case 6: // R32G32B32_FLOAT
		return RGB32F
	case 7: // R32G32B32_UINT
		return RGB32U
	case 10: // R16G16B16A16_FLOAT
		return RGBA16F
	case 16: // R32G32_FLOAT
		return RG32F
	case 17: // R32G32_UINT
		return RG32U
	case 28: // R8G8B8A8_UNORM
		return RGBA8
	case 29: // R8G8B8A8_UNORM_SRGB
		return SRGBA8
	case 34: // R16G16_FLOAT
		return RG16F
	case 41: // R32_FLOAT
		return R32F
	case 42: // R32_UINT
		return R32U
	case 49: // R8G8_UNORM
		return RG8
	case 54: // R16_FLOAT
		return R16F
	case 61: // R8_UNORM
		return R8
	case 71: // BC1_UNORM
		return BC1
	case 74: // BC2_UNORM
		return BC2
	case 77: // BC3_UNORM
		return BC3
	case 80: // BC4_UNORM
		return BC4
	case 83: // BC5_UNORM
		return BC5
	case 87: // B8G8R8A8_UNORM
		return BGRA8
	}
	return Undefined
}
