/*
Package pixfmt names the pixel formats the module's containers and loaders
deal in, and answers the questions the container layer asks about them:
block geometry for sizing, channel counts, and conversion to and from the
canonical 4-component float vector used for pixel access.

Formats cover what the KTX, DDS and EXR paths can actually resolve:
8-bit unsigned normalized, 16/32-bit float, 32-bit unsigned integer and the
BC1-BC5 compressed families. Compressed formats answer sizing queries but
cannot be converted per pixel; use the bcn-backed surface decode instead.
*/
package pixfmt

// Format tags a pixel encoding.
type Format uint32

// Supported formats. The zero value is Undefined.
const (
	Undefined Format = iota
	R8
	RG8
	RGB8
	RGBA8
	SRGBA8
	BGRA8
	R16F
	RG16F
	RGB16F
	RGBA16F
	R32F
	RG32F
	RGB32F
	RGBA32F
	R32U
	RG32U
	RGB32U
	RGBA32U
	BC1
	BC2
	BC3
	BC4
	BC5

	formatCount
)

type formatInfo struct {
	name       string
	blockBytes uint32
	blockW     uint32
	blockH     uint32
	channels   uint32
	compressed bool
	float      bool
	srgb       bool
}

var formatInfos = [formatCount]formatInfo{
	Undefined: {name: "UNDEFINED"},
	R8:        {name: "R8", blockBytes: 1, blockW: 1, blockH: 1, channels: 1},
	RG8:       {name: "RG8", blockBytes: 2, blockW: 1, blockH: 1, channels: 2},
	RGB8:      {name: "RGB8", blockBytes: 3, blockW: 1, blockH: 1, channels: 3},
	RGBA8:     {name: "RGBA8", blockBytes: 4, blockW: 1, blockH: 1, channels: 4},
	SRGBA8:    {name: "SRGBA8", blockBytes: 4, blockW: 1, blockH: 1, channels: 4, srgb: true},
	BGRA8:     {name: "BGRA8", blockBytes: 4, blockW: 1, blockH: 1, channels: 4},
	R16F:      {name: "R16F", blockBytes: 2, blockW: 1, blockH: 1, channels: 1, float: true},
	RG16F:     {name: "RG16F", blockBytes: 4, blockW: 1, blockH: 1, channels: 2, float: true},
	RGB16F:    {name: "RGB16F", blockBytes: 6, blockW: 1, blockH: 1, channels: 3, float: true},
	RGBA16F:   {name: "RGBA16F", blockBytes: 8, blockW: 1, blockH: 1, channels: 4, float: true},
	R32F:      {name: "R32F", blockBytes: 4, blockW: 1, blockH: 1, channels: 1, float: true},
	RG32F:     {name: "RG32F", blockBytes: 8, blockW: 1, blockH: 1, channels: 2, float: true},
	RGB32F:    {name: "RGB32F", blockBytes: 12, blockW: 1, blockH: 1, channels: 3, float: true},
	RGBA32F:   {name: "RGBA32F", blockBytes: 16, blockW: 1, blockH: 1, channels: 4, float: true},
	R32U:      {name: "R32U", blockBytes: 4, blockW: 1, blockH: 1, channels: 1},
	RG32U:     {name: "RG32U", blockBytes: 8, blockW: 1, blockH: 1, channels: 2},
	RGB32U:    {name: "RGB32U", blockBytes: 12, blockW: 1, blockH: 1, channels: 3},
	RGBA32U:   {name: "RGBA32U", blockBytes: 16, blockW: 1, blockH: 1, channels: 4},
	BC1:       {name: "BC1", blockBytes: 8, blockW: 4, blockH: 4, channels: 4, compressed: true},
	BC2:       {name: "BC2", blockBytes: 16, blockW: 4, blockH: 4, channels: 4, compressed: true},
	BC3:       {name: "BC3", blockBytes: 16, blockW: 4, blockH: 4, channels: 4, compressed: true},
	BC4:       {name: "BC4", blockBytes: 8, blockW: 4, blockH: 4, channels: 1, compressed: true},
	BC5:       {name: "BC5", blockBytes: 16, blockW: 4, blockH: 4, channels: 2, compressed: true},
}

func (f Format) info() formatInfo {
	if f >= formatCount {
		return formatInfos[Undefined]
	}
	return formatInfos[f]
}

// String returns the format name.
func (f Format) String() string {
	return f.info().name
}

// FromName looks a format up by its String name. Unknown names return
// Undefined.
func FromName(name string) Format {
	for f := Format(1); f < formatCount; f++ {
		if formatInfos[f].name == name {
			return f
		}
	}
	return Undefined
}

// Defined reports whether f is a known format other than Undefined.
func (f Format) Defined() bool {
	return f > Undefined && f < formatCount
}

// BlockByteSize returns the byte size of one encoded block. For
// uncompressed formats a block is a single pixel.
func (f Format) BlockByteSize() uint32 {
	return f.info().blockBytes
}

// BlockPixelCount returns how many pixels one encoded block carries.
func (f Format) BlockPixelCount() uint32 {
	inf := f.info()
	return inf.blockW * inf.blockH
}

// BlockWidth returns the pixel width of one encoded block.
func (f Format) BlockWidth() uint32 {
	return f.info().blockW
}

// BlockHeight returns the pixel height of one encoded block.
func (f Format) BlockHeight() uint32 {
	return f.info().blockH
}

// ChannelCount returns the number of color channels.
func (f Format) ChannelCount() uint32 {
	return f.info().channels
}

// IsCompressed reports whether f is a block-compressed format.
func (f Format) IsCompressed() bool {
	return f.info().compressed
}

// IsFloat reports whether f stores floating-point channels.
func (f Format) IsFloat() bool {
	return f.info().float
}

// SurfaceByteSize returns the byte size of a width x height surface,
// accounting for block geometry: compressed formats round each dimension up
// to whole blocks.
func (f Format) SurfaceByteSize(width, height uint32) uint64 {
	inf := f.info()
	if inf.blockW == 0 {
		return 0
	}
	blocksW := uint64((width + inf.blockW - 1) / inf.blockW)
	blocksH := uint64((height + inf.blockH - 1) / inf.blockH)
	return blocksW * blocksH * uint64(inf.blockBytes)
}
