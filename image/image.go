/*
Package image implements a flat binary container for pixel data.

A record is one contiguous span: a fixed 40-byte little-endian header,
the pixel bytes, then an optional extension block. Records link into
chains (mip levels, texture arrays split per layer) by flag only; the
position of the next record is always computed from the current record
size rounded up to 8 bytes, never stored. A whole chain therefore lives
in a single backing buffer and can be written to or read from disk as
one span.

Pixel data is addressed linearly: x, then rows, then depth slices, then
array slices. Formats come from package pixfmt; uncompressed formats can
be decoded to and encoded from canonical 4-component float vectors.
*/
package image

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/DeanoC/ltngt.image-process/pixfmt"
)

// Header layout. All integers little-endian.
const (
	headerSize = 40

	offWidth    = 0
	offHeight   = 4
	offDepth    = 8
	offSlices   = 12
	offFormat   = 16
	offUsage    = 20
	offFlags    = 21
	offPad      = 22
	offDataSize = 24
	offExtSize  = 32
)

const (
	flagCubemap       = 1 << 0
	flagHasExtensions = 1 << 1
	flagHasNext       = 1 << 2
)

const maxInt = int(^uint(0) >> 1)

// Usage hints how the pixel data will be consumed.
type Usage uint8

// Usage hints.
const (
	UsageGeneral Usage = iota
	UsageTexture
	UsageRenderTarget
	UsageDepthStencil
)

// Config describes the shape of one record.
type Config struct {
	Width   uint32
	Height  uint32
	Depth   uint32
	Slices  uint32
	Format  pixfmt.Format
	Usage   Usage
	Cubemap bool
}

func (c Config) validate() error {
	if c.Width == 0 || c.Height == 0 || c.Depth == 0 || c.Slices == 0 {
		return fmt.Errorf("%w: dimensions must be at least 1", ErrBadConfig)
	}
	if !c.Format.Defined() {
		return fmt.Errorf("%w: undefined pixel format", ErrBadConfig)
	}
	if c.Cubemap && c.Slices%6 != 0 {
		return fmt.Errorf("%w: cubemap slices must be a multiple of 6", ErrBadConfig)
	}
	return nil
}

// DataSize returns the pixel byte size a record of this shape carries.
// Block-compressed formats round each surface up to whole blocks.
func (c Config) DataSize() uint64 {
	return c.Format.SurfaceByteSize(c.Width, c.Height) * uint64(c.Depth) * uint64(c.Slices)
}

// PixelCount returns the number of addressable pixels.
func (c Config) PixelCount() uint64 {
	return uint64(c.Width) * uint64(c.Height) * uint64(c.Depth) * uint64(c.Slices)
}

func (c Config) mip(level uint32) Config {
	c.Width = MipDimension(c.Width, level)
	c.Height = MipDimension(c.Height, level)
	c.Depth = MipDimension(c.Depth, level)
	return c
}

// Image is a view of one record inside a backing buffer. Records of a
// chain share the buffer; the head allocation owns it.
type Image struct {
	buf []byte
	off int
}

// Options tunes record construction.
type Options struct {
	// Alloc returns the backing buffer for a record span of n bytes. The
	// returned slice must have length n. nil falls back to make.
	Alloc func(n int) []byte
}

func (o *Options) alloc(n int) []byte {
	if o != nil && o.Alloc != nil {
		return o.Alloc(n)
	}
	return make([]byte, n)
}

// New allocates a single record for cfg.
func New(cfg Config) (*Image, error) {
	return NewWithOptions(cfg, nil, nil)
}

// NewWithExtensions allocates a single record carrying the given
// extensions.
func NewWithExtensions(cfg Config, exts []Extension) (*Image, error) {
	return NewWithOptions(cfg, exts, nil)
}

// NewWithOptions allocates a single record using opts for the backing
// buffer.
func NewWithOptions(cfg Config, exts []Extension, opts *Options) (*Image, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	blk, err := buildExtensionBlock(exts)
	if err != nil {
		return nil, err
	}
	dataSize := cfg.DataSize()
	span := align8(headerSize + dataSize + uint64(len(blk)))
	if span > uint64(maxInt) {
		return nil, fmt.Errorf("%w: %d byte record", ErrTooLarge, span)
	}
	img := &Image{buf: opts.alloc(int(span))}
	img.writeHeader(cfg, dataSize, uint64(len(blk)))
	copy(img.buf[headerSize+int(dataSize):], blk)
	return img, nil
}

func (img *Image) writeHeader(cfg Config, dataSize, extSize uint64) {
	h := img.buf[img.off:]
	binary.LittleEndian.PutUint32(h[offWidth:], cfg.Width)
	binary.LittleEndian.PutUint32(h[offHeight:], cfg.Height)
	binary.LittleEndian.PutUint32(h[offDepth:], cfg.Depth)
	binary.LittleEndian.PutUint32(h[offSlices:], cfg.Slices)
	binary.LittleEndian.PutUint32(h[offFormat:], uint32(cfg.Format))
	h[offUsage] = byte(cfg.Usage)
	var flags byte
	if cfg.Cubemap {
		flags |= flagCubemap
	}
	if extSize > 0 {
		flags |= flagHasExtensions
	}
	h[offFlags] = flags
	h[offPad] = 0
	h[offPad+1] = 0
	binary.LittleEndian.PutUint64(h[offDataSize:], dataSize)
	binary.LittleEndian.PutUint64(h[offExtSize:], extSize)
}

func (img *Image) mustValid() {
	if img.buf == nil {
		panic("image: use after destructive join")
	}
}

func (img *Image) header() []byte {
	img.mustValid()
	return img.buf[img.off : img.off+headerSize]
}

func (img *Image) flags() byte { return img.header()[offFlags] }

// Width returns the pixel width.
func (img *Image) Width() uint32 {
	return binary.LittleEndian.Uint32(img.header()[offWidth:])
}

// Height returns the pixel height.
func (img *Image) Height() uint32 {
	return binary.LittleEndian.Uint32(img.header()[offHeight:])
}

// Depth returns the number of depth slices.
func (img *Image) Depth() uint32 {
	return binary.LittleEndian.Uint32(img.header()[offDepth:])
}

// Slices returns the number of array slices.
func (img *Image) Slices() uint32 {
	return binary.LittleEndian.Uint32(img.header()[offSlices:])
}

// Format returns the pixel format.
func (img *Image) Format() pixfmt.Format {
	return pixfmt.Format(binary.LittleEndian.Uint32(img.header()[offFormat:]))
}

// Usage returns the usage hint.
func (img *Image) Usage() Usage { return Usage(img.header()[offUsage]) }

// IsCubemap reports whether the slices form cubemap faces.
func (img *Image) IsCubemap() bool { return img.flags()&flagCubemap != 0 }

// HasExtensions reports whether an extension block follows the pixel data.
func (img *Image) HasExtensions() bool { return img.flags()&flagHasExtensions != 0 }

// HasNext reports whether another record follows this one in the buffer.
func (img *Image) HasNext() bool { return img.flags()&flagHasNext != 0 }

// DataSize returns the pixel byte size recorded in the header.
func (img *Image) DataSize() uint64 {
	return binary.LittleEndian.Uint64(img.header()[offDataSize:])
}

// ExtSize returns the extension block byte size recorded in the header.
func (img *Image) ExtSize() uint64 {
	return binary.LittleEndian.Uint64(img.header()[offExtSize:])
}

// PixelCount returns the number of addressable pixels.
func (img *Image) PixelCount() uint64 { return img.Config().PixelCount() }

// Config reconstructs the configuration this record was created with.
func (img *Image) Config() Config {
	return Config{
		Width:   img.Width(),
		Height:  img.Height(),
		Depth:   img.Depth(),
		Slices:  img.Slices(),
		Format:  img.Format(),
		Usage:   img.Usage(),
		Cubemap: img.IsCubemap(),
	}
}

// Data returns the pixel bytes of this record.
func (img *Image) Data() []byte {
	start := img.off + headerSize
	return img.buf[start : start+int(img.DataSize())]
}

// DataAt returns the pixel bytes starting at the block containing the
// given linear pixel offset. For uncompressed formats the block is the
// pixel itself.
func (img *Image) DataAt(pixel uint64) []byte {
	f := img.Format()
	byteOff := pixel / uint64(f.BlockPixelCount()) * uint64(f.BlockByteSize())
	return img.Data()[byteOff:]
}

// PixelIndex maps 4-D coordinates to a linear pixel offset.
func (img *Image) PixelIndex(x, y, z, slice uint32) uint64 {
	w := uint64(img.Width())
	h := uint64(img.Height())
	d := uint64(img.Depth())
	return ((uint64(slice)*d+uint64(z))*h+uint64(y))*w + uint64(x)
}

// DecodePixelsAt unpacks len(dst)/4 pixels starting at the given linear
// pixel offset into canonical 4-component float vectors. The format must
// support the float codec and the range must lie inside the record;
// violations panic.
func (img *Image) DecodePixelsAt(pixel uint64, dst []float32) {
	f := img.Format()
	if !f.CanDecodeF32() {
		panic("image: no float decode for format " + f.String())
	}
	count := uint64(len(dst) / 4)
	if pixel+count > img.PixelCount() {
		panic("image: pixel range out of bounds")
	}
	if err := f.DecodeF32(img.DataAt(pixel), dst); err != nil {
		panic("image: " + err.Error())
	}
}

// EncodePixelsAt packs len(src)/4 canonical float vectors into pixels
// starting at the given linear pixel offset. Preconditions as for
// DecodePixelsAt.
func (img *Image) EncodePixelsAt(pixel uint64, src []float32) {
	f := img.Format()
	if !f.CanEncodeF32() {
		panic("image: no float encode for format " + f.String())
	}
	count := uint64(len(src) / 4)
	if pixel+count > img.PixelCount() {
		panic("image: pixel range out of bounds")
	}
	if err := f.EncodeF32(src, img.DataAt(pixel)); err != nil {
		panic("image: " + err.Error())
	}
}

// PixelAt decodes the pixel at the given coordinates.
func (img *Image) PixelAt(x, y, z, slice uint32) [4]float32 {
	var px [4]float32
	img.DecodePixelsAt(img.PixelIndex(x, y, z, slice), px[:])
	return px
}

// SetPixelAt encodes the pixel at the given coordinates.
func (img *Image) SetPixelAt(x, y, z, slice uint32, px [4]float32) {
	img.EncodePixelsAt(img.PixelIndex(x, y, z, slice), px[:])
}

func u32FromLen(n int) (uint32, error) {
	if uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	return uint32(n), nil
}
