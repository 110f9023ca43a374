package image

import (
	"fmt"

	"github.com/DeanoC/ltngt.image-process/pixfmt"
)

// New1D allocates a width-only record.
func New1D(width uint32, f pixfmt.Format) (*Image, error) {
	return New(Config{Width: width, Height: 1, Depth: 1, Slices: 1, Format: f})
}

// New1DArray allocates a width-only record with array slices.
func New1DArray(width, slices uint32, f pixfmt.Format) (*Image, error) {
	return New(Config{Width: width, Height: 1, Depth: 1, Slices: slices, Format: f})
}

// New2D allocates a single 2-D record.
func New2D(width, height uint32, f pixfmt.Format) (*Image, error) {
	return New(Config{Width: width, Height: height, Depth: 1, Slices: 1, Format: f})
}

// New2DArray allocates a 2-D record with array slices.
func New2DArray(width, height, slices uint32, f pixfmt.Format) (*Image, error) {
	return New(Config{Width: width, Height: height, Depth: 1, Slices: slices, Format: f})
}

// New3D allocates a volume record.
func New3D(width, height, depth uint32, f pixfmt.Format) (*Image, error) {
	return New(Config{Width: width, Height: height, Depth: depth, Slices: 1, Format: f})
}

// NewCubemap allocates a 6-face cubemap record.
func NewCubemap(size uint32, f pixfmt.Format) (*Image, error) {
	return New(Config{Width: size, Height: size, Depth: 1, Slices: 6, Format: f, Cubemap: true})
}

// NewCubemapArray allocates a cubemap array record of slices cubemaps.
func NewCubemapArray(size, slices uint32, f pixfmt.Format) (*Image, error) {
	return New(Config{Width: size, Height: size, Depth: 1, Slices: slices * 6, Format: f, Cubemap: true})
}

// NewMipChain allocates a chain of levels records in one buffer, each
// level halving the previous dimensions down to 1. levels == 0 builds
// the full pyramid.
func NewMipChain(cfg Config, levels uint32) (*Image, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	full := MipCount(cfg.Width, cfg.Height, cfg.Depth)
	if levels == 0 || levels > full {
		levels = full
	}

	var total uint64
	for l := uint32(0); l < levels; l++ {
		total += align8(headerSize + cfg.mip(l).DataSize())
	}
	if total > uint64(maxInt) {
		return nil, fmt.Errorf("%w: %d byte mip chain", ErrTooLarge, total)
	}

	buf := make([]byte, total)
	off := 0
	for l := uint32(0); l < levels; l++ {
		lvl := cfg.mip(l)
		rec := &Image{buf: buf, off: off}
		rec.writeHeader(lvl, lvl.DataSize(), 0)
		if l+1 < levels {
			buf[off+offFlags] |= flagHasNext
		}
		off += int(align8(headerSize + lvl.DataSize()))
	}
	return &Image{buf: buf}, nil
}
