package exr

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ChannelData is one channel's planar samples. Exactly one of the three
// slices is populated, matching the channel's pixel type. Samples are
// stored row-major over the data window.
type ChannelData struct {
	Channel
	Uints  []uint32
	Halfs  []uint16
	Floats []float32
}

// Image is a decoded scanline image.
type Image struct {
	DataWindow Box2i
	Channels   []ChannelData
}

// DecodeImage reads the scanline offset table and every chunk, r being
// positioned just after the header. Offsets are absolute, so r must
// address the whole file.
func DecodeImage(r io.ReadSeeker, h *Header) (*Image, error) {
	lines := h.Compression.LinesPerChunk()
	if lines == 0 {
		return nil, fmt.Errorf("%w: unsupported compression %d", ErrBadHeader, h.Compression)
	}
	for _, c := range h.Channels {
		if c.XSampling != 1 || c.YSampling != 1 {
			return nil, fmt.Errorf("%w: channel %q is subsampled %dx%d",
				ErrBadHeader, c.Name, c.XSampling, c.YSampling)
		}
	}

	width := h.DataWindow.Width()
	height := h.DataWindow.Height()
	npix := width * height

	img := &Image{DataWindow: h.DataWindow, Channels: make([]ChannelData, len(h.Channels))}
	bytesPerLine := 0
	for i, c := range h.Channels {
		img.Channels[i].Channel = c
		switch c.Type {
		case PixelTypeUint:
			img.Channels[i].Uints = make([]uint32, npix)
		case PixelTypeHalf:
			img.Channels[i].Halfs = make([]uint16, npix)
		case PixelTypeFloat:
			img.Channels[i].Floats = make([]float32, npix)
		}
		bytesPerLine += width * c.Type.Size()
	}

	chunkCount := (height + lines - 1) / lines
	offsets := make([]uint64, chunkCount)
	if err := binary.Read(r, binary.LittleEndian, offsets); err != nil {
		return nil, fmt.Errorf("%w: offset table: %v", ErrBadImage, err)
	}

	for i, off := range offsets {
		if _, err := r.Seek(int64(off), io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: chunk %d at %d: %v", ErrBadImage, i, off, err)
		}
		var chunkY, packedSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkY); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrBadImage, i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &packedSize); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrBadImage, i, err)
		}
		if chunkY < h.DataWindow.YMin || chunkY > h.DataWindow.YMax {
			return nil, fmt.Errorf("%w: chunk %d at scanline %d outside data window",
				ErrBadImage, i, chunkY)
		}

		blockLines := lines
		if remain := int(h.DataWindow.YMax-chunkY) + 1; remain < blockLines {
			blockLines = remain
		}
		expected := bytesPerLine * blockLines
		if packedSize <= 0 || int(packedSize) > expected {
			return nil, fmt.Errorf("%w: chunk %d packed size %d for %d raw bytes",
				ErrBadImage, i, packedSize, expected)
		}

		packed := make([]byte, packedSize)
		if _, err := io.ReadFull(r, packed); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrBadImage, i, err)
		}

		raw, err := unpackChunk(h.Compression, packed, expected)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		img.scatter(raw, int(chunkY), blockLines)
	}
	return img, nil
}

// unpackChunk decodes one chunk payload. A payload as large as the raw
// block was stored uncompressed.
func unpackChunk(c Compression, packed []byte, expected int) ([]byte, error) {
	if len(packed) == expected {
		return packed, nil
	}
	switch c {
	case CompressionNone:
		return nil, fmt.Errorf("%w: raw chunk of %d bytes, want %d", ErrBadImage, len(packed), expected)
	case CompressionRLE:
		return rleDecompress(packed, expected)
	case CompressionZIPS, CompressionZIP:
		return zipDecompress(packed, expected)
	}
	return nil, fmt.Errorf("%w: unsupported compression %d", ErrBadHeader, c)
}

// scatter distributes one raw chunk into the planar channel slices.
// Within a line the channels appear in file order, each as a full row.
func (img *Image) scatter(raw []byte, chunkY, blockLines int) {
	width := img.DataWindow.Width()
	src := 0
	for line := 0; line < blockLines; line++ {
		row := chunkY + line - int(img.DataWindow.YMin)
		base := row * width
		for i := range img.Channels {
			ch := &img.Channels[i]
			switch ch.Type {
			case PixelTypeUint:
				for x := 0; x < width; x++ {
					ch.Uints[base+x] = binary.LittleEndian.Uint32(raw[src:])
					src += 4
				}
			case PixelTypeHalf:
				for x := 0; x < width; x++ {
					ch.Halfs[base+x] = binary.LittleEndian.Uint16(raw[src:])
					src += 2
				}
			case PixelTypeFloat:
				for x := 0; x < width; x++ {
					ch.Floats[base+x] = math.Float32frombits(binary.LittleEndian.Uint32(raw[src:]))
					src += 4
				}
			}
		}
	}
}
