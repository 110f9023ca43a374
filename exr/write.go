package exr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Encode serializes img as a single-part scanline EXR file using the
// given compression. w must be at the start of the file because chunk
// offsets are absolute.
func Encode(w io.Writer, img *Image, c Compression) error {
	lines := c.LinesPerChunk()
	if lines == 0 {
		return fmt.Errorf("%w: unsupported compression %d", ErrWrite, c)
	}
	if len(img.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrWrite)
	}
	width := img.DataWindow.Width()
	height := img.DataWindow.Height()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: empty data window", ErrWrite)
	}

	// Channels are stored sorted by name; the chunk layout depends on it.
	channels := make([]ChannelData, len(img.Channels))
	copy(channels, img.Channels)
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })

	npix := width * height
	for _, ch := range channels {
		var n int
		switch ch.Type {
		case PixelTypeUint:
			n = len(ch.Uints)
		case PixelTypeHalf:
			n = len(ch.Halfs)
		case PixelTypeFloat:
			n = len(ch.Floats)
		}
		if n != npix {
			return fmt.Errorf("%w: channel %q carries %d of %d samples", ErrWrite, ch.Name, n, npix)
		}
	}

	var hdr bytes.Buffer
	hdr.Write(magic[:])
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], supportedVersion)
	hdr.Write(u32[:])

	writeAttr := func(name, typ string, value []byte) {
		hdr.WriteString(name)
		hdr.WriteByte(0)
		hdr.WriteString(typ)
		hdr.WriteByte(0)
		binary.LittleEndian.PutUint32(u32[:], uint32(len(value)))
		hdr.Write(u32[:])
		hdr.Write(value)
	}
	writeAttr("channels", "chlist", chlistBytes(channels))
	writeAttr("compression", "compression", []byte{byte(c)})
	writeAttr("dataWindow", "box2i", box2iBytes(img.DataWindow))
	writeAttr("displayWindow", "box2i", box2iBytes(img.DataWindow))
	writeAttr("lineOrder", "lineOrder", []byte{0})
	writeAttr("pixelAspectRatio", "float", f32Bytes(1))
	writeAttr("screenWindowCenter", "v2f", append(f32Bytes(0), f32Bytes(0)...))
	writeAttr("screenWindowWidth", "float", f32Bytes(1))
	hdr.WriteByte(0)

	chunkCount := (height + lines - 1) / lines
	chunks := make([][]byte, chunkCount)
	for i := 0; i < chunkCount; i++ {
		y0 := int(img.DataWindow.YMin) + i*lines
		blockLines := lines
		if remain := int(img.DataWindow.YMax) - y0 + 1; remain < blockLines {
			blockLines = remain
		}
		raw := gatherChunk(channels, img.DataWindow, y0, blockLines)
		packed, err := packChunk(c, raw)
		if err != nil {
			return err
		}
		chunk := make([]byte, 8+len(packed))
		binary.LittleEndian.PutUint32(chunk[0:], uint32(int32(y0)))
		binary.LittleEndian.PutUint32(chunk[4:], uint32(int32(len(packed))))
		copy(chunk[8:], packed)
		chunks[i] = chunk
	}

	pos := uint64(hdr.Len()) + uint64(8*chunkCount)
	table := make([]byte, 8*chunkCount)
	for i, chunk := range chunks {
		binary.LittleEndian.PutUint64(table[8*i:], pos)
		pos += uint64(len(chunk))
	}

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWrite, err)
	}
	if _, err := w.Write(table); err != nil {
		return fmt.Errorf("%w: offset table: %v", ErrWrite, err)
	}
	for i, chunk := range chunks {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", ErrWrite, i, err)
		}
	}
	return nil
}

// packChunk encodes one raw block, falling back to a raw store when the
// codec does not shrink it.
func packChunk(c Compression, raw []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionRLE:
		packed := rleCompress(raw)
		if len(packed) >= len(raw) {
			return raw, nil
		}
		return packed, nil
	case CompressionZIPS, CompressionZIP:
		packed, err := zipCompress(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrWrite, err)
		}
		if len(packed) >= len(raw) {
			return raw, nil
		}
		return packed, nil
	}
	return nil, fmt.Errorf("%w: unsupported compression %d", ErrWrite, c)
}

// gatherChunk interleaves planar channel data into the raw chunk
// layout: per line, per channel, a full row of samples.
func gatherChunk(channels []ChannelData, dw Box2i, y0, blockLines int) []byte {
	width := dw.Width()
	size := 0
	for _, ch := range channels {
		size += width * ch.Type.Size()
	}
	raw := make([]byte, size*blockLines)
	dst := 0
	for line := 0; line < blockLines; line++ {
		base := (y0 + line - int(dw.YMin)) * width
		for _, ch := range channels {
			switch ch.Type {
			case PixelTypeUint:
				for x := 0; x < width; x++ {
					binary.LittleEndian.PutUint32(raw[dst:], ch.Uints[base+x])
					dst += 4
				}
			case PixelTypeHalf:
				for x := 0; x < width; x++ {
					binary.LittleEndian.PutUint16(raw[dst:], ch.Halfs[base+x])
					dst += 2
				}
			case PixelTypeFloat:
				for x := 0; x < width; x++ {
					binary.LittleEndian.PutUint32(raw[dst:], math.Float32bits(ch.Floats[base+x]))
					dst += 4
				}
			}
		}
	}
	return raw
}

func chlistBytes(channels []ChannelData) []byte {
	var b bytes.Buffer
	for _, ch := range channels {
		b.WriteString(ch.Name)
		b.WriteByte(0)
		var fixed [16]byte
		binary.LittleEndian.PutUint32(fixed[0:], uint32(int32(ch.Type)))
		if ch.PLinear {
			fixed[4] = 1
		}
		binary.LittleEndian.PutUint32(fixed[8:], 1)
		binary.LittleEndian.PutUint32(fixed[12:], 1)
		b.Write(fixed[:])
	}
	b.WriteByte(0)
	return b.Bytes()
}

func box2iBytes(b Box2i) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out[0:], uint32(b.XMin))
	binary.LittleEndian.PutUint32(out[4:], uint32(b.YMin))
	binary.LittleEndian.PutUint32(out[8:], uint32(b.XMax))
	binary.LittleEndian.PutUint32(out[12:], uint32(b.YMax))
	return out
}

func f32Bytes(v float32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, math.Float32bits(v))
	return out
}
