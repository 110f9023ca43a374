/*
Package exr reads and writes plain scanline OpenEXR version 2 files.

The parser is deliberately narrow: single-part scanline images with
NONE, RLE, ZIPS or ZIP compression. Tiled, deep and multi-part files
are rejected at the version word. Pixel data is returned planar, one
slice per channel in file channel order.
*/
package exr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/DeanoC/ltngt.image-process/log"
)

// Magic number, the first four bytes of every EXR file.
var magic = [4]byte{0x76, 0x2F, 0x31, 0x01}

// SniffMagic reports whether b starts with the EXR magic number.
func SniffMagic(b []byte) bool {
	return len(b) >= len(magic) && bytes.Equal(b[:len(magic)], magic[:])
}

const supportedVersion = 2

// Version word flag bits.
const (
	flagTiled     = 1 << 9
	flagLongNames = 1 << 10
	flagDeep      = 1 << 11
	flagMultipart = 1 << 12
)

// Attribute names and strings are NUL-terminated; cap reads so a
// corrupt file cannot run away.
const maxNameLength = 256

// PixelType is the per-channel sample encoding.
type PixelType int32

// Sample encodings.
const (
	PixelTypeUint  PixelType = 0
	PixelTypeHalf  PixelType = 1
	PixelTypeFloat PixelType = 2
)

// Size returns the byte size of one sample.
func (t PixelType) Size() int {
	switch t {
	case PixelTypeUint, PixelTypeFloat:
		return 4
	case PixelTypeHalf:
		return 2
	}
	return 0
}

func (t PixelType) String() string {
	switch t {
	case PixelTypeUint:
		return "uint"
	case PixelTypeHalf:
		return "half"
	case PixelTypeFloat:
		return "float"
	}
	return fmt.Sprintf("pixel type %d", int32(t))
}

// Compression identifies the chunk codec.
type Compression uint8

// Chunk codecs. Only the first four are decodable here.
const (
	CompressionNone  Compression = 0
	CompressionRLE   Compression = 1
	CompressionZIPS  Compression = 2
	CompressionZIP   Compression = 3
	CompressionPIZ   Compression = 4
	CompressionPXR24 Compression = 5
	CompressionB44   Compression = 6
	CompressionB44A  Compression = 7
)

// LinesPerChunk returns the scanline count per chunk, 0 when the codec
// is not supported.
func (c Compression) LinesPerChunk() int {
	switch c {
	case CompressionNone, CompressionRLE, CompressionZIPS:
		return 1
	case CompressionZIP:
		return 16
	}
	return 0
}

// Box2i is a closed integer rectangle.
type Box2i struct {
	XMin, YMin, XMax, YMax int32
}

// Width returns the inclusive pixel width.
func (b Box2i) Width() int { return int(b.XMax) - int(b.XMin) + 1 }

// Height returns the inclusive pixel height.
func (b Box2i) Height() int { return int(b.YMax) - int(b.YMin) + 1 }

// Channel describes one entry of the chlist attribute.
type Channel struct {
	Name      string
	Type      PixelType
	PLinear   bool
	XSampling int32
	YSampling int32
}

// Header holds the parsed attributes the decoder needs. Channels keep
// file order, which valid files sort by name.
type Header struct {
	Channels      []Channel
	DataWindow    Box2i
	DisplayWindow Box2i
	Compression   Compression
	LineOrder     uint8
}

// Version is the parsed version word.
type Version struct {
	Number    int
	LongNames bool
}

// ParseVersion reads the magic and version word. Tiled, deep and
// multi-part files are rejected.
func ParseVersion(r io.Reader) (Version, error) {
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return Version{}, fmt.Errorf("%w: magic: %v", ErrBadVersion, err)
	}
	if !bytes.Equal(m[:], magic[:]) {
		return Version{}, fmt.Errorf("%w: bad magic", ErrBadVersion)
	}

	var word uint32
	if err := binary.Read(r, binary.LittleEndian, &word); err != nil {
		return Version{}, fmt.Errorf("%w: version word: %v", ErrBadVersion, err)
	}
	v := Version{Number: int(word & 0xFF), LongNames: word&flagLongNames != 0}
	if v.Number != supportedVersion {
		return Version{}, fmt.Errorf("%w: version %d", ErrBadVersion, v.Number)
	}
	if word&flagTiled != 0 {
		return Version{}, fmt.Errorf("%w: tiled files are not supported", ErrBadVersion)
	}
	if word&flagDeep != 0 {
		return Version{}, fmt.Errorf("%w: deep files are not supported", ErrBadVersion)
	}
	if word&flagMultipart != 0 {
		return Version{}, fmt.Errorf("%w: multi-part files are not supported", ErrBadVersion)
	}
	return v, nil
}

// ParseHeader reads the attribute list up to its empty-name terminator.
// channels, dataWindow and compression are required; unrecognized
// attributes are skipped.
func ParseHeader(r io.Reader) (*Header, error) {
	h := &Header{}
	var haveChannels, haveDataWindow, haveCompression bool

	for {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute name: %v", ErrBadHeader, err)
		}
		if name == "" {
			break
		}
		attrType, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q type: %v", ErrBadHeader, name, err)
		}
		var size int32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("%w: attribute %q size: %v", ErrBadHeader, name, err)
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: attribute %q size %d", ErrBadHeader, name, size)
		}

		switch {
		case name == "channels" && attrType == "chlist":
			value, err := readValue(r, size)
			if err != nil {
				return nil, fmt.Errorf("%w: channels: %v", ErrBadHeader, err)
			}
			h.Channels, err = parseChannelList(value)
			if err != nil {
				return nil, err
			}
			haveChannels = true
		case name == "dataWindow" && attrType == "box2i":
			if err := readBox2i(r, size, &h.DataWindow); err != nil {
				return nil, fmt.Errorf("%w: dataWindow: %v", ErrBadHeader, err)
			}
			haveDataWindow = true
		case name == "displayWindow" && attrType == "box2i":
			if err := readBox2i(r, size, &h.DisplayWindow); err != nil {
				return nil, fmt.Errorf("%w: displayWindow: %v", ErrBadHeader, err)
			}
		case name == "compression" && attrType == "compression":
			var c [1]byte
			if size != 1 {
				return nil, fmt.Errorf("%w: compression size %d", ErrBadHeader, size)
			}
			if _, err := io.ReadFull(r, c[:]); err != nil {
				return nil, fmt.Errorf("%w: compression: %v", ErrBadHeader, err)
			}
			h.Compression = Compression(c[0])
			haveCompression = true
		case name == "lineOrder" && attrType == "lineOrder":
			var c [1]byte
			if size != 1 {
				return nil, fmt.Errorf("%w: lineOrder size %d", ErrBadHeader, size)
			}
			if _, err := io.ReadFull(r, c[:]); err != nil {
				return nil, fmt.Errorf("%w: lineOrder: %v", ErrBadHeader, err)
			}
			h.LineOrder = c[0]
		default:
			log.Debugf("exr: skipping attribute %q of type %q (%d bytes)", name, attrType, size)
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return nil, fmt.Errorf("%w: attribute %q: %v", ErrBadHeader, name, err)
			}
		}
	}

	if !haveChannels {
		return nil, fmt.Errorf("%w: missing channels attribute", ErrBadHeader)
	}
	if !haveDataWindow {
		return nil, fmt.Errorf("%w: missing dataWindow attribute", ErrBadHeader)
	}
	if !haveCompression {
		return nil, fmt.Errorf("%w: missing compression attribute", ErrBadHeader)
	}
	if h.DataWindow.Width() <= 0 || h.DataWindow.Height() <= 0 {
		return nil, fmt.Errorf("%w: empty data window", ErrBadHeader)
	}
	return h, nil
}

func readString(r io.Reader) (string, error) {
	var s []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(s), nil
		}
		s = append(s, b[0])
		if len(s) > maxNameLength {
			return "", fmt.Errorf("name longer than %d bytes", maxNameLength)
		}
	}
}

// Attribute values the parser materializes are capped; a chlist of a
// megabyte is already far outside anything real.
const maxAttrSize = 1 << 20

func readValue(r io.Reader, size int32) ([]byte, error) {
	if size > maxAttrSize {
		return nil, fmt.Errorf("attribute value of %d bytes", size)
	}
	value := make([]byte, size)
	if _, err := io.ReadFull(r, value); err != nil {
		return nil, err
	}
	return value, nil
}

func readBox2i(r io.Reader, size int32, dst *Box2i) error {
	if size != 16 {
		return fmt.Errorf("box2i size %d", size)
	}
	return binary.Read(r, binary.LittleEndian, dst)
}

func parseChannelList(value []byte) ([]Channel, error) {
	rd := bytes.NewReader(value)
	var channels []Channel
	for {
		name, err := readString(rd)
		if err != nil {
			return nil, fmt.Errorf("%w: channel name: %v", ErrBadHeader, err)
		}
		if name == "" {
			break
		}
		var fixed struct {
			Type      int32
			PLinear   uint8
			Reserved  [3]uint8
			XSampling int32
			YSampling int32
		}
		if err := binary.Read(rd, binary.LittleEndian, &fixed); err != nil {
			return nil, fmt.Errorf("%w: channel %q: %v", ErrBadHeader, name, err)
		}
		t := PixelType(fixed.Type)
		if t != PixelTypeUint && t != PixelTypeHalf && t != PixelTypeFloat {
			return nil, fmt.Errorf("%w: channel %q pixel type %d", ErrBadHeader, name, fixed.Type)
		}
		channels = append(channels, Channel{
			Name:      name,
			Type:      t,
			PLinear:   fixed.PLinear != 0,
			XSampling: fixed.XSampling,
			YSampling: fixed.YSampling,
		})
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: empty channel list", ErrBadHeader)
	}
	return channels, nil
}
