package ktx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/DeanoC/ltngt.image-process/pixfmt"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

// Reader decodes one KTX v1 file from a byte source. Methods other than
// ReadHeader require a successfully read header; violations panic.
type Reader struct {
	v          vfile.VFile
	header     Header
	order      binary.ByteOrder
	keyValue   []byte
	firstImage int64
	valid      bool
	sizes      []uint64 // effective level sizes, 0 = not yet walked
	data       [][]byte // fetched level payloads, nil = not yet read
}

// NewReader wraps v. Nothing is read until ReadHeader.
func NewReader(v vfile.VFile) *Reader {
	return &Reader{v: v}
}

// ReadHeader reads and validates the identifier, endianness marker,
// header fields and key/value block, leaving the source positioned at
// the first mip level.
func (r *Reader) ReadHeader() error {
	r.valid = false

	var magic [12]byte
	if _, err := r.v.Read(magic[:]); err != nil {
		return fmt.Errorf("%w: identifier: %v", ErrNotValid, err)
	}
	if !bytes.Equal(magic[:], identifier[:]) {
		return fmt.Errorf("%w: bad identifier", ErrNotValid)
	}

	var marker [4]byte
	if _, err := r.v.Read(marker[:]); err != nil {
		return fmt.Errorf("%w: endianness marker: %v", ErrNotValid, err)
	}
	switch binary.LittleEndian.Uint32(marker[:]) {
	case endianNative:
		r.order = binary.LittleEndian
	case endianSwapped:
		r.order = binary.BigEndian
	default:
		return fmt.Errorf("%w: endianness marker %#08x", ErrNotValid, binary.LittleEndian.Uint32(marker[:]))
	}

	var fields [headerFieldCount * 4]byte
	if _, err := r.v.Read(fields[:]); err != nil {
		return fmt.Errorf("%w: header: %v", ErrNotValid, err)
	}
	u := func(i int) uint32 { return r.order.Uint32(fields[i*4:]) }
	r.header = Header{
		GLType:                u(0),
		GLTypeSize:            u(1),
		GLFormat:              u(2),
		GLInternalFormat:      u(3),
		GLBaseInternalFormat:  u(4),
		PixelWidth:            u(5),
		PixelHeight:           u(6),
		PixelDepth:            u(7),
		NumberOfArrayElements: u(8),
		NumberOfFaces:         u(9),
		NumberOfMipmapLevels:  u(10),
		BytesOfKeyValueData:   u(11),
	}

	if f := r.header.NumberOfFaces; f != 1 && f != 6 {
		return fmt.Errorf("%w: %d faces", ErrUnsupported, f)
	}

	kvSize := int64(r.header.BytesOfKeyValueData)
	if kvSize > r.v.ByteCount()-r.v.Tell() {
		return fmt.Errorf("%w: key/value block of %d bytes past end", ErrNotValid, kvSize)
	}
	r.keyValue = make([]byte, kvSize)
	if kvSize > 0 {
		if _, err := r.v.Read(r.keyValue); err != nil {
			return fmt.Errorf("%w: key/value block: %v", ErrNotValid, err)
		}
	}

	r.firstImage = r.v.Tell()
	r.sizes = make([]uint64, r.levels())
	r.data = make([][]byte, r.levels())
	r.valid = true
	return nil
}

func (r *Reader) mustValid() {
	if !r.valid {
		panic("ktx: header not read")
	}
}

// A declared level count of 0 still carries one image.
func (r *Reader) levels() uint32 {
	if r.header.NumberOfMipmapLevels == 0 {
		return 1
	}
	return r.header.NumberOfMipmapLevels
}

// walk resolves the effective size and payload position of level,
// reading and caching any size prefixes not yet seen. Cached prefixes
// cost no I/O.
func (r *Reader) walk(level uint32) (uint64, int64, error) {
	pos := r.firstImage
	for l := uint32(0); ; l++ {
		size := r.sizes[l]
		if size == 0 {
			if _, err := r.v.Seek(pos, io.SeekStart); err != nil {
				return 0, 0, fmt.Errorf("%w: level %d size prefix: %v", ErrNotValid, l, err)
			}
			var prefix [4]byte
			if _, err := r.v.Read(prefix[:]); err != nil {
				return 0, 0, fmt.Errorf("%w: level %d size prefix: %v", ErrNotValid, l, err)
			}
			size = uint64(r.order.Uint32(prefix[:]))
			// Non-array cubemaps prefix one face; the level holds six,
			// each padded to 4 bytes.
			if r.header.NumberOfFaces == 6 && r.header.NumberOfArrayElements == 0 {
				size = align4(size) * 6
			}
			r.sizes[l] = size
		}
		if l == level {
			return size, pos + 4, nil
		}
		pos += int64(align4(size)) + 4
	}
}

// ImageSizeOf returns the byte size of one mip level's payload. For
// non-array cubemaps this covers all six faces.
func (r *Reader) ImageSizeOf(level uint32) (uint64, error) {
	r.mustValid()
	if level >= r.levels() {
		return 0, fmt.Errorf("%w: level %d of %d", ErrMipMap, level, r.levels())
	}
	size, _, err := r.walk(level)
	return size, err
}

// ImageDataAt returns one mip level's payload, reading it on first use.
func (r *Reader) ImageDataAt(level uint32) ([]byte, error) {
	r.mustValid()
	if level >= r.levels() {
		return nil, fmt.Errorf("%w: level %d of %d", ErrMipMap, level, r.levels())
	}
	if cached := r.data[level]; cached != nil {
		return cached, nil
	}
	size, pos, err := r.walk(level)
	if err != nil {
		return nil, err
	}
	if int64(size) > r.v.ByteCount()-pos {
		return nil, fmt.Errorf("%w: level %d payload of %d bytes past end", ErrMipMap, level, size)
	}
	// The walk may have left the source elsewhere; position explicitly.
	if _, err := r.v.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: level %d: %v", ErrMipMap, level, err)
	}
	buf := make([]byte, size)
	if _, err := r.v.Read(buf); err != nil {
		return nil, fmt.Errorf("%w: level %d payload: %v", ErrMipMap, level, err)
	}
	r.data[level] = buf
	return buf, nil
}

// Header returns the parsed header fields.
func (r *Reader) Header() Header {
	r.mustValid()
	return r.header
}

// Format resolves the GL format triple to a container pixel format,
// Undefined when no mapping exists.
func (r *Reader) Format() pixfmt.Format {
	r.mustValid()
	return pixfmt.FromGL(r.header.GLType, r.header.GLFormat, r.header.GLInternalFormat)
}

// Width returns the level 0 width.
func (r *Reader) Width() uint32 {
	r.mustValid()
	return r.header.PixelWidth
}

// Height returns the level 0 height, at least 1.
func (r *Reader) Height() uint32 {
	r.mustValid()
	if r.header.PixelHeight == 0 {
		return 1
	}
	return r.header.PixelHeight
}

// Depth returns the level 0 depth, at least 1.
func (r *Reader) Depth() uint32 {
	r.mustValid()
	if r.header.PixelDepth == 0 {
		return 1
	}
	return r.header.PixelDepth
}

// ArrayElements returns the array length, 0 when not an array.
func (r *Reader) ArrayElements() uint32 {
	r.mustValid()
	return r.header.NumberOfArrayElements
}

// Faces returns the face count, 1 or 6.
func (r *Reader) Faces() uint32 {
	r.mustValid()
	return r.header.NumberOfFaces
}

// MipLevels returns the stored level count, at least 1.
func (r *Reader) MipLevels() uint32 {
	r.mustValid()
	return r.levels()
}

// Is1D reports a width-only texture.
func (r *Reader) Is1D() bool {
	r.mustValid()
	return r.header.PixelHeight == 0 && r.header.PixelDepth == 0
}

// Is2D reports a flat texture.
func (r *Reader) Is2D() bool {
	r.mustValid()
	return r.header.PixelHeight > 0 && r.header.PixelDepth == 0
}

// Is3D reports a volume texture.
func (r *Reader) Is3D() bool {
	r.mustValid()
	return r.header.PixelDepth > 0
}

// IsCubemap reports a six-face texture.
func (r *Reader) IsCubemap() bool {
	r.mustValid()
	return r.header.NumberOfFaces == 6
}

// IsArray reports an array texture.
func (r *Reader) IsArray() bool {
	r.mustValid()
	return r.header.NumberOfArrayElements > 0
}

// KeyValueData returns the raw key/value block as stored.
func (r *Reader) KeyValueData() []byte {
	r.mustValid()
	return r.keyValue
}

// KeyValues parses the key/value block into ordered pairs. Each entry is
// a size-prefixed NUL-separated key and value, padded to 4 bytes.
func (r *Reader) KeyValues() ([]KeyValue, error) {
	r.mustValid()
	blob := r.keyValue
	var pairs []KeyValue
	for off := uint64(0); off+4 <= uint64(len(blob)); {
		sz := uint64(r.order.Uint32(blob[off:]))
		if off+4+sz > uint64(len(blob)) {
			return nil, fmt.Errorf("%w: key/value entry of %d bytes past end", ErrNotValid, sz)
		}
		entry := blob[off+4 : off+4+sz]
		key, value := entry, []byte(nil)
		if i := bytes.IndexByte(entry, 0); i >= 0 {
			key, value = entry[:i], entry[i+1:]
		}
		pairs = append(pairs, KeyValue{Key: string(key), Value: value})
		off += 4 + align4(sz)
	}
	return pairs, nil
}
