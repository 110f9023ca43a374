package ktx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/pixfmt"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

// GL enum values used by fixtures.
const (
	testGLUnsignedByte = 0x1401
	testGLRGBA         = 0x1908
	testGLRGBA8        = 0x8058
	testGLR8           = 0x8229
	testGLRed          = 0x1903
)

type fixtureLevel struct {
	stored  uint32
	payload []byte
}

func buildKTX(t *testing.T, order binary.ByteOrder, hdr Header, kv []byte, levels []fixtureLevel) *vfile.Memory {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(identifier[:])
	var u32 [4]byte
	order.PutUint32(u32[:], endianNative)
	buf.Write(u32[:])
	if err := binary.Write(&buf, order, hdr); err != nil {
		t.Fatalf("fixture header: %v", err)
	}
	buf.Write(kv)
	for _, lv := range levels {
		order.PutUint32(u32[:], lv.stored)
		buf.Write(u32[:])
		buf.Write(lv.payload)
	}
	return vfile.FromBytes(buf.Bytes())
}

func rgba8Header(w, h, mips uint32) Header {
	return Header{
		GLType:               testGLUnsignedByte,
		GLTypeSize:           1,
		GLFormat:             testGLRGBA,
		GLInternalFormat:     testGLRGBA8,
		GLBaseInternalFormat: testGLRGBA,
		PixelWidth:           w,
		PixelHeight:          h,
		NumberOfFaces:        1,
		NumberOfMipmapLevels: mips,
	}
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte((i*31 + 7) & 0xff)
	}
	return b
}

func TestReadHeaderRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func([]byte)
		want   error
	}{
		{
			name:   "bad-identifier",
			mutate: func(b []byte) { b[0] = 'K' },
			want:   ErrNotValid,
		},
		{
			name:   "bad-endianness-marker",
			mutate: func(b []byte) { b[12] = 0xFF },
			want:   ErrNotValid,
		},
		{
			name: "three-faces",
			mutate: func(b []byte) {
				// NumberOfFaces is field 9 of the block at offset 16.
				binary.LittleEndian.PutUint32(b[16+9*4:], 3)
			},
			want: ErrUnsupported,
		},
		{
			name:   "truncated",
			mutate: nil,
			want:   ErrNotValid,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := buildKTX(t, binary.LittleEndian, rgba8Header(4, 4, 1), nil,
				[]fixtureLevel{{stored: 64, payload: pattern(64)}})
			raw := append([]byte(nil), src.Bytes()...)
			if tc.mutate != nil {
				tc.mutate(raw)
			} else {
				raw = raw[:20]
			}

			r := NewReader(vfile.FromBytes(raw))
			if err := r.ReadHeader(); !errors.Is(err, tc.want) {
				t.Fatalf("ReadHeader() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadSimple2D(t *testing.T) {
	t.Parallel()

	level0 := pattern(64)
	level1 := pattern(16)
	src := buildKTX(t, binary.LittleEndian, rgba8Header(4, 4, 2), nil, []fixtureLevel{
		{stored: 64, payload: level0},
		{stored: 16, payload: level1},
	})

	r := NewReader(src)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	if !r.Is2D() || r.Is1D() || r.Is3D() || r.IsCubemap() || r.IsArray() {
		t.Fatalf("shape predicates wrong")
	}
	if r.Width() != 4 || r.Height() != 4 || r.Depth() != 1 {
		t.Fatalf("dimensions = %dx%dx%d", r.Width(), r.Height(), r.Depth())
	}
	if r.MipLevels() != 2 {
		t.Fatalf("MipLevels() = %d", r.MipLevels())
	}
	if r.Format() != pixfmt.RGBA8 {
		t.Fatalf("Format() = %s", r.Format())
	}

	// Query the second level first; the walk must still resolve it.
	size, err := r.ImageSizeOf(1)
	if err != nil || size != 16 {
		t.Fatalf("ImageSizeOf(1) = %d, %v", size, err)
	}
	data, err := r.ImageDataAt(1)
	if err != nil || !bytes.Equal(data, level1) {
		t.Fatalf("ImageDataAt(1) mismatch: %v", err)
	}
	data, err = r.ImageDataAt(0)
	if err != nil || !bytes.Equal(data, level0) {
		t.Fatalf("ImageDataAt(0) mismatch: %v", err)
	}

	if _, err := r.ImageSizeOf(2); !errors.Is(err, ErrMipMap) {
		t.Fatalf("ImageSizeOf(2) = %v, want ErrMipMap", err)
	}
	if _, err := r.ImageDataAt(2); !errors.Is(err, ErrMipMap) {
		t.Fatalf("ImageDataAt(2) = %v, want ErrMipMap", err)
	}
}

func TestReadBigEndian(t *testing.T) {
	t.Parallel()

	level0 := pattern(64)
	src := buildKTX(t, binary.BigEndian, rgba8Header(4, 4, 1), nil,
		[]fixtureLevel{{stored: 64, payload: level0}})

	r := NewReader(src)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if r.Width() != 4 || r.Format() != pixfmt.RGBA8 {
		t.Fatalf("swapped header parsed wrong: %dx%d %s", r.Width(), r.Height(), r.Format())
	}
	data, err := r.ImageDataAt(0)
	if err != nil || !bytes.Equal(data, level0) {
		t.Fatalf("payload should be returned as stored: %v", err)
	}
}

func TestZeroMipLevels(t *testing.T) {
	t.Parallel()

	src := buildKTX(t, binary.LittleEndian, rgba8Header(2, 2, 0), nil,
		[]fixtureLevel{{stored: 16, payload: pattern(16)}})

	r := NewReader(src)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if r.MipLevels() != 1 {
		t.Fatalf("MipLevels() = %d, want 1", r.MipLevels())
	}
	if size, err := r.ImageSizeOf(0); err != nil || size != 16 {
		t.Fatalf("ImageSizeOf(0) = %d, %v", size, err)
	}
}

type countingSource struct {
	*vfile.Memory
	reads int
}

func (c *countingSource) Read(p []byte) (int, error) {
	c.reads++
	return c.Memory.Read(p)
}

func TestSizeCacheIdempotence(t *testing.T) {
	t.Parallel()

	mem := buildKTX(t, binary.LittleEndian, rgba8Header(4, 4, 2), nil, []fixtureLevel{
		{stored: 64, payload: pattern(64)},
		{stored: 16, payload: pattern(16)},
	})
	src := &countingSource{Memory: mem}

	r := NewReader(src)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	if _, err := r.ImageSizeOf(1); err != nil {
		t.Fatalf("ImageSizeOf: %v", err)
	}
	walked := src.reads
	if walked == 0 {
		t.Fatalf("first query should touch the source")
	}
	if _, err := r.ImageSizeOf(1); err != nil {
		t.Fatalf("ImageSizeOf: %v", err)
	}
	if _, err := r.ImageSizeOf(0); err != nil {
		t.Fatalf("ImageSizeOf: %v", err)
	}
	if src.reads != walked {
		t.Fatalf("cached queries read the source again: %d -> %d", walked, src.reads)
	}
}

func TestCubemapFacePadding(t *testing.T) {
	t.Parallel()

	hdr := Header{
		GLType:               testGLUnsignedByte,
		GLTypeSize:           1,
		GLFormat:             testGLRed,
		GLInternalFormat:     testGLR8,
		GLBaseInternalFormat: testGLRed,
		PixelWidth:           3,
		PixelHeight:          2,
		NumberOfFaces:        6,
		NumberOfMipmapLevels: 1,
	}
	// One face is 6 bytes, padded to 8 in the file.
	payload := make([]byte, 0, 48)
	for f := 0; f < 6; f++ {
		face := pattern(6)
		face[0] = byte(f)
		payload = append(payload, face...)
		payload = append(payload, 0, 0)
	}
	src := buildKTX(t, binary.LittleEndian, hdr, nil,
		[]fixtureLevel{{stored: 6, payload: payload}})

	r := NewReader(src)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if !r.IsCubemap() {
		t.Fatalf("IsCubemap() = false")
	}

	size, err := r.ImageSizeOf(0)
	if err != nil {
		t.Fatalf("ImageSizeOf: %v", err)
	}
	if size != 48 {
		t.Fatalf("ImageSizeOf(0) = %d, want 48 (6 faces padded to 8)", size)
	}
	data, err := r.ImageDataAt(0)
	if err != nil || !bytes.Equal(data, payload) {
		t.Fatalf("ImageDataAt(0) mismatch: %v", err)
	}
}

func TestKeyValues(t *testing.T) {
	t.Parallel()

	var kv []byte
	add := func(key string, value []byte) {
		entry := append(append([]byte(key), 0), value...)
		var sz [4]byte
		binary.LittleEndian.PutUint32(sz[:], uint32(len(entry)))
		kv = append(kv, sz[:]...)
		kv = append(kv, entry...)
		kv = append(kv, make([]byte, (4-len(entry)%4)%4)...)
	}
	add("KTXorientation", []byte("S=r,T=d"))
	add("author", []byte("imgproc"))

	hdr := rgba8Header(2, 2, 1)
	hdr.BytesOfKeyValueData = uint32(len(kv))
	src := buildKTX(t, binary.LittleEndian, hdr, kv,
		[]fixtureLevel{{stored: 16, payload: pattern(16)}})

	r := NewReader(src)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if !bytes.Equal(r.KeyValueData(), kv) {
		t.Fatalf("KeyValueData() should return the blob as stored")
	}

	pairs, err := r.KeyValues()
	if err != nil {
		t.Fatalf("KeyValues: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("len(KeyValues()) = %d", len(pairs))
	}
	if pairs[0].Key != "KTXorientation" || string(pairs[0].Value) != "S=r,T=d" {
		t.Fatalf("pair 0 = %q %q", pairs[0].Key, pairs[0].Value)
	}
	if pairs[1].Key != "author" || string(pairs[1].Value) != "imgproc" {
		t.Fatalf("pair 1 = %q %q", pairs[1].Key, pairs[1].Value)
	}

	// The level table still starts after the block.
	if size, err := r.ImageSizeOf(0); err != nil || size != 16 {
		t.Fatalf("ImageSizeOf(0) = %d, %v", size, err)
	}
}

func TestAccessorsPanicBeforeHeader(t *testing.T) {
	t.Parallel()

	r := NewReader(vfile.FromBytes(nil))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	r.Width()
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	head, err := image.NewMipChain(
		image.Config{Width: 4, Height: 4, Depth: 1, Slices: 1, Format: pixfmt.RGBA8}, 2)
	if err != nil {
		t.Fatalf("NewMipChain: %v", err)
	}
	chain := head.Chain()
	copy(chain[0].Data(), pattern(64))
	copy(chain[1].Data(), pattern(16))

	out := vfile.NewGrowable()
	opts := &WriteOptions{KeyValues: []KeyValue{{Key: "author", Value: []byte("imgproc")}}}
	if err := WriteWithOptions(out, head, opts); err != nil {
		t.Fatalf("WriteWithOptions: %v", err)
	}

	r := NewReader(vfile.FromBytes(out.Bytes()))
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if r.Width() != 4 || r.Height() != 4 || r.MipLevels() != 2 {
		t.Fatalf("round-trip header = %dx%d mips %d", r.Width(), r.Height(), r.MipLevels())
	}
	if r.Format() != pixfmt.RGBA8 {
		t.Fatalf("round-trip format = %s", r.Format())
	}

	for i, rec := range chain {
		data, err := r.ImageDataAt(uint32(i))
		if err != nil {
			t.Fatalf("ImageDataAt(%d): %v", i, err)
		}
		if !bytes.Equal(data, rec.Data()) {
			t.Fatalf("level %d payload mismatch", i)
		}
	}

	pairs, err := r.KeyValues()
	if err != nil || len(pairs) != 1 || pairs[0].Key != "author" {
		t.Fatalf("KeyValues after round-trip: %v, %v", pairs, err)
	}
}

func TestWriteCubemapRoundTrip(t *testing.T) {
	t.Parallel()

	cube, err := image.NewCubemap(4, pixfmt.R8)
	if err != nil {
		t.Fatalf("NewCubemap: %v", err)
	}
	copy(cube.Data(), pattern(96))

	out := vfile.NewGrowable()
	if err := Write(out, cube); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r := NewReader(vfile.FromBytes(out.Bytes()))
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if !r.IsCubemap() || r.Faces() != 6 {
		t.Fatalf("cubemap flags lost")
	}

	// 16 bytes per face, already aligned, so the level is returned whole.
	size, err := r.ImageSizeOf(0)
	if err != nil || size != 96 {
		t.Fatalf("ImageSizeOf(0) = %d, %v", size, err)
	}
	data, err := r.ImageDataAt(0)
	if err != nil || !bytes.Equal(data, cube.Data()) {
		t.Fatalf("cubemap payload mismatch: %v", err)
	}
}
