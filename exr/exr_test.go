package exr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestParseVersionRejects(t *testing.T) {
	t.Parallel()

	word := func(w uint32) []byte {
		b := append([]byte(nil), magic[:]...)
		var u [4]byte
		binary.LittleEndian.PutUint32(u[:], w)
		return append(b, u[:]...)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "bad-magic", data: []byte{0x00, 0x2F, 0x31, 0x01, 2, 0, 0, 0}},
		{name: "version-1", data: word(1)},
		{name: "tiled", data: word(2 | flagTiled)},
		{name: "deep", data: word(2 | flagDeep)},
		{name: "multipart", data: word(2 | flagMultipart)},
		{name: "truncated", data: magic[:2]},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseVersion(bytes.NewReader(tc.data)); !errors.Is(err, ErrBadVersion) {
				t.Fatalf("ParseVersion: %v, want ErrBadVersion", err)
			}
		})
	}

	v, err := ParseVersion(bytes.NewReader(word(2 | flagLongNames)))
	if err != nil {
		t.Fatalf("long names should parse: %v", err)
	}
	if !v.LongNames || v.Number != 2 {
		t.Fatalf("version = %+v", v)
	}
}

func TestParseHeaderRequiredAttributes(t *testing.T) {
	t.Parallel()

	// A header missing its compression attribute.
	var hdr bytes.Buffer
	attr := func(name, typ string, value []byte) {
		hdr.WriteString(name)
		hdr.WriteByte(0)
		hdr.WriteString(typ)
		hdr.WriteByte(0)
		var u [4]byte
		binary.LittleEndian.PutUint32(u[:], uint32(len(value)))
		hdr.Write(u[:])
		hdr.Write(value)
	}
	chlist := func() []byte {
		var b bytes.Buffer
		b.WriteString("R")
		b.WriteByte(0)
		var fixed [16]byte
		binary.LittleEndian.PutUint32(fixed[0:], uint32(PixelTypeHalf))
		binary.LittleEndian.PutUint32(fixed[8:], 1)
		binary.LittleEndian.PutUint32(fixed[12:], 1)
		b.Write(fixed[:])
		b.WriteByte(0)
		return b.Bytes()
	}
	attr("channels", "chlist", chlist())
	attr("dataWindow", "box2i", box2iBytes(Box2i{XMax: 3, YMax: 3}))
	attr("comment", "string", []byte("skipped attribute"))
	hdr.WriteByte(0)

	if _, err := ParseHeader(bytes.NewReader(hdr.Bytes())); !errors.Is(err, ErrBadHeader) {
		t.Fatalf("ParseHeader: %v, want ErrBadHeader", err)
	}
}

func TestParseHeaderBadChannelType(t *testing.T) {
	t.Parallel()

	var chlist bytes.Buffer
	chlist.WriteString("R")
	chlist.WriteByte(0)
	var fixed [16]byte
	binary.LittleEndian.PutUint32(fixed[0:], 9)
	chlist.Write(fixed[:])
	chlist.WriteByte(0)

	if _, err := parseChannelList(chlist.Bytes()); !errors.Is(err, ErrBadHeader) {
		t.Fatalf("parseChannelList: %v, want ErrBadHeader", err)
	}
}

func testImage(t *testing.T, dw Box2i) *Image {
	t.Helper()

	npix := dw.Width() * dw.Height()
	halfs := func(seed int) []uint16 {
		s := make([]uint16, npix)
		for i := range s {
			s[i] = uint16(i*31 + seed)
		}
		return s
	}
	floats := make([]float32, npix)
	uints := make([]uint32, npix)
	for i := range floats {
		floats[i] = float32(i)*0.25 - 3
		uints[i] = uint32(i*97 + 13)
	}

	ch := func(name string, pt PixelType) Channel {
		return Channel{Name: name, Type: pt, XSampling: 1, YSampling: 1}
	}
	return &Image{
		DataWindow: dw,
		Channels: []ChannelData{
			{Channel: ch("R", PixelTypeHalf), Halfs: halfs(7)},
			{Channel: ch("G", PixelTypeHalf), Halfs: halfs(101)},
			{Channel: ch("Z", PixelTypeFloat), Floats: floats},
			{Channel: ch("id", PixelTypeUint), Uints: uints},
		},
	}
}

func decodeAll(t *testing.T, data []byte) *Image {
	t.Helper()

	r := bytes.NewReader(data)
	if _, err := ParseVersion(r); err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	hdr, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	img, err := DecodeImage(r, hdr)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	return img
}

func compareImages(t *testing.T, want, got *Image) {
	t.Helper()

	if got.DataWindow != want.DataWindow {
		t.Fatalf("data window = %+v, want %+v", got.DataWindow, want.DataWindow)
	}
	byName := make(map[string]*ChannelData, len(got.Channels))
	for i := range got.Channels {
		byName[got.Channels[i].Name] = &got.Channels[i]
	}
	for _, w := range want.Channels {
		g, ok := byName[w.Name]
		if !ok {
			t.Fatalf("channel %q lost", w.Name)
		}
		if g.Type != w.Type {
			t.Fatalf("channel %q type = %s, want %s", w.Name, g.Type, w.Type)
		}
		switch w.Type {
		case PixelTypeHalf:
			if !equalU16(g.Halfs, w.Halfs) {
				t.Fatalf("channel %q samples differ", w.Name)
			}
		case PixelTypeFloat:
			if !equalF32(g.Floats, w.Floats) {
				t.Fatalf("channel %q samples differ", w.Name)
			}
		case PixelTypeUint:
			if !equalU32(g.Uints, w.Uints) {
				t.Fatalf("channel %q samples differ", w.Name)
			}
		}
	}
}

func equalU16(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalU32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalF32(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    Compression
		dw   Box2i
	}{
		{name: "none", c: CompressionNone, dw: Box2i{XMax: 4, YMax: 2}},
		{name: "rle", c: CompressionRLE, dw: Box2i{XMax: 4, YMax: 2}},
		{name: "zips", c: CompressionZIPS, dw: Box2i{XMax: 4, YMax: 2}},
		{name: "zip", c: CompressionZIP, dw: Box2i{XMax: 31, YMax: 19}},
		{name: "offset-window", c: CompressionZIP, dw: Box2i{XMin: -2, YMin: -1, XMax: 2, YMax: 17}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			want := testImage(t, tc.dw)
			var buf bytes.Buffer
			if err := Encode(&buf, want, tc.c); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			compareImages(t, want, decodeAll(t, buf.Bytes()))
		})
	}
}

func TestDecodeRejectsSubsampled(t *testing.T) {
	t.Parallel()

	hdr := &Header{
		Channels: []Channel{
			{Name: "Y", Type: PixelTypeHalf, XSampling: 1, YSampling: 1},
			{Name: "BY", Type: PixelTypeHalf, XSampling: 2, YSampling: 2},
		},
		DataWindow:  Box2i{XMax: 3, YMax: 3},
		Compression: CompressionNone,
	}
	if _, err := DecodeImage(bytes.NewReader(nil), hdr); !errors.Is(err, ErrBadHeader) {
		t.Fatalf("DecodeImage: %v, want ErrBadHeader", err)
	}
}

func TestDecodeRejectsUnsupportedCompression(t *testing.T) {
	t.Parallel()

	hdr := &Header{
		Channels:    []Channel{{Name: "R", Type: PixelTypeHalf, XSampling: 1, YSampling: 1}},
		DataWindow:  Box2i{XMax: 3, YMax: 3},
		Compression: CompressionPIZ,
	}
	if _, err := DecodeImage(bytes.NewReader(nil), hdr); !errors.Is(err, ErrBadHeader) {
		t.Fatalf("DecodeImage: %v, want ErrBadHeader", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()

	img := testImage(t, Box2i{XMax: 4, YMax: 2})
	var buf bytes.Buffer
	if err := Encode(&buf, img, CompressionNone); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	data := buf.Bytes()[:buf.Len()-5]
	r := bytes.NewReader(data)
	if _, err := ParseVersion(r); err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	hdr, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if _, err := DecodeImage(r, hdr); !errors.Is(err, ErrBadImage) {
		t.Fatalf("DecodeImage: %v, want ErrBadImage", err)
	}
}

func TestRLECodec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "single", data: []byte{42}},
		{name: "long-run", data: bytes.Repeat([]byte{7}, 300)},
		{name: "no-runs", data: func() []byte {
			b := make([]byte, 300)
			for i := range b {
				b[i] = byte(i * 7)
			}
			return b
		}()},
		{name: "mixed", data: []byte("aaabccccdddddeeef")},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			enc := rleEncode(tc.data)
			dec, err := rleDecode(enc, len(tc.data))
			if err != nil {
				t.Fatalf("rleDecode: %v", err)
			}
			if !bytes.Equal(dec, tc.data) {
				t.Fatalf("round trip mismatch")
			}
		})
	}

	if _, err := rleDecode([]byte{5}, 6); !errors.Is(err, ErrBadImage) {
		t.Fatalf("repeat without value byte: %v, want ErrBadImage", err)
	}
	if _, err := rleDecode([]byte{0xFE, 'a'}, 2); !errors.Is(err, ErrBadImage) {
		t.Fatalf("short literal run: %v, want ErrBadImage", err)
	}
}

func TestPackBytesRoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]byte, 257)
	for i := range data {
		data[i] = byte(i*131 + 17)
	}
	packed := packBytes(data)
	if bytes.Equal(packed, data) {
		t.Fatalf("transform should rearrange the bytes")
	}
	if got := unpackBytes(packed); !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
}
