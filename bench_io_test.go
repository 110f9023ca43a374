package imgproc

import (
	stdimage "image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/woozymasta/bcn"

	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/ktx"
	"github.com/DeanoC/ltngt.image-process/pixfmt"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

// benchSource builds a deterministic image used by the IO benchmarks.
func benchSource(width, height int) *stdimage.NRGBA {
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Deterministic pattern with mixed low/high frequencies.
			img.Set(x, y, color.NRGBA{
				R: uint8((x*7 + y*3) & 0xff),        //nolint:gosec // bounded by mask
				G: uint8((x*13 + y*5) & 0xff),       //nolint:gosec // bounded by mask
				B: uint8((x ^ y ^ (x >> 2)) & 0xff), //nolint:gosec // bounded by mask
				A: 255,
			})
		}
	}
	return img
}

// benchChain pre-builds an RGBA8 mip chain from the bench source.
func benchChain(b *testing.B, size int) *image.Image {
	b.Helper()

	img, err := EncodeMipChain(benchSource(size, size), pixfmt.RGBA8)
	if err != nil {
		b.Fatalf("prepare chain: %v", err)
	}
	return img
}

// benchArchive pre-encodes a chain archive for the load benchmarks.
func benchArchive(b *testing.B, img *image.Image, kind BlockKind) []byte {
	b.Helper()

	buf := vfile.NewGrowable()
	if err := SaveChain(buf, img, &WriteOptions{Block: kind}); err != nil {
		b.Fatalf("prepare archive: %v", err)
	}
	return buf.Bytes()
}

func BenchmarkEncodeMipChainBC3(b *testing.B) {
	src := benchSource(512, 512)
	opts := &bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast}

	b.ReportAllocs()
	b.SetBytes(int64(len(src.Pix)))
	b.ResetTimer()

	for b.Loop() {
		if _, err := EncodeMipChainWithOptions(src, pixfmt.BC3, 0, opts); err != nil {
			b.Fatalf("encode: %v", err)
		}
	}
}

func BenchmarkDecompressBC3(b *testing.B) {
	src := benchSource(512, 512)
	enc, err := EncodeMipChainWithOptions(src, pixfmt.BC3, 0,
		&bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast})
	if err != nil {
		b.Fatalf("prepare chain: %v", err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(src.Pix)))
	b.ResetTimer()

	for b.Loop() {
		if _, err := Decompress(enc); err != nil {
			b.Fatalf("decompress: %v", err)
		}
	}
}

func BenchmarkSaveChain(b *testing.B) {
	img := benchChain(b, 512)
	spanBytes := int64(len(img.Span()))

	for _, kind := range []BlockKind{BlockCOPY, BlockLZ4, BlockZSTD} {
		kind := kind
		b.Run(kind.String(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(spanBytes)
			b.ResetTimer()

			for b.Loop() {
				if err := SaveChain(vfile.NewGrowable(), img, &WriteOptions{Block: kind}); err != nil {
					b.Fatalf("save: %v", err)
				}
			}
		})
	}
}

func BenchmarkLoadChain(b *testing.B) {
	img := benchChain(b, 512)
	spanBytes := int64(len(img.Span()))

	for _, kind := range []BlockKind{BlockCOPY, BlockLZ4, BlockZSTD} {
		kind := kind
		b.Run(kind.String(), func(b *testing.B) {
			raw := benchArchive(b, img, kind)

			b.ReportAllocs()
			b.SetBytes(spanBytes)
			b.ResetTimer()

			for b.Loop() {
				if _, err := LoadChain(vfile.FromBytes(raw)); err != nil {
					b.Fatalf("load: %v", err)
				}
			}
		})
	}
}

func BenchmarkSaveChainFile(b *testing.B) {
	img := benchChain(b, 512)
	path := filepath.Join(b.TempDir(), "bench.limg")

	b.ReportAllocs()
	b.SetBytes(int64(len(img.Span())))
	b.ResetTimer()

	for b.Loop() {
		if err := SaveChainFile(path, img, nil); err != nil {
			b.Fatalf("save: %v", err)
		}
	}
}

func BenchmarkLoadKTX(b *testing.B) {
	img := benchChain(b, 512)
	buf := vfile.NewGrowable()
	if err := ktx.Write(buf, img); err != nil {
		b.Fatalf("prepare ktx: %v", err)
	}
	raw := buf.Bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()

	for b.Loop() {
		if _, err := Load(vfile.FromBytes(raw)); err != nil {
			b.Fatalf("load: %v", err)
		}
	}
}
