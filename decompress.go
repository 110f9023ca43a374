package imgproc

import (
	"errors"
	"fmt"
	stdimage "image"

	"github.com/woozymasta/bcn"

	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/pixfmt"
)

// DecompressOptions configures BCn surface decoding.
type DecompressOptions struct {
	// DecodeOptions are passed to the BCn decoder (e.g. Workers).
	DecodeOptions *bcn.DecodeOptions
}

// Decompress expands every BCn record of the chain to RGBA8. Records in
// uncompressed formats are copied through unchanged.
func Decompress(img *image.Image) (*image.Image, error) {
	return DecompressWithOptions(img, nil)
}

// DecompressWithOptions expands the chain with the given options. Nil
// opts uses default decoding.
func DecompressWithOptions(img *image.Image, opts *DecompressOptions) (*image.Image, error) {
	var decOpts *bcn.DecodeOptions
	if opts != nil {
		decOpts = opts.DecodeOptions
	}

	var chain *image.Image
	for _, rec := range img.Chain() {
		out, err := decompressRecord(rec, decOpts)
		if err != nil {
			return nil, err
		}
		chain, err = appendRecord(chain, out)
		if err != nil {
			return nil, err
		}
	}
	return chain, nil
}

func decompressRecord(rec *image.Image, opts *bcn.DecodeOptions) (*image.Image, error) {
	exts, err := rec.Extensions()
	if err != nil && !errors.Is(err, image.ErrNoExtensions) {
		return nil, err
	}

	cfg := rec.Config()
	if !cfg.Format.IsCompressed() {
		out, err := image.NewWithExtensions(cfg, exts)
		if err != nil {
			return nil, err
		}
		copy(out.Data(), rec.Data())
		return out, nil
	}

	bf, ok := bcnFormat(cfg.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, cfg.Format)
	}

	outCfg := cfg
	outCfg.Format = pixfmt.RGBA8
	out, err := image.NewWithExtensions(outCfg, exts)
	if err != nil {
		return nil, err
	}

	// Depth and array slices are stored as consecutive surfaces.
	surfaces := cfg.Depth * cfg.Slices
	srcSurface := cfg.Format.SurfaceByteSize(cfg.Width, cfg.Height)
	dstSurface := pixfmt.RGBA8.SurfaceByteSize(cfg.Width, cfg.Height)
	src := rec.Data()
	dst := out.Data()
	for s := uint64(0); s < uint64(surfaces); s++ {
		decoded, err := bcn.DecodeImageWithOptions(src[s*srcSurface:(s+1)*srcSurface],
			int(cfg.Width), int(cfg.Height), bf, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
		}
		if err := rgbaInto(dst[s*dstSurface:(s+1)*dstSurface], decoded,
			int(cfg.Width), int(cfg.Height)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EncodeMipChain downsamples src to a full mip pyramid and encodes
// every level, producing one record per mip.
func EncodeMipChain(src stdimage.Image, format pixfmt.Format) (*image.Image, error) {
	return EncodeMipChainWithOptions(src, format, 0, nil)
}

// EncodeMipChainWithOptions caps the pyramid at maxMipMaps levels
// (0 means the full chain) and passes encOpts to the BCn encoder.
func EncodeMipChainWithOptions(src stdimage.Image, format pixfmt.Format,
	maxMipMaps int, encOpts *bcn.EncodeOptions) (*image.Image, error) {
	bf, ok := bcnFormat(format)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no encoder", ErrInvalidFormat, format)
	}

	mips := bcn.GenerateMipmaps(src, false)
	if maxMipMaps > 0 && len(mips) > maxMipMaps {
		mips = mips[:maxMipMaps]
	}

	var chain *image.Image
	for i, mip := range mips {
		data, _, _, err := bcn.EncodeImageWithOptions(mip, bf, encOpts)
		if err != nil {
			return nil, fmt.Errorf("%w: mipmap %d: %v", ErrCompressMipmap, i, err)
		}

		bounds := mip.Bounds()
		width, err := u32FromInt(bounds.Dx())
		if err != nil {
			return nil, err
		}
		height, err := u32FromInt(bounds.Dy())
		if err != nil {
			return nil, err
		}
		img, err := image.New2D(width, height, format)
		if err != nil {
			return nil, err
		}
		if uint64(len(data)) != img.DataSize() {
			return nil, fmt.Errorf("%w: mipmap %d: %d bytes encoded, want %d",
				ErrMipmapSizeMismatch, i, len(data), img.DataSize())
		}
		copy(img.Data(), data)
		chain, err = appendRecord(chain, img)
		if err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// FromImage copies a standard library image into a single RGBA8 record.
func FromImage(src stdimage.Image) (*image.Image, error) {
	bounds := src.Bounds()
	width, err := u32FromInt(bounds.Dx())
	if err != nil {
		return nil, err
	}
	height, err := u32FromInt(bounds.Dy())
	if err != nil {
		return nil, err
	}
	img, err := image.New2D(width, height, pixfmt.RGBA8)
	if err != nil {
		return nil, err
	}
	if err := rgbaInto(img.Data(), src, bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	return img, nil
}

// ToImage exposes an RGBA8 or BGRA8 record as a standard library image.
func ToImage(img *image.Image) (stdimage.Image, error) {
	if img.Depth() != 1 || img.Slices() != 1 {
		return nil, fmt.Errorf("%w: record with depth %d and %d slices is not plain 2D",
			ErrInvalidFormat, img.Depth(), img.Slices())
	}

	out := stdimage.NewRGBA(stdimage.Rect(0, 0, int(img.Width()), int(img.Height())))
	data := img.Data()
	switch img.Format() {
	case pixfmt.RGBA8:
		copy(out.Pix, data)
	case pixfmt.BGRA8:
		for i := 0; i+3 < len(data); i += 4 {
			out.Pix[i+0] = data[i+2]
			out.Pix[i+1] = data[i+1]
			out.Pix[i+2] = data[i+0]
			out.Pix[i+3] = data[i+3]
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, img.Format())
	}
	return out, nil
}

// bcnFormat maps a container format to its bcn equivalent.
func bcnFormat(f pixfmt.Format) (bcn.Format, bool) {
	switch f {
	case pixfmt.BC1:
		return bcn.FormatDXT1, true
	case pixfmt.BC2:
		return bcn.FormatDXT3, true
	case pixfmt.BC3:
		return bcn.FormatDXT5, true
	case pixfmt.BC4:
		return bcn.FormatBC4, true
	case pixfmt.BC5:
		return bcn.FormatBC5, true
	case pixfmt.RGBA8:
		return bcn.FormatRGBA8, true
	case pixfmt.BGRA8:
		return bcn.FormatBGRA8, true
	}
	return bcn.FormatUnknown, false
}

// rgbaInto packs a decoded standard image into tightly packed RGBA8
// bytes.
func rgbaInto(dst []byte, src stdimage.Image, width, height int) error {
	if rgba, ok := src.(*stdimage.RGBA); ok && rgba.Stride == width*4 && len(rgba.Pix) >= len(dst) {
		copy(dst, rgba.Pix[:len(dst)])
		return nil
	}

	bounds := src.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return fmt.Errorf("%w: decoded %dx%d, want %dx%d",
			ErrDecodeImage, bounds.Dx(), bounds.Dy(), width, height)
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			dst[i+0] = byte(r >> 8)
			dst[i+1] = byte(g >> 8)
			dst[i+2] = byte(b >> 8)
			dst[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return nil
}
