package imgproc

import (
	"fmt"
	"io"

	"github.com/woozymasta/bcn"

	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/pixfmt"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

const ddsMagic = "DDS "

// LoadDDS reads a 2D DDS texture into a chain with one record per mip
// level, largest first as stored.
func LoadDDS(v vfile.VFile) (*image.Image, error) {
	header, dx10, err := readDDSHeaders(v)
	if err != nil {
		return nil, err
	}
	format, err := ddsFormat(header, dx10)
	if err != nil {
		return nil, err
	}

	mips := uint32(1)
	if header.Caps&bcn.DDSCapsMipmap != 0 && header.MipMapCount > 0 {
		mips = header.MipMapCount
	}

	var chain *image.Image
	for level := uint32(0); level < mips; level++ {
		cfg := image.Config{
			Width:  image.MipDimension(header.Width, level),
			Height: image.MipDimension(header.Height, level),
			Depth:  1,
			Slices: 1,
			Format: format,
			Usage:  image.UsageTexture,
		}
		img, err := image.New(cfg)
		if err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(v, img.Data()); err != nil {
			return nil, fmt.Errorf("%w: level %d: %v", ErrBadDDS, level, err)
		}
		chain, err = appendRecord(chain, img)
		if err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// SaveDDS writes a 2D chain as a DDS file, one mip level per record.
func SaveDDS(v vfile.VFile, img *image.Image) error {
	records := img.Chain()
	head := records[0]
	if head.Depth() != 1 || head.Slices() != 1 || head.IsCubemap() {
		return fmt.Errorf("%w: DDS writer handles 2D textures only", ErrInvalidFormat)
	}

	mip32, err := u32FromInt(len(records))
	if err != nil {
		return err
	}
	header, err := makeDDSHeader(head.Width(), head.Height(), mip32, head.Format())
	if err != nil {
		return err
	}

	for i, rec := range records {
		wantW := image.MipDimension(head.Width(), uint32(i))
		wantH := image.MipDimension(head.Height(), uint32(i))
		if rec.Width() != wantW || rec.Height() != wantH || rec.Format() != head.Format() {
			return fmt.Errorf("%w: record %d is %dx%d %s, want %dx%d %s",
				ErrMipmapSizeMismatch, i, rec.Width(), rec.Height(), rec.Format(),
				wantW, wantH, head.Format())
		}
	}

	if err := bcn.WriteDDSMagic(v); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSMagic, err)
	}
	if err := bcn.WriteDDSHeader(v, header); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSHeader, err)
	}
	for i, rec := range records {
		if _, err := v.Write(rec.Data()); err != nil {
			return fmt.Errorf("%w: level %d: %v", ErrWriteDDSPayload, i, err)
		}
	}
	return nil
}

// SaveDDSFile writes img as a DDS file at path.
func SaveDDSFile(path string, img *image.Image) error {
	f, err := vfile.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = f.Close() }()

	if err := SaveDDS(f, img); err != nil {
		return err
	}
	return f.Flush()
}

// readDDSHeaders reads the DDS header pair from the reader.
func readDDSHeaders(r io.Reader) (*bcn.DDSHeader, *bcn.DDSHeaderDX10, error) {
	header, err := bcn.ReadDDSHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDDSHeaderRead, err)
	}

	dx10, err := bcn.ReadDDSHeaderDX10(r, header)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDDSDX10Read, err)
	}

	return header, dx10, nil
}

// ddsFormat resolves the header pair to a container format.
func ddsFormat(header *bcn.DDSHeader, dx10 *bcn.DDSHeaderDX10) (pixfmt.Format, error) {
	if dx10 != nil {
		f := pixfmt.FromDXGI(dx10.DXGIFormat)
		if !f.Defined() {
			return pixfmt.Undefined, fmt.Errorf("%w: DXGI %d", ErrUnknownFormat, dx10.DXGIFormat)
		}
		return f, nil
	}

	pf := header.PixelFormat
	if pf.Flags&bcn.DDSPFFourCC != 0 {
		fourCC := intToFourCC(pf.FourCC)
		switch fourCC {
		case "DXT1":
			return pixfmt.BC1, nil
		case "DXT2", "DXT3":
			return pixfmt.BC2, nil
		case "DXT4", "DXT5":
			return pixfmt.BC3, nil
		case "ATI1", "BC4U", "BC4S":
			return pixfmt.BC4, nil
		case "ATI2", "BC5U", "BC5S":
			return pixfmt.BC5, nil
		}
		return pixfmt.Undefined, fmt.Errorf("%w: FourCC %q", ErrUnknownFormat, fourCC)
	}

	if pf.Flags&bcn.DDSPFRGB != 0 && pf.Flags&bcn.DDSPFAlphaPixels != 0 && pf.RGBBitCount == 32 {
		if pf.RBitMask == 0x000000ff && pf.GBitMask == 0x0000ff00 &&
			pf.BBitMask == 0x00ff0000 && pf.ABitMask == 0xff000000 {
			return pixfmt.RGBA8, nil
		}
		if pf.RBitMask == 0x00ff0000 && pf.GBitMask == 0x0000ff00 &&
			pf.BBitMask == 0x000000ff && pf.ABitMask == 0xff000000 {
			return pixfmt.BGRA8, nil
		}
	}

	if pf.Flags&bcn.DDSPFLuminance != 0 && pf.RGBBitCount == 8 {
		return pixfmt.R8, nil
	}

	return pixfmt.Undefined, fmt.Errorf("%w: pixel format flags 0x%X", ErrUnknownFormat, pf.Flags)
}

// makeDDSHeader builds the legacy header for a format the writer can
// express without a DX10 extension.
func makeDDSHeader(width, height, mipMapCount uint32, format pixfmt.Format) (*bcn.DDSHeader, error) {
	flags := uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat)
	caps := uint32(bcn.DDSCapsTexture)
	if mipMapCount > 1 {
		flags |= bcn.DDSFlagMipmapCount
		caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}

	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       flags,
		Height:      height,
		Width:       width,
		Depth:       1,
		MipMapCount: mipMapCount,
		Caps:        caps,
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize

	setFourCC := func(a, b, c, d byte) {
		hdr.Flags |= bcn.DDSFlagLinearSize
		hdr.PixelFormat.Flags = bcn.DDSPFFourCC
		hdr.PixelFormat.FourCC = makeFourCC(a, b, c, d)
	}

	switch format {
	case pixfmt.BC1:
		setFourCC('D', 'X', 'T', '1')
	case pixfmt.BC2:
		setFourCC('D', 'X', 'T', '3')
	case pixfmt.BC3:
		setFourCC('D', 'X', 'T', '5')
	case pixfmt.BC4:
		setFourCC('A', 'T', 'I', '1')
	case pixfmt.BC5:
		setFourCC('A', 'T', 'I', '2')
	case pixfmt.RGBA8:
		hdr.Flags |= bcn.DDSFlagPitch
		hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
		hdr.PixelFormat.RGBBitCount = 32
		hdr.PixelFormat.RBitMask = 0x000000ff
		hdr.PixelFormat.GBitMask = 0x0000ff00
		hdr.PixelFormat.BBitMask = 0x00ff0000
		hdr.PixelFormat.ABitMask = 0xff000000
		hdr.PitchOrLinearSize = width * 4
	case pixfmt.BGRA8:
		hdr.Flags |= bcn.DDSFlagPitch
		hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
		hdr.PixelFormat.RGBBitCount = 32
		hdr.PixelFormat.RBitMask = 0x00ff0000
		hdr.PixelFormat.GBitMask = 0x0000ff00
		hdr.PixelFormat.BBitMask = 0x000000ff
		hdr.PixelFormat.ABitMask = 0xff000000
		hdr.PitchOrLinearSize = width * 4
	case pixfmt.R8:
		hdr.Flags |= bcn.DDSFlagPitch
		hdr.PixelFormat.Flags = bcn.DDSPFLuminance
		hdr.PixelFormat.RGBBitCount = 8
		hdr.PixelFormat.RBitMask = 0xff
		hdr.PitchOrLinearSize = width
	default:
		return nil, fmt.Errorf("%w: %s has no DDS encoding", ErrInvalidFormat, format)
	}

	return hdr, nil
}

func intToFourCC(value uint32) string {
	return string([]byte{
		byte(value & 0xff),
		byte((value >> 8) & 0xff),
		byte((value >> 16) & 0xff),
		byte((value >> 24) & 0xff),
	})
}

func makeFourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}
