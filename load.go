package imgproc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/DeanoC/ltngt.image-process/exr"
	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/ktx"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

// sniffLen covers the longest magic, the 12-byte KTX identifier.
const sniffLen = 12

// Open loads any supported image file into a container chain.
func Open(path string) (*image.Image, error) {
	f, err := vfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Load sniffs the magic at the current position of v and dispatches to
// the matching loader, which consumes the resource from v.
func Load(v vfile.VFile) (*image.Image, error) {
	start := v.Tell()
	n := v.ByteCount() - start
	if n > sniffLen {
		n = sniffLen
	}
	sniff := make([]byte, n)
	if _, err := v.Read(sniff); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if _, err := v.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}

	switch {
	case ktx.SniffMagic(sniff):
		return LoadKTX(v)
	case exr.SniffMagic(sniff):
		return LoadEXR(v)
	case len(sniff) >= 4 && bytes.Equal(sniff[:4], []byte(ddsMagic)):
		return LoadDDS(v)
	case len(sniff) >= 4 && bytes.Equal(sniff[:4], []byte(archiveMagic)):
		return LoadChain(v)
	}
	return nil, fmt.Errorf("%w: unrecognized leading bytes", ErrUnknownFormat)
}

// LoadKTX reads a KTX v1 file into a chain with one record per mip
// level, largest first.
func LoadKTX(v vfile.VFile) (*image.Image, error) {
	r := ktx.NewReader(v)
	if err := r.ReadHeader(); err != nil {
		return nil, err
	}

	format := r.Format()
	if !format.Defined() {
		hdr := r.Header()
		return nil, fmt.Errorf("%w: GL type 0x%04X format 0x%04X internal 0x%04X",
			ErrUnknownFormat, hdr.GLType, hdr.GLFormat, hdr.GLInternalFormat)
	}

	slices := r.ArrayElements()
	if slices == 0 {
		slices = 1
	}
	cubemap := r.IsCubemap()
	if cubemap {
		slices *= 6
	}
	// Non-array cubemaps pad each face to 4 bytes in the file.
	facePadded := cubemap && r.ArrayElements() == 0

	var chain *image.Image
	for level := uint32(0); level < r.MipLevels(); level++ {
		data, err := r.ImageDataAt(level)
		if err != nil {
			return nil, err
		}

		cfg := image.Config{
			Width:   image.MipDimension(r.Width(), level),
			Height:  image.MipDimension(r.Height(), level),
			Depth:   image.MipDimension(r.Depth(), level),
			Slices:  slices,
			Format:  format,
			Usage:   image.UsageTexture,
			Cubemap: cubemap,
		}
		img, err := image.New(cfg)
		if err != nil {
			return nil, err
		}
		if err := fillLevel(img, data, facePadded); err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		chain, err = appendRecord(chain, img)
		if err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// fillLevel copies a KTX level payload into the record, stripping
// per-face padding when the faces are not naturally aligned.
func fillLevel(img *image.Image, data []byte, facePadded bool) error {
	want := img.DataSize()
	if uint64(len(data)) == want {
		copy(img.Data(), data)
		return nil
	}
	if facePadded {
		faceBytes := want / 6
		slot := uint64(len(data)) / 6
		if slot*6 == uint64(len(data)) && slot >= faceBytes {
			dst := img.Data()
			for f := uint64(0); f < 6; f++ {
				copy(dst[f*faceBytes:(f+1)*faceBytes], data[f*slot:])
			}
			return nil
		}
	}
	return fmt.Errorf("%w: payload carries %d bytes, want %d", ktx.ErrMipMap, len(data), want)
}

// appendRecord folds img onto the end of chain, consuming both.
func appendRecord(chain, img *image.Image) (*image.Image, error) {
	if chain == nil {
		return img, nil
	}
	return image.DestructiveJoin(chain, img)
}
