package ktx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/pixfmt"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

// WriteOptions tunes KTX serialization.
type WriteOptions struct {
	// KeyValues are emitted into the key/value block in order.
	KeyValues []KeyValue
}

// Write serializes the chain headed by img as a little-endian KTX v1
// file, one chain record per mip level, largest first.
func Write(v vfile.VFile, img *image.Image) error {
	return WriteWithOptions(v, img, nil)
}

// WriteWithOptions is Write with explicit options.
func WriteWithOptions(v vfile.VFile, img *image.Image, opts *WriteOptions) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrWrite)
	}
	gl, ok := pixfmt.ToGL(img.Format())
	if !ok {
		return fmt.Errorf("%w: format %s has no GL mapping", ErrWrite, img.Format())
	}
	cubemap := img.IsCubemap()
	if cubemap && img.Slices() != 6 {
		return fmt.Errorf("%w: cubemap arrays are not writable", ErrWrite)
	}

	var kv []byte
	if opts != nil {
		blob, err := buildKeyValueBlock(opts.KeyValues)
		if err != nil {
			return err
		}
		kv = blob
	}
	if uint64(len(kv)) > math.MaxUint32 {
		return fmt.Errorf("%w: key/value block of %d bytes", ErrWrite, len(kv))
	}

	chain := img.Chain()
	hdr := Header{
		GLType:                gl.Type,
		GLTypeSize:            gl.TypeSize,
		GLFormat:              gl.Format,
		GLInternalFormat:      gl.InternalFormat,
		GLBaseInternalFormat:  gl.BaseInternalFormat,
		PixelWidth:            img.Width(),
		PixelHeight:           img.Height(),
		NumberOfFaces:         1,
		NumberOfMipmapLevels:  uint32(len(chain)),
		BytesOfKeyValueData:   uint32(len(kv)),
	}
	if img.Depth() > 1 {
		hdr.PixelDepth = img.Depth()
	}
	if cubemap {
		hdr.NumberOfFaces = 6
	} else if img.Slices() > 1 {
		hdr.NumberOfArrayElements = img.Slices()
	}

	if _, err := v.Write(identifier[:]); err != nil {
		return fmt.Errorf("%w: identifier: %v", ErrWrite, err)
	}
	if err := binary.Write(v, binary.LittleEndian, uint32(endianNative)); err != nil {
		return fmt.Errorf("%w: endianness marker: %v", ErrWrite, err)
	}
	if err := binary.Write(v, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWrite, err)
	}
	if len(kv) > 0 {
		if _, err := v.Write(kv); err != nil {
			return fmt.Errorf("%w: key/value block: %v", ErrWrite, err)
		}
	}

	for i, rec := range chain {
		if err := writeLevel(v, rec, cubemap); err != nil {
			return fmt.Errorf("%w: level %d: %v", ErrWrite, i, err)
		}
	}
	return nil
}

func writeLevel(v vfile.VFile, rec *image.Image, cubemap bool) error {
	data := rec.Data()
	stored := uint64(len(data))
	if cubemap {
		stored /= 6
	}
	if stored > math.MaxUint32 {
		return fmt.Errorf("%d bytes exceeds the size prefix", stored)
	}
	if err := binary.Write(v, binary.LittleEndian, uint32(stored)); err != nil {
		return err
	}

	if !cubemap {
		if _, err := v.Write(data); err != nil {
			return err
		}
		return writePadding(v, align4(stored)-stored)
	}
	face := int(stored)
	for f := 0; f < 6; f++ {
		if _, err := v.Write(data[f*face : (f+1)*face]); err != nil {
			return err
		}
		if err := writePadding(v, align4(stored)-stored); err != nil {
			return err
		}
	}
	return nil
}

func writePadding(v vfile.VFile, n uint64) error {
	if n == 0 {
		return nil
	}
	var pad [4]byte
	_, err := v.Write(pad[:n])
	return err
}

func buildKeyValueBlock(pairs []KeyValue) ([]byte, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	var blob []byte
	for _, p := range pairs {
		sz := uint64(len(p.Key)) + 1 + uint64(len(p.Value))
		if sz > math.MaxUint32 {
			return nil, fmt.Errorf("%w: key/value entry of %d bytes", ErrWrite, sz)
		}
		var prefix [4]byte
		binary.LittleEndian.PutUint32(prefix[:], uint32(sz))
		blob = append(blob, prefix[:]...)
		blob = append(blob, p.Key...)
		blob = append(blob, 0)
		blob = append(blob, p.Value...)
		blob = append(blob, make([]byte, align4(sz)-sz)...)
	}
	return blob, nil
}
