package image

import (
	"encoding/binary"
	"fmt"
)

// TagLayer names the source layer a record was split from.
const TagLayer = "LAYR"

// Extension is one tagged blob attached to a record.
type Extension struct {
	tag     string
	payload []byte
}

// NewExtension creates an extension. The tag must be exactly 4
// characters; violations panic.
func NewExtension(tag string, payload []byte) Extension {
	if len(tag) != 4 {
		panic("image: extension tag must be 4 characters: " + tag)
	}
	return Extension{tag: tag, payload: payload}
}

// NewLayerExtension creates a TagLayer extension carrying a layer name.
func NewLayerExtension(name string) Extension {
	return NewExtension(TagLayer, []byte(name))
}

// Tag returns the 4-character tag.
func (e Extension) Tag() string { return e.tag }

// Is reports whether the extension carries the given tag.
func (e Extension) Is(tag string) bool { return e.tag == tag }

// Size returns the payload byte size.
func (e Extension) Size() int { return len(e.payload) }

// Payload returns the raw payload bytes.
func (e Extension) Payload() []byte { return e.payload }

// LayerName returns the layer name carried by a TagLayer extension.
func (e Extension) LayerName() string { return string(e.payload) }

// Extension block layout: [count u8] [count x u32 record offsets]
// [records]. Offsets are relative to the start of the records area.
// Each record is [4-byte tag] [u32 payload size] [payload].
const extRecordHeader = 8

func buildExtensionBlock(exts []Extension) ([]byte, error) {
	if len(exts) == 0 {
		return nil, nil
	}
	if len(exts) > 255 {
		return nil, fmt.Errorf("%w: %d extensions", ErrBadConfig, len(exts))
	}
	recsStart := 1 + 4*len(exts)
	size := recsStart
	for _, e := range exts {
		size += extRecordHeader + len(e.payload)
	}

	blk := make([]byte, size)
	blk[0] = byte(len(exts))
	off := 0
	for i, e := range exts {
		if len(e.tag) != 4 {
			return nil, fmt.Errorf("%w: extension tag %q", ErrBadConfig, e.tag)
		}
		payloadLen, err := u32FromLen(len(e.payload))
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(blk[1+4*i:], uint32(off))
		rec := blk[recsStart+off:]
		copy(rec[:4], e.tag)
		binary.LittleEndian.PutUint32(rec[4:], payloadLen)
		copy(rec[extRecordHeader:], e.payload)
		off += extRecordHeader + len(e.payload)
	}
	return blk, nil
}

// Extensions parses the extension block of this record. It returns
// ErrNoExtensions when the record carries none.
func (img *Image) Extensions() ([]Extension, error) {
	if !img.HasExtensions() {
		return nil, ErrNoExtensions
	}
	start := img.off + headerSize + int(img.DataSize())
	blk := img.buf[start : start+int(img.ExtSize())]
	if len(blk) < 1 {
		return nil, fmt.Errorf("%w: empty extension block", ErrCorrupt)
	}

	count := int(blk[0])
	recsStart := 1 + 4*count
	if len(blk) < recsStart {
		return nil, fmt.Errorf("%w: truncated extension offsets", ErrCorrupt)
	}
	recs := blk[recsStart:]

	exts := make([]Extension, 0, count)
	for i := 0; i < count; i++ {
		off := uint64(binary.LittleEndian.Uint32(blk[1+4*i:]))
		if off+extRecordHeader > uint64(len(recs)) {
			return nil, fmt.Errorf("%w: extension %d out of range", ErrCorrupt, i)
		}
		rec := recs[off:]
		payloadLen := uint64(binary.LittleEndian.Uint32(rec[4:]))
		if extRecordHeader+payloadLen > uint64(len(rec)) {
			return nil, fmt.Errorf("%w: extension %d payload out of range", ErrCorrupt, i)
		}
		exts = append(exts, Extension{
			tag:     string(rec[:4]),
			payload: rec[extRecordHeader : extRecordHeader+payloadLen],
		})
	}
	return exts, nil
}

// FindExtension returns the first extension with the given tag.
func (img *Image) FindExtension(tag string) (Extension, bool) {
	exts, err := img.Extensions()
	if err != nil {
		return Extension{}, false
	}
	for _, e := range exts {
		if e.Is(tag) {
			return e, true
		}
	}
	return Extension{}, false
}
