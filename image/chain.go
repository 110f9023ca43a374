package image

import (
	"encoding/binary"
	"fmt"

	"github.com/DeanoC/ltngt.image-process/pixfmt"
)

// Records in a chain start on 8-byte boundaries.
func align8(n uint64) uint64 { return (n + 7) &^ 7 }

// SizeInBytes returns the exact byte size of this record: header, pixel
// data and extension block.
func (img *Image) SizeInBytes() uint64 {
	return headerSize + img.DataSize() + img.ExtSize()
}

// TotalSize returns the byte size of the chain starting at this record,
// every record padded to 8-byte alignment.
func (img *Image) TotalSize() uint64 {
	var total uint64
	for cur := img; cur != nil; cur = cur.Next() {
		total += align8(cur.SizeInBytes())
	}
	return total
}

// Next returns the record following this one, or nil at the end of the
// chain. The position is computed from the record size, never stored.
func (img *Image) Next() *Image {
	if !img.HasNext() {
		return nil
	}
	return &Image{buf: img.buf, off: img.off + int(align8(img.SizeInBytes()))}
}

// Chain collects the records of the chain in order, starting here.
func (img *Image) Chain() []*Image {
	var chain []*Image
	for cur := img; cur != nil; cur = cur.Next() {
		chain = append(chain, cur)
	}
	return chain
}

// Span returns the raw backing bytes of the chain starting at this
// record, suitable for FromSpan.
func (img *Image) Span() []byte {
	img.mustValid()
	return img.buf[img.off : uint64(img.off)+img.TotalSize()]
}

// Join copies the chains headed by a and b into one freshly allocated
// chain, a's records first.
func Join(a, b *Image) (*Image, error) {
	return JoinWithOptions(a, b, nil)
}

// JoinWithOptions is Join using opts for the backing buffer.
func JoinWithOptions(a, b *Image, opts *Options) (*Image, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil image", ErrBadConfig)
	}
	if a.buf == nil || b.buf == nil {
		return nil, ErrInvalidated
	}
	aSize := a.TotalSize()
	total := aSize + b.TotalSize()
	if total > uint64(maxInt) {
		return nil, fmt.Errorf("%w: %d byte chain", ErrTooLarge, total)
	}

	buf := opts.alloc(int(total))
	copy(buf, a.Span())
	copy(buf[aSize:], b.Span())

	head := &Image{buf: buf}
	last := head
	for next := last.Next(); next != nil; next = last.Next() {
		last = next
	}
	buf[last.off+offFlags] |= flagHasNext
	return head, nil
}

// DestructiveJoin joins a and b and invalidates both argument handles so
// they cannot alias the old buffers afterwards.
func DestructiveJoin(a, b *Image) (*Image, error) {
	joined, err := Join(a, b)
	if err != nil {
		return nil, err
	}
	a.buf, a.off = nil, 0
	b.buf, b.off = nil, 0
	return joined, nil
}

// FromSpan wraps a serialized chain span produced by Span. Every record
// header is validated before the head is returned.
func FromSpan(buf []byte) (*Image, error) {
	off := uint64(0)
	for {
		if uint64(len(buf)) < off+headerSize {
			return nil, fmt.Errorf("%w: truncated header at offset %d", ErrCorrupt, off)
		}
		h := buf[off:]

		cfg := Config{
			Width:   binary.LittleEndian.Uint32(h[offWidth:]),
			Height:  binary.LittleEndian.Uint32(h[offHeight:]),
			Depth:   binary.LittleEndian.Uint32(h[offDepth:]),
			Slices:  binary.LittleEndian.Uint32(h[offSlices:]),
			Format:  pixfmt.Format(binary.LittleEndian.Uint32(h[offFormat:])),
			Usage:   Usage(h[offUsage]),
			Cubemap: h[offFlags]&flagCubemap != 0,
		}
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("%w: record at offset %d: %v", ErrCorrupt, off, err)
		}
		dataSize := binary.LittleEndian.Uint64(h[offDataSize:])
		if dataSize != cfg.DataSize() {
			return nil, fmt.Errorf("%w: record at offset %d: data size %d does not match shape",
				ErrCorrupt, off, dataSize)
		}
		extSize := binary.LittleEndian.Uint64(h[offExtSize:])

		recSize := headerSize + dataSize + extSize
		if recSize < dataSize || align8(recSize) < recSize {
			return nil, fmt.Errorf("%w: record at offset %d: size overflow", ErrCorrupt, off)
		}
		if off+recSize > uint64(len(buf)) {
			return nil, fmt.Errorf("%w: record at offset %d: %d bytes past end",
				ErrCorrupt, off, off+recSize-uint64(len(buf)))
		}
		if h[offFlags]&flagHasNext == 0 {
			break
		}
		off += align8(recSize)
	}
	return &Image{buf: buf}, nil
}
