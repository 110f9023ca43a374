package imgproc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

// Chain archives persist a relocatable chain span verbatim behind a
// small header:
//
//	[4]byte "LIMG"  [u16 version]  [u16 block kind]  [u64 raw size]  [payload]
//
// The payload is the span itself (COPY), an LZ4 chunk stream, or a
// zstd frame.

const (
	archiveMagic   = "LIMG"
	archiveVersion = 1

	archiveHeaderSize = 4 + 2 + 2 + 8

	// chunkSize is the LZ4 chunk-stream granularity.
	chunkSize = 64 * 1024

	// Compressed payloads above this fraction of the raw size are
	// stored as COPY instead.
	compressRatioLimit = 0.85
)

// BlockKind selects the archive payload encoding.
type BlockKind uint16

const (
	// BlockCOPY stores the span uncompressed.
	BlockCOPY BlockKind = iota
	// BlockLZ4 stores an LZ4 chunk stream with a rolling 64KB dictionary.
	BlockLZ4
	// BlockZSTD stores one zstd frame.
	BlockZSTD
)

func (k BlockKind) String() string {
	switch k {
	case BlockCOPY:
		return "COPY"
	case BlockLZ4:
		return "LZ4"
	case BlockZSTD:
		return "ZSTD"
	}
	return fmt.Sprintf("BlockKind(%d)", uint16(k))
}

// WriteOptions configures chain archive writing.
type WriteOptions struct {
	// Block selects the payload encoding. Spans that do not compress
	// well are stored as COPY regardless.
	Block BlockKind
}

// Shared coders; EncodeAll and DecodeAll are stateless per call.
var (
	zstdEncoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true))
	zstdDecoder, _ = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true))
)

// SaveChain writes the whole chain from img onward to v. Nil options
// write an LZ4 block.
func SaveChain(v vfile.VFile, img *image.Image, opts *WriteOptions) error {
	kind := BlockLZ4
	if opts != nil {
		kind = opts.Block
	}

	span := img.Span()
	payload, kind, err := packSpan(span, kind)
	if err != nil {
		return err
	}

	var hdr [archiveHeaderSize]byte
	copy(hdr[:4], archiveMagic)
	binary.LittleEndian.PutUint16(hdr[4:], archiveVersion)
	binary.LittleEndian.PutUint16(hdr[6:], uint16(kind))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(len(span)))
	if _, err := v.Write(hdr[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteArchiveHeader, err)
	}
	if _, err := v.Write(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteArchivePayload, err)
	}
	return nil
}

// SaveChainFile writes img as a chain archive at path.
func SaveChainFile(path string, img *image.Image, opts *WriteOptions) error {
	f, err := vfile.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = f.Close() }()

	if err := SaveChain(f, img, opts); err != nil {
		return err
	}
	return f.Flush()
}

// LoadChain reads an archive from v, inflates the payload and
// re-validates the record chain.
func LoadChain(v vfile.VFile) (*image.Image, error) {
	var hdr [archiveHeaderSize]byte
	if _, err := v.Read(hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadArchive, err)
	}
	if string(hdr[:4]) != archiveMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadArchive, hdr[:4])
	}
	if version := binary.LittleEndian.Uint16(hdr[4:]); version != archiveVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadArchive, version)
	}
	kind := BlockKind(binary.LittleEndian.Uint16(hdr[6:]))
	rawSize := binary.LittleEndian.Uint64(hdr[8:])
	if rawSize == 0 || rawSize > uint64(maxInt32) {
		return nil, fmt.Errorf("%w: raw size %d", ErrBadArchive, rawSize)
	}

	remaining := v.ByteCount() - v.Tell()
	if remaining < 0 {
		remaining = 0
	}
	payload := make([]byte, remaining)
	if _, err := v.Read(payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrBadArchive, err)
	}

	span, err := unpackSpan(payload, kind, int(rawSize))
	if err != nil {
		return nil, err
	}

	img, err := image.FromSpan(span)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	return img, nil
}

// packSpan encodes the span for the requested block kind, falling back
// to COPY when compression does not pay.
func packSpan(span []byte, kind BlockKind) ([]byte, BlockKind, error) {
	if len(span) > maxInt32 {
		return nil, kind, fmt.Errorf("%w: %d bytes", ErrInputTooLarge, len(span))
	}

	switch kind {
	case BlockCOPY:
		return span, BlockCOPY, nil
	case BlockLZ4:
		if len(span) < 1024 {
			return span, BlockCOPY, nil
		}
		stream, err := compressChunkStream(span)
		if err != nil {
			return nil, kind, err
		}
		if stream == nil {
			return span, BlockCOPY, nil
		}
		return stream, BlockLZ4, nil
	case BlockZSTD:
		if len(span) < 1024 {
			return span, BlockCOPY, nil
		}
		packed := zstdEncoder.EncodeAll(span, nil)
		if float64(len(packed)) > float64(len(span))*compressRatioLimit {
			return span, BlockCOPY, nil
		}
		return packed, BlockZSTD, nil
	}
	return nil, kind, fmt.Errorf("%w: %s", ErrUnknownBlockKind, kind)
}

// unpackSpan decodes an archive payload back into the raw span.
func unpackSpan(payload []byte, kind BlockKind, rawSize int) ([]byte, error) {
	switch kind {
	case BlockCOPY:
		if len(payload) != rawSize {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrCopySizeMismatch, rawSize, len(payload))
		}
		out := make([]byte, rawSize)
		copy(out, payload)
		return out, nil
	case BlockLZ4:
		return expandChunkStream(payload, rawSize)
	case BlockZSTD:
		span, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrZstdDecode, err)
		}
		if len(span) != rawSize {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrDecodedSizeMismatch, rawSize, len(span))
		}
		return span, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBlockKind, kind)
}

// compressChunkStream encodes data as 64KB LZ4HC chunks, each prefixed
// by a 3-byte size and a flag byte (0x80 marks the last chunk). A nil
// result means compression did not pay and the caller should COPY.
func compressChunkStream(data []byte) ([]byte, error) {
	var stream bytes.Buffer
	compressBuf := make([]byte, lz4.CompressBlockBound(chunkSize))

	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]
		last := end == len(data)

		cn, err := lz4.CompressBlockHC(chunk, compressBuf, 0, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Compress, err)
		}
		if cn == 0 || float64(cn) > float64(len(chunk))*compressRatioLimit {
			return nil, nil
		}
		if cn > 0x7FFFFF {
			return nil, fmt.Errorf("%w: %d", ErrChunkTooLarge, cn)
		}

		stream.WriteByte(byte(cn))
		stream.WriteByte(byte(cn >> 8))
		stream.WriteByte(byte(cn >> 16))
		if last {
			stream.WriteByte(0x80)
		} else {
			stream.WriteByte(0x00)
		}
		stream.Write(compressBuf[:cn])
	}

	if stream.Len() > maxInt32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCompressedDataTooLarge, stream.Len())
	}
	if float64(stream.Len()) > float64(len(data))*compressRatioLimit {
		return nil, nil
	}
	return stream.Bytes(), nil
}

// expandChunkStream inflates an LZ4 chunk stream into exactly
// targetSize bytes. Chunks may reference a rolling 64KB window of the
// decoded output as dictionary.
func expandChunkStream(data []byte, targetSize int) ([]byte, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTargetSize, targetSize)
	}

	dict := make([]byte, chunkSize)
	dictSize := 0

	target := make([]byte, targetSize)
	outIdx := 0

	r := bytes.NewReader(data)
	for {
		var hdr [4]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChunkStreamTruncated, err)
		}

		cSize := int(hdr[0]) | int(hdr[1])<<8 | int(hdr[2])<<16
		flags := hdr[3]
		if flags&^0x80 != 0 {
			return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownLZ4Flags, flags)
		}
		if cSize <= 0 || cSize > r.Len() {
			return nil, fmt.Errorf("%w: %d (remaining %d)", ErrInvalidChunkSize, cSize, r.Len())
		}

		compressed := make([]byte, cSize)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChunkStreamTruncated, err)
		}

		remaining := targetSize - outIdx
		if remaining <= 0 {
			return nil, ErrDecodeOverrun
		}
		want := chunkSize
		if want > remaining {
			want = remaining
		}

		n, err := lz4.UncompressBlockWithDict(compressed, target[outIdx:outIdx+want], dict[:dictSize])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Decode, err)
		}
		outIdx += n

		dictSize = rollDict(dict, dictSize, target[outIdx-n:outIdx])

		if flags&0x80 != 0 {
			break
		}
	}

	if outIdx != targetSize {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDecodedSizeMismatch, targetSize, outIdx)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes left after decode", ErrBlockLengthMismatch, r.Len())
	}
	return target, nil
}

// rollDict appends decoded output to the dictionary window, keeping the
// most recent window-size bytes.
func rollDict(dict []byte, dictSize int, decoded []byte) int {
	window := len(dict)
	if len(decoded) >= window {
		copy(dict, decoded[len(decoded)-window:])
		return window
	}
	avail := window - dictSize
	if len(decoded) <= avail {
		copy(dict[dictSize:], decoded)
		return dictSize + len(decoded)
	}
	shift := len(decoded) - avail
	copy(dict, dict[shift:dictSize])
	copy(dict[window-len(decoded):], decoded)
	return window
}
