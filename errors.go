package imgproc

import (
	"errors"

	"github.com/DeanoC/ltngt.image-process/exr"
)

var (
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrUnknownFormat indicates no loader claims the input.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrInvalidFormat indicates the format has no encoding on this path.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrOpenFile indicates opening the source file failed.
	ErrOpenFile = errors.New("open file failed")
	// ErrCreateFile indicates file creation failed.
	ErrCreateFile = errors.New("create file failed")

	// ErrBadDDS indicates corrupt or truncated DDS payload data.
	ErrBadDDS = errors.New("bad DDS data")
	// ErrDDSHeaderRead indicates DDS header read failed.
	ErrDDSHeaderRead = errors.New("reading DDS header failed")
	// ErrDDSDX10Read indicates DDS DX10 header read failed.
	ErrDDSDX10Read = errors.New("reading DDS DX10 header failed")
	// ErrWriteDDSMagic indicates DDS magic write failed.
	ErrWriteDDSMagic = errors.New("writing DDS magic failed")
	// ErrWriteDDSHeader indicates DDS header write failed.
	ErrWriteDDSHeader = errors.New("writing DDS header failed")
	// ErrWriteDDSPayload indicates DDS level payload write failed.
	ErrWriteDDSPayload = errors.New("writing DDS payload failed")
	// ErrMipmapSizeMismatch indicates mipmap payload or dimension mismatch.
	ErrMipmapSizeMismatch = errors.New("mipmap size mismatch")
	// ErrDecodeImage indicates BCn surface decode failed.
	ErrDecodeImage = errors.New("decode image failed")
	// ErrCompressMipmap indicates mipmap compression failed.
	ErrCompressMipmap = errors.New("compress mipmap failed")

	// ErrBadArchive indicates a malformed chain archive.
	ErrBadArchive = errors.New("bad chain archive")
	// ErrWriteArchiveHeader indicates archive header write failed.
	ErrWriteArchiveHeader = errors.New("writing archive header failed")
	// ErrWriteArchivePayload indicates archive payload write failed.
	ErrWriteArchivePayload = errors.New("writing archive payload failed")
	// ErrUnknownBlockKind indicates an unknown archive block kind.
	ErrUnknownBlockKind = errors.New("unknown block kind")
	// ErrInputTooLarge indicates input data is too large to encode.
	ErrInputTooLarge = errors.New("input data too large")
	// ErrCompressedDataTooLarge indicates compressed payload exceeds limits.
	ErrCompressedDataTooLarge = errors.New("compressed data too large")
	// ErrChunkTooLarge indicates a compressed chunk exceeds allowed size.
	ErrChunkTooLarge = errors.New("compressed chunk too large")
	// ErrLZ4Compress indicates LZ4 compression failed.
	ErrLZ4Compress = errors.New("LZ4 compression failed")
	// ErrLZ4Decode indicates LZ4 decode failed.
	ErrLZ4Decode = errors.New("LZ4 decode failed")
	// ErrZstdDecode indicates zstd decode failed.
	ErrZstdDecode = errors.New("zstd decode failed")
	// ErrCopySizeMismatch indicates COPY block data size mismatch.
	ErrCopySizeMismatch = errors.New("COPY block size mismatch")
	// ErrInvalidTargetSize indicates invalid decoded target size.
	ErrInvalidTargetSize = errors.New("invalid target size")
	// ErrChunkStreamTruncated indicates LZ4 chunk stream is truncated.
	ErrChunkStreamTruncated = errors.New("LZ4 chunk-stream truncated")
	// ErrUnknownLZ4Flags indicates unknown LZ4 chunk flags.
	ErrUnknownLZ4Flags = errors.New("unknown LZ4 flags")
	// ErrInvalidChunkSize indicates invalid LZ4 chunk size.
	ErrInvalidChunkSize = errors.New("invalid compressed chunk size")
	// ErrDecodeOverrun indicates decoded data overruns target buffer.
	ErrDecodeOverrun = errors.New("decoded LZ4 overruns target buffer")
	// ErrDecodedSizeMismatch indicates decoded size mismatch.
	ErrDecodedSizeMismatch = errors.New("decoded size mismatch")
	// ErrBlockLengthMismatch indicates leftover bytes after decode.
	ErrBlockLengthMismatch = errors.New("LZ4 block length mismatch")
)

// EXR adapter failures surface the exr package's sentinels.
var (
	// ErrBadVersion indicates an unsupported EXR version word.
	ErrBadVersion = exr.ErrBadVersion
	// ErrBadHeader indicates a malformed or unsupported EXR header.
	ErrBadHeader = exr.ErrBadHeader
	// ErrBadImage indicates EXR pixel data failed to decode or demux.
	ErrBadImage = exr.ErrBadImage
)
