/*
Package vfile abstracts the origin of bytes behind a small seekable
interface with interchangeable backends: a file on disk and an in-memory
buffer (fixed or growable, owned or borrowed).

Loaders in this module consume a VFile instead of a concrete source, so a
format parser works identically over a file, a decompressed archive span or
a caller-provided byte slice. The contract is deliberately stricter than
the io interfaces it resembles: reads on the memory backend are
all-or-nothing, and seeks may not land past the end of the data.
*/
package vfile

import "io"

// VFile is the byte-source contract shared by all backends.
//
// The method shapes match io.Reader, io.Writer, io.Seeker and io.Closer, so
// a VFile can be passed to code expecting those interfaces. Backends are
// not safe for concurrent use; callers needing concurrency must serialize
// access or use independent instances.
type VFile interface {
	io.Closer

	// Read fills p completely or fails. The memory backend never
	// partially satisfies a request that exceeds the remaining bytes.
	Read(p []byte) (int, error)

	// Write stores p at the current offset, growing the backing store
	// when the backend supports it.
	Write(p []byte) (int, error)

	// Seek repositions the offset the way io.Seeker does, except that
	// targets past the end of the data are rejected. A failed seek does
	// not move the current position.
	Seek(offset int64, whence int) (int64, error)

	// Tell reports the current offset. It never fails.
	Tell() int64

	// ByteCount reports the total addressable size, not bytes remaining.
	ByteCount() int64

	// EOF reports whether the current offset has reached the end.
	EOF() bool

	// Flush pushes buffered writes to the backing store.
	Flush() error

	// Name identifies the backend, e.g. a file path or "memory".
	Name() string
}
