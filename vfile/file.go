package vfile

import (
	"fmt"
	"io"
	"os"
)

// File is a VFile over an os.File. Unlike the memory backend it follows the
// operating system's seek rules, so positioning past the end is allowed and
// the next write extends the file.
type File struct {
	f      *os.File
	path   string
	off    int64
	size   int64
	closed bool
}

// Open opens an existing file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInit, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %q: %v", ErrInit, path, err)
	}
	return &File{f: f, path: path, size: info.Size()}, nil
}

// Create creates or truncates a file for reading and writing.
func Create(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInit, path, err)
	}
	return &File{f: f, path: path}, nil
}

// Read fills p completely, looping over short OS reads.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	n, err := io.ReadFull(f.f, p)
	f.off += int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: %d of %d bytes: %v", ErrRead, n, len(p), err)
	}
	return n, nil
}

// Write stores p at the current offset.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	n, err := f.f.Write(p)
	f.off += int64(n)
	if f.off > f.size {
		f.size = f.off
	}
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return n, nil
}

// Seek repositions the offset using the OS seek rules.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return f.off, ErrClosed
	}
	pos, err := f.f.Seek(offset, whence)
	if err != nil {
		return f.off, fmt.Errorf("%w: %v", ErrSeek, err)
	}
	f.off = pos
	return pos, nil
}

// Tell reports the current offset.
func (f *File) Tell() int64 {
	return f.off
}

// ByteCount reports the file length.
func (f *File) ByteCount() int64 {
	return f.size
}

// EOF reports whether the offset has reached the file length.
func (f *File) EOF() bool {
	return f.off >= f.size
}

// Flush syncs buffered writes to disk.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if err := f.f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Close closes the file handle.
func (f *File) Close() error {
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	if err := f.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Name reports the backing path.
func (f *File) Name() string {
	return f.path
}
