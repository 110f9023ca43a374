package vfile

import (
	"fmt"
	"io"
)

// Memory is a VFile over a byte slice. The buffer is either owned by the
// backend (released on Close) or borrowed from the caller (left untouched
// by Close); only owned buffers may grow.
type Memory struct {
	buf      []byte
	off      int64
	growable bool
	owned    bool
	closed   bool
}

// NewMemory returns an owned, zero-filled, fixed-capacity buffer.
func NewMemory(size int) (*Memory, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInit, size)
	}
	return &Memory{buf: make([]byte, size), owned: true}, nil
}

// NewGrowable returns an owned, empty buffer that grows on write.
func NewGrowable() *Memory {
	return &Memory{growable: true, owned: true}
}

// FromBytes returns a fixed-capacity view over b. The buffer is borrowed:
// it outlives the backend and Close leaves it alone.
func FromBytes(b []byte) *Memory {
	return &Memory{buf: b}
}

// Bytes exposes the current contents without copying. The slice is only
// valid until the next Write on a growable backend.
func (m *Memory) Bytes() []byte {
	return m.buf
}

// Read fills p from the current offset. The request is all-or-nothing: if
// fewer than len(p) bytes remain the read fails and consumes nothing.
func (m *Memory) Read(p []byte) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	remaining := int64(len(m.buf)) - m.off
	if int64(len(p)) > remaining {
		return 0, fmt.Errorf("%w: want %d bytes, have %d", ErrRead, len(p), remaining)
	}
	n := copy(p, m.buf[m.off:])
	m.off += int64(n)
	return n, nil
}

// Write stores p at the current offset. Writing past the current capacity
// succeeds only when the buffer is growable and owned; the resize preserves
// the existing prefix.
func (m *Memory) Write(p []byte) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	end := m.off + int64(len(p))
	if end > int64(len(m.buf)) {
		if !m.growable || !m.owned {
			return 0, fmt.Errorf("%w: %d bytes at offset %d exceeds capacity %d",
				ErrWrite, len(p), m.off, len(m.buf))
		}
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.off:], p)
	m.off += int64(n)
	return n, nil
}

// Seek repositions the offset. Targets from start or current must land
// inside the data; from end only non-positive offsets are accepted, so the
// one-past-the-end position is reachable only via io.SeekEnd. Seeking past
// the end is unsupported even though native filesystems allow it. A failed
// seek leaves the position unchanged.
func (m *Memory) Seek(offset int64, whence int) (int64, error) {
	if m.closed {
		return m.off, ErrClosed
	}
	size := int64(len(m.buf))
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.off + offset
	case io.SeekEnd:
		if offset > 0 {
			return m.off, fmt.Errorf("%w: %d past end", ErrSeek, offset)
		}
		target = size + offset
	default:
		return m.off, fmt.Errorf("%w: unknown whence %d", ErrSeek, whence)
	}
	if target < 0 || target > size {
		return m.off, fmt.Errorf("%w: target %d outside [0,%d]", ErrSeek, target, size)
	}
	// An empty buffer still accepts offset 0.
	if whence != io.SeekEnd && target == size && size != 0 {
		return m.off, fmt.Errorf("%w: target %d outside [0,%d)", ErrSeek, target, size)
	}
	m.off = target
	return m.off, nil
}

// Tell reports the current offset.
func (m *Memory) Tell() int64 {
	return m.off
}

// ByteCount reports the buffer length.
func (m *Memory) ByteCount() int64 {
	return int64(len(m.buf))
}

// EOF reports whether the offset has reached the end of the buffer.
func (m *Memory) EOF() bool {
	return m.off >= int64(len(m.buf))
}

// Flush is a no-op for memory buffers.
func (m *Memory) Flush() error {
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close releases an owned buffer and marks the backend unusable. A
// borrowed buffer is left to its caller.
func (m *Memory) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	if m.owned {
		m.buf = nil
	}
	return nil
}

// Name identifies the backend.
func (m *Memory) Name() string {
	return "memory"
}
