package vfile

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestGrowableRoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 7, 64, 4096} {
		n := n
		t.Run("", func(t *testing.T) {
			t.Parallel()

			data := make([]byte, n)
			for i := range data {
				data[i] = byte((i*31 + 7) & 0xff)
			}

			m := NewGrowable()
			if _, err := m.Write(data); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if m.ByteCount() != int64(n) {
				t.Fatalf("ByteCount() = %d, want %d", m.ByteCount(), n)
			}
			if _, err := m.Seek(0, io.SeekStart); err != nil {
				t.Fatalf("Seek: %v", err)
			}

			got := make([]byte, n)
			if _, err := m.Read(got); err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("round-trip mismatch for %d bytes", n)
			}
			if !m.EOF() {
				t.Fatalf("expected EOF after reading everything back")
			}
		})
	}
}

func TestSeekBounds(t *testing.T) {
	t.Parallel()

	const size = 16

	tests := []struct {
		name    string
		offset  int64
		whence  int
		wantPos int64
		wantErr bool
	}{
		{name: "start-at-size", offset: size, whence: io.SeekStart, wantErr: true},
		{name: "start-at-size-minus-one", offset: size - 1, whence: io.SeekStart, wantPos: size - 1},
		{name: "start-at-zero", offset: 0, whence: io.SeekStart, wantPos: 0},
		{name: "start-negative", offset: -1, whence: io.SeekStart, wantErr: true},
		{name: "end-at-zero", offset: 0, whence: io.SeekEnd, wantPos: size},
		{name: "end-minus-size", offset: -size, whence: io.SeekEnd, wantPos: 0},
		{name: "end-plus-one", offset: 1, whence: io.SeekEnd, wantErr: true},
		{name: "end-below-zero", offset: -size - 1, whence: io.SeekEnd, wantErr: true},
		{name: "current-forward", offset: 4, whence: io.SeekCurrent, wantPos: 4},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, err := NewMemory(size)
			if err != nil {
				t.Fatalf("NewMemory: %v", err)
			}

			pos, err := m.Seek(tc.offset, tc.whence)
			if tc.wantErr {
				if !errors.Is(err, ErrSeek) {
					t.Fatalf("expected ErrSeek, got %v", err)
				}
				if m.Tell() != 0 {
					t.Fatalf("failed seek moved position to %d", m.Tell())
				}
				return
			}
			if err != nil {
				t.Fatalf("Seek: %v", err)
			}
			if pos != tc.wantPos || m.Tell() != tc.wantPos {
				t.Fatalf("Seek() = %d (Tell %d), want %d", pos, m.Tell(), tc.wantPos)
			}
		})
	}
}

func TestGrowableWrite(t *testing.T) {
	t.Parallel()

	t.Run("grow-from-empty", func(t *testing.T) {
		t.Parallel()

		m := NewGrowable()
		if _, err := m.Write([]byte{0, 1, 2, 3}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if m.ByteCount() != 4 {
			t.Fatalf("ByteCount() = %d, want 4", m.ByteCount())
		}

		if _, err := m.Seek(0, io.SeekStart); err != nil {
			t.Fatalf("Seek: %v", err)
		}
		got := make([]byte, 4)
		if _, err := m.Read(got); err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(got, []byte{0, 1, 2, 3}) {
			t.Fatalf("read back %v", got)
		}
	})

	t.Run("fixed-rejects-overflow", func(t *testing.T) {
		t.Parallel()

		m, err := NewMemory(4)
		if err != nil {
			t.Fatalf("NewMemory: %v", err)
		}
		if _, err := m.Write([]byte{0, 1, 2, 3, 4}); !errors.Is(err, ErrWrite) {
			t.Fatalf("expected ErrWrite, got %v", err)
		}
	})

	t.Run("borrowed-rejects-overflow", func(t *testing.T) {
		t.Parallel()

		backing := make([]byte, 2)
		m := FromBytes(backing)
		if _, err := m.Write([]byte{1, 2, 3}); !errors.Is(err, ErrWrite) {
			t.Fatalf("expected ErrWrite, got %v", err)
		}
	})

	t.Run("grow-preserves-prefix", func(t *testing.T) {
		t.Parallel()

		m := NewGrowable()
		if _, err := m.Write([]byte{9, 8, 7}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if _, err := m.Write([]byte{6, 5}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if !bytes.Equal(m.Bytes(), []byte{9, 8, 7, 6, 5}) {
			t.Fatalf("contents %v", m.Bytes())
		}
	})
}

func TestMemoryReadAllOrNothing(t *testing.T) {
	t.Parallel()

	m := FromBytes([]byte{1, 2, 3})
	got := make([]byte, 2)
	if _, err := m.Read(got); err != nil {
		t.Fatalf("Read: %v", err)
	}

	// One byte remains; a two-byte request must fail without consuming it.
	if _, err := m.Read(got); !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
	if m.Tell() != 2 {
		t.Fatalf("failed read moved position to %d", m.Tell())
	}

	one := make([]byte, 1)
	if _, err := m.Read(one); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if one[0] != 3 {
		t.Fatalf("read %d, want 3", one[0])
	}
	if !m.EOF() {
		t.Fatalf("expected EOF with all bytes consumed")
	}
}

func TestMemoryEOF(t *testing.T) {
	t.Parallel()

	m := FromBytes(make([]byte, 4))
	if m.EOF() {
		t.Fatalf("EOF at start of non-empty buffer")
	}
	if _, err := m.Seek(3, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if m.EOF() {
		t.Fatalf("EOF one byte before the end")
	}
	if _, err := m.Seek(0, io.SeekEnd); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if !m.EOF() {
		t.Fatalf("no EOF at the end position")
	}
}

func TestMemoryClose(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(4)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on double close, got %v", err)
	}
	if _, err := m.Read(make([]byte, 1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on read after close, got %v", err)
	}

	// Borrowed buffers survive Close.
	backing := []byte{1, 2, 3}
	b := FromBytes(backing)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bytes.Equal(backing, []byte{1, 2, 3}) {
		t.Fatalf("borrowed buffer mutated: %v", backing)
	}
}
