package exr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// The ZIP and RLE codecs share two reversible transforms applied to the
// raw chunk bytes before entropy coding: an interleave split that moves
// even-index bytes ahead of odd-index bytes, then a byte delta
// predictor. Decoding applies the inverses in reverse order.

func splitHalves(src []byte) []byte {
	dst := make([]byte, len(src))
	half := (len(src) + 1) / 2
	t1, t2 := 0, half
	for i, b := range src {
		if i%2 == 0 {
			dst[t1] = b
			t1++
		} else {
			dst[t2] = b
			t2++
		}
	}
	return dst
}

func mergeHalves(src []byte) []byte {
	dst := make([]byte, len(src))
	half := (len(src) + 1) / 2
	t1, t2 := 0, half
	for i := range dst {
		if i%2 == 0 {
			dst[i] = src[t1]
			t1++
		} else {
			dst[i] = src[t2]
			t2++
		}
	}
	return dst
}

func predictorEncode(b []byte) {
	if len(b) == 0 {
		return
	}
	p := int(b[0])
	for i := 1; i < len(b); i++ {
		d := int(b[i]) - p + (128 + 256)
		p = int(b[i])
		b[i] = byte(d)
	}
}

func predictorDecode(b []byte) {
	for i := 1; i < len(b); i++ {
		b[i] = byte(int(b[i-1]) + int(b[i]) - 128)
	}
}

// packBytes applies split and predictor, returning a scratch copy.
func packBytes(raw []byte) []byte {
	packed := splitHalves(raw)
	predictorEncode(packed)
	return packed
}

// unpackBytes reverses packBytes in place semantics: the input is
// modified by the predictor pass before merging.
func unpackBytes(packed []byte) []byte {
	predictorDecode(packed)
	return mergeHalves(packed)
}

// rleEncode packs runs of 3 or more repeated bytes as [count-1][byte]
// and literal stretches as [-count][bytes...]. Counts stay within 127.
func rleEncode(src []byte) []byte {
	const (
		minRun = 3
		maxRun = 127
	)
	out := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		run := 1
		for i+run < len(src) && src[i+run] == src[i] && run < maxRun+1 {
			run++
		}
		if run >= minRun {
			out = append(out, byte(run-1), src[i])
			i += run
			continue
		}

		start := i
		for i < len(src) && i-start < maxRun {
			if i+2 < len(src) && src[i] == src[i+1] && src[i+1] == src[i+2] {
				break
			}
			i++
		}
		out = append(out, byte(-(i - start)))
		out = append(out, src[start:i]...)
	}
	return out
}

// rleDecode expands an RLE stream to exactly expect bytes.
func rleDecode(src []byte, expect int) ([]byte, error) {
	out := make([]byte, 0, expect)
	i := 0
	for i < len(src) {
		n := int8(src[i])
		i++
		if n < 0 {
			count := -int(n)
			if i+count > len(src) || len(out)+count > expect {
				return nil, fmt.Errorf("%w: RLE literal run overflows", ErrBadImage)
			}
			out = append(out, src[i:i+count]...)
			i += count
		} else {
			count := int(n) + 1
			if i >= len(src) || len(out)+count > expect {
				return nil, fmt.Errorf("%w: RLE repeat run overflows", ErrBadImage)
			}
			for j := 0; j < count; j++ {
				out = append(out, src[i])
			}
			i++
		}
	}
	if len(out) != expect {
		return nil, fmt.Errorf("%w: RLE stream yields %d of %d bytes", ErrBadImage, len(out), expect)
	}
	return out, nil
}

func zipCompress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(packBytes(raw)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zipDecompress(packed []byte, expect int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrBadImage, err)
	}
	defer func() { _ = zr.Close() }()

	raw := make([]byte, expect)
	if _, err := io.ReadFull(zr, raw); err != nil {
		return nil, fmt.Errorf("%w: zlib stream yields fewer than %d bytes: %v", ErrBadImage, expect, err)
	}
	return unpackBytes(raw), nil
}

func rleCompress(raw []byte) []byte {
	return rleEncode(packBytes(raw))
}

func rleDecompress(packed []byte, expect int) ([]byte, error) {
	raw, err := rleDecode(packed, expect)
	if err != nil {
		return nil, err
	}
	return unpackBytes(raw), nil
}
