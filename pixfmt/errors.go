package pixfmt

import "errors"

var (
	// ErrNoFloatCodec indicates the format cannot convert to or from the
	// canonical float vector.
	ErrNoFloatCodec = errors.New("format has no float codec")
	// ErrShortBuffer indicates a codec buffer smaller than the pixel count
	// requires.
	ErrShortBuffer = errors.New("codec buffer too short")
)
