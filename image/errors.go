package image

import "errors"

var (
	// ErrBadConfig indicates an image configuration that cannot describe a record.
	ErrBadConfig = errors.New("bad image config")
	// ErrTooLarge indicates a record or chain exceeds addressable size.
	ErrTooLarge = errors.New("image too large")
	// ErrNoExtensions indicates the record carries no extension block.
	ErrNoExtensions = errors.New("no extensions")
	// ErrInvalidated indicates use of an image consumed by a destructive join.
	ErrInvalidated = errors.New("image invalidated")
	// ErrCorrupt indicates a serialized record span that fails validation.
	ErrCorrupt = errors.New("corrupt image record")
)
