package exr

import "errors"

var (
	// ErrBadVersion indicates a source that is not a plain scanline EXR
	// version 2 file.
	ErrBadVersion = errors.New("bad EXR version")
	// ErrBadHeader indicates a malformed or unsupported EXR header.
	ErrBadHeader = errors.New("bad EXR header")
	// ErrBadImage indicates chunk data that cannot be decoded.
	ErrBadImage = errors.New("bad EXR image")
	// ErrWrite indicates an EXR serialization failure.
	ErrWrite = errors.New("EXR write failed")
)
