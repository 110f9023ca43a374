package ktx

import "errors"

var (
	// ErrNotValid indicates the source is not a KTX v1 file or is truncated.
	ErrNotValid = errors.New("not a valid KTX file")
	// ErrUnsupported indicates a well-formed file using features outside KTX v1.
	ErrUnsupported = errors.New("unsupported KTX feature")
	// ErrMipMap indicates a mip level that is absent or unreadable.
	ErrMipMap = errors.New("mip level unavailable")
	// ErrWrite indicates a KTX serialization failure.
	ErrWrite = errors.New("KTX write failed")
)
