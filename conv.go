// SPDX-License-Identifier: MIT
// Copyright (c) 2026 DeanoC
// Source: github.com/DeanoC/ltngt.image-process

package imgproc

const (
	maxInt32  = int(^uint32(0) >> 1)
	maxUint32 = uint64(^uint32(0))
)

// u32FromInt converts an int to a uint32.
func u32FromInt(n int) (uint32, error) {
	if n < 0 || uint64(n) > maxUint32 {
		return 0, ErrSizeOverflow
	}

	// #nosec G115 -- bounds checked above.
	return uint32(n), nil
}
