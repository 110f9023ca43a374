package image

// MipCount returns the number of levels in a full mip pyramid for the
// given dimensions, halving down to 1x1x1.
func MipCount(width, height, depth uint32) uint32 {
	largest := width
	if height > largest {
		largest = height
	}
	if depth > largest {
		largest = depth
	}
	count := uint32(1)
	for largest > 1 {
		largest >>= 1
		count++
	}
	return count
}

// MipDimension halves a base dimension level times, clamping at 1.
func MipDimension(base, level uint32) uint32 {
	if level >= 32 {
		return 1
	}
	d := base >> level
	if d == 0 {
		return 1
	}
	return d
}
