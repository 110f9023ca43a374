/*
Package ktx reads and writes Khronos KTX version 1 texture files.

The reader parses the 64-byte header eagerly and the mip level table
lazily: level sizes are discovered by walking size prefixes through the
file on first use and cached per level, so repeated queries touch the
source once. Both little and big endian files are accepted; payload
bytes are returned as stored.

The writer emits native little-endian files from container records,
one chained record per mip level.
*/
package ktx

import "bytes"

// File identifier, the first 12 bytes of every KTX v1 file.
var identifier = [12]byte{0xAB, 0x4B, 0x54, 0x58, 0x20, 0x31, 0x31, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A}

// SniffMagic reports whether b starts with the KTX v1 identifier.
func SniffMagic(b []byte) bool {
	return len(b) >= len(identifier) && bytes.Equal(b[:len(identifier)], identifier[:])
}

// Endianness marker values as read with little-endian order.
const (
	endianNative  = 0x04030201
	endianSwapped = 0x01020304
)

const headerFieldCount = 12

// Header mirrors the KTX v1 field block that follows the identifier and
// endianness marker.
type Header struct {
	GLType                uint32
	GLTypeSize            uint32
	GLFormat              uint32
	GLInternalFormat      uint32
	GLBaseInternalFormat  uint32
	PixelWidth            uint32
	PixelHeight           uint32
	PixelDepth            uint32
	NumberOfArrayElements uint32
	NumberOfFaces         uint32
	NumberOfMipmapLevels  uint32
	BytesOfKeyValueData   uint32
}

// KeyValue is one metadata pair from the key/value block.
type KeyValue struct {
	Key   string
	Value []byte
}

// Mip level payloads and key/value entries pad to 4 bytes.
func align4(n uint64) uint64 { return (n + 3) &^ 3 }
