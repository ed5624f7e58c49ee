// Package checksum computes the payload CRC carried in batch frame headers.
//
// The algorithm is the reflected CRC-32/ISO-HDLC (polynomial 0xEDB88320,
// seed and final XOR 0xFFFFFFFF), bit-for-bit compatible with any standard
// CRC32 implementation on the peer.
package checksum

import "hash/crc32"

// Size is the encoded checksum width in bytes.
const Size = 4

// table is built once at init and only read afterwards.
var table = crc32.MakeTable(crc32.IEEE)

// CRC32 returns the checksum of b. Empty input yields 0.
func CRC32(b []byte) uint32 {
	return crc32.Checksum(b, table)
}

// Update continues a running checksum with p.
func Update(crc uint32, p []byte) uint32 {
	return crc32.Update(crc, table, p)
}

// Verify reports whether b hashes to want.
func Verify(b []byte, want uint32) bool {
	return CRC32(b) == want
}
