package frame

import (
	"fmt"

	"github.com/danmuck/mfrlink/internal/protocol"
)

// Legacy single-record datagrams carry no header: one type tag byte followed
// by exactly one record. They are recognised purely by total length, so a
// change to any record size can silently reclassify traffic.

// LegacySize returns the datagram length of a legacy record of recordSize.
func LegacySize(recordSize int) int {
	return 1 + recordSize
}

func EncodeLegacy[T any](layout Layout[T], tag byte, v T) []byte {
	buf := make([]byte, LegacySize(layout.Size()))
	buf[0] = tag
	layout.Put(buf[1:], v)
	return buf
}

// DecodeLegacy decodes b as a legacy datagram for layout.
func DecodeLegacy[T any](layout Layout[T], b []byte) (byte, T, error) {
	var zero T
	if len(b) != LegacySize(layout.Size()) {
		return 0, zero, fmt.Errorf(
			"%w: legacy datagram %d bytes, want %d",
			protocol.ErrMalformed, len(b), LegacySize(layout.Size()),
		)
	}
	return b[0], layout.Get(b[1:]), nil
}
