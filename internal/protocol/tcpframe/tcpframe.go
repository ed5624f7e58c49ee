// Package tcpframe frames control-channel messages as
//
//	marker u8 | length u32 little-endian | payload[length]
//
// The length is always little-endian, independent of the batch frame's
// host-native header.
package tcpframe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/mfrlink/internal/protocol"
)

const (
	HeaderSize = 5

	// MarkerRequest is the request marker the control server accepts.
	MarkerRequest byte = 0x51
	// MarkerResponse tags frames sent back on the same connection.
	MarkerResponse byte = 0x52
)

// Frame is one decoded control-channel frame.
type Frame struct {
	Marker  byte
	Payload []byte
}

// Limits constrains frame decode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 1 << 20}
}

// Encode builds [marker][len LE][payload]. The marker is not validated.
func Encode(marker byte, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = marker
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// Write encodes and writes one frame in a single Write call.
func Write(w io.Writer, marker byte, payload []byte) error {
	_, err := w.Write(Encode(marker, payload))
	return err
}

// Read reads exactly one frame from r.
func Read(r io.Reader, limits Limits) (Frame, error) {
	var head [HeaderSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: short frame header", protocol.ErrTruncated)
		}
		return Frame{}, err
	}
	n := binary.LittleEndian.Uint32(head[1:5])
	if n > limits.MaxPayloadBytes {
		return Frame{}, fmt.Errorf("%w: %d bytes > %d", protocol.ErrPayloadTooLarge, n, limits.MaxPayloadBytes)
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, fmt.Errorf("%w: payload: %v", protocol.ErrTruncated, err)
		}
	}
	return Frame{Marker: head[0], Payload: payload}, nil
}
