package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/mfrlink/internal/protocol"
	"github.com/danmuck/mfrlink/internal/protocol/checksum"
)

const (
	Magic      uint32 = 0xA1B2C3D4
	HeaderSize        = 16
)

// Header is the fixed batch frame header. Fields are host-native byte order
// on the wire.
type Header struct {
	Magic      uint32
	SeqID      uint32
	PayloadCRC uint32
	Count      uint32
}

// Layout describes one fixed-size record type carried in a batch payload.
// Put and Get are always handed slices of exactly Size bytes.
type Layout[T any] interface {
	Size() int
	Put(dst []byte, v T)
	Get(src []byte) T
}

// FrameSize returns the encoded length of a batch with count records.
func FrameSize(count, recordSize int) int {
	return HeaderSize + count*recordSize
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	PutHeader(buf, h)
	return buf
}

// PutHeader writes h into the first HeaderSize bytes of dst.
func PutHeader(dst []byte, h Header) {
	_ = dst[HeaderSize-1]
	binary.NativeEndian.PutUint32(dst[0:4], h.Magic)
	binary.NativeEndian.PutUint32(dst[4:8], h.SeqID)
	binary.NativeEndian.PutUint32(dst[8:12], h.PayloadCRC)
	binary.NativeEndian.PutUint32(dst[12:16], h.Count)
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: short header: %d bytes", protocol.ErrMalformed, len(b))
	}
	return Header{
		Magic:      binary.NativeEndian.Uint32(b[0:4]),
		SeqID:      binary.NativeEndian.Uint32(b[4:8]),
		PayloadCRC: binary.NativeEndian.Uint32(b[8:12]),
		Count:      binary.NativeEndian.Uint32(b[12:16]),
	}, nil
}

// IsBatch reports whether b is long enough for a header and starts with Magic.
func IsBatch(b []byte) bool {
	if len(b) < HeaderSize {
		return false
	}
	return binary.NativeEndian.Uint32(b[0:4]) == Magic
}

// Encode builds a complete batch frame carrying records with sequence seq.
// Callers split record sets into MTU-sized groups before calling.
func Encode[T any](layout Layout[T], records []T, seq uint32) []byte {
	size := layout.Size()
	buf := make([]byte, FrameSize(len(records), size))
	payload := buf[HeaderSize:]
	for i, rec := range records {
		layout.Put(payload[i*size:(i+1)*size], rec)
	}
	PutHeader(buf, Header{
		Magic:      Magic,
		SeqID:      seq,
		PayloadCRC: checksum.CRC32(payload),
		Count:      uint32(len(records)),
	})
	return buf
}

// Validate checks framing and integrity of b for records of recordSize bytes
// and returns the header and the payload slice (aliasing b).
//
// Count is peer-controlled: the payload length is checked against
// Count*recordSize in 64-bit arithmetic before any record is touched.
func Validate(b []byte, recordSize int) (Header, []byte, error) {
	if recordSize <= 0 {
		return Header{}, nil, fmt.Errorf("%w: invalid record size %d", protocol.ErrMalformed, recordSize)
	}
	h, err := DecodeHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	if h.Magic != Magic {
		return h, nil, protocol.ErrNotBatch
	}
	payload := b[HeaderSize:]
	want := uint64(h.Count) * uint64(recordSize)
	if uint64(len(payload)) != want {
		return h, nil, fmt.Errorf(
			"%w: payload %d bytes, header declares %d records of %d bytes",
			protocol.ErrMalformed, len(payload), h.Count, recordSize,
		)
	}
	if got := checksum.CRC32(payload); got != h.PayloadCRC {
		return h, nil, fmt.Errorf("%w: crc got=%#08x want=%#08x", protocol.ErrIntegrity, got, h.PayloadCRC)
	}
	return h, payload, nil
}

// Decode validates b and decodes its records. On any error no records are
// returned. The returned records do not alias b.
func Decode[T any](layout Layout[T], b []byte) (Header, []T, error) {
	size := layout.Size()
	h, payload, err := Validate(b, size)
	if err != nil {
		return h, nil, err
	}
	records := make([]T, h.Count)
	for i := range records {
		records[i] = layout.Get(payload[i*size : (i+1)*size])
	}
	return h, records, nil
}
