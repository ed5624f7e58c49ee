package command

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/mfrlink/internal/protocol"
)

// reader is a bounds-checked little-endian cursor. The first short read
// latches ErrTruncated and every later read returns zero values.
type reader struct {
	b   []byte
	off int
	err error
}

func newReader(b []byte) *reader {
	return &reader{b: b}
}

func (r *reader) remaining() int {
	return len(r.b) - r.off
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.remaining() < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", protocol.ErrTruncated, n, r.off, r.remaining())
		return nil
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) f64() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (r *reader) bool(field string) bool {
	v := r.u8()
	if r.err != nil {
		return false
	}
	switch v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail("%s: invalid bool %d", field, v)
		return false
	}
}

// fail latches ErrMalformed unless an earlier error is already set.
func (r *reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: "+format, append([]any{protocol.ErrMalformed}, args...)...)
	}
}

// count reads a u16 list length and checks entries*size against what is left.
func (r *reader) count(list string, entrySize int) int {
	n := int(r.u16())
	if r.err != nil {
		return 0
	}
	if n*entrySize > r.remaining() {
		r.fail("%s list declares %d entries of %d bytes, %d bytes remain", list, n, entrySize, r.remaining())
		return 0
	}
	return n
}

// finish rejects trailing bytes after a fixed layout.
func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if rest := r.remaining(); rest != 0 {
		return fmt.Errorf("%w: %d trailing bytes", protocol.ErrMalformed, rest)
	}
	return nil
}

func appendU16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }

func appendU32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

func appendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func appendF64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}
