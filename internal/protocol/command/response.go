package command

import (
	"fmt"

	"github.com/danmuck/mfrlink/internal/protocol"
)

// Response is the tagged result of ParseResponse. Callers switch on the
// concrete type (*StatusResponse, *RadarModeChangeAck, ...).
type Response interface {
	CommandType() CommandType
	AppendBinary(b []byte) ([]byte, error)
}

// Fixed wire sizes of acknowledgement payloads, excluding the type byte.
const (
	RadarModeChangeAckSize = 6
	LSModeChangeAckSize    = 6
	MissileLaunchAckSize   = 13
	LSMoveAckSize          = 21
)

type RadarModeChangeAck struct {
	RadarID uint32
	Mode    RadarMode
	Result  AckResult
}

func (*RadarModeChangeAck) CommandType() CommandType { return RadarModeChangeAckType }

func (a *RadarModeChangeAck) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(RadarModeChangeAckType))
	b = appendU32(b, a.RadarID)
	return append(b, byte(a.Mode), byte(a.Result)), nil
}

type LSModeChangeAck struct {
	LSID   uint32
	Mode   LSMode
	Result AckResult
}

func (*LSModeChangeAck) CommandType() CommandType { return LSModeChangeAckType }

func (a *LSModeChangeAck) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(LSModeChangeAckType))
	b = appendU32(b, a.LSID)
	return append(b, byte(a.Mode), byte(a.Result)), nil
}

type MissileLaunchAck struct {
	LSID      uint32
	MissileID uint32
	TargetID  uint32
	Result    AckResult
}

func (*MissileLaunchAck) CommandType() CommandType { return MissileLaunchAckType }

func (a *MissileLaunchAck) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(MissileLaunchAckType))
	b = appendU32(b, a.LSID)
	b = appendU32(b, a.MissileID)
	b = appendU32(b, a.TargetID)
	return append(b, byte(a.Result)), nil
}

type LSMoveAck struct {
	LSID   uint32
	X      float64
	Y      float64
	Result AckResult
}

func (*LSMoveAck) CommandType() CommandType { return LSMoveAckType }

func (a *LSMoveAck) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(LSMoveAckType))
	b = appendU32(b, a.LSID)
	b = appendF64(b, a.X)
	b = appendF64(b, a.Y)
	return append(b, byte(a.Result)), nil
}

// MarshalResponse encodes resp into a fresh buffer.
func MarshalResponse(resp Response) ([]byte, error) {
	return resp.AppendBinary(nil)
}

// ParseResponse decodes one response buffer into its typed result.
//
// Errors: ErrEmptyBuffer for an empty buffer, ErrUnknownCommand for an
// unregistered type byte, ErrTruncated when the buffer is shorter than the
// type's fixed layout, ErrMalformed for invalid discriminants, list counts
// past the end, or trailing bytes.
func ParseResponse(buf []byte) (Response, error) {
	if len(buf) == 0 {
		return nil, protocol.ErrEmptyBuffer
	}
	r := newReader(buf[1:])
	switch typ := CommandType(buf[0]); typ {
	case StatusResponseType:
		return decodeStatusResponse(r)
	case RadarModeChangeAckType:
		return decodeRadarModeChangeAck(r)
	case LSModeChangeAckType:
		return decodeLSModeChangeAck(r)
	case MissileLaunchAckType:
		return decodeMissileLaunchAck(r)
	case LSMoveAckType:
		return decodeLSMoveAck(r)
	default:
		return nil, fmt.Errorf("%w: %#02x", protocol.ErrUnknownCommand, uint8(typ))
	}
}

func decodeRadarModeChangeAck(r *reader) (Response, error) {
	a := &RadarModeChangeAck{
		RadarID: r.u32(),
		Mode:    RadarMode(r.u8()),
		Result:  AckResult(r.u8()),
	}
	if r.err == nil && !a.Mode.Valid() {
		r.fail("radar mode ack: invalid mode %d", a.Mode)
	}
	if r.err == nil && !a.Result.Valid() {
		r.fail("radar mode ack: invalid result %d", a.Result)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeLSModeChangeAck(r *reader) (Response, error) {
	a := &LSModeChangeAck{
		LSID:   r.u32(),
		Mode:   LSMode(r.u8()),
		Result: AckResult(r.u8()),
	}
	if r.err == nil && !a.Mode.Valid() {
		r.fail("ls mode ack: invalid mode %d", a.Mode)
	}
	if r.err == nil && !a.Result.Valid() {
		r.fail("ls mode ack: invalid result %d", a.Result)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeMissileLaunchAck(r *reader) (Response, error) {
	a := &MissileLaunchAck{
		LSID:      r.u32(),
		MissileID: r.u32(),
		TargetID:  r.u32(),
		Result:    AckResult(r.u8()),
	}
	if r.err == nil && !a.Result.Valid() {
		r.fail("missile launch ack: invalid result %d", a.Result)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeLSMoveAck(r *reader) (Response, error) {
	a := &LSMoveAck{
		LSID:   r.u32(),
		X:      r.f64(),
		Y:      r.f64(),
		Result: AckResult(r.u8()),
	}
	if r.err == nil && !a.Result.Valid() {
		r.fail("ls move ack: invalid result %d", a.Result)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return a, nil
}
