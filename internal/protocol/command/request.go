package command

import (
	"fmt"

	"github.com/danmuck/mfrlink/internal/protocol"
)

// Request is the tagged result of ParseRequest.
type Request interface {
	RequestType() RequestType
	AppendBinary(b []byte) ([]byte, error)
}

type StatusRequest struct{}

func (*StatusRequest) RequestType() RequestType { return StatusRequestType }

func (*StatusRequest) AppendBinary(b []byte) ([]byte, error) {
	return append(b, byte(StatusRequestType)), nil
}

type RadarModeChange struct {
	RadarID uint32
	Mode    RadarMode
}

func (*RadarModeChange) RequestType() RequestType { return RadarModeChangeType }

func (m *RadarModeChange) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(RadarModeChangeType))
	b = appendU32(b, m.RadarID)
	return append(b, byte(m.Mode)), nil
}

type LSModeChange struct {
	LSID uint32
	Mode LSMode
}

func (*LSModeChange) RequestType() RequestType { return LSModeChangeType }

func (m *LSModeChange) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(LSModeChangeType))
	b = appendU32(b, m.LSID)
	return append(b, byte(m.Mode)), nil
}

type MissileLaunch struct {
	LSID     uint32
	TargetID uint32
}

func (*MissileLaunch) RequestType() RequestType { return MissileLaunchType }

func (m *MissileLaunch) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(MissileLaunchType))
	b = appendU32(b, m.LSID)
	return appendU32(b, m.TargetID), nil
}

type LSMove struct {
	LSID uint32
	X    float64
	Y    float64
}

func (*LSMove) RequestType() RequestType { return LSMoveType }

func (m *LSMove) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, byte(LSMoveType))
	b = appendU32(b, m.LSID)
	b = appendF64(b, m.X)
	return appendF64(b, m.Y), nil
}

func MarshalRequest(req Request) ([]byte, error) {
	return req.AppendBinary(nil)
}

// ParseRequest decodes one request payload with the same error taxonomy as
// ParseResponse.
func ParseRequest(buf []byte) (Request, error) {
	if len(buf) == 0 {
		return nil, protocol.ErrEmptyBuffer
	}
	r := newReader(buf[1:])
	var req Request
	switch typ := RequestType(buf[0]); typ {
	case StatusRequestType:
		req = &StatusRequest{}
	case RadarModeChangeType:
		m := &RadarModeChange{RadarID: r.u32(), Mode: RadarMode(r.u8())}
		if !m.Mode.Valid() {
			r.fail("radar mode change: invalid mode %d", m.Mode)
		}
		req = m
	case LSModeChangeType:
		m := &LSModeChange{LSID: r.u32(), Mode: LSMode(r.u8())}
		if !m.Mode.Valid() {
			r.fail("ls mode change: invalid mode %d", m.Mode)
		}
		req = m
	case MissileLaunchType:
		req = &MissileLaunch{LSID: r.u32(), TargetID: r.u32()}
	case LSMoveType:
		req = &LSMove{LSID: r.u32(), X: r.f64(), Y: r.f64()}
	default:
		return nil, fmt.Errorf("%w: request %#02x", protocol.ErrUnknownCommand, uint8(typ))
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return req, nil
}
