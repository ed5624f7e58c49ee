package command

import (
	"fmt"
	"math"
)

// Fixed wire sizes of status list entries.
const (
	RadarStatusSize   = 14
	LCStatusSize      = 6
	LSStatusSize      = 26
	TargetStatusSize  = 37
	MissileStatusSize = 33
)

type RadarStatus struct {
	RadarID      uint32    `json:"radar_id"`
	Mode         RadarMode `json:"mode"`
	AzimuthDeg   float32   `json:"azimuth_deg"`
	ElevationDeg float32   `json:"elevation_deg"`
	Operational  bool      `json:"operational"`
}

// LCStatus is one launcher-controller status entry.
type LCStatus struct {
	LCID        uint32  `json:"lc_id"`
	State       LCState `json:"state"`
	ConnectedLS uint8   `json:"connected_ls"`
}

// LSStatus is one launcher-station status entry.
type LSStatus struct {
	LSID         uint32  `json:"ls_id"`
	Mode         LSMode  `json:"mode"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	AzimuthDeg   float32 `json:"azimuth_deg"`
	MissilesLeft uint8   `json:"missiles_left"`
}

type TargetStatus struct {
	TargetID   uint32      `json:"target_id"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Z          float64     `json:"z"`
	Speed      float32     `json:"speed"`
	HeadingDeg float32     `json:"heading_deg"`
	Threat     ThreatLevel `json:"threat"`
}

type MissileStatus struct {
	MissileID uint32       `json:"missile_id"`
	TargetID  uint32       `json:"target_id"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Z         float64      `json:"z"`
	State     MissileState `json:"state"`
}

// StatusResponse carries every list in wire order: radars, launcher
// controllers, launcher stations, targets, missiles.
type StatusResponse struct {
	Radars   []RadarStatus   `json:"radars"`
	LCs      []LCStatus      `json:"lcs"`
	LSs      []LSStatus      `json:"launchers"`
	Targets  []TargetStatus  `json:"targets"`
	Missiles []MissileStatus `json:"missiles"`
}

func (*StatusResponse) CommandType() CommandType { return StatusResponseType }

func (s *StatusResponse) AppendBinary(b []byte) ([]byte, error) {
	lists := []struct {
		name string
		n    int
	}{
		{"radar", len(s.Radars)},
		{"lc", len(s.LCs)},
		{"ls", len(s.LSs)},
		{"target", len(s.Targets)},
		{"missile", len(s.Missiles)},
	}
	for _, l := range lists {
		if l.n > math.MaxUint16 {
			return b, fmt.Errorf("command: %s list too long: %d", l.name, l.n)
		}
	}

	b = append(b, byte(StatusResponseType))
	b = appendU16(b, uint16(len(s.Radars)))
	for _, v := range s.Radars {
		b = appendU32(b, v.RadarID)
		b = append(b, byte(v.Mode))
		b = appendF32(b, v.AzimuthDeg)
		b = appendF32(b, v.ElevationDeg)
		b = appendBool(b, v.Operational)
	}
	b = appendU16(b, uint16(len(s.LCs)))
	for _, v := range s.LCs {
		b = appendU32(b, v.LCID)
		b = append(b, byte(v.State), v.ConnectedLS)
	}
	b = appendU16(b, uint16(len(s.LSs)))
	for _, v := range s.LSs {
		b = appendU32(b, v.LSID)
		b = append(b, byte(v.Mode))
		b = appendF64(b, v.X)
		b = appendF64(b, v.Y)
		b = appendF32(b, v.AzimuthDeg)
		b = append(b, v.MissilesLeft)
	}
	b = appendU16(b, uint16(len(s.Targets)))
	for _, v := range s.Targets {
		b = appendU32(b, v.TargetID)
		b = appendF64(b, v.X)
		b = appendF64(b, v.Y)
		b = appendF64(b, v.Z)
		b = appendF32(b, v.Speed)
		b = appendF32(b, v.HeadingDeg)
		b = append(b, byte(v.Threat))
	}
	b = appendU16(b, uint16(len(s.Missiles)))
	for _, v := range s.Missiles {
		b = appendU32(b, v.MissileID)
		b = appendU32(b, v.TargetID)
		b = appendF64(b, v.X)
		b = appendF64(b, v.Y)
		b = appendF64(b, v.Z)
		b = append(b, byte(v.State))
	}
	return b, nil
}

// decodeStatusResponse reads the five lists. A list whose declared count
// runs past the end fails the whole parse; partial lists are never returned.
func decodeStatusResponse(r *reader) (Response, error) {
	out := &StatusResponse{}

	n := r.count("radar", RadarStatusSize)
	out.Radars = make([]RadarStatus, n)
	for i := range out.Radars {
		v := &out.Radars[i]
		v.RadarID = r.u32()
		v.Mode = RadarMode(r.u8())
		v.AzimuthDeg = r.f32()
		v.ElevationDeg = r.f32()
		v.Operational = r.bool("radar.operational")
		if !v.Mode.Valid() {
			r.fail("radar %d: invalid mode %d", v.RadarID, v.Mode)
		}
	}

	n = r.count("lc", LCStatusSize)
	out.LCs = make([]LCStatus, n)
	for i := range out.LCs {
		v := &out.LCs[i]
		v.LCID = r.u32()
		v.State = LCState(r.u8())
		v.ConnectedLS = r.u8()
		if !v.State.Valid() {
			r.fail("lc %d: invalid state %d", v.LCID, v.State)
		}
	}

	n = r.count("ls", LSStatusSize)
	out.LSs = make([]LSStatus, n)
	for i := range out.LSs {
		v := &out.LSs[i]
		v.LSID = r.u32()
		v.Mode = LSMode(r.u8())
		v.X = r.f64()
		v.Y = r.f64()
		v.AzimuthDeg = r.f32()
		v.MissilesLeft = r.u8()
		if !v.Mode.Valid() {
			r.fail("ls %d: invalid mode %d", v.LSID, v.Mode)
		}
	}

	n = r.count("target", TargetStatusSize)
	out.Targets = make([]TargetStatus, n)
	for i := range out.Targets {
		v := &out.Targets[i]
		v.TargetID = r.u32()
		v.X = r.f64()
		v.Y = r.f64()
		v.Z = r.f64()
		v.Speed = r.f32()
		v.HeadingDeg = r.f32()
		v.Threat = ThreatLevel(r.u8())
		if !v.Threat.Valid() {
			r.fail("target %d: invalid threat %d", v.TargetID, v.Threat)
		}
	}

	n = r.count("missile", MissileStatusSize)
	out.Missiles = make([]MissileStatus, n)
	for i := range out.Missiles {
		v := &out.Missiles[i]
		v.MissileID = r.u32()
		v.TargetID = r.u32()
		v.X = r.f64()
		v.Y = r.f64()
		v.Z = r.f64()
		v.State = MissileState(r.u8())
		if !v.State.Valid() {
			r.fail("missile %d: invalid state %d", v.MissileID, v.State)
		}
	}

	if err := r.finish(); err != nil {
		return nil, err
	}
	return out, nil
}
