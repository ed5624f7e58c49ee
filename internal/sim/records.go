package sim

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/mfrlink/internal/protocol/frame"
)

// Legacy single-record datagram tags.
const (
	TagTarget  byte = 0x01
	TagMissile byte = 0x02
)

const (
	TargetSize  = 45
	MissileSize = 49
)

type Vec3 [3]float64

type Vel3 [3]float32

type TargetKind uint8

const (
	TargetUnknown TargetKind = iota
	TargetAircraft
	TargetCruiseMissile
	TargetBallistic
	TargetDrone
)

func (k TargetKind) String() string {
	switch k {
	case TargetUnknown:
		return "unknown"
	case TargetAircraft:
		return "aircraft"
	case TargetCruiseMissile:
		return "cruise_missile"
	case TargetBallistic:
		return "ballistic"
	case TargetDrone:
		return "drone"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseTargetKind accepts the names produced by String.
func ParseTargetKind(s string) (TargetKind, error) {
	for k := TargetUnknown; k <= TargetDrone; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("sim: unknown target kind %q", s)
}

// TargetSimData is the simulator's per-tick report for one target.
type TargetSimData struct {
	ID   uint32
	Kind TargetKind
	Pos  Vec3
	Vel  Vel3
	Tick uint32
}

type MissileState uint8

const (
	MissileIdle MissileState = iota
	MissileFlying
	MissileIntercepted
	MissileLost
)

func (s MissileState) String() string {
	switch s {
	case MissileIdle:
		return "idle"
	case MissileFlying:
		return "flying"
	case MissileIntercepted:
		return "intercepted"
	case MissileLost:
		return "lost"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// MissileSimData is the simulator's per-tick report for one interceptor.
type MissileSimData struct {
	ID       uint32
	TargetID uint32
	State    MissileState
	Pos      Vec3
	Vel      Vel3
	Tick     uint32
}

// TargetLayout is the frame.Layout for TargetSimData.
type TargetLayout struct{}

// MissileLayout is the frame.Layout for MissileSimData.
type MissileLayout struct{}

var (
	_ frame.Layout[TargetSimData]  = TargetLayout{}
	_ frame.Layout[MissileSimData] = MissileLayout{}
)

func (TargetLayout) Size() int { return TargetSize }

func (TargetLayout) Put(dst []byte, v TargetSimData) {
	_ = dst[TargetSize-1]
	binary.NativeEndian.PutUint32(dst[0:4], v.ID)
	dst[4] = byte(v.Kind)
	putVec3(dst[5:29], v.Pos)
	putVel3(dst[29:41], v.Vel)
	binary.NativeEndian.PutUint32(dst[41:45], v.Tick)
}

func (TargetLayout) Get(src []byte) TargetSimData {
	_ = src[TargetSize-1]
	return TargetSimData{
		ID:   binary.NativeEndian.Uint32(src[0:4]),
		Kind: TargetKind(src[4]),
		Pos:  getVec3(src[5:29]),
		Vel:  getVel3(src[29:41]),
		Tick: binary.NativeEndian.Uint32(src[41:45]),
	}
}

func (MissileLayout) Size() int { return MissileSize }

func (MissileLayout) Put(dst []byte, v MissileSimData) {
	_ = dst[MissileSize-1]
	binary.NativeEndian.PutUint32(dst[0:4], v.ID)
	binary.NativeEndian.PutUint32(dst[4:8], v.TargetID)
	dst[8] = byte(v.State)
	putVec3(dst[9:33], v.Pos)
	putVel3(dst[33:45], v.Vel)
	binary.NativeEndian.PutUint32(dst[45:49], v.Tick)
}

func (MissileLayout) Get(src []byte) MissileSimData {
	_ = src[MissileSize-1]
	return MissileSimData{
		ID:       binary.NativeEndian.Uint32(src[0:4]),
		TargetID: binary.NativeEndian.Uint32(src[4:8]),
		State:    MissileState(src[8]),
		Pos:      getVec3(src[9:33]),
		Vel:      getVel3(src[33:45]),
		Tick:     binary.NativeEndian.Uint32(src[45:49]),
	}
}

func putVec3(dst []byte, v Vec3) {
	for i, f := range v {
		binary.NativeEndian.PutUint64(dst[i*8:], math.Float64bits(f))
	}
}

func getVec3(src []byte) Vec3 {
	var v Vec3
	for i := range v {
		v[i] = math.Float64frombits(binary.NativeEndian.Uint64(src[i*8:]))
	}
	return v
}

func putVel3(dst []byte, v Vel3) {
	for i, f := range v {
		binary.NativeEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

func getVel3(src []byte) Vel3 {
	var v Vel3
	for i := range v {
		v[i] = math.Float32frombits(binary.NativeEndian.Uint32(src[i*4:]))
	}
	return v
}
