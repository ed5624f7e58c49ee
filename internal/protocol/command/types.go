package command

import "fmt"

// CommandType identifies the shape of a response payload.
type CommandType uint8

const (
	StatusResponseType     CommandType = 0x21
	RadarModeChangeAckType CommandType = 0x22
	LSModeChangeAckType    CommandType = 0x24
	MissileLaunchAckType   CommandType = 0x25
	LSMoveAckType          CommandType = 0x26
)

func (c CommandType) String() string {
	switch c {
	case StatusResponseType:
		return "STATUS_RESPONSE"
	case RadarModeChangeAckType:
		return "RADAR_MODE_CHANGE_ACK"
	case LSModeChangeAckType:
		return "LS_MODE_CHANGE_ACK"
	case MissileLaunchAckType:
		return "MISSILE_LAUNCH_ACK"
	case LSMoveAckType:
		return "LS_MOVE_ACK"
	default:
		return fmt.Sprintf("CommandType(%#02x)", uint8(c))
	}
}

// RequestType identifies the shape of a request payload.
type RequestType uint8

const (
	StatusRequestType   RequestType = 0x11
	RadarModeChangeType RequestType = 0x12
	LSModeChangeType    RequestType = 0x14
	MissileLaunchType   RequestType = 0x15
	LSMoveType          RequestType = 0x16
)

func (t RequestType) String() string {
	switch t {
	case StatusRequestType:
		return "STATUS_REQ"
	case RadarModeChangeType:
		return "RADAR_MODE_CHANGE"
	case LSModeChangeType:
		return "LS_MODE_CHANGE"
	case MissileLaunchType:
		return "MISSILE_LAUNCH"
	case LSMoveType:
		return "LS_MOVE"
	default:
		return fmt.Sprintf("RequestType(%#02x)", uint8(t))
	}
}

type RadarMode uint8

const (
	RadarStandby RadarMode = iota
	RadarSearch
	RadarTrack
)

func (m RadarMode) Valid() bool { return m <= RadarTrack }

func (m RadarMode) String() string {
	switch m {
	case RadarStandby:
		return "standby"
	case RadarSearch:
		return "search"
	case RadarTrack:
		return "track"
	default:
		return fmt.Sprintf("radar_mode(%d)", uint8(m))
	}
}

// ParseRadarMode accepts the names produced by String.
func ParseRadarMode(s string) (RadarMode, error) {
	for m := RadarStandby; m <= RadarTrack; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown radar mode %q", s)
}

// LCState is a launcher-controller state.
type LCState uint8

const (
	LCIdle LCState = iota
	LCInitializing
	LCReady
	LCFault
)

func (s LCState) Valid() bool { return s <= LCFault }

func (s LCState) String() string {
	switch s {
	case LCIdle:
		return "idle"
	case LCInitializing:
		return "initializing"
	case LCReady:
		return "ready"
	case LCFault:
		return "fault"
	default:
		return fmt.Sprintf("lc_state(%d)", uint8(s))
	}
}

// LSMode is a launcher-station mode.
type LSMode uint8

const (
	LSStandby LSMode = iota
	LSReady
	LSLaunching
	LSMoving
)

func (m LSMode) Valid() bool { return m <= LSMoving }

func (m LSMode) String() string {
	switch m {
	case LSStandby:
		return "standby"
	case LSReady:
		return "ready"
	case LSLaunching:
		return "launching"
	case LSMoving:
		return "moving"
	default:
		return fmt.Sprintf("ls_mode(%d)", uint8(m))
	}
}

func ParseLSMode(s string) (LSMode, error) {
	for m := LSStandby; m <= LSMoving; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown launcher mode %q", s)
}

type ThreatLevel uint8

const (
	ThreatNone ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
)

func (l ThreatLevel) Valid() bool { return l <= ThreatHigh }

func (l ThreatLevel) String() string {
	switch l {
	case ThreatNone:
		return "none"
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	default:
		return fmt.Sprintf("threat(%d)", uint8(l))
	}
}

type MissileState uint8

const (
	MissileReady MissileState = iota
	MissileInFlight
	MissileHit
	MissileMissed
)

func (s MissileState) Valid() bool { return s <= MissileMissed }

func (s MissileState) String() string {
	switch s {
	case MissileReady:
		return "ready"
	case MissileInFlight:
		return "in_flight"
	case MissileHit:
		return "hit"
	case MissileMissed:
		return "missed"
	default:
		return fmt.Sprintf("missile_state(%d)", uint8(s))
	}
}

type AckResult uint8

const (
	AckAccepted AckResult = iota
	AckRejected
)

func (a AckResult) Valid() bool { return a <= AckRejected }

func (a AckResult) String() string {
	switch a {
	case AckAccepted:
		return "accepted"
	case AckRejected:
		return "rejected"
	default:
		return fmt.Sprintf("ack(%d)", uint8(a))
	}
}
