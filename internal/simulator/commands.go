package simulator

import (
	"fmt"
	"math"

	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/sim"
)

// Handle applies one control request and returns its response.
func (w *World) Handle(req command.Request) (command.Response, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch r := req.(type) {
	case *command.StatusRequest:
		return w.status(), nil
	case *command.RadarModeChange:
		return w.radarModeChange(r), nil
	case *command.LSModeChange:
		return w.lsModeChange(r), nil
	case *command.MissileLaunch:
		return w.launch(r), nil
	case *command.LSMove:
		return w.move(r), nil
	default:
		return nil, fmt.Errorf("simulator: unhandled request %T", req)
	}
}

func (w *World) status() *command.StatusResponse {
	out := &command.StatusResponse{
		Radars:   make([]command.RadarStatus, 0, len(w.radars)),
		LCs:      make([]command.LCStatus, 0, len(w.lcs)),
		LSs:      make([]command.LSStatus, 0, len(w.launchers)),
		Targets:  make([]command.TargetStatus, 0, len(w.targets)),
		Missiles: make([]command.MissileStatus, 0, len(w.missiles)),
	}
	for _, r := range w.radars {
		out.Radars = append(out.Radars, command.RadarStatus{
			RadarID: r.id, Mode: r.mode, AzimuthDeg: r.azimuth, ElevationDeg: r.elevation,
			Operational: r.mode != command.RadarStandby,
		})
	}
	for _, lc := range w.lcs {
		var connected uint8
		for _, l := range w.launchers {
			if l.lc == lc.ID && connected < math.MaxUint8 {
				connected++
			}
		}
		out.LCs = append(out.LCs, command.LCStatus{LCID: lc.ID, State: lc.State, ConnectedLS: connected})
	}
	for _, l := range w.launchers {
		out.LSs = append(out.LSs, command.LSStatus{
			LSID: l.id, Mode: l.mode, X: l.x, Y: l.y, AzimuthDeg: l.azimuth, MissilesLeft: l.missiles,
		})
	}
	for _, t := range w.targets {
		if !t.alive {
			continue
		}
		vx, vy, vz := float64(t.vel[0]), float64(t.vel[1]), float64(t.vel[2])
		out.Targets = append(out.Targets, command.TargetStatus{
			TargetID:   t.id,
			X:          t.pos[0],
			Y:          t.pos[1],
			Z:          t.pos[2],
			Speed:      float32(math.Sqrt(vx*vx + vy*vy + vz*vz)),
			HeadingDeg: heading(vx, vy),
			Threat:     t.threat,
		})
	}
	for _, m := range w.missiles {
		out.Missiles = append(out.Missiles, command.MissileStatus{
			MissileID: m.id, TargetID: m.targetID,
			X: m.pos[0], Y: m.pos[1], Z: m.pos[2],
			State: missileState(m.state),
		})
	}
	return out
}

func (w *World) radarModeChange(r *command.RadarModeChange) *command.RadarModeChangeAck {
	ack := &command.RadarModeChangeAck{RadarID: r.RadarID, Mode: r.Mode, Result: command.AckRejected}
	if rd := w.findRadar(r.RadarID); rd != nil {
		rd.mode = r.Mode
		ack.Result = command.AckAccepted
	}
	return ack
}

// lsModeChange rejects changes while a launcher is relocating; Moving itself
// is only entered through LSMove.
func (w *World) lsModeChange(r *command.LSModeChange) *command.LSModeChangeAck {
	ack := &command.LSModeChangeAck{LSID: r.LSID, Mode: r.Mode, Result: command.AckRejected}
	l := w.findLauncher(r.LSID)
	if l == nil || l.mode == command.LSMoving || r.Mode == command.LSMoving {
		return ack
	}
	l.mode = r.Mode
	ack.Result = command.AckAccepted
	return ack
}

func (w *World) launch(r *command.MissileLaunch) *command.MissileLaunchAck {
	ack := &command.MissileLaunchAck{LSID: r.LSID, TargetID: r.TargetID, Result: command.AckRejected}
	l := w.findLauncher(r.LSID)
	t := w.findTarget(r.TargetID)
	if l == nil || t == nil || !t.alive || l.missiles == 0 {
		return ack
	}
	if l.mode != command.LSReady && l.mode != command.LSLaunching {
		return ack
	}
	l.missiles--
	l.mode = command.LSLaunching
	id := w.nextID
	w.nextID++
	w.missiles = append(w.missiles, &missile{
		id:       id,
		targetID: t.id,
		pos:      sim.Vec3{l.x, l.y, 0},
		state:    sim.MissileFlying,
	})
	l.azimuth = heading(t.pos[0]-l.x, t.pos[1]-l.y)
	ack.MissileID = id
	ack.Result = command.AckAccepted
	return ack
}

func (w *World) move(r *command.LSMove) *command.LSMoveAck {
	ack := &command.LSMoveAck{LSID: r.LSID, X: r.X, Y: r.Y, Result: command.AckRejected}
	l := w.findLauncher(r.LSID)
	if l == nil || l.mode == command.LSLaunching {
		return ack
	}
	if l.mode != command.LSMoving {
		l.resumeMode = l.mode
	}
	l.destX, l.destY = r.X, r.Y
	l.mode = command.LSMoving
	ack.Result = command.AckAccepted
	return ack
}

// heading is the compass bearing in degrees of a planar velocity, with +y
// as north.
func heading(vx, vy float64) float32 {
	deg := math.Atan2(vx, vy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return float32(deg)
}

func missileState(s sim.MissileState) command.MissileState {
	switch s {
	case sim.MissileFlying:
		return command.MissileInFlight
	case sim.MissileIntercepted:
		return command.MissileHit
	case sim.MissileLost:
		return command.MissileMissed
	default:
		return command.MissileReady
	}
}
