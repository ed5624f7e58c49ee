package simulator

import (
	"math"
	"sync"
	"time"

	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/sim"
)

const (
	firstMissileID = 501
	// missileLifetime bounds a pursuit in ticks before the missile is lost.
	missileLifetime = 600
	launcherSpeed   = 20.0
)

type radar struct {
	id        uint32
	mode      command.RadarMode
	azimuth   float32
	elevation float32
}

type launcher struct {
	id         uint32
	lc         uint32
	x, y       float64
	destX      float64
	destY      float64
	azimuth    float32
	missiles   uint8
	mode       command.LSMode
	resumeMode command.LSMode
}

type target struct {
	id     uint32
	kind   sim.TargetKind
	pos    sim.Vec3
	vel    sim.Vel3
	threat command.ThreatLevel
	alive  bool
}

type missile struct {
	id       uint32
	targetID uint32
	pos      sim.Vec3
	vel      sim.Vel3
	state    sim.MissileState
	age      uint32
	reported bool
}

// World is the simulated battlespace. All methods are safe for concurrent
// use; the tick loop and control handler share it.
type World struct {
	mu sync.Mutex

	tick            uint32
	missileSpeed    float64
	interceptRadius float64

	radars    []*radar
	lcs       []scenario.LC
	launchers []*launcher
	targets   []*target
	missiles  []*missile
	nextID    uint32
}

func NewWorld(sc scenario.Scenario) *World {
	w := &World{
		missileSpeed:    sc.MissileSpeed,
		interceptRadius: sc.InterceptRadius,
		lcs:             append([]scenario.LC(nil), sc.LCs...),
		nextID:          firstMissileID,
	}
	for _, r := range sc.Radars {
		w.radars = append(w.radars, &radar{id: r.ID, mode: r.Mode, azimuth: r.AzimuthDeg, elevation: r.ElevationDeg})
	}
	for _, l := range sc.Launchers {
		w.launchers = append(w.launchers, &launcher{
			id: l.ID, lc: l.LC, x: l.X, y: l.Y, azimuth: l.AzimuthDeg,
			missiles: l.Missiles, mode: l.Mode,
		})
	}
	for _, t := range sc.Targets {
		w.targets = append(w.targets, &target{id: t.ID, kind: t.Kind, pos: t.Pos, vel: t.Vel, threat: t.Threat, alive: true})
	}
	return w
}

func (w *World) Tick() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// Step advances the world by dt.
func (w *World) Step(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tick++
	sec := dt.Seconds()

	for _, t := range w.targets {
		if !t.alive {
			continue
		}
		for i := range t.pos {
			t.pos[i] += float64(t.vel[i]) * sec
		}
	}
	for _, l := range w.launchers {
		switch l.mode {
		case command.LSMoving:
			l.stepMove(sec)
		case command.LSLaunching:
			l.mode = command.LSReady
		}
	}
	for _, m := range w.missiles {
		if m.state == sim.MissileFlying {
			w.stepMissile(m, sec)
		}
	}
}

func (l *launcher) stepMove(sec float64) {
	dx, dy := l.destX-l.x, l.destY-l.y
	dist := math.Hypot(dx, dy)
	step := launcherSpeed * sec
	if dist <= step {
		l.x, l.y = l.destX, l.destY
		l.mode = l.resumeMode
		return
	}
	l.x += dx / dist * step
	l.y += dy / dist * step
}

func (w *World) stepMissile(m *missile, sec float64) {
	m.age++
	t := w.findTarget(m.targetID)
	if t == nil || !t.alive || m.age > missileLifetime {
		m.state = sim.MissileLost
		m.vel = sim.Vel3{}
		return
	}
	var d sim.Vec3
	for i := range d {
		d[i] = t.pos[i] - m.pos[i]
	}
	dist := norm(d)
	step := w.missileSpeed * sec
	if dist <= w.interceptRadius || dist <= step {
		m.pos = t.pos
		m.vel = sim.Vel3{}
		m.state = sim.MissileIntercepted
		t.alive = false
		return
	}
	for i := range d {
		u := d[i] / dist
		m.vel[i] = float32(u * w.missileSpeed)
		m.pos[i] += u * step
	}
}

// TargetReports returns one record per live target for the current tick.
func (w *World) TargetReports() []sim.TargetSimData {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sim.TargetSimData, 0, len(w.targets))
	for _, t := range w.targets {
		if !t.alive {
			continue
		}
		out = append(out, sim.TargetSimData{ID: t.id, Kind: t.kind, Pos: t.pos, Vel: t.vel, Tick: w.tick})
	}
	return out
}

// MissileReports returns flying missiles plus each terminal missile once.
func (w *World) MissileReports() []sim.MissileSimData {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sim.MissileSimData, 0, len(w.missiles))
	for _, m := range w.missiles {
		if m.reported {
			continue
		}
		if m.state != sim.MissileFlying {
			m.reported = true
		}
		out = append(out, sim.MissileSimData{
			ID: m.id, TargetID: m.targetID, State: m.state,
			Pos: m.pos, Vel: m.vel, Tick: w.tick,
		})
	}
	return out
}

func (w *World) findTarget(id uint32) *target {
	for _, t := range w.targets {
		if t.id == id {
			return t
		}
	}
	return nil
}

func (w *World) findLauncher(id uint32) *launcher {
	for _, l := range w.launchers {
		if l.id == id {
			return l
		}
	}
	return nil
}

func (w *World) findRadar(id uint32) *radar {
	for _, r := range w.radars {
		if r.id == id {
			return r
		}
	}
	return nil
}

func norm(v sim.Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
