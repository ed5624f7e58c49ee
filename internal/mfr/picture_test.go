package mfr

import (
	"testing"
	"time"

	"github.com/danmuck/mfrlink/internal/sim"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestPicture() (*Picture, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	p := NewPicture()
	p.now = clk.now
	return p, clk
}

func TestPictureKeepsLatestTick(t *testing.T) {
	p, _ := newTestPicture()
	p.UpdateTarget(sim.TargetSimData{ID: 7, Kind: sim.TargetDrone, Pos: sim.Vec3{1, 1, 1}, Tick: 10})
	p.UpdateTarget(sim.TargetSimData{ID: 7, Kind: sim.TargetDrone, Pos: sim.Vec3{2, 2, 2}, Tick: 11})
	p.UpdateTarget(sim.TargetSimData{ID: 7, Kind: sim.TargetDrone, Pos: sim.Vec3{0, 0, 0}, Tick: 9})

	tracks := p.Targets()
	if len(tracks) != 1 {
		t.Fatalf("tracks: %+v", tracks)
	}
	if tracks[0].Tick != 11 || tracks[0].Pos != (sim.Vec3{2, 2, 2}) || tracks[0].Updates != 2 {
		t.Fatalf("track: %+v", tracks[0])
	}
	if tracks[0].Kind != "drone" {
		t.Fatalf("kind: %q", tracks[0].Kind)
	}
	if p.StaleReports() != 1 {
		t.Fatalf("stale: %d", p.StaleReports())
	}
}

func TestPictureTickWrapIsNewer(t *testing.T) {
	p, _ := newTestPicture()
	p.UpdateMissile(sim.MissileSimData{ID: 1, Tick: 0xFFFFFFFF})
	p.UpdateMissile(sim.MissileSimData{ID: 1, Tick: 0, State: sim.MissileFlying})
	m := p.Missiles()[0]
	if m.Tick != 0 || m.State != "flying" {
		t.Fatalf("wrapped tick not accepted: %+v", m)
	}
}

func TestPictureOrdersAndPrunes(t *testing.T) {
	p, clk := newTestPicture()
	p.UpdateTarget(sim.TargetSimData{ID: 30})
	p.UpdateTarget(sim.TargetSimData{ID: 10})
	p.UpdateMissile(sim.MissileSimData{ID: 5})

	clk.t = clk.t.Add(3 * time.Second)
	p.UpdateTarget(sim.TargetSimData{ID: 20, Tick: 1})

	got := p.Targets()
	if got[0].ID != 10 || got[1].ID != 20 || got[2].ID != 30 {
		t.Fatalf("order: %+v", got)
	}

	targets, missiles := p.Prune(2 * time.Second)
	if targets != 2 || missiles != 1 {
		t.Fatalf("pruned targets=%d missiles=%d", targets, missiles)
	}
	if nt, nm := p.Counts(); nt != 1 || nm != 0 {
		t.Fatalf("counts after prune: %d %d", nt, nm)
	}
}
