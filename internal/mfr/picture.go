package mfr

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/danmuck/mfrlink/internal/sim"
)

type TargetTrack struct {
	ID        uint32    `json:"id"`
	Kind      string    `json:"kind"`
	Pos       sim.Vec3  `json:"pos"`
	Vel       sim.Vel3  `json:"vel"`
	Tick      uint32    `json:"tick"`
	Updates   uint64    `json:"updates"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

type MissileTrack struct {
	ID        uint32    `json:"id"`
	TargetID  uint32    `json:"target_id"`
	State     string    `json:"state"`
	Pos       sim.Vec3  `json:"pos"`
	Vel       sim.Vel3  `json:"vel"`
	Tick      uint32    `json:"tick"`
	Updates   uint64    `json:"updates"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Picture is the latest known state of every target and missile. A report
// older (by tick) than the one already held for the same id is ignored.
type Picture struct {
	mu       sync.RWMutex
	targets  map[uint32]*TargetTrack
	missiles map[uint32]*MissileTrack
	stale    uint64
	now      func() time.Time
}

func NewPicture() *Picture {
	return &Picture{
		targets:  make(map[uint32]*TargetTrack),
		missiles: make(map[uint32]*MissileTrack),
		now:      time.Now,
	}
}

func (p *Picture) UpdateTarget(rec sim.TargetSimData) {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.targets[rec.ID]
	if !ok {
		t = &TargetTrack{ID: rec.ID, FirstSeen: now}
		p.targets[rec.ID] = t
	} else if tickBefore(rec.Tick, t.Tick) {
		p.stale++
		return
	}
	t.Kind = rec.Kind.String()
	t.Pos = rec.Pos
	t.Vel = rec.Vel
	t.Tick = rec.Tick
	t.Updates++
	t.LastSeen = now
}

func (p *Picture) UpdateMissile(rec sim.MissileSimData) {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.missiles[rec.ID]
	if !ok {
		m = &MissileTrack{ID: rec.ID, FirstSeen: now}
		p.missiles[rec.ID] = m
	} else if tickBefore(rec.Tick, m.Tick) {
		p.stale++
		return
	}
	m.TargetID = rec.TargetID
	m.State = rec.State.String()
	m.Pos = rec.Pos
	m.Vel = rec.Vel
	m.Tick = rec.Tick
	m.Updates++
	m.LastSeen = now
}

// Targets returns a copy of every target track ordered by id.
func (p *Picture) Targets() []TargetTrack {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]TargetTrack, 0, len(p.targets))
	for _, t := range p.targets {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b TargetTrack) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Missiles returns a copy of every missile track ordered by id.
func (p *Picture) Missiles() []MissileTrack {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]MissileTrack, 0, len(p.missiles))
	for _, m := range p.missiles {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b MissileTrack) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (p *Picture) Counts() (targets, missiles int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.targets), len(p.missiles)
}

// StaleReports counts reports dropped because a newer tick was already held.
func (p *Picture) StaleReports() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stale
}

// Prune drops tracks not updated within maxAge.
func (p *Picture) Prune(maxAge time.Duration) (targets, missiles int) {
	cutoff := p.now().Add(-maxAge)
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.targets {
		if t.LastSeen.Before(cutoff) {
			delete(p.targets, id)
			targets++
		}
	}
	for id, m := range p.missiles {
		if m.LastSeen.Before(cutoff) {
			delete(p.missiles, id)
			missiles++
		}
	}
	return targets, missiles
}

// tickBefore compares simulator ticks with wrap-around.
func tickBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
