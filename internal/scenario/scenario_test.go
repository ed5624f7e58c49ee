package scenario

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/sim"
)

const sampleYAML = `
name: coastal
tick: 50ms
missileSpeed: 1200
radars:
  - id: 1
    mode: track
    azimuth: 90
lcs:
  - id: 3
launchers:
  - id: 11
    lc: 3
    position: [100, -50]
    missiles: 2
targets:
  - id: 1001
    kind: drone
    position: [1000, 2000, 300]
    velocity: [-10, 0, 0]
    threat: high
`

func TestLoadParsesEntitiesAndDefaults(t *testing.T) {
	sc, err := Load(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "coastal" || sc.Tick != 50*time.Millisecond || sc.MissileSpeed != 1200 {
		t.Fatalf("settings: %+v", sc)
	}
	if sc.InterceptRadius != Default().InterceptRadius {
		t.Fatalf("interceptRadius default not applied: %v", sc.InterceptRadius)
	}
	if len(sc.Radars) != 1 || sc.Radars[0].Mode != command.RadarTrack {
		t.Fatalf("radars: %+v", sc.Radars)
	}
	if sc.LCs[0].State != command.LCReady {
		t.Fatalf("lc default state: %v", sc.LCs[0].State)
	}
	ls := sc.Launchers[0]
	if ls.X != 100 || ls.Y != -50 || ls.Mode != command.LSReady || ls.Missiles != 2 {
		t.Fatalf("launcher: %+v", ls)
	}
	tg := sc.Targets[0]
	if tg.Kind != sim.TargetDrone || tg.Threat != command.ThreatHigh || tg.Pos != (sim.Vec3{1000, 2000, 300}) {
		t.Fatalf("target: %+v", tg)
	}
}

func TestLoadRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "name: x\nspeed: 3\n",
		"bad tick":      "tick: soon\n",
		"bad mode":      "radars:\n  - id: 1\n    mode: sweep\n",
		"duplicate id":  "targets:\n  - id: 5\n  - id: 5\n",
		"orphan ls":     "launchers:\n  - id: 11\n    lc: 9\n",
		"negative tick": "tick: -1s\n",
	}
	for name, doc := range cases {
		if _, err := Load(strings.NewReader(doc)); !errors.Is(err, ErrInvalidScenario) {
			t.Fatalf("%s: expected ErrInvalidScenario, got %v", name, err)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default scenario invalid: %v", err)
	}
}
