package simulator

import (
	"testing"
	"time"

	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/sim"
)

func testScenario() scenario.Scenario {
	return scenario.Scenario{
		Name:            "test",
		Tick:            100 * time.Millisecond,
		MissileSpeed:    1000,
		InterceptRadius: 10,
		Radars:          []scenario.Radar{{ID: 1, Mode: command.RadarSearch}},
		LCs:             []scenario.LC{{ID: 3, State: command.LCReady}},
		Launchers: []scenario.Launcher{
			{ID: 11, LC: 3, Missiles: 1, Mode: command.LSReady},
			{ID: 12, LC: 3, X: 100, Missiles: 0, Mode: command.LSStandby},
		},
		Targets: []scenario.Target{
			{ID: 1001, Kind: sim.TargetAircraft, Pos: sim.Vec3{0, 1000, 0}, Vel: sim.Vel3{10, 0, 0}, Threat: command.ThreatHigh},
		},
	}
}

func mustHandle(t *testing.T, w *World, req command.Request) command.Response {
	t.Helper()
	resp, err := w.Handle(req)
	if err != nil {
		t.Fatalf("handle %s: %v", req.RequestType(), err)
	}
	return resp
}

func TestStepMovesTargetsAtConstantVelocity(t *testing.T) {
	w := NewWorld(testScenario())
	for i := 0; i < 10; i++ {
		w.Step(100 * time.Millisecond)
	}
	reps := w.TargetReports()
	if len(reps) != 1 {
		t.Fatalf("reports: %+v", reps)
	}
	if reps[0].Tick != 10 || reps[0].Pos[0] < 9.99 || reps[0].Pos[0] > 10.01 {
		t.Fatalf("target after 1s: %+v", reps[0])
	}
}

func TestLaunchInterceptsTarget(t *testing.T) {
	w := NewWorld(testScenario())
	ack := mustHandle(t, w, &command.MissileLaunch{LSID: 11, TargetID: 1001}).(*command.MissileLaunchAck)
	if ack.Result != command.AckAccepted || ack.MissileID != firstMissileID {
		t.Fatalf("launch ack: %+v", ack)
	}

	again := mustHandle(t, w, &command.MissileLaunch{LSID: 11, TargetID: 1001}).(*command.MissileLaunchAck)
	if again.Result != command.AckRejected {
		t.Fatalf("launcher with no missiles accepted: %+v", again)
	}

	var last []sim.MissileSimData
	for i := 0; i < 20 && len(w.TargetReports()) > 0; i++ {
		w.Step(100 * time.Millisecond)
		last = w.MissileReports()
	}
	if len(w.TargetReports()) != 0 {
		t.Fatalf("target survived intercept")
	}
	if len(last) != 1 || last[0].State != sim.MissileIntercepted {
		t.Fatalf("final missile report: %+v", last)
	}
	if reps := w.MissileReports(); len(reps) != 0 {
		t.Fatalf("terminal missile reported twice: %+v", reps)
	}

	st := mustHandle(t, w, &command.StatusRequest{}).(*command.StatusResponse)
	if len(st.Missiles) != 1 || st.Missiles[0].State != command.MissileHit {
		t.Fatalf("status missiles: %+v", st.Missiles)
	}
}

func TestStatusReflectsWorld(t *testing.T) {
	w := NewWorld(testScenario())
	st := mustHandle(t, w, &command.StatusRequest{}).(*command.StatusResponse)
	if len(st.Radars) != 1 || !st.Radars[0].Operational {
		t.Fatalf("radars: %+v", st.Radars)
	}
	if len(st.LCs) != 1 || st.LCs[0].ConnectedLS != 2 {
		t.Fatalf("lcs: %+v", st.LCs)
	}
	if len(st.Targets) != 1 || st.Targets[0].Speed != 10 || st.Targets[0].HeadingDeg != 90 {
		t.Fatalf("targets: %+v", st.Targets)
	}
	if st.Targets[0].Threat != command.ThreatHigh {
		t.Fatalf("threat: %v", st.Targets[0].Threat)
	}
}

func TestModeAndMoveCommands(t *testing.T) {
	w := NewWorld(testScenario())

	if ack := mustHandle(t, w, &command.RadarModeChange{RadarID: 1, Mode: command.RadarTrack}).(*command.RadarModeChangeAck); ack.Result != command.AckAccepted {
		t.Fatalf("radar ack: %+v", ack)
	}
	if ack := mustHandle(t, w, &command.RadarModeChange{RadarID: 9, Mode: command.RadarTrack}).(*command.RadarModeChangeAck); ack.Result != command.AckRejected {
		t.Fatalf("unknown radar accepted")
	}
	if ack := mustHandle(t, w, &command.LSModeChange{LSID: 12, Mode: command.LSMoving}).(*command.LSModeChangeAck); ack.Result != command.AckRejected {
		t.Fatalf("direct moving mode accepted")
	}

	ack := mustHandle(t, w, &command.LSMove{LSID: 12, X: 100, Y: 30}).(*command.LSMoveAck)
	if ack.Result != command.AckAccepted {
		t.Fatalf("move ack: %+v", ack)
	}
	if ack := mustHandle(t, w, &command.LSModeChange{LSID: 12, Mode: command.LSReady}).(*command.LSModeChangeAck); ack.Result != command.AckRejected {
		t.Fatalf("mode change accepted while moving")
	}

	for i := 0; i < 20; i++ {
		w.Step(100 * time.Millisecond)
	}
	st := mustHandle(t, w, &command.StatusRequest{}).(*command.StatusResponse)
	ls := st.LSs[1]
	if ls.Mode != command.LSStandby || ls.X != 100 || ls.Y != 30 {
		t.Fatalf("launcher after move: %+v", ls)
	}
}

func TestHeading(t *testing.T) {
	cases := []struct {
		vx, vy float64
		want   float32
	}{
		{0, 1, 0}, {1, 0, 90}, {0, -1, 180}, {-1, 0, 270},
	}
	for _, tc := range cases {
		if got := heading(tc.vx, tc.vy); got != tc.want {
			t.Fatalf("heading(%v,%v)=%v want %v", tc.vx, tc.vy, got, tc.want)
		}
	}
}
