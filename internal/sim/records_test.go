package sim

import (
	"errors"
	"testing"

	"github.com/danmuck/mfrlink/internal/protocol"
	"github.com/danmuck/mfrlink/internal/protocol/frame"
)

func sampleTargets(n int) []TargetSimData {
	out := make([]TargetSimData, n)
	for i := range out {
		out[i] = TargetSimData{
			ID:   uint32(1000 + i),
			Kind: TargetAircraft,
			Pos:  Vec3{float64(i) * 10.5, -2500.25, 9000},
			Vel:  Vel3{220, float32(i), -1.5},
			Tick: 77,
		}
	}
	return out
}

func TestTargetBatchRoundTrip(t *testing.T) {
	in := sampleTargets(30)
	buf := frame.Encode[TargetSimData](TargetLayout{}, in, 5)
	if len(buf) != frame.HeaderSize+30*TargetSize {
		t.Fatalf("frame size got=%d", len(buf))
	}
	h, out, err := frame.Decode[TargetSimData](TargetLayout{}, buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.SeqID != 5 || h.Count != 30 {
		t.Fatalf("header: %+v", h)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("record %d: got=%+v want=%+v", i, out[i], in[i])
		}
	}
}

func TestMissileLegacyRoundTrip(t *testing.T) {
	in := MissileSimData{
		ID: 501, TargetID: 1001, State: MissileFlying,
		Pos: Vec3{1, 2, 3}, Vel: Vel3{400, 0, 50}, Tick: 12,
	}
	buf := frame.EncodeLegacy[MissileSimData](MissileLayout{}, TagMissile, in)
	if len(buf) != 1+MissileSize {
		t.Fatalf("legacy size got=%d", len(buf))
	}
	tag, out, err := frame.DecodeLegacy[MissileSimData](MissileLayout{}, buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tag != TagMissile || out != in {
		t.Fatalf("got tag=%#02x rec=%+v", tag, out)
	}
}

func TestLegacyLengthsDistinguishRecordTypes(t *testing.T) {
	target := frame.EncodeLegacy[TargetSimData](TargetLayout{}, TagTarget, sampleTargets(1)[0])
	if _, _, err := frame.DecodeLegacy[MissileSimData](MissileLayout{}, target); !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("target datagram decoded as missile: %v", err)
	}
	if frame.LegacySize(TargetSize) == frame.LegacySize(MissileSize) {
		t.Fatalf("legacy sizes collide")
	}
}

func TestParseTargetKind(t *testing.T) {
	for k := TargetUnknown; k <= TargetDrone; k++ {
		got, err := ParseTargetKind(k.String())
		if err != nil || got != k {
			t.Fatalf("kind %s: got=%v err=%v", k, got, err)
		}
	}
	if _, err := ParseTargetKind("balloon"); err == nil {
		t.Fatalf("expected error")
	}
}
