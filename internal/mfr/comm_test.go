package mfr

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/danmuck/mfrlink/internal/protocol/batch"
	"github.com/danmuck/mfrlink/internal/protocol/frame"
	"github.com/danmuck/mfrlink/internal/sim"
	"github.com/danmuck/mfrlink/internal/testutil/testlog"
	"github.com/danmuck/mfrlink/internal/transport"
)

func targets(n int, tick uint32) []sim.TargetSimData {
	out := make([]sim.TargetSimData, n)
	for i := range out {
		out[i] = sim.TargetSimData{
			ID:   uint32(1000 + i),
			Kind: sim.TargetAircraft,
			Pos:  sim.Vec3{float64(i), 2, 3},
			Vel:  sim.Vel3{-200, 0, 0},
			Tick: tick,
		}
	}
	return out
}

func newAttached() (*CommManager, *Picture) {
	m := NewCommManager(CommConfig{Stream: "test"})
	p := NewPicture()
	m.Attach(p)
	return m, p
}

func TestHandleDatagramBatchAndLegacy(t *testing.T) {
	testlog.Start(t)
	m, p := newAttached()

	sender := batch.NewSender[sim.TargetSimData](sim.TargetLayout{}, 0)
	for _, pkt := range sender.Split(targets(75, 1), 0) {
		m.HandleDatagram(pkt)
	}
	m.HandleDatagram(frame.EncodeLegacy[sim.MissileSimData](sim.MissileLayout{}, sim.TagMissile, sim.MissileSimData{ID: 501, TargetID: 1000, State: sim.MissileFlying, Tick: 1}))
	m.HandleDatagram(frame.EncodeLegacy[sim.TargetSimData](sim.TargetLayout{}, sim.TagTarget, sim.TargetSimData{ID: 2000, Tick: 1}))

	nt, nm := p.Counts()
	if nt != 76 || nm != 1 {
		t.Fatalf("picture counts targets=%d missiles=%d", nt, nm)
	}
	st := m.Stats()
	if st.Batch.TotalPackets != 3 || st.Batch.LossCount != 0 {
		t.Fatalf("batch stats: %+v", st.Batch)
	}
	if st.Batch.Delivered != 76 {
		t.Fatalf("delivered: %d", st.Batch.Delivered)
	}
	if st.LegacyMissiles != 1 || st.LegacyTargets != 1 || st.MissilesDelivered != 1 {
		t.Fatalf("legacy stats: %+v", st)
	}
}

func TestHandleDatagramCountsFailures(t *testing.T) {
	testlog.Start(t)
	m, p := newAttached()
	sender := batch.NewSender[sim.TargetSimData](sim.TargetLayout{}, 10)
	pkts := sender.Split(targets(30, 1), 0)

	corrupt := bytes.Clone(pkts[0])
	corrupt[len(corrupt)-1] ^= 0x01
	m.HandleDatagram(corrupt)
	m.HandleDatagram(pkts[2])
	m.HandleDatagram([]byte{0xD4, 0xC3})
	m.HandleDatagram(bytes.Repeat([]byte{0x09}, 20))
	wrongTag := frame.EncodeLegacy[sim.MissileSimData](sim.MissileLayout{}, sim.TagTarget, sim.MissileSimData{ID: 1})
	m.HandleDatagram(wrongTag)

	st := m.Stats()
	if st.Batch.IntegrityFailures != 1 {
		t.Fatalf("integrity: %+v", st.Batch)
	}
	if st.Batch.TotalPackets != 1 || st.Batch.LastSeqID != 2 {
		t.Fatalf("accepted: %+v", st.Batch)
	}
	if st.Batch.Malformed != 1 {
		t.Fatalf("malformed batch: %d", st.Batch.Malformed)
	}
	if st.LegacyMalformed != 2 {
		t.Fatalf("legacy malformed: %d", st.LegacyMalformed)
	}
	if nt, nm := p.Counts(); nt != 10 || nm != 0 {
		t.Fatalf("corrupt data reached picture: targets=%d missiles=%d", nt, nm)
	}
}

func TestHandleDatagramDetachedDrops(t *testing.T) {
	m, p := newAttached()
	m.Detach()
	sender := batch.NewSender[sim.TargetSimData](sim.TargetLayout{}, 0)
	for _, pkt := range sender.Split(targets(5, 1), 0) {
		m.HandleDatagram(pkt)
	}
	if nt, _ := p.Counts(); nt != 0 {
		t.Fatalf("detached picture received %d targets", nt)
	}
	if st := m.Stats(); st.Batch.Dropped != 5 || st.Batch.TotalPackets != 1 {
		t.Fatalf("stats: %+v", st.Batch)
	}
}

func TestCommManagerLoopback(t *testing.T) {
	testlog.Start(t)
	m := NewCommManager(CommConfig{Stream: "loop", ListenAddr: "127.0.0.1:0", PollTimeout: 20 * time.Millisecond})
	p := NewPicture()
	m.Attach(p)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()
	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}

	tx, err := transport.DialUDP(m.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer tx.Close()

	sender := batch.NewSender[sim.TargetSimData](sim.TargetLayout{}, 0)
	if n, err := sender.Send(tx, targets(75, 3)); err != nil || n != 3 {
		t.Fatalf("send n=%d err=%v", n, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if nt, _ := p.Counts(); nt == 75 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out; stats=%+v", m.Stats())
		}
		time.Sleep(10 * time.Millisecond)
	}
	st := m.Stats()
	if st.Batch.TotalPackets != 3 || st.Batch.LossCount != 0 || st.Transport.Packets != 3 {
		t.Fatalf("stats: %+v", st)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
