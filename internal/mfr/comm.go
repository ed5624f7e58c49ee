package mfr

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/observability"
	"github.com/danmuck/mfrlink/internal/protocol"
	"github.com/danmuck/mfrlink/internal/protocol/batch"
	"github.com/danmuck/mfrlink/internal/protocol/frame"
	"github.com/danmuck/mfrlink/internal/sim"
	"github.com/danmuck/mfrlink/internal/transport"
)

var ErrCommStarted = errors.New("mfr: comm manager already started")

type CommConfig struct {
	Stream      string
	ListenAddr  string
	BufferSize  int
	PollTimeout time.Duration
}

func DefaultCommConfig() CommConfig {
	return CommConfig{
		Stream:      "sim",
		ListenAddr:  "0.0.0.0:9870",
		BufferSize:  transport.DefaultReadBufferSize,
		PollTimeout: transport.DefaultPollTimeout,
	}
}

// CommManager receives one simulator UDP channel. Batch frames carry target
// records; single-record legacy datagrams carry targets or missiles and are
// told apart by length. Both record types reach the consumer through
// dispatchers sharing one lock, so a batch is never interleaved with a
// legacy record.
type CommManager struct {
	cfg CommConfig

	lock     sync.Mutex
	targets  *batch.Dispatcher[sim.TargetSimData]
	missiles *batch.Dispatcher[sim.MissileSimData]
	batches  *batch.Receiver[sim.TargetSimData]

	legacyTargets   atomic.Uint64
	legacyMissiles  atomic.Uint64
	legacyMalformed atomic.Uint64

	rxMu sync.Mutex
	rx   *transport.UDPReceiver
}

func NewCommManager(cfg CommConfig) *CommManager {
	if cfg.Stream == "" {
		cfg.Stream = DefaultCommConfig().Stream
	}
	m := &CommManager{cfg: cfg}
	m.targets = batch.NewDispatcher[sim.TargetSimData](&m.lock)
	m.missiles = batch.NewDispatcher[sim.MissileSimData](&m.lock)
	m.batches = batch.NewReceiver[sim.TargetSimData](sim.TargetLayout{}, m.targets)
	return m
}

// Attach routes decoded records into p.
func (m *CommManager) Attach(p *Picture) {
	m.targets.Attach(batch.ConsumerFunc[sim.TargetSimData](p.UpdateTarget))
	m.missiles.Attach(batch.ConsumerFunc[sim.MissileSimData](p.UpdateMissile))
}

// Detach stops delivery; records that arrive afterwards are dropped.
func (m *CommManager) Detach() {
	m.targets.Detach()
	m.missiles.Detach()
}

// Start binds the UDP channel and launches its receive loop.
func (m *CommManager) Start(ctx context.Context) error {
	m.rxMu.Lock()
	defer m.rxMu.Unlock()
	if m.rx != nil {
		return ErrCommStarted
	}
	rx, err := transport.ListenUDP(m.cfg.ListenAddr, transport.UDPReceiverConfig{
		Name:        m.cfg.Stream,
		BufferSize:  m.cfg.BufferSize,
		PollTimeout: m.cfg.PollTimeout,
	}, func(payload []byte, _ net.Addr) {
		m.HandleDatagram(payload)
	})
	if err != nil {
		return err
	}
	if err := rx.Start(ctx); err != nil {
		_ = rx.Stop()
		return err
	}
	m.rx = rx
	return nil
}

// Stop joins the receive loop and closes the socket.
func (m *CommManager) Stop() error {
	m.rxMu.Lock()
	rx := m.rx
	m.rxMu.Unlock()
	if rx == nil {
		return nil
	}
	return rx.Stop()
}

func (m *CommManager) Addr() net.Addr {
	m.rxMu.Lock()
	defer m.rxMu.Unlock()
	if m.rx == nil {
		return nil
	}
	return m.rx.Addr()
}

// HandleDatagram decodes and dispatches one datagram. It is called from the
// receive loop and by offline replay; it must not be called concurrently.
func (m *CommManager) HandleDatagram(payload []byte) {
	stream := m.cfg.Stream
	res, err := m.batches.Handle(payload)
	switch {
	case err == nil:
		observability.RecordPacket(stream, protocol.Kind(nil))
		observability.RecordLoss(stream, res.Lost)
		observability.SetLastSeq(stream, res.Header.SeqID)
		observability.RecordRecords(stream, "target", len(res.Records))
		if res.Lost > 0 {
			logs.Debugf("mfr.CommManager.HandleDatagram stream=%s seq=%d lost=%d", stream, res.Header.SeqID, res.Lost)
		}
	case errors.Is(err, protocol.ErrNotBatch):
		m.handleLegacy(payload)
	default:
		kind := protocol.Kind(err)
		observability.RecordPacket(stream, kind)
		logs.Warnf("mfr.CommManager.HandleDatagram stream=%s dropped kind=%s bytes=%d err=%v", stream, kind, len(payload), err)
	}
}

func (m *CommManager) handleLegacy(payload []byte) {
	stream := m.cfg.Stream
	switch len(payload) {
	case frame.LegacySize(sim.TargetSize):
		tag, rec, err := frame.DecodeLegacy[sim.TargetSimData](sim.TargetLayout{}, payload)
		if err != nil || tag != sim.TagTarget {
			m.legacyRejected(len(payload), tag)
			return
		}
		m.legacyTargets.Add(1)
		m.targets.Dispatch([]sim.TargetSimData{rec})
		observability.RecordPacket(stream, "legacy")
		observability.RecordRecords(stream, "target", 1)
	case frame.LegacySize(sim.MissileSize):
		tag, rec, err := frame.DecodeLegacy[sim.MissileSimData](sim.MissileLayout{}, payload)
		if err != nil || tag != sim.TagMissile {
			m.legacyRejected(len(payload), tag)
			return
		}
		m.legacyMissiles.Add(1)
		m.missiles.Dispatch([]sim.MissileSimData{rec})
		observability.RecordPacket(stream, "legacy")
		observability.RecordRecords(stream, "missile", 1)
	default:
		var tag byte
		if len(payload) > 0 {
			tag = payload[0]
		}
		m.legacyRejected(len(payload), tag)
	}
}

func (m *CommManager) legacyRejected(size int, tag byte) {
	m.legacyMalformed.Add(1)
	observability.RecordPacket(m.cfg.Stream, "malformed")
	logs.Warnf("mfr.CommManager.handleLegacy stream=%s unrecognised datagram bytes=%d tag=%#02x", m.cfg.Stream, size, tag)
}

type CommStats struct {
	Stream            string                     `json:"stream"`
	Batch             batch.Stats                `json:"batch"`
	LossRatio         float64                    `json:"loss_ratio"`
	LegacyTargets     uint64                     `json:"legacy_targets"`
	LegacyMissiles    uint64                     `json:"legacy_missiles"`
	LegacyMalformed   uint64                     `json:"legacy_malformed"`
	MissilesDelivered uint64                     `json:"missiles_delivered"`
	MissilesDropped   uint64                     `json:"missiles_dropped"`
	Transport         transport.UDPReceiverStats `json:"transport"`
}

func (m *CommManager) Stats() CommStats {
	bs := m.batches.Stats()
	st := CommStats{
		Stream:            m.cfg.Stream,
		Batch:             bs,
		LossRatio:         bs.LossRatio(),
		LegacyTargets:     m.legacyTargets.Load(),
		LegacyMissiles:    m.legacyMissiles.Load(),
		LegacyMalformed:   m.legacyMalformed.Load(),
		MissilesDelivered: m.missiles.Delivered(),
		MissilesDropped:   m.missiles.Dropped(),
	}
	m.rxMu.Lock()
	if m.rx != nil {
		st.Transport = m.rx.Stats()
	}
	m.rxMu.Unlock()
	return st
}
