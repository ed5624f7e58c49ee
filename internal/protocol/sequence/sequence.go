// Package sequence accounts for batch loss from header sequence numbers.
//
// A Tracker belongs to exactly one inbound stream and is mutated only by that
// stream's receive loop. Counters are atomics so observers can take a
// Snapshot from other goroutines without locking the loop.
package sequence

import "sync/atomic"

// Stats is a point-in-time copy of a Tracker's counters.
type Stats struct {
	LastSeqID         uint32 `json:"last_seq_id"`
	TotalPackets      uint64 `json:"total_packets"`
	IntegrityFailures uint64 `json:"integrity_failures"`
	LossCount         uint64 `json:"loss_count"`
	Reordered         uint64 `json:"reordered"`
}

type Tracker struct {
	last      atomic.Uint32
	total     atomic.Uint64
	integrity atomic.Uint64
	loss      atomic.Uint64
	reordered atomic.Uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records seq from a CRC-validated batch and returns the number of
// packets newly detected as missing. The first observation has no baseline
// and reports zero.
//
// Gaps use uint32 arithmetic, so a forward gap across the wrap is counted
// correctly. A sequence number that lands behind the last one (duplicate or
// reordered datagram) reports zero loss and bumps Reordered instead of
// producing a near-2^32 gap.
func (t *Tracker) Observe(seq uint32) uint32 {
	var lost uint32
	if t.total.Load() > 0 {
		gap := seq - t.last.Load() - 1
		if int32(gap) < 0 {
			t.reordered.Add(1)
		} else {
			lost = gap
			t.loss.Add(uint64(lost))
		}
	}
	t.last.Store(seq)
	t.total.Add(1)
	return lost
}

// IntegrityFailure counts one batch dropped for a CRC mismatch. It never
// touches sequence state.
func (t *Tracker) IntegrityFailure() {
	t.integrity.Add(1)
}

func (t *Tracker) Snapshot() Stats {
	return Stats{
		LastSeqID:         t.last.Load(),
		TotalPackets:      t.total.Load(),
		IntegrityFailures: t.integrity.Load(),
		LossCount:         t.loss.Load(),
		Reordered:         t.reordered.Load(),
	}
}

// LossRatio returns lost/(lost+received), or 0 before any traffic.
func (s Stats) LossRatio() float64 {
	denom := s.LossCount + s.TotalPackets
	if denom == 0 {
		return 0
	}
	return float64(s.LossCount) / float64(denom)
}
