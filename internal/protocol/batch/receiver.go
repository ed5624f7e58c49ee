package batch

import (
	"errors"
	"sync/atomic"

	"github.com/danmuck/mfrlink/internal/protocol"
	"github.com/danmuck/mfrlink/internal/protocol/frame"
	"github.com/danmuck/mfrlink/internal/protocol/sequence"
)

// Result is one accepted batch.
type Result[T any] struct {
	Header  frame.Header
	Records []T
	// Lost is the number of frames newly detected missing before this one.
	Lost uint32
}

// Stats combines sequence accounting with receiver-level counters.
type Stats struct {
	sequence.Stats
	Malformed uint64 `json:"malformed"`
	Delivered uint64 `json:"delivered_records"`
	Dropped   uint64 `json:"dropped_records"`
}

// Receiver validates inbound batch frames for one stream, accounts for loss
// and optionally dispatches decoded records. Decode and Handle must be called
// from a single goroutine (the stream's receive loop); Stats is safe from any.
type Receiver[T any] struct {
	layout     frame.Layout[T]
	tracker    *sequence.Tracker
	dispatcher *Dispatcher[T]
	malformed  atomic.Uint64
}

// NewReceiver builds a receiver with its own tracker. dispatcher may be nil
// for decode-only use.
func NewReceiver[T any](layout frame.Layout[T], dispatcher *Dispatcher[T]) *Receiver[T] {
	return &Receiver[T]{
		layout:     layout,
		tracker:    sequence.NewTracker(),
		dispatcher: dispatcher,
	}
}

// Decode validates b and returns its records. Integrity failures and
// malformed frames are counted and the whole frame is rejected. ErrNotBatch
// is returned uncounted so the caller can try alternate framing. The tracker
// only observes frames that passed the CRC check.
func (r *Receiver[T]) Decode(b []byte) (Result[T], error) {
	h, records, err := frame.Decode(r.layout, b)
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrIntegrity):
			r.tracker.IntegrityFailure()
		case errors.Is(err, protocol.ErrNotBatch):
		default:
			r.malformed.Add(1)
		}
		return Result[T]{}, err
	}
	lost := r.tracker.Observe(h.SeqID)
	return Result[T]{Header: h, Records: records, Lost: lost}, nil
}

// Handle decodes b and dispatches its records in order.
func (r *Receiver[T]) Handle(b []byte) (Result[T], error) {
	res, err := r.Decode(b)
	if err != nil {
		return res, err
	}
	if r.dispatcher != nil {
		r.dispatcher.Dispatch(res.Records)
	}
	return res, nil
}

func (r *Receiver[T]) RecordSize() int {
	return r.layout.Size()
}

func (r *Receiver[T]) Stats() Stats {
	s := Stats{
		Stats:     r.tracker.Snapshot(),
		Malformed: r.malformed.Load(),
	}
	if r.dispatcher != nil {
		s.Delivered = r.dispatcher.Delivered()
		s.Dropped = r.dispatcher.Dropped()
	}
	return s
}
