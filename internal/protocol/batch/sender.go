package batch

import (
	"fmt"
	"io"
	"sync"

	"github.com/danmuck/mfrlink/internal/protocol/frame"
)

const (
	// DefaultRecordsPerPacket keeps 45-50 byte simulation records well under
	// a 1500 byte link MTU.
	DefaultRecordsPerPacket = 30
	DefaultMTU              = 1500
)

// RecordsPerMTU returns how many records of recordSize fit in one frame of at
// most mtu bytes. It never returns less than one.
func RecordsPerMTU(mtu, recordSize int) int {
	if recordSize <= 0 {
		return DefaultRecordsPerPacket
	}
	n := (mtu - frame.HeaderSize) / recordSize
	if n < 1 {
		return 1
	}
	return n
}

// Sender splits record sets into batch frames. The sequence counter lives for
// the lifetime of the Sender and is shared by every call.
type Sender[T any] struct {
	layout       frame.Layout[T]
	maxPerPacket int

	mu   sync.Mutex
	next uint32
}

// NewSender builds a sender; maxPerPacket <= 0 selects DefaultRecordsPerPacket.
func NewSender[T any](layout frame.Layout[T], maxPerPacket int) *Sender[T] {
	if maxPerPacket <= 0 {
		maxPerPacket = DefaultRecordsPerPacket
	}
	return &Sender[T]{layout: layout, maxPerPacket: maxPerPacket}
}

func (s *Sender[T]) MaxPerPacket() int {
	return s.maxPerPacket
}

// NextSeq returns the sequence number the next frame will carry.
func (s *Sender[T]) NextSeq() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Split encodes records into consecutive frames of at most maxPerPacket
// records (the sender default when maxPerPacket <= 0). Frames from one call
// carry contiguous, strictly increasing sequence numbers.
func (s *Sender[T]) Split(records []T, maxPerPacket int) [][]byte {
	if maxPerPacket <= 0 {
		maxPerPacket = s.maxPerPacket
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, 0, (len(records)+maxPerPacket-1)/maxPerPacket)
	for i := 0; i < len(records); i += maxPerPacket {
		end := min(i+maxPerPacket, len(records))
		out = append(out, frame.Encode(s.layout, records[i:end], s.next))
		s.next++
	}
	return out
}

// Send encodes and writes records one frame at a time. A frame whose write
// fails still consumes its sequence number, so the peer sees the gap as loss.
// It returns the number of frames written.
func (s *Sender[T]) Send(w io.Writer, records []T) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent := 0
	for i := 0; i < len(records); i += s.maxPerPacket {
		end := min(i+s.maxPerPacket, len(records))
		seq := s.next
		buf := frame.Encode(s.layout, records[i:end], seq)
		s.next++
		if _, err := w.Write(buf); err != nil {
			return sent, fmt.Errorf("batch: send seq=%d: %w", seq, err)
		}
		sent++
	}
	return sent, nil
}
