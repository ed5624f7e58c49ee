package batch

import (
	"sync"
	"sync/atomic"
)

// Consumer receives decoded records one at a time.
type Consumer[T any] interface {
	Deliver(rec T)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc[T any] func(rec T)

func (f ConsumerFunc[T]) Deliver(rec T) { f(rec) }

// Dispatcher fans a batch out to the attached consumer, one Deliver call per
// record in payload order. The lock is held for exactly one batch so batches
// from concurrent producers never interleave. Producers that feed the same
// consumer with different record types share one lock via NewDispatcher.
type Dispatcher[T any] struct {
	lock     sync.Locker
	consumer Consumer[T]

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher returns a dispatcher guarded by lock, or by its own mutex when
// lock is nil.
func NewDispatcher[T any](lock sync.Locker) *Dispatcher[T] {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Dispatcher[T]{lock: lock}
}

func (d *Dispatcher[T]) Attach(c Consumer[T]) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.consumer = c
}

// Detach marks the consumer as gone. It waits for an in-flight batch.
func (d *Dispatcher[T]) Detach() {
	d.Attach(nil)
}

// Dispatch delivers records in order. With no consumer attached the whole
// batch is dropped and Dispatch reports false; dropped batches are not retried.
func (d *Dispatcher[T]) Dispatch(records []T) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.consumer == nil {
		d.dropped.Add(uint64(len(records)))
		return false
	}
	for _, rec := range records {
		d.consumer.Deliver(rec)
	}
	d.delivered.Add(uint64(len(records)))
	return true
}

func (d *Dispatcher[T]) Delivered() uint64 { return d.delivered.Load() }

func (d *Dispatcher[T]) Dropped() uint64 { return d.dropped.Load() }
