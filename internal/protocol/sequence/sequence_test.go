package sequence

import (
	"math"
	"sync"
	"testing"
)

func TestObserveReportsGaps(t *testing.T) {
	tr := NewTracker()
	seqs := []uint32{5, 6, 9, 10}
	want := []uint32{0, 0, 2, 0}
	for i, seq := range seqs {
		if got := tr.Observe(seq); got != want[i] {
			t.Fatalf("observe(%d) got=%d want=%d", seq, got, want[i])
		}
	}
	s := tr.Snapshot()
	if s.TotalPackets != 4 {
		t.Fatalf("unexpected total packets: %d", s.TotalPackets)
	}
	if s.LossCount != 2 {
		t.Fatalf("unexpected loss count: %d", s.LossCount)
	}
	if s.LastSeqID != 10 {
		t.Fatalf("unexpected last seq: %d", s.LastSeqID)
	}
}

func TestFirstObservationHasNoBaseline(t *testing.T) {
	tr := NewTracker()
	if got := tr.Observe(1000); got != 0 {
		t.Fatalf("first observe reported loss %d", got)
	}
	if got := tr.Observe(1001); got != 0 {
		t.Fatalf("consecutive observe reported loss %d", got)
	}
}

func TestObserveAcrossWrap(t *testing.T) {
	tr := NewTracker()
	tr.Observe(math.MaxUint32 - 1)
	if got := tr.Observe(math.MaxUint32); got != 0 {
		t.Fatalf("got=%d want=0", got)
	}
	if got := tr.Observe(0); got != 0 {
		t.Fatalf("wrap to zero got=%d want=0", got)
	}
	if got := tr.Observe(3); got != 2 {
		t.Fatalf("gap after wrap got=%d want=2", got)
	}

	tr2 := NewTracker()
	tr2.Observe(math.MaxUint32 - 1)
	if got := tr2.Observe(1); got != 2 {
		t.Fatalf("gap across wrap got=%d want=2", got)
	}
}

func TestObserveBehindLastCountsReorder(t *testing.T) {
	tr := NewTracker()
	tr.Observe(10)
	if got := tr.Observe(10); got != 0 {
		t.Fatalf("duplicate reported loss %d", got)
	}
	if got := tr.Observe(8); got != 0 {
		t.Fatalf("reordered reported loss %d", got)
	}
	s := tr.Snapshot()
	if s.Reordered != 2 || s.LossCount != 0 || s.TotalPackets != 3 || s.LastSeqID != 8 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestIntegrityFailureIsIndependent(t *testing.T) {
	tr := NewTracker()
	tr.IntegrityFailure()
	tr.IntegrityFailure()
	s := tr.Snapshot()
	if s.IntegrityFailures != 2 {
		t.Fatalf("unexpected integrity failures: %d", s.IntegrityFailures)
	}
	if s.TotalPackets != 0 || s.LossCount != 0 {
		t.Fatalf("integrity failure touched sequence state: %+v", s)
	}
	if got := tr.Observe(1); got != 0 {
		t.Fatalf("first observe after integrity failures reported loss %d", got)
	}
}

func TestLossRatio(t *testing.T) {
	if r := (Stats{}).LossRatio(); r != 0 {
		t.Fatalf("empty ratio %v", r)
	}
	r := Stats{TotalPackets: 3, LossCount: 1}.LossRatio()
	if r != 0.25 {
		t.Fatalf("unexpected ratio %v", r)
	}
}

func TestSnapshotWhileObserving(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint32(0); i < 1000; i++ {
			tr.Observe(i)
		}
	}()
	for i := 0; i < 100; i++ {
		_ = tr.Snapshot()
	}
	wg.Wait()
	if s := tr.Snapshot(); s.TotalPackets != 1000 || s.LossCount != 0 {
		t.Fatalf("unexpected final stats: %+v", s)
	}
}
