package timer

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func recvReport(t *testing.T, ch <-chan Report) Report {
	t.Helper()
	select {
	case rep, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return rep
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for report")
	}
	return Report{}
}

// pollStub hands out queued reports once, then empties.
type pollStub struct {
	mu      sync.Mutex
	pending []Report
	calls   int
	err     error
}

func (p *pollStub) poll() ([]Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := p.pending
	p.pending = nil
	return out, nil
}

func (p *pollStub) queue(reps ...Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, reps...)
}

func (p *pollStub) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// ============================================================
// Push path
// ============================================================

func TestPushDelivers(t *testing.T) {
	r := NewRelay(nil, time.Hour, 4)
	r.Start()
	defer r.Stop()

	want := Report{TaskID: "t1", Seconds: 1500, ReportedAt: time.Now().UTC()}
	if err := r.Push(want); err != nil {
		t.Fatal(err)
	}
	got := recvReport(t, r.C())
	if got.TaskID != want.TaskID || got.Seconds != want.Seconds {
		t.Fatalf("got %+v", got)
	}
}

func TestPushFullBufferDrops(t *testing.T) {
	r := NewRelay(nil, time.Hour, 1)
	r.Start()
	defer r.Stop()

	r.Push(Report{TaskID: "a", Seconds: 1})
	r.Push(Report{TaskID: "b", Seconds: 1})
	if r.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", r.Dropped())
	}
}

func TestPushAfterStop(t *testing.T) {
	r := NewRelay(nil, time.Hour, 1)
	r.Start()
	r.Stop()
	if err := r.Push(Report{TaskID: "a"}); err == nil {
		t.Fatal("expected error after stop")
	}
}

// ============================================================
// Poll path
// ============================================================

func TestStartupPollDrainsBacklog(t *testing.T) {
	stub := &pollStub{}
	stub.queue(
		Report{TaskID: "t1", Seconds: 300, ReportedAt: time.Now()},
		Report{TaskID: "t2", Seconds: 600, ReportedAt: time.Now()},
	)
	r := NewRelay(stub.poll, time.Hour, 4)
	r.Start()
	defer r.Stop()

	first := recvReport(t, r.C())
	second := recvReport(t, r.C())
	if first.TaskID != "t1" || second.TaskID != "t2" {
		t.Fatalf("got %q then %q", first.TaskID, second.TaskID)
	}
}

func TestPollNowTriggersImmediatePoll(t *testing.T) {
	stub := &pollStub{}
	r := NewRelay(stub.poll, time.Hour, 4)
	r.Start()
	defer r.Stop()

	// Wait out the startup poll.
	deadline := time.Now().Add(2 * time.Second)
	for stub.callCount() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("startup poll never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stub.queue(Report{TaskID: "t1", Seconds: 120, ReportedAt: time.Now()})
	r.PollNow()
	if got := recvReport(t, r.C()); got.TaskID != "t1" {
		t.Fatalf("got %+v", got)
	}
}

func TestIntervalTickPolls(t *testing.T) {
	stub := &pollStub{}
	r := NewRelay(stub.poll, 10*time.Millisecond, 4)
	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for stub.callCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d polls", stub.callCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPollErrRecorded(t *testing.T) {
	stub := &pollStub{err: errors.New("db locked")}
	r := NewRelay(stub.poll, 10*time.Millisecond, 4)
	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.PollErr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("poll error never surfaced")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Recovery clears it.
	stub.mu.Lock()
	stub.err = nil
	stub.mu.Unlock()
	r.PollNow()
	deadline = time.Now().Add(2 * time.Second)
	for r.PollErr() != nil {
		if time.Now().After(deadline) {
			t.Fatal("poll error never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ============================================================
// Lifecycle
// ============================================================

func TestStopClosesChannel(t *testing.T) {
	r := NewRelay(nil, time.Hour, 1)
	r.Start()
	r.Stop()
	select {
	case _, ok := <-r.C():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestStartIdempotent(t *testing.T) {
	r := NewRelay(nil, time.Hour, 1)
	r.Start()
	r.Start()
	r.Stop()
	r.Stop()
}

// Both paths delivering the same report is expected; dedup happens in the
// consumer's fold.
func TestSameReportOnBothPaths(t *testing.T) {
	at := time.Now().UTC()
	rep := Report{TaskID: "t1", Seconds: 1500, ReportedAt: at}
	stub := &pollStub{}
	stub.queue(rep)
	r := NewRelay(stub.poll, time.Hour, 4)
	r.Start()
	defer r.Stop()

	if err := r.Push(rep); err != nil {
		t.Fatal(err)
	}
	first := recvReport(t, r.C())
	second := recvReport(t, r.C())
	if first.TaskID != "t1" || second.TaskID != "t1" {
		t.Fatal("both deliveries must come through the merged stream")
	}
}
