// Package timer integrates the external focus-timer collaborator. Finished
// focus sessions arrive over two redundant paths, a direct push and a
// storage poll, and the Relay funnels both into one outbound channel.
// Deduplication is deliberately not done here: the consumer folds reports
// idempotently by (task, timestamp), so double delivery is harmless.
package timer

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Report is one finished focus session attributed to a task.
type Report struct {
	TaskID     string
	Seconds    int64
	ReportedAt time.Time
}

// PollFunc reads pending reports from shared storage. It is called on every
// interval tick and on demand via PollNow.
type PollFunc func() ([]Report, error)

type Relay struct {
	mu       sync.Mutex
	poll     PollFunc
	interval time.Duration
	out      chan Report
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	dropped  uint64
	pollErr  atomic.Value // last poll error, for diagnostics
}

func NewRelay(poll PollFunc, interval time.Duration, bufferSize int) *Relay {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Relay{
		poll:     poll,
		interval: interval,
		out:      make(chan Report, bufferSize),
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// C is the merged stream of pushed and polled reports. It closes when the
// relay stops.
func (r *Relay) C() <-chan Report {
	return r.out
}

func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	go r.loop()
}

func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.stopCh)
	r.mu.Unlock()
	<-r.doneCh
}

// Push delivers a report over the direct path.
func (r *Relay) Push(rep Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return errors.New("timer: relay stopped")
	}
	select {
	case r.out <- rep:
	default:
		atomic.AddUint64(&r.dropped, 1)
	}
	return nil
}

// PollNow triggers an immediate storage poll, used when the app regains
// focus and cannot wait for the next tick.
func (r *Relay) PollNow() {
	select {
	case r.wakeup <- struct{}{}:
	default:
	}
}

// Dropped counts reports that found the outbound buffer full. Dropped
// pushed reports are still recoverable via the storage path.
func (r *Relay) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

// PollErr returns the most recent storage-poll error, nil if the last poll
// succeeded.
func (r *Relay) PollErr() error {
	if v, ok := r.pollErr.Load().(pollResult); ok {
		return v.err
	}
	return nil
}

type pollResult struct{ err error }

func (r *Relay) loop() {
	defer close(r.doneCh)
	defer close(r.out)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Drain whatever accumulated while the app was closed.
	r.pollOnce()

	for {
		select {
		case <-ticker.C:
			r.pollOnce()
		case <-r.wakeup:
			r.pollOnce()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Relay) pollOnce() {
	if r.poll == nil {
		return
	}
	reports, err := r.poll()
	if err != nil {
		r.pollErr.Store(pollResult{err: err})
		return
	}
	r.pollErr.Store(pollResult{})
	for _, rep := range reports {
		select {
		case r.out <- rep:
		case <-r.stopCh:
			return
		}
	}
}
