package board

import (
	"time"

	"github.com/sadopc/esiq/internal/task"
)

const historyCapacity = 50

type actionKind string

const (
	actionStatus        actionKind = "status change"
	actionDelete        actionKind = "delete"
	actionRate          actionKind = "rating"
	actionNotes         actionKind = "notes edit"
	actionLeverage      actionKind = "leverage change"
	actionTimeSensitive actionKind = "time-sensitive toggle"
)

// action snapshots enough of a task's prior state for its kind-specific
// inverse handler. Deletes also remember the position for re-insertion.
type action struct {
	kind   actionKind
	taskID string
	at     time.Time
	prior  task.Task
	index  int
}

// history is a bounded LIFO stack. When full, the oldest entry is evicted
// so recent actions always stay undoable.
type history struct {
	cap     int
	entries []action
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = 1
	}
	return &history{cap: capacity}
}

func (h *history) push(a action) {
	h.entries = append(h.entries, a)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

func (h *history) pop() (action, bool) {
	if len(h.entries) == 0 {
		return action{}, false
	}
	a := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return a, true
}

// restore puts a popped entry back on top, used when its kind turns out to
// have no inverse handler.
func (h *history) restore(a action) {
	h.entries = append(h.entries, a)
}

func (h *history) len() int { return len(h.entries) }

func (h *history) clear() { h.entries = nil }
