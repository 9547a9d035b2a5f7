package board

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sadopc/esiq/internal/task"
)

var (
	ErrInvalidTransition = errors.New("board: invalid status transition")
	ErrNothingToUndo     = errors.New("board: nothing to undo")
	ErrCannotUndo        = errors.New("board: cannot undo this action")
)

// Persister receives the full task snapshot after every mutation, and the
// newest folded report timestamp after every time fold. Writes are
// best-effort: on failure the in-memory state stays authoritative.
type Persister interface {
	SaveTasks(tasks []task.Task) error
	SaveReportCursor(at time.Time) error
}

type reportKey struct {
	taskID string
	at     int64 // unix nanos of the report timestamp
}

// Board owns the ordered task collection, the per-column filter state, the
// undo history and the time-report dedup set. It is not safe for
// concurrent use; all mutations happen on the UI loop.
type Board struct {
	tasks   []*task.Task
	filters map[Column]*FilterSet
	history *history
	seen    map[reportKey]struct{}
	cursor  time.Time // reports at or before this were folded in an earlier run
	persist Persister
}

func New(p Persister) *Board {
	return &Board{
		filters: map[Column]*FilterSet{
			ColumnPrioritized: NewFilterSet(),
			ColumnInProgress:  NewFilterSet(),
			ColumnCompleted:   NewFilterSet(),
		},
		history: newHistory(historyCapacity),
		seen:    make(map[reportKey]struct{}),
		persist: p,
	}
}

// Load replaces the collection with an already-normalized snapshot.
func (b *Board) Load(tasks []task.Task) {
	b.tasks = b.tasks[:0]
	for i := range tasks {
		t := tasks[i]
		b.tasks = append(b.tasks, &t)
	}
}

// SeedReportCursor marks every report at or before at as already folded.
// The persisted TimeSpent values include those seconds, so redelivering
// them after a restart must not count twice.
func (b *Board) SeedReportCursor(at time.Time) {
	b.cursor = at
}

func (b *Board) Len() int { return len(b.tasks) }

// Tasks returns a copy of the full collection in insertion order.
func (b *Board) Tasks() []task.Task {
	out := make([]task.Task, len(b.tasks))
	for i, t := range b.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (b *Board) Get(id string) (task.Task, bool) {
	if t := b.find(id); t != nil {
		return t.Clone(), true
	}
	return task.Task{}, false
}

func (b *Board) find(id string) *task.Task {
	for _, t := range b.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// BrainDump creates one unrated task per non-blank line and returns them.
func (b *Board) BrainDump(text string) []task.Task {
	now := time.Now()
	var created []task.Task
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		t := task.New(line, now)
		b.tasks = append(b.tasks, t)
		created = append(created, t.Clone())
	}
	if len(created) > 0 {
		b.save()
	}
	return created
}

// Unpack breaks a task into subtasks. The subtasks go through the normal
// creation path and inherit nothing from the parent.
func (b *Board) Unpack(parentID, text string) []task.Task {
	if b.find(parentID) == nil {
		return nil
	}
	return b.BrainDump(text)
}

// Rate moves an unrated task to prioritized, assigning its score. The
// rating is validated at this boundary; nothing mutates on failure.
func (b *Board) Rate(id string, r task.Rating) error {
	t := b.find(id)
	if t == nil {
		return nil
	}
	if t.Status != task.StatusUnrated {
		return fmt.Errorf("%w: %s is already rated", ErrInvalidTransition, t.Status)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	b.record(actionRate, t)
	applyRating(t, r)
	b.save()
	return nil
}

// RateAll applies every staged rating that is complete and in range,
// silently skipping the rest. Returns the number of tasks rated.
func (b *Board) RateAll(staged map[string]task.Rating) int {
	n := 0
	for _, t := range b.tasks {
		if t.Status != task.StatusUnrated {
			continue
		}
		r, ok := staged[t.ID]
		if !ok || r.Validate() != nil {
			continue
		}
		b.record(actionRate, t)
		applyRating(t, r)
		n++
	}
	if n > 0 {
		b.save()
	}
	return n
}

func applyRating(t *task.Task, r task.Rating) {
	t.Energy = r.Energy
	t.Simplicity = r.Simplicity
	t.Impact = r.Impact
	t.Score = r.Score()
	t.Leverage = r.Leverage
	t.Status = task.StatusPrioritized
}

// Start moves a prioritized task into progress.
func (b *Board) Start(id string) error {
	t := b.find(id)
	if t == nil {
		return nil
	}
	if t.Status != task.StatusPrioritized {
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, t.Status)
	}
	b.record(actionStatus, t)
	t.Status = task.StatusInProgress
	b.save()
	return nil
}

// Complete finishes an in-progress task, stamping the completion date.
// refl may be nil when the reflection is skipped.
func (b *Board) Complete(id string, refl *task.Reflection) error {
	t := b.find(id)
	if t == nil {
		return nil
	}
	if t.Status != task.StatusInProgress {
		return fmt.Errorf("%w: cannot complete from %s", ErrInvalidTransition, t.Status)
	}
	if refl != nil {
		if err := refl.Validate(); err != nil {
			return err
		}
	}
	b.record(actionStatus, t)
	t.Status = task.StatusComplete
	d := dateOf(time.Now())
	t.CompletedAt = &d
	if refl != nil {
		applyReflection(t, *refl)
	}
	b.save()
	return nil
}

// SaveReflection sets or updates the actual ratings. Updating an
// already-complete task does not re-stamp the completion date.
func (b *Board) SaveReflection(id string, refl task.Reflection) error {
	t := b.find(id)
	if t == nil {
		return nil
	}
	if err := refl.Validate(); err != nil {
		return err
	}
	applyReflection(t, refl)
	b.save()
	return nil
}

func applyReflection(t *task.Task, r task.Reflection) {
	t.ActualEnergy = r.Energy
	t.ActualSimplicity = r.Simplicity
	t.ActualImpact = r.Impact
	t.QuickReflection = strings.TrimSpace(r.Note)
}

// UndoCompletion walks a completed task back to in-progress. The
// completion date is cleared; actual ratings are kept.
func (b *Board) UndoCompletion(id string) error {
	t := b.find(id)
	if t == nil {
		return nil
	}
	if t.Status != task.StatusComplete {
		return fmt.Errorf("%w: %s is not complete", ErrInvalidTransition, t.Status)
	}
	b.record(actionStatus, t)
	t.Status = task.StatusInProgress
	t.CompletedAt = nil
	b.save()
	return nil
}

// SendBack walks one step backwards: in-progress -> prioritized keeps the
// rating, prioritized -> unrated clears score, axes and leverage.
func (b *Board) SendBack(id string) error {
	t := b.find(id)
	if t == nil {
		return nil
	}
	switch t.Status {
	case task.StatusInProgress:
		b.record(actionStatus, t)
		t.Status = task.StatusPrioritized
	case task.StatusPrioritized:
		b.record(actionStatus, t)
		t.Status = task.StatusUnrated
		t.Energy, t.Simplicity, t.Impact, t.Score = 0, 0, 0, 0
		t.Leverage = task.LeverageNone
	default:
		return fmt.Errorf("%w: cannot send back from %s", ErrInvalidTransition, t.Status)
	}
	b.save()
	return nil
}

// Delete removes a task from any state, keeping a full snapshot so the
// deletion can be undone.
func (b *Board) Delete(id string) {
	for i, t := range b.tasks {
		if t.ID != id {
			continue
		}
		b.history.push(action{
			kind:   actionDelete,
			taskID: id,
			at:     time.Now(),
			prior:  t.Clone(),
			index:  i,
		})
		b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
		b.save()
		return
	}
}

// ClearAll removes every task. Not reversible: the history goes with it.
func (b *Board) ClearAll() int {
	n := len(b.tasks)
	if n == 0 {
		return 0
	}
	b.tasks = nil
	b.history.clear()
	b.save()
	return n
}

// SetNotes records an undo entry only when the text actually changed.
func (b *Board) SetNotes(id, notes string) {
	t := b.find(id)
	if t == nil || t.Notes == notes {
		return
	}
	b.record(actionNotes, t)
	t.Notes = notes
	b.save()
}

// SetLeverage retags a task. Tasks outside Unrated must keep a valid tag.
func (b *Board) SetLeverage(id string, lev task.Leverage) error {
	t := b.find(id)
	if t == nil || t.Leverage == lev {
		return nil
	}
	if t.Status != task.StatusUnrated && !lev.IsValid() {
		return task.ErrMissingLeverage
	}
	b.record(actionLeverage, t)
	t.Leverage = lev
	b.save()
	return nil
}

func (b *Board) ToggleTimeSensitive(id string) {
	t := b.find(id)
	if t == nil {
		return
	}
	b.record(actionTimeSensitive, t)
	t.IsTimeSensitive = !t.IsTimeSensitive
	b.save()
}

// AddTime folds one focus-session report onto a task. Reports are keyed by
// (task, timestamp): the same report delivered over both transports counts
// once, and reports at or before the seeded cursor were already folded in
// an earlier run. Unknown task ids are ignored.
func (b *Board) AddTime(taskID string, seconds int64, reportedAt time.Time) bool {
	if seconds <= 0 {
		return false
	}
	if !reportedAt.After(b.cursor) {
		return false
	}
	key := reportKey{taskID: taskID, at: reportedAt.UnixNano()}
	if _, dup := b.seen[key]; dup {
		return false
	}
	t := b.find(taskID)
	if t == nil {
		return false
	}
	b.seen[key] = struct{}{}
	t.TimeSpent += seconds
	b.saveCursor(reportedAt)
	b.save()
	return true
}

// ResetTime zeroes a task's accumulated focus time.
func (b *Board) ResetTime(id string) {
	t := b.find(id)
	if t == nil {
		return
	}
	t.TimeSpent = 0
	b.save()
}

func (b *Board) HistoryLen() int { return b.history.len() }

// Undo reverses the most recent recorded action. Entries whose kind has no
// inverse handler are put back and reported as non-undoable.
func (b *Board) Undo() (string, error) {
	a, ok := b.history.pop()
	if !ok {
		return "", ErrNothingToUndo
	}

	if a.kind == actionDelete {
		restored := a.prior.Clone()
		i := a.index
		if i > len(b.tasks) {
			i = len(b.tasks)
		}
		b.tasks = append(b.tasks[:i], append([]*task.Task{&restored}, b.tasks[i:]...)...)
		b.save()
		return fmt.Sprintf("restored %q", restored.Title), nil
	}

	t := b.find(a.taskID)
	if t == nil {
		// The task vanished since the action was recorded; nothing to do.
		return "", nil
	}

	switch a.kind {
	case actionStatus:
		t.Status = a.prior.Status
		t.CompletedAt = cloneDate(a.prior.CompletedAt)
		t.Energy, t.Simplicity, t.Impact = a.prior.Energy, a.prior.Simplicity, a.prior.Impact
		t.Score = a.prior.Score
		t.Leverage = a.prior.Leverage
		t.ActualEnergy = a.prior.ActualEnergy
		t.ActualSimplicity = a.prior.ActualSimplicity
		t.ActualImpact = a.prior.ActualImpact
		t.QuickReflection = a.prior.QuickReflection
	case actionRate:
		t.Status = a.prior.Status
		t.Energy, t.Simplicity, t.Impact = a.prior.Energy, a.prior.Simplicity, a.prior.Impact
		t.Score = a.prior.Score
		t.Leverage = a.prior.Leverage
	case actionNotes:
		t.Notes = a.prior.Notes
	case actionLeverage:
		t.Leverage = a.prior.Leverage
	case actionTimeSensitive:
		t.IsTimeSensitive = a.prior.IsTimeSensitive
	default:
		b.history.restore(a)
		return "", ErrCannotUndo
	}
	b.save()
	return fmt.Sprintf("undid %s on %q", a.kind, t.Title), nil
}

func (b *Board) save() {
	if b.persist == nil {
		return
	}
	if err := b.persist.SaveTasks(b.Tasks()); err != nil {
		log.Printf("save tasks: %v", err)
	}
}

func (b *Board) saveCursor(at time.Time) {
	if b.persist == nil {
		return
	}
	if err := b.persist.SaveReportCursor(at); err != nil {
		log.Printf("save report cursor: %v", err)
	}
}

func (b *Board) record(kind actionKind, t *task.Task) {
	b.history.push(action{kind: kind, taskID: t.ID, at: time.Now(), prior: t.Clone()})
}

func cloneDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// dateOf truncates to a calendar date (midnight UTC).
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
