package board

import (
	"fmt"
	"sort"

	"github.com/sadopc/esiq/internal/task"
)

// Column identifies one of the three visible lanes. Unrated tasks live in
// the rating queue, not a column.
type Column string

const (
	ColumnPrioritized Column = "prioritized"
	ColumnInProgress  Column = "in-progress"
	ColumnCompleted   Column = "completed"
)

func (c Column) status() task.Status {
	switch c {
	case ColumnPrioritized:
		return task.StatusPrioritized
	case ColumnInProgress:
		return task.StatusInProgress
	default:
		return task.StatusComplete
	}
}

func (c Column) Title() string {
	switch c {
	case ColumnPrioritized:
		return "Prioritized"
	case ColumnInProgress:
		return "In Progress"
	default:
		return "Completed"
	}
}

type FilterTag string

const (
	FilterNewest        FilterTag = "newest"
	FilterOldest        FilterTag = "oldest"
	FilterTenX          FilterTag = "10x"
	FilterTwoX          FilterTag = "2x"
	FilterTimeSensitive FilterTag = "time-sensitive"
)

// AllFilterTags in menu order.
var AllFilterTags = []FilterTag{
	FilterNewest,
	FilterOldest,
	FilterTenX,
	FilterTwoX,
	FilterTimeSensitive,
}

// FilterSet is one column's multi-select filter state. Exactly one of the
// two recency tags is always active; Newest is the default.
type FilterSet struct {
	active map[FilterTag]bool
}

func NewFilterSet() *FilterSet {
	return &FilterSet{active: map[FilterTag]bool{FilterNewest: true}}
}

// Toggle flips a tag. The recency tags swap instead of stacking, and
// toggling the one already active is a no-op so the set never goes empty.
func (f *FilterSet) Toggle(tag FilterTag) {
	switch tag {
	case FilterNewest:
		if f.active[FilterNewest] {
			return
		}
		f.active[FilterNewest] = true
		delete(f.active, FilterOldest)
	case FilterOldest:
		if f.active[FilterOldest] {
			return
		}
		f.active[FilterOldest] = true
		delete(f.active, FilterNewest)
	case FilterTenX, FilterTwoX, FilterTimeSensitive:
		if f.active[tag] {
			delete(f.active, tag)
		} else {
			f.active[tag] = true
		}
	}
}

func (f *FilterSet) Active(tag FilterTag) bool { return f.active[tag] }

func (f *FilterSet) Recency() FilterTag {
	if f.active[FilterOldest] {
		return FilterOldest
	}
	return FilterNewest
}

func (f *FilterSet) hasLeverage() bool {
	return f.active[FilterTenX] || f.active[FilterTwoX]
}

// Apply filters then sorts by the recency tag. Leverage tags OR together
// within their family; the time-sensitive predicate ANDs across families.
func (f *FilterSet) Apply(tasks []*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.matches(t) {
			out = append(out, t)
		}
	}
	oldest := f.active[FilterOldest]
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if oldest {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (f *FilterSet) matches(t *task.Task) bool {
	if f.hasLeverage() {
		ok := (f.active[FilterTenX] && t.Leverage == task.LeverageTenX) ||
			(f.active[FilterTwoX] && t.Leverage == task.LeverageTwoX)
		if !ok {
			return false
		}
	}
	if f.active[FilterTimeSensitive] && !t.IsTimeSensitive {
		return false
	}
	return true
}

// Projection is a pull-based render model for one column.
type Projection struct {
	VisibleTasks  []task.Task
	TotalCount    int // tasks in the column before filtering
	FilteredCount int
	// EmptyStateReason is set only when VisibleTasks is empty: it says
	// whether the column itself is empty or the filters hid everything.
	EmptyStateReason string
	// TopBand marks the ids in the top ~20% by score.
	TopBand map[string]bool
}

func (b *Board) Filters(col Column) *FilterSet { return b.filters[col] }

func (b *Board) ToggleFilter(col Column, tag FilterTag) {
	b.filters[col].Toggle(tag)
}

// Unrated returns the rating queue in insertion order.
func (b *Board) Unrated() []task.Task {
	var out []task.Task
	for _, t := range b.tasks {
		if t.Status == task.StatusUnrated {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Project computes a column's visible tasks under its filter set, plus the
// Pareto band for the score-ranked columns.
func (b *Board) Project(col Column) Projection {
	status := col.status()
	var all []*task.Task
	for _, t := range b.tasks {
		if t.Status == status {
			all = append(all, t)
		}
	}
	fs := b.filters[col]
	visible := fs.Apply(all)

	p := Projection{
		TotalCount:    len(all),
		FilteredCount: len(visible),
		VisibleTasks:  make([]task.Task, len(visible)),
	}
	for i, t := range visible {
		p.VisibleTasks[i] = t.Clone()
	}
	if len(visible) == 0 {
		p.EmptyStateReason = emptyReason(col, len(all), fs)
		return p
	}
	if col != ColumnCompleted {
		ranked, band := Rank(visible)
		p.TopBand = make(map[string]bool, band)
		for _, t := range ranked[:band] {
			p.TopBand[t.ID] = true
		}
	}
	return p
}

// Rank orders tasks by score descending. Ties break on CreatedAt (older
// first), then id, so the order is deterministic. The second return is the
// Pareto band size: ceil(0.2*N), never less than 1 for a non-empty input.
func Rank(tasks []*task.Task) ([]*task.Task, int) {
	ranked := make([]*task.Task, len(tasks))
	copy(ranked, tasks)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if len(ranked) == 0 {
		return ranked, 0
	}
	band := (len(ranked) + 4) / 5
	if band < 1 {
		band = 1
	}
	return ranked, band
}

func emptyReason(col Column, total int, f *FilterSet) string {
	if total > 0 {
		return fmt.Sprintf("No %s tasks match the active filters.", col.Title())
	}
	switch col {
	case ColumnPrioritized:
		return "Rated tasks land here, ranked by ESI score."
	case ColumnInProgress:
		return "Start a prioritized task to begin working on it."
	default:
		return "Completed tasks will appear here."
	}
}
