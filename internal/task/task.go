package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus     = errors.New("task: invalid status")
	ErrInvalidEnergy     = errors.New("task: energy must be between 1 and 5")
	ErrInvalidSimplicity = errors.New("task: simplicity must be between 1 and 5")
	ErrInvalidImpact     = errors.New("task: impact must be between 1 and 10")
	ErrMissingLeverage   = errors.New("task: leverage (10x or 2x) is required")
)

type Status string

const (
	StatusUnrated     Status = "unrated"
	StatusPrioritized Status = "prioritized"
	StatusInProgress  Status = "in-progress"
	StatusComplete    Status = "complete"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUnrated, StatusPrioritized, StatusInProgress, StatusComplete:
		return true
	default:
		return false
	}
}

// Leverage classifies the expected payoff of a task. It is mutually
// exclusive: a task is 10x, 2x, or untagged.
type Leverage string

const (
	LeverageNone Leverage = ""
	LeverageTenX Leverage = "10x"
	LeverageTwoX Leverage = "2x"
)

func (l Leverage) IsValid() bool {
	switch l {
	case LeverageTenX, LeverageTwoX:
		return true
	default:
		return false
	}
}

// Rating holds the three predicted ESI axes plus the leverage tag staged
// for a task. All four are required before a task may leave Unrated.
type Rating struct {
	Energy     int // 1-5
	Simplicity int // 1-5
	Impact     int // 1-10
	Leverage   Leverage
}

func (r Rating) Validate() error {
	if r.Energy < 1 || r.Energy > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidEnergy, r.Energy)
	}
	if r.Simplicity < 1 || r.Simplicity > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidSimplicity, r.Simplicity)
	}
	if r.Impact < 1 || r.Impact > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidImpact, r.Impact)
	}
	if !r.Leverage.IsValid() {
		return ErrMissingLeverage
	}
	return nil
}

// Score is the plain ESI sum. Range [3,20] for a valid rating.
func (r Rating) Score() int {
	return r.Energy + r.Simplicity + r.Impact
}

// Reflection holds the post-completion actual ratings. Ranges match the
// predicted axes; the note is optional.
type Reflection struct {
	Energy     int
	Simplicity int
	Impact     int
	Note       string
}

func (r Reflection) Validate() error {
	if r.Energy < 1 || r.Energy > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidEnergy, r.Energy)
	}
	if r.Simplicity < 1 || r.Simplicity > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidSimplicity, r.Simplicity)
	}
	if r.Impact < 1 || r.Impact > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidImpact, r.Impact)
	}
	return nil
}

func (r Reflection) Score() int {
	return r.Energy + r.Simplicity + r.Impact
}

// Task is the sole entity. Axis values use 0 for "unset" (valid ratings
// start at 1). Score is 0 until the task is rated.
type Task struct {
	ID              string
	Title           string
	Status          Status
	Energy          int
	Simplicity      int
	Impact          int
	Score           int
	Leverage        Leverage
	IsTimeSensitive bool
	Notes           string
	CreatedAt       time.Time

	// CompletedAt is a calendar date (midnight UTC), present iff the task
	// is Complete.
	CompletedAt *time.Time

	ActualEnergy     int
	ActualSimplicity int
	ActualImpact     int
	QuickReflection  string

	// TimeSpent is accumulated focus-session seconds.
	TimeSpent int64
}

// New creates an unrated task. IDs are random UUIDs so they stay unique
// across sessions.
func New(title string, now time.Time) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Status:    StatusUnrated,
		CreatedAt: now.UTC(),
	}
}

// Rated reports whether all three predicted axes are set.
func (t *Task) Rated() bool {
	return t.Energy > 0 && t.Simplicity > 0 && t.Impact > 0
}

// HasReflection reports whether all three actual axes are set.
func (t *Task) HasReflection() bool {
	return t.ActualEnergy > 0 && t.ActualSimplicity > 0 && t.ActualImpact > 0
}

// ActualScore is the sum of the actual ratings, 0 if the reflection is
// incomplete. It never feeds back into Score.
func (t *Task) ActualScore() int {
	if !t.HasReflection() {
		return 0
	}
	return t.ActualEnergy + t.ActualSimplicity + t.ActualImpact
}

// ReflectionDelta compares actual against predicted, per axis and in total.
type ReflectionDelta struct {
	Energy     int
	Simplicity int
	Impact     int
	Total      int
}

func (t *Task) ReflectionDelta() (ReflectionDelta, bool) {
	if !t.Rated() || !t.HasReflection() {
		return ReflectionDelta{}, false
	}
	d := ReflectionDelta{
		Energy:     t.ActualEnergy - t.Energy,
		Simplicity: t.ActualSimplicity - t.Simplicity,
		Impact:     t.ActualImpact - t.Impact,
	}
	d.Total = d.Energy + d.Simplicity + d.Impact
	return d, true
}

// Clone returns a deep copy, used for undo snapshots.
func (t *Task) Clone() Task {
	c := *t
	if t.CompletedAt != nil {
		ca := *t.CompletedAt
		c.CompletedAt = &ca
	}
	return c
}

// Validate checks the cross-field invariants.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("task: id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task: title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("task: created_at is required")
	}
	if t.Status == StatusUnrated {
		if t.Score != 0 {
			return errors.New("task: unrated task must not carry a score")
		}
	} else {
		if !t.Rated() {
			return fmt.Errorf("task: status %q requires all three predicted axes", t.Status)
		}
		if !t.Leverage.IsValid() {
			return ErrMissingLeverage
		}
		if want := t.Energy + t.Simplicity + t.Impact; t.Score != want {
			return fmt.Errorf("task: score %d does not match axes (want %d)", t.Score, want)
		}
	}
	if t.Status == StatusComplete && t.CompletedAt == nil {
		return errors.New("task: completed_at is required when status is complete")
	}
	if t.Status != StatusComplete && t.CompletedAt != nil {
		return errors.New("task: completed_at must be nil when status is not complete")
	}
	if t.TimeSpent < 0 {
		return errors.New("task: time_spent must be non-negative")
	}
	return nil
}

// RatingDescription returns the anchor text for a rating value, or "".
func RatingDescription(axis string, value int) string {
	switch axis {
	case "energy":
		switch value {
		case 1:
			return "Draining"
		case 3:
			return "Neutral"
		case 5:
			return "Energizing"
		}
	case "simplicity":
		switch value {
		case 1:
			return "Many complex subtasks"
		case 3:
			return "A few subtasks"
		case 5:
			return "One clear, single action"
		}
	case "impact":
		switch value {
		case 1:
			return "Minimal"
		case 5:
			return "Moderate"
		case 10:
			return "Major"
		}
	}
	return ""
}
