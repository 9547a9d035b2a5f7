package board

import "github.com/sadopc/esiq/internal/task"

// Stats aggregates the rated portion of the collection.
type Stats struct {
	TotalTasks     int
	RatedCount     int
	CompletedCount int
	AvgEnergy      float64
	AvgSimplicity  float64
	AvgImpact      float64
	AvgScore       float64
	HighestScore   int
	LowestScore    int
	TotalTime      int64 // seconds across all tasks
}

// ComputeStats returns the aggregate view; ok is false when no task has
// been rated yet and the averages are meaningless.
func (b *Board) ComputeStats() (Stats, bool) {
	s := Stats{TotalTasks: len(b.tasks)}
	var sumE, sumS, sumI, sumScore int
	for _, t := range b.tasks {
		s.TotalTime += t.TimeSpent
		if t.Status == task.StatusComplete {
			s.CompletedCount++
		}
		if !t.Rated() {
			continue
		}
		score := t.Energy + t.Simplicity + t.Impact
		if s.RatedCount == 0 {
			s.HighestScore, s.LowestScore = score, score
		} else {
			if score > s.HighestScore {
				s.HighestScore = score
			}
			if score < s.LowestScore {
				s.LowestScore = score
			}
		}
		s.RatedCount++
		sumE += t.Energy
		sumS += t.Simplicity
		sumI += t.Impact
		sumScore += score
	}
	if s.RatedCount == 0 {
		return s, false
	}
	n := float64(s.RatedCount)
	s.AvgEnergy = float64(sumE) / n
	s.AvgSimplicity = float64(sumS) / n
	s.AvgImpact = float64(sumI) / n
	s.AvgScore = float64(sumScore) / n
	return s, true
}

// CompletionsByDay counts completed tasks keyed by calendar date
// ("2006-01-02").
func (b *Board) CompletionsByDay() map[string]int {
	out := make(map[string]int)
	for _, t := range b.tasks {
		if t.Status == task.StatusComplete && t.CompletedAt != nil {
			out[t.CompletedAt.Format("2006-01-02")]++
		}
	}
	return out
}

// MissingTenXInProgress reports whether the in-progress column has tasks
// but none of them is tagged 10x.
func (b *Board) MissingTenXInProgress() bool {
	n := 0
	for _, t := range b.tasks {
		if t.Status != task.StatusInProgress {
			continue
		}
		if t.Leverage == task.LeverageTenX {
			return false
		}
		n++
	}
	return n > 0
}
