package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/esiq/internal/task"
)

const dateLayout = "2006-01-02"

// SaveTasks replaces the whole snapshot in one transaction, preserving the
// collection order via the position column.
func (s *Store) SaveTasks(tasks []task.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO tasks
		(id, title, status, energy, simplicity, impact, score, leverage,
		 time_sensitive, notes, created_at, completed_at,
		 actual_energy, actual_simplicity, actual_impact, quick_reflection,
		 time_spent, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		var completedAt any
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.Format(dateLayout)
		}
		timeSensitive := 0
		if t.IsTimeSensitive {
			timeSensitive = 1
		}
		_, err := stmt.Exec(
			t.ID, t.Title, string(t.Status),
			t.Energy, t.Simplicity, t.Impact, t.Score, string(t.Leverage),
			timeSensitive, t.Notes, t.CreatedAt.UTC().Format(time.RFC3339), completedAt,
			t.ActualEnergy, t.ActualSimplicity, t.ActualImpact, t.QuickReflection,
			t.TimeSpent, i,
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// LoadTasks reads the snapshot in collection order and normalizes each row:
// missing columns get defaults, the status is reconciled with the rating
// fields, and the score is recomputed from the axes. A row the writer left
// half-filled comes back as a consistent task rather than an error.
func (s *Store) LoadTasks() ([]task.Task, error) {
	rows, err := s.db.Query(`SELECT
		id, title, status, energy, simplicity, impact, leverage,
		time_sensitive, notes, created_at, completed_at,
		actual_energy, actual_simplicity, actual_impact, quick_reflection,
		time_spent
		FROM tasks ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var (
			t             task.Task
			status        sql.NullString
			energy        sql.NullInt64
			simplicity    sql.NullInt64
			impact        sql.NullInt64
			leverage      sql.NullString
			timeSensitive sql.NullInt64
			notes         sql.NullString
			createdAt     string
			completedAt   sql.NullString
			actualE       sql.NullInt64
			actualS       sql.NullInt64
			actualI       sql.NullInt64
			reflection    sql.NullString
			timeSpent     sql.NullInt64
		)
		if err := rows.Scan(
			&t.ID, &t.Title, &status, &energy, &simplicity, &impact, &leverage,
			&timeSensitive, &notes, &createdAt, &completedAt,
			&actualE, &actualS, &actualI, &reflection, &timeSpent,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		t.Energy = int(energy.Int64)
		t.Simplicity = int(simplicity.Int64)
		t.Impact = int(impact.Int64)
		t.Leverage = task.Leverage(leverage.String)
		t.IsTimeSensitive = timeSensitive.Int64 == 1
		t.Notes = notes.String
		t.ActualEnergy = int(actualE.Int64)
		t.ActualSimplicity = int(actualS.Int64)
		t.ActualImpact = int(actualI.Int64)
		t.QuickReflection = reflection.String
		if timeSpent.Int64 > 0 {
			t.TimeSpent = timeSpent.Int64
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		t.Status = task.Status(status.String)
		if completedAt.Valid {
			if d, err := time.ParseInLocation(dateLayout, completedAt.String, time.UTC); err == nil {
				t.CompletedAt = &d
			}
		}
		normalize(&t)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// normalize reconciles a loaded row into a consistent task.
func normalize(t *task.Task) {
	// An unreadable created_at would sort to the recency extremes; fall
	// back to now.
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if !t.Status.IsValid() {
		if t.Rated() {
			t.Status = task.StatusPrioritized
		} else {
			t.Status = task.StatusUnrated
		}
	}
	// A task that claims to be rated must actually be.
	if t.Status != task.StatusUnrated && (!t.Rated() || !t.Leverage.IsValid()) {
		t.Status = task.StatusUnrated
	}
	if t.Status == task.StatusUnrated {
		t.Energy, t.Simplicity, t.Impact, t.Score = 0, 0, 0, 0
		if !t.Leverage.IsValid() {
			t.Leverage = task.LeverageNone
		}
	} else {
		// The score is derived; never trust the stored value.
		t.Score = t.Energy + t.Simplicity + t.Impact
	}
	switch {
	case t.Status == task.StatusComplete && t.CompletedAt == nil:
		d := t.CreatedAt.UTC().Truncate(24 * time.Hour)
		t.CompletedAt = &d
	case t.Status != task.StatusComplete:
		t.CompletedAt = nil
	}
}
