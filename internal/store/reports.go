package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/esiq/internal/timer"
)

// AppendTimeReport records one finished focus session in the shared inbox.
// The (task_id, reported_at) unique index absorbs redundant writes; the
// return reports whether the row was new.
func (s *Store) AppendTimeReport(r timer.Report) (bool, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO time_reports (task_id, seconds, reported_at) VALUES (?, ?, ?)`,
		r.TaskID, r.Seconds, r.ReportedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("append time report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReportFilter narrows ListTimeReports. Nil fields are ignored.
type ReportFilter struct {
	TaskID *string
	After  *time.Time
	Limit  int
}

func (s *Store) ListTimeReports(f ReportFilter) ([]timer.Report, error) {
	query := `SELECT task_id, seconds, reported_at FROM time_reports`
	var conds []string
	var args []any
	if f.TaskID != nil {
		conds = append(conds, "task_id = ?")
		args = append(args, *f.TaskID)
	}
	if f.After != nil {
		conds = append(conds, "reported_at > ?")
		args = append(args, f.After.UTC().Format(time.RFC3339))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY reported_at"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time reports: %w", err)
	}
	defer rows.Close()

	var reports []timer.Report
	for rows.Next() {
		var r timer.Report
		var reportedAt string
		if err := rows.Scan(&r.TaskID, &r.Seconds, &reportedAt); err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339, reportedAt)
		if err != nil {
			// Without a readable timestamp the report has no dedup
			// identity; skip the row.
			continue
		}
		r.ReportedAt = at
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// DailyTimeSummary sums focus seconds per calendar day over [from, to).
// Keys use the "2006-01-02" layout.
func (s *Store) DailyTimeSummary(from, to time.Time) (map[string]int64, error) {
	rows, err := s.db.Query(
		`SELECT substr(reported_at, 1, 10) AS day, SUM(seconds)
		 FROM time_reports
		 WHERE reported_at >= ? AND reported_at < ?
		 GROUP BY day
		 ORDER BY day`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily time summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var day string
		var secs int64
		if err := rows.Scan(&day, &secs); err != nil {
			return nil, err
		}
		out[day] = secs
	}
	return out, rows.Err()
}
