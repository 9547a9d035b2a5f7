package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const reportCursorKey = "report_cursor"

func (s *Store) getSetting(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// ReportCursor returns the newest report timestamp that has been folded
// into the persisted tasks snapshot, or the zero time when no report has
// ever been folded. An unparseable stored value counts as none.
func (s *Store) ReportCursor() (time.Time, error) {
	v, err := s.getSetting(reportCursorKey)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// SaveReportCursor advances the persisted report cursor. Timestamps at or
// before the stored cursor are ignored, so late redeliveries cannot move
// it backwards.
func (s *Store) SaveReportCursor(at time.Time) error {
	cur, err := s.ReportCursor()
	if err != nil {
		return err
	}
	if !at.After(cur) {
		return nil
	}
	return s.setSetting(reportCursorKey, at.UTC().Format(time.RFC3339Nano))
}
