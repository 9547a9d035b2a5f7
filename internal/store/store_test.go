package store

import (
	"strings"
	"testing"
	"time"

	"github.com/sadopc/esiq/internal/task"
	"github.com/sadopc/esiq/internal/timer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run all migrations
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/esiq.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen; should succeed and not re-migrate.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Task snapshot round trip
// ============================================================

func TestSaveAndLoadTasks(t *testing.T) {
	s := newTestStore(t)
	done := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	in := []task.Task{
		{
			ID:        "a",
			Title:     "first",
			Status:    task.StatusUnrated,
			CreatedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:               "b",
			Title:            "second",
			Status:           task.StatusComplete,
			Energy:           3,
			Simplicity:       5,
			Impact:           8,
			Score:            16,
			Leverage:         task.LeverageTenX,
			IsTimeSensitive:  true,
			Notes:            "some notes",
			CreatedAt:        time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC),
			CompletedAt:      &done,
			ActualEnergy:     4,
			ActualSimplicity: 4,
			ActualImpact:     6,
			QuickReflection:  "ok",
			TimeSpent:        1800,
		},
	}
	if err := s.SaveTasks(in); err != nil {
		t.Fatal(err)
	}
	out, err := s.LoadTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("loaded %d tasks", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Fatal("collection order must survive the round trip")
	}
	got := out[1]
	if got.Score != 16 || got.Leverage != task.LeverageTenX || !got.IsTimeSensitive {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("completed_at = %v", got.CompletedAt)
	}
	if got.TimeSpent != 1800 || got.QuickReflection != "ok" {
		t.Fatalf("round trip lost reflection/time: %+v", got)
	}
}

func TestSaveTasksReplacesSnapshot(t *testing.T) {
	s := newTestStore(t)
	mk := func(id string) task.Task {
		return task.Task{ID: id, Title: id, Status: task.StatusUnrated, CreatedAt: time.Now().UTC()}
	}
	if err := s.SaveTasks([]task.Task{mk("a"), mk("b")}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTasks([]task.Task{mk("c")}); err != nil {
		t.Fatal(err)
	}
	out, err := s.LoadTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "c" {
		t.Fatalf("snapshot not replaced: %+v", out)
	}
}

// ============================================================
// Load normalization
// ============================================================

func insertRawTask(t *testing.T, s *Store, id string, cols map[string]any) {
	t.Helper()
	base := map[string]any{
		"id":         id,
		"title":      "raw " + id,
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"position":   0,
	}
	for k, v := range cols {
		base[k] = v
	}
	query := `INSERT INTO tasks (`
	var names []string
	var marks []string
	var args []any
	for k, v := range base {
		names = append(names, k)
		marks = append(marks, "?")
		args = append(args, v)
	}
	query += strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	if _, err := s.db.Exec(query, args...); err != nil {
		t.Fatalf("insert raw task: %v", err)
	}
}

func loadOne(t *testing.T, s *Store) task.Task {
	t.Helper()
	out, err := s.LoadTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("loaded %d tasks", len(out))
	}
	return out[0]
}

func TestLoadBackfillsMissingColumns(t *testing.T) {
	s := newTestStore(t)
	insertRawTask(t, s, "bare", nil) // only id, title, created_at

	got := loadOne(t, s)
	if got.Status != task.StatusUnrated {
		t.Fatalf("status = %q, want unrated", got.Status)
	}
	if got.Notes != "" || got.IsTimeSensitive || got.TimeSpent != 0 || got.Score != 0 {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestLoadInfersStatusFromRating(t *testing.T) {
	s := newTestStore(t)
	insertRawTask(t, s, "rated", map[string]any{
		"energy": 3, "simplicity": 5, "impact": 8, "leverage": "10x",
	})
	got := loadOne(t, s)
	if got.Status != task.StatusPrioritized {
		t.Fatalf("status = %q, want prioritized", got.Status)
	}
	if got.Score != 16 {
		t.Fatalf("score = %d, want recomputed 16", got.Score)
	}
}

func TestLoadDemotesHalfRatedTask(t *testing.T) {
	s := newTestStore(t)
	insertRawTask(t, s, "half", map[string]any{
		"status": "prioritized", "energy": 3, "score": 99,
	})
	got := loadOne(t, s)
	if got.Status != task.StatusUnrated {
		t.Fatalf("status = %q, want demoted to unrated", got.Status)
	}
	if got.Score != 0 || got.Energy != 0 {
		t.Fatalf("demotion must clear the rating: %+v", got)
	}
}

func TestLoadBackfillsCompletionDate(t *testing.T) {
	s := newTestStore(t)
	insertRawTask(t, s, "done", map[string]any{
		"status": "complete", "energy": 1, "simplicity": 1, "impact": 1, "leverage": "2x",
		"created_at": "2026-08-15T09:30:00Z",
	})
	got := loadOne(t, s)
	if got.CompletedAt == nil {
		t.Fatal("completion date must be back-filled")
	}
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !got.CompletedAt.Equal(want) {
		t.Fatalf("completed_at = %v, want %v", got.CompletedAt, want)
	}
}

func TestLoadClearsStrayCompletionDate(t *testing.T) {
	s := newTestStore(t)
	insertRawTask(t, s, "stray", map[string]any{
		"status": "prioritized", "energy": 1, "simplicity": 1, "impact": 1, "leverage": "2x",
		"completed_at": "2026-08-15",
	})
	got := loadOne(t, s)
	if got.CompletedAt != nil {
		t.Fatal("non-complete task must not carry a completion date")
	}
}

func TestLoadBackfillsUnreadableCreatedAt(t *testing.T) {
	s := newTestStore(t)
	insertRawTask(t, s, "bad-clock", map[string]any{"created_at": "not-a-time"})

	got := loadOne(t, s)
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at must be back-filled, not left at the zero time")
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Fatalf("back-filled created_at too far in the past: %v", got.CreatedAt)
	}
}

// ============================================================
// Time reports
// ============================================================

func TestAppendTimeReportDeduplicates(t *testing.T) {
	s := newTestStore(t)
	r := timer.Report{TaskID: "t1", Seconds: 1500, ReportedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}

	fresh, err := s.AppendTimeReport(r)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Fatal("first append must be new")
	}
	fresh, err = s.AppendTimeReport(r)
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Fatal("duplicate append must be absorbed")
	}
	out, err := s.ListTimeReports(ReportFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("stored %d reports, want 1", len(out))
	}
}

func TestListTimeReportsFilter(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		taskID := "t1"
		if i == 2 {
			taskID = "t2"
		}
		if _, err := s.AppendTimeReport(timer.Report{
			TaskID: taskID, Seconds: 600, ReportedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatal(err)
		}
	}

	t1 := "t1"
	out, err := s.ListTimeReports(ReportFilter{TaskID: &t1})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("task filter: %d reports, want 2", len(out))
	}

	after := base.Add(30 * time.Minute)
	out, err = s.ListTimeReports(ReportFilter{After: &after})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("after filter: %d reports, want 2", len(out))
	}

	out, err = s.ListTimeReports(ReportFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || !out[0].ReportedAt.Equal(base) {
		t.Fatalf("limit must keep the earliest report: %+v", out)
	}
}

func TestListTimeReportsSkipsUnreadableTimestamp(t *testing.T) {
	s := newTestStore(t)
	good := timer.Report{TaskID: "t1", Seconds: 600, ReportedAt: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)}
	if _, err := s.AppendTimeReport(good); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO time_reports (task_id, seconds, reported_at) VALUES (?, ?, ?)`,
		"t1", 600, "not-a-time",
	); err != nil {
		t.Fatal(err)
	}

	out, err := s.ListTimeReports(ReportFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || !out[0].ReportedAt.Equal(good.ReportedAt) {
		t.Fatalf("reports = %+v, want only the readable one", out)
	}
}

func TestDailyTimeSummary(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	for _, r := range []timer.Report{
		{TaskID: "t1", Seconds: 600, ReportedAt: day1},
		{TaskID: "t2", Seconds: 900, ReportedAt: day1.Add(time.Hour)},
		{TaskID: "t1", Seconds: 300, ReportedAt: day2},
	} {
		if _, err := s.AppendTimeReport(r); err != nil {
			t.Fatal(err)
		}
	}
	sum, err := s.DailyTimeSummary(day1.Add(-time.Hour), day2.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if sum["2026-08-30"] != 1500 || sum["2026-08-31"] != 300 {
		t.Fatalf("summary = %v", sum)
	}
}

// ============================================================
// Report cursor
// ============================================================

func TestReportCursor(t *testing.T) {
	s := newTestStore(t)

	cur, err := s.ReportCursor()
	if err != nil {
		t.Fatal(err)
	}
	if !cur.IsZero() {
		t.Fatalf("fresh store cursor = %v, want zero", cur)
	}

	at := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	if err := s.SaveReportCursor(at); err != nil {
		t.Fatal(err)
	}
	cur, err = s.ReportCursor()
	if err != nil {
		t.Fatal(err)
	}
	if !cur.Equal(at) {
		t.Fatalf("cursor = %v, want %v", cur, at)
	}
}

func TestReportCursorNeverRegresses(t *testing.T) {
	s := newTestStore(t)
	newer := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	if err := s.SaveReportCursor(newer); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveReportCursor(older); err != nil {
		t.Fatal(err)
	}
	cur, err := s.ReportCursor()
	if err != nil {
		t.Fatal(err)
	}
	if !cur.Equal(newer) {
		t.Fatalf("cursor = %v, want %v", cur, newer)
	}
}

func TestReportCursorSurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/esiq.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	if err := s.SaveReportCursor(at); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	cur, err := s2.ReportCursor()
	if err != nil {
		t.Fatal(err)
	}
	if !cur.Equal(at) {
		t.Fatalf("cursor = %v after reopen, want %v", cur, at)
	}
}
