package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/esiq/internal/task"
)

func sampleTasks() []task.Task {
	created := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	done := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	return []task.Task{
		{
			ID:        "a",
			Title:     "plan sprint",
			Status:    task.StatusUnrated,
			CreatedAt: created,
		},
		{
			ID:               "b",
			Title:            "ship feature",
			Status:           task.StatusComplete,
			Energy:           3,
			Simplicity:       5,
			Impact:           8,
			Score:            16,
			Leverage:         task.LeverageTenX,
			IsTimeSensitive:  true,
			Notes:            `notes with "quotes" and, commas`,
			CreatedAt:        created.Add(time.Hour),
			CompletedAt:      &done,
			ActualEnergy:     4,
			ActualSimplicity: 4,
			ActualImpact:     6,
			QuickReflection:  "smoother than expected",
			TimeSpent:        3661,
		},
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := ToJSON(sampleTasks(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.TotalTasks != 2 || len(result.Tasks) != 2 {
		t.Fatalf("totalTasks = %d, tasks = %d", result.TotalTasks, len(result.Tasks))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportDate); err != nil {
		t.Fatalf("exportDate not RFC3339: %q", result.ExportDate)
	}

	unrated := result.Tasks[0]
	if unrated.Score != 0 || unrated.CompletedDate != "" {
		t.Fatalf("unrated task leaked fields: %+v", unrated)
	}

	completed := result.Tasks[1]
	if completed.Score != 16 || completed.Leverage != "10x" {
		t.Fatalf("completed task: %+v", completed)
	}
	if completed.CompletedDate != "2026-08-30" {
		t.Fatalf("completedDate = %q", completed.CompletedDate)
	}
	if completed.TimeSpent != "01:01:01" || completed.TimeSpentSec != 3661 {
		t.Fatalf("time fields: %q / %d", completed.TimeSpent, completed.TimeSpentSec)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)
	if result.TotalTasks != 0 {
		t.Fatalf("totalTasks = %d, want 0", result.TotalTasks)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	if got := DefaultFilename(now); got != "esiq-export-2026-08-31.json" {
		t.Fatalf("filename = %q", got)
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := ToCSV(sampleTasks(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	unrated := records[1]
	if unrated[2] != "unrated" {
		t.Fatalf("status = %q", unrated[2])
	}
	if unrated[3] != "" || unrated[6] != "" {
		t.Fatal("unset axis values must render blank")
	}

	completed := records[2]
	if completed[6] != "16" || completed[7] != "10x" {
		t.Fatalf("score/leverage = %q/%q", completed[6], completed[7])
	}
	if completed[9] != `notes with "quotes" and, commas` {
		t.Fatalf("notes mangled: %q", completed[9])
	}
	if completed[12] != "14" {
		t.Fatalf("actual score = %q, want 14", completed[12])
	}
	if completed[15] != "01:01:01" {
		t.Fatalf("time spent = %q", completed[15])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	f, _ := os.Open(path)
	defer f.Close()
	records, _ := csv.NewReader(f).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
		{90061, "25:01:01"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
