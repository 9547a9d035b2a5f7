package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/esiq/internal/task"
)

func ToCSV(tasks []task.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	header := []string{
		"ID", "Title", "Status", "Energy", "Simplicity", "Impact", "Score",
		"Leverage", "Time Sensitive", "Notes", "Created", "Completed",
		"Actual Score", "Reflection", "Time Spent (s)", "Time Spent",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range tasks {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Format("2006-01-02")
		}
		actual := ""
		if t.HasReflection() {
			actual = strconv.Itoa(t.ActualScore())
		}
		row := []string{
			t.ID,
			t.Title,
			string(t.Status),
			zeroBlank(t.Energy),
			zeroBlank(t.Simplicity),
			zeroBlank(t.Impact),
			zeroBlank(t.Score),
			string(t.Leverage),
			strconv.FormatBool(t.IsTimeSensitive),
			t.Notes,
			t.CreatedAt.UTC().Format(time.RFC3339),
			completed,
			actual,
			t.QuickReflection,
			strconv.FormatInt(t.TimeSpent, 10),
			formatDuration(t.TimeSpent),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// zeroBlank renders unset axis values as empty cells.
func zeroBlank(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
