package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/esiq/internal/task"
)

type jsonExport struct {
	Tasks      []jsonTask `json:"tasks"`
	ExportDate string     `json:"exportDate"`
	TotalTasks int        `json:"totalTasks"`
}

type jsonTask struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	Energy           int    `json:"energy,omitempty"`
	Simplicity       int    `json:"simplicity,omitempty"`
	Impact           int    `json:"impact,omitempty"`
	Score            int    `json:"score,omitempty"`
	Leverage         string `json:"leverage,omitempty"`
	IsTimeSensitive  bool   `json:"isTimeSensitive"`
	Notes            string `json:"notes,omitempty"`
	CreatedAt        string `json:"createdAt"`
	CompletedDate    string `json:"completedDate,omitempty"`
	ActualEnergy     int    `json:"actualEnergy,omitempty"`
	ActualSimplicity int    `json:"actualSimplicity,omitempty"`
	ActualImpact     int    `json:"actualImpact,omitempty"`
	QuickReflection  string `json:"quickReflection,omitempty"`
	TimeSpentSec     int64  `json:"timeSpentSeconds"`
	TimeSpent        string `json:"timeSpent"`
}

// DefaultFilename is esiq-export-YYYY-MM-DD.json for the given day.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("esiq-export-%s.json", now.Format("2006-01-02"))
}

// ToJSON writes the full snapshot, pretty-printed.
func ToJSON(tasks []task.Task, path string) error {
	export := jsonExport{
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		TotalTasks: len(tasks),
	}

	for _, t := range tasks {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Format("2006-01-02")
		}
		export.Tasks = append(export.Tasks, jsonTask{
			ID:               t.ID,
			Title:            t.Title,
			Status:           string(t.Status),
			Energy:           t.Energy,
			Simplicity:       t.Simplicity,
			Impact:           t.Impact,
			Score:            t.Score,
			Leverage:         string(t.Leverage),
			IsTimeSensitive:  t.IsTimeSensitive,
			Notes:            t.Notes,
			CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339),
			CompletedDate:    completed,
			ActualEnergy:     t.ActualEnergy,
			ActualSimplicity: t.ActualSimplicity,
			ActualImpact:     t.ActualImpact,
			QuickReflection:  t.QuickReflection,
			TimeSpentSec:     t.TimeSpent,
			TimeSpent:        formatDuration(t.TimeSpent),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
