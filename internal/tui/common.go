package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/esiq/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewBoard viewState = iota
	viewRate
	viewStats
)

var viewNames = []string{"Board", "Rate", "Stats"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type timeReportMsg struct {
	report timer.Report
}

type reportChannelClosedMsg struct{}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
