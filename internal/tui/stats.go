package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/esiq/internal/board"
	"github.com/sadopc/esiq/internal/store"
	"github.com/sadopc/esiq/internal/task"
)

type statsModel struct {
	board  *board.Board
	store  *store.Store
	width  int
	height int

	offset    int // 7-day blocks back from today (0 = current)
	focusTime map[string]int64

	chart barchart.Model
}

func newStatsModel(b *board.Board, s *store.Store) statsModel {
	return statsModel{
		board: b,
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type statsDataMsg struct {
	focusTime map[string]int64
}

func (m statsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := m.dateRange()
		focus, _ := m.store.DailyTimeSummary(from, to)
		return statsDataMsg{focusTime: focus}
	}
}

func (m statsModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 1-7*m.offset)
	start := end.AddDate(0, 0, -7)
	return start, end
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		m.focusTime = msg.focusTime
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset++
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			if m.offset > 0 {
				m.offset--
			}
			return m, m.refresh()
		}
	}
	return m, nil
}

// buildChart draws focus hours per day, with completions stacked on top so
// busy days and productive days are distinguishable at a glance.
func (m *statsModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if m.height > 30 {
		chartHeight = 14
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	completions := m.board.CompletionsByDay()
	from, to := m.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		hours := float64(m.focusTime[dateStr]) / 3600.0
		values := []barchart.BarValue{
			{
				Name:  "focus",
				Value: hours,
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			},
		}
		if n := completions[dateStr]; n > 0 {
			values = append(values, barchart.BarValue{
				Name:  "done",
				Value: float64(n),
				Style: lipgloss.NewStyle().Foreground(colorSuccess),
			})
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) view() string {
	w := m.width - 4

	from, to := m.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s",
		from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ", dateLabel,
	)

	legend := "  " +
		lipgloss.NewStyle().Foreground(colorPrimary).Render("●") + " focus hours  " +
		lipgloss.NewStyle().Foreground(colorSuccess).Render("●") + " completions"

	summary := m.renderSummary(w)
	deltas := m.renderReflectionDeltas(w)
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", m.chart.View(), legend, "", summary, "", deltas, "", nav,
		),
	)
}

func (m statsModel) renderSummary(w int) string {
	s, ok := m.board.ComputeStats()
	if !ok {
		return mutedStyle.Render("  Rate some tasks to see averages")
	}

	var rows []string
	rows = append(rows, subtitleStyle.Render("  ESI averages over rated tasks"))
	rows = append(rows, fmt.Sprintf("  %-14s %.1f", "Energy", s.AvgEnergy))
	rows = append(rows, fmt.Sprintf("  %-14s %.1f", "Simplicity", s.AvgSimplicity))
	rows = append(rows, fmt.Sprintf("  %-14s %.1f", "Impact", s.AvgImpact))
	rows = append(rows, fmt.Sprintf("  %-14s %.1f  (high %d, low %d)",
		"Score", s.AvgScore, s.HighestScore, s.LowestScore))
	rows = append(rows, fmt.Sprintf("  %-14s %d rated, %d completed of %d",
		"Tasks", s.RatedCount, s.CompletedCount, s.TotalTasks))
	rows = append(rows, fmt.Sprintf("  %-14s %s", "Focus time", formatSeconds(s.TotalTime)))
	return strings.Join(rows, "\n")
}

// renderReflectionDeltas lists completed tasks whose actuals diverged from
// the prediction.
func (m statsModel) renderReflectionDeltas(w int) string {
	var rows []string
	for _, t := range m.board.Tasks() {
		if t.Status != task.StatusComplete {
			continue
		}
		d, ok := t.ReflectionDelta()
		if !ok {
			continue
		}
		style := successStyle
		sign := "+"
		if d.Total < 0 {
			style = errorStyle
			sign = ""
		}
		rows = append(rows, fmt.Sprintf("  %s %s",
			truncate(t.Title, min(w-20, 40)),
			style.Render(fmt.Sprintf("%s%d (E%+d S%+d I%+d)", sign, d.Total, d.Energy, d.Simplicity, d.Impact)),
		))
		if len(rows) >= 6 {
			break
		}
	}
	if len(rows) == 0 {
		return mutedStyle.Render("  No reflections yet")
	}
	return subtitleStyle.Render("  Predicted vs actual") + "\n" + strings.Join(rows, "\n")
}
