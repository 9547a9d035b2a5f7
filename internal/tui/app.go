package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/esiq/internal/board"
	"github.com/sadopc/esiq/internal/export"
	"github.com/sadopc/esiq/internal/store"
	"github.com/sadopc/esiq/internal/timer"
)

// App is the root Bubble Tea model.
type App struct {
	board  *board.Board
	store  *store.Store
	relay  *timer.Relay
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	boardView boardModel
	rateView  rateModel
	statsView statsModel

	help   help.Model
	status string
}

func NewApp(b *board.Board, s *store.Store, r *timer.Relay) App {
	h := help.New()
	h.ShowAll = false

	return App{
		board:     b,
		store:     s,
		relay:     r,
		boardView: newBoardModel(b),
		rateView:  newRateModel(b),
		statsView: newStatsModel(b, s),
		help:      h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.statsView.refresh(),
		waitForReport(a.relay.C()),
	)
}

// waitForReport blocks on the relay's merged stream and re-arms after every
// delivery.
func waitForReport(ch <-chan timer.Report) tea.Cmd {
	return func() tea.Msg {
		rep, ok := <-ch
		if !ok {
			return reportChannelClosedMsg{}
		}
		return timeReportMsg{report: rep}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.boardView.setSize(a.width, contentHeight)
		a.rateView.setSize(a.width, contentHeight)
		a.statsView.setSize(a.width, contentHeight)
		return a, nil

	case tea.FocusMsg:
		// Coming back to the foreground: pick up whatever the focus timer
		// wrote while we were away.
		a.relay.PollNow()
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		// This also keeps undo away from half-finished form edits.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Undo):
			desc, err := a.board.Undo()
			switch {
			case errors.Is(err, board.ErrNothingToUndo):
				a.status = "Nothing to undo"
			case err != nil:
				a.status = err.Error()
			case desc != "":
				a.status = "Undo: " + desc
			}
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewBoard
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewRate
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, a.statsView.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 3
			if a.activeView == viewStats {
				return a, a.statsView.refresh()
			}
			return a, nil
		}

	case timeReportMsg:
		rep := msg.report
		if a.board.AddTime(rep.TaskID, rep.Seconds, rep.ReportedAt) {
			if t, ok := a.board.Get(rep.TaskID); ok {
				a.status = fmt.Sprintf("Logged %s on %s", formatSeconds(rep.Seconds), t.Title)
			}
		}
		return a, waitForReport(a.relay.C())

	case reportChannelClosedMsg:
		return a, nil

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewBoard:
		a.boardView, cmd = a.boardView.update(msg)
	case viewRate:
		a.rateView, cmd = a.rateView.update(msg)
	case viewStats:
		a.statsView, cmd = a.statsView.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewBoard:
		return a.boardView.formActive || a.boardView.filterMenu
	case viewRate:
		return a.rateView.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewBoard:
		content = a.boardView.view()
	case viewRate:
		content = a.rateView.view()
	case viewStats:
		content = a.statsView.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("esiq")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Surface a stuck storage poll so missing time reports are explainable.
	pollInfo := ""
	if err := a.relay.PollErr(); err != nil {
		pollInfo = errorStyle.Render(" ⚠ timer sync")
	}

	left := footerStyle.Render(helpView)
	right := pollInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export Format")
	formats := []string{"JSON", "CSV"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	tasks := a.board.Tasks()
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		now := time.Now()

		var path string
		if format == 0 {
			path = filepath.Join(home, export.DefaultFilename(now))
			if err := export.ToJSON(tasks, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("esiq-export-%s.csv", now.Format("2006-01-02")))
			if err := export.ToCSV(tasks, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
