package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/esiq/internal/board"
	"github.com/sadopc/esiq/internal/task"
)

// rateModel is the rating queue: every unrated task, with staged ratings
// that can be committed one at a time or in bulk.
type rateModel struct {
	board  *board.Board
	width  int
	height int

	cursor int
	staged map[string]task.Rating

	formActive bool
	form       *huh.Form
	targetID   string

	// Form field pointers (survive value copies)
	formEnergy     *int
	formSimplicity *int
	formImpact     *int
	formLeverage   *string
}

func newRateModel(b *board.Board) rateModel {
	energy, simplicity, impact := 3, 3, 5
	leverage := string(task.LeverageTwoX)
	return rateModel{
		board:          b,
		staged:         make(map[string]task.Rating),
		formEnergy:     &energy,
		formSimplicity: &simplicity,
		formImpact:     &impact,
		formLeverage:   &leverage,
	}
}

func (m *rateModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *rateModel) clampCursor(queue []task.Task) {
	if m.cursor >= len(queue) {
		m.cursor = max(0, len(queue)-1)
	}
}

func (m rateModel) update(msg tea.Msg) (rateModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	queue := m.board.Unrated()
	m.clampCursor(queue)

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(queue)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.RateOne):
		if m.cursor < len(queue) {
			return m.showRateForm(queue[m.cursor])
		}
	case key.Matches(keyMsg, keys.Enter):
		if m.cursor < len(queue) {
			t := queue[m.cursor]
			r, ok := m.staged[t.ID]
			if !ok {
				return m.showRateForm(t)
			}
			if err := m.board.Rate(t.ID, r); err != nil {
				return m, errorCmd(err)
			}
			delete(m.staged, t.ID)
			m.clampCursor(m.board.Unrated())
			return m, statusCmd(fmt.Sprintf("Prioritized %s (score %d)", t.Title, r.Score()))
		}
	case key.Matches(keyMsg, keys.RateAll):
		n := m.board.RateAll(m.staged)
		for id := range m.staged {
			if t, ok := m.board.Get(id); !ok || t.Status != task.StatusUnrated {
				delete(m.staged, id)
			}
		}
		m.clampCursor(m.board.Unrated())
		if n == 0 {
			return m, statusCmd("Nothing staged to rate")
		}
		return m, statusCmd(fmt.Sprintf("Prioritized %d tasks", n))
	}
	return m, nil
}

func (m rateModel) showRateForm(t task.Task) (rateModel, tea.Cmd) {
	*m.formEnergy, *m.formSimplicity, *m.formImpact = 3, 3, 5
	*m.formLeverage = string(task.LeverageTwoX)
	if r, ok := m.staged[t.ID]; ok {
		*m.formEnergy, *m.formSimplicity, *m.formImpact = r.Energy, r.Simplicity, r.Impact
		*m.formLeverage = string(r.Leverage)
	}
	m.targetID = t.ID

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Energy").
				Description("How will working on this feel?").
				Options(axisOptions("energy", 5)...).
				Value(m.formEnergy),
			huh.NewSelect[int]().
				Title("Simplicity").
				Description("How contained is it?").
				Options(axisOptions("simplicity", 5)...).
				Value(m.formSimplicity),
			huh.NewSelect[int]().
				Title("Impact").
				Description("How much does it move the needle?").
				Options(axisOptions("impact", 10)...).
				Value(m.formImpact),
			huh.NewSelect[string]().
				Title("Leverage").
				Options(
					huh.NewOption("10x — multiplies future output", string(task.LeverageTenX)),
					huh.NewOption("2x — solid incremental win", string(task.LeverageTwoX)),
				).
				Value(m.formLeverage),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m rateModel) updateForm(msg tea.Msg) (rateModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.staged[m.targetID] = task.Rating{
			Energy:     *m.formEnergy,
			Simplicity: *m.formSimplicity,
			Impact:     *m.formImpact,
			Leverage:   task.Leverage(*m.formLeverage),
		}
		return m, statusCmd("Staged — enter to commit, a for all")
	}

	return m, cmd
}

func (m rateModel) view() string {
	if m.formActive && m.form != nil {
		t, _ := m.board.Get(m.targetID)
		title := titleStyle.Render("Rate: " + t.Title)
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}

	w := m.width - 4
	queue := m.board.Unrated()
	title := titleStyle.Render("Rating Queue") +
		subtitleStyle.Render(fmt.Sprintf(" %d unrated", len(queue)))

	if len(queue) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("All caught up. Brain dump on the board (1) to add more."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, t := range queue {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		stagedInfo := mutedStyle.Render(" — not staged")
		if r, ok := m.staged[t.ID]; ok {
			stagedInfo = successStyle.Render(fmt.Sprintf(" — staged E%d S%d I%d %s (score %d)",
				r.Energy, r.Simplicity, r.Impact, r.Leverage, r.Score()))
		}
		rows = append(rows, style.Render(cursor+truncate(t.Title, w-40))+stagedInfo)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  r: rate  enter: commit  a: commit all staged"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
