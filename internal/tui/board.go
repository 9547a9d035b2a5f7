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

var boardColumns = []board.Column{
	board.ColumnPrioritized,
	board.ColumnInProgress,
	board.ColumnCompleted,
}

type boardModel struct {
	board  *board.Board
	width  int
	height int

	colIdx  int
	cursors [3]int

	filterMenu   bool
	filterCursor int

	formActive bool
	form       *huh.Form
	formType   string // "dump", "notes", "reflect", "edit_reflect"
	targetID   string

	// Form field pointers (survive value copies)
	formText       *string
	formEnergy     *int
	formSimplicity *int
	formImpact     *int
	formNote       *string
}

func newBoardModel(b *board.Board) boardModel {
	text, note := "", ""
	energy, simplicity, impact := 3, 3, 5
	return boardModel{
		board:          b,
		formText:       &text,
		formEnergy:     &energy,
		formSimplicity: &simplicity,
		formImpact:     &impact,
		formNote:       &note,
	}
}

func (m *boardModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m boardModel) column() board.Column {
	return boardColumns[m.colIdx]
}

func (m boardModel) selected() (task.Task, bool) {
	p := m.board.Project(m.column())
	cur := m.cursors[m.colIdx]
	if cur >= len(p.VisibleTasks) {
		return task.Task{}, false
	}
	return p.VisibleTasks[cur], true
}

func (m *boardModel) clampCursor() {
	p := m.board.Project(m.column())
	if m.cursors[m.colIdx] >= len(p.VisibleTasks) {
		m.cursors[m.colIdx] = max(0, len(p.VisibleTasks)-1)
	}
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
}

func (m boardModel) update(msg tea.Msg) (boardModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.filterMenu {
		return m.updateFilterMenu(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, keys.Left):
		if m.colIdx > 0 {
			m.colIdx--
			m.clampCursor()
		}
	case key.Matches(keyMsg, keys.Right):
		if m.colIdx < len(boardColumns)-1 {
			m.colIdx++
			m.clampCursor()
		}
	case key.Matches(keyMsg, keys.Up):
		if m.cursors[m.colIdx] > 0 {
			m.cursors[m.colIdx]--
		}
	case key.Matches(keyMsg, keys.Down):
		p := m.board.Project(m.column())
		if m.cursors[m.colIdx] < len(p.VisibleTasks)-1 {
			m.cursors[m.colIdx]++
		}
	case key.Matches(keyMsg, keys.New):
		return m.showDumpForm()
	case key.Matches(keyMsg, keys.Filter):
		m.filterMenu = true
		m.filterCursor = 0
	case key.Matches(keyMsg, keys.Start):
		if t, ok := m.selected(); ok && t.Status == task.StatusPrioritized {
			if err := m.board.Start(t.ID); err != nil {
				return m, errorCmd(err)
			}
			m.clampCursor()
			return m, statusCmd("Started " + t.Title)
		}
	case key.Matches(keyMsg, keys.QuickComplete):
		if t, ok := m.selected(); ok && t.Status == task.StatusInProgress {
			if err := m.board.Complete(t.ID, nil); err != nil {
				return m, errorCmd(err)
			}
			m.clampCursor()
			return m, statusCmd("Completed " + t.Title)
		}
	case key.Matches(keyMsg, keys.Complete):
		if t, ok := m.selected(); ok {
			switch t.Status {
			case task.StatusInProgress:
				return m.showReflectForm(t, "reflect")
			case task.StatusComplete:
				return m.showReflectForm(t, "edit_reflect")
			}
		}
	case key.Matches(keyMsg, keys.SendBack):
		if t, ok := m.selected(); ok {
			if err := m.board.SendBack(t.ID); err != nil {
				return m, errorCmd(err)
			}
			m.clampCursor()
			return m, statusCmd("Sent back " + t.Title)
		}
	case key.Matches(keyMsg, keys.Reopen):
		if t, ok := m.selected(); ok && t.Status == task.StatusComplete {
			if err := m.board.UndoCompletion(t.ID); err != nil {
				return m, errorCmd(err)
			}
			m.clampCursor()
			return m, statusCmd("Reopened " + t.Title)
		}
	case key.Matches(keyMsg, keys.Delete):
		if t, ok := m.selected(); ok {
			m.board.Delete(t.ID)
			m.clampCursor()
			return m, statusCmd("Deleted " + t.Title + " (u to undo)")
		}
	case key.Matches(keyMsg, keys.Notes):
		if t, ok := m.selected(); ok {
			return m.showNotesForm(t)
		}
	case key.Matches(keyMsg, keys.Leverage):
		if t, ok := m.selected(); ok {
			next := task.LeverageTenX
			if t.Leverage == task.LeverageTenX {
				next = task.LeverageTwoX
			}
			if err := m.board.SetLeverage(t.ID, next); err != nil {
				return m, errorCmd(err)
			}
			return m, statusCmd(fmt.Sprintf("%s is now %s", t.Title, next))
		}
	case key.Matches(keyMsg, keys.TimeSensitive):
		if t, ok := m.selected(); ok {
			m.board.ToggleTimeSensitive(t.ID)
			m.clampCursor()
		}
	case key.Matches(keyMsg, keys.ResetTime):
		if t, ok := m.selected(); ok && t.TimeSpent > 0 {
			m.board.ResetTime(t.ID)
			return m, statusCmd("Reset time on " + t.Title)
		}
	}
	return m, nil
}

func (m boardModel) updateFilterMenu(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Filter):
		m.filterMenu = false
	case key.Matches(msg, keys.Up):
		if m.filterCursor > 0 {
			m.filterCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.filterCursor < len(board.AllFilterTags)-1 {
			m.filterCursor++
		}
	case key.Matches(msg, keys.Enter):
		tag := board.AllFilterTags[m.filterCursor]
		m.board.ToggleFilter(m.column(), tag)
		m.clampCursor()
	}
	return m, nil
}

// --- Forms ---

func (m boardModel) showDumpForm() (boardModel, tea.Cmd) {
	*m.formText = ""
	m.formType = "dump"
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Brain Dump").
				Description("One task per line. Blank lines are skipped.").
				Value(m.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m boardModel) showNotesForm(t task.Task) (boardModel, tea.Cmd) {
	*m.formText = t.Notes
	m.formType = "notes"
	m.targetID = t.ID
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Notes: " + t.Title).Value(m.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m boardModel) showReflectForm(t task.Task, formType string) (boardModel, tea.Cmd) {
	*m.formEnergy, *m.formSimplicity, *m.formImpact = 3, 3, 5
	*m.formNote = t.QuickReflection
	if t.HasReflection() {
		*m.formEnergy = t.ActualEnergy
		*m.formSimplicity = t.ActualSimplicity
		*m.formImpact = t.ActualImpact
	}
	m.formType = formType
	m.targetID = t.ID

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Actual Energy").
				Options(axisOptions("energy", 5)...).
				Value(m.formEnergy),
			huh.NewSelect[int]().
				Title("Actual Simplicity").
				Options(axisOptions("simplicity", 5)...).
				Value(m.formSimplicity),
			huh.NewSelect[int]().
				Title("Actual Impact").
				Options(axisOptions("impact", 10)...).
				Value(m.formImpact),
			huh.NewInput().Title("Quick Reflection (optional)").Value(m.formNote),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

// axisOptions builds 1..n options, annotating the anchored values.
func axisOptions(axis string, n int) []huh.Option[int] {
	opts := make([]huh.Option[int], n)
	for i := 1; i <= n; i++ {
		label := fmt.Sprintf("%d", i)
		if desc := task.RatingDescription(axis, i); desc != "" {
			label = fmt.Sprintf("%d — %s", i, desc)
		}
		opts[i-1] = huh.NewOption(label, i)
	}
	return opts
}

func (m boardModel) updateForm(msg tea.Msg) (boardModel, tea.Cmd) {
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
		switch m.formType {
		case "dump":
			created := m.board.BrainDump(*m.formText)
			return m, statusCmd(fmt.Sprintf("Added %d tasks", len(created)))
		case "notes":
			m.board.SetNotes(m.targetID, strings.TrimSpace(*m.formText))
			return m, statusCmd("Notes saved")
		case "reflect":
			refl := &task.Reflection{
				Energy:     *m.formEnergy,
				Simplicity: *m.formSimplicity,
				Impact:     *m.formImpact,
				Note:       *m.formNote,
			}
			if err := m.board.Complete(m.targetID, refl); err != nil {
				return m, errorCmd(err)
			}
			m.clampCursor()
			return m, statusCmd("Completed with reflection")
		case "edit_reflect":
			refl := task.Reflection{
				Energy:     *m.formEnergy,
				Simplicity: *m.formSimplicity,
				Impact:     *m.formImpact,
				Note:       *m.formNote,
			}
			if err := m.board.SaveReflection(m.targetID, refl); err != nil {
				return m, errorCmd(err)
			}
			return m, statusCmd("Reflection updated")
		}
	}

	return m, cmd
}

// --- Rendering ---

func (m boardModel) view() string {
	if m.formActive && m.form != nil {
		title := titleStyle.Render("Brain Dump")
		switch m.formType {
		case "notes":
			title = titleStyle.Render("Notes")
		case "reflect":
			title = titleStyle.Render("Complete Task")
		case "edit_reflect":
			title = titleStyle.Render("Edit Reflection")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}

	if m.filterMenu {
		return m.renderFilterMenu()
	}

	colWidth := (m.width - 8) / 3
	if colWidth < 20 {
		colWidth = 20
	}

	var cols []string
	for i := range boardColumns {
		cols = append(cols, m.renderColumn(i, colWidth))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	var lines []string
	if n := len(m.board.Unrated()); n > 0 {
		lines = append(lines, subtitleStyle.Render(fmt.Sprintf("  %d unrated tasks waiting — press 2 to rate", n)))
	}
	if m.board.MissingTenXInProgress() {
		lines = append(lines, warningStyle.Render("  ⚠ No 10x task in progress"))
	}
	lines = append(lines, row)
	lines = append(lines, mutedStyle.Render("  n: dump  s: start  c: complete  b: back  d: delete  f: filters  u: undo"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m boardModel) renderColumn(i, w int) string {
	col := boardColumns[i]
	p := m.board.Project(col)

	style := columnStyle
	if i == m.colIdx {
		style = activeColumnStyle
	}

	count := fmt.Sprintf("%d", p.TotalCount)
	if p.FilteredCount != p.TotalCount {
		count = fmt.Sprintf("%d/%d", p.FilteredCount, p.TotalCount)
	}
	title := titleStyle.Render(col.Title()) + subtitleStyle.Render(" "+count)
	if tags := m.activeFilterTags(col); tags != "" {
		title += "\n" + mutedStyle.Render(tags)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if len(p.VisibleTasks) == 0 {
		rows = append(rows, mutedStyle.Render(wrap(p.EmptyStateReason, w-4)))
	}

	for j, t := range p.VisibleTasks {
		rows = append(rows, m.renderTask(t, p, i, j, w))
	}

	return style.Width(w).Render(strings.Join(rows, "\n"))
}

func (m boardModel) renderTask(t task.Task, p board.Projection, colIdx, rowIdx, w int) string {
	cursor := "  "
	style := normalItemStyle
	if colIdx == m.colIdx && rowIdx == m.cursors[colIdx] {
		cursor = "> "
		style = selectedItemStyle
	}

	var badges []string
	if p.TopBand[t.ID] {
		badges = append(badges, bandStyle.Render("★"))
	}
	if t.Score > 0 {
		badges = append(badges, highlightStyle.Render(fmt.Sprintf("%d", t.Score)))
	}
	if t.Leverage != task.LeverageNone {
		badges = append(badges, accentStyle.Render(string(t.Leverage)))
	}
	if t.IsTimeSensitive {
		badges = append(badges, warningStyle.Render("⏰"))
	}
	if t.TimeSpent > 0 {
		badges = append(badges, mutedStyle.Render(formatHours(t.TimeSpent)))
	}
	if t.HasReflection() {
		badges = append(badges, successStyle.Render(fmt.Sprintf("✓%d", t.ActualScore())))
	}

	badge := ""
	if len(badges) > 0 {
		badge = " " + strings.Join(badges, " ")
	}

	titleWidth := w - 4 - lipgloss.Width(badge)
	if titleWidth < 8 {
		titleWidth = 8
	}
	return style.Render(cursor+truncate(t.Title, titleWidth)) + badge
}

func (m boardModel) activeFilterTags(col board.Column) string {
	fs := m.board.Filters(col)
	var parts []string
	for _, tag := range board.AllFilterTags {
		if fs.Active(tag) {
			parts = append(parts, string(tag))
		}
	}
	return strings.Join(parts, " · ")
}

func (m boardModel) renderFilterMenu() string {
	fs := m.board.Filters(m.column())
	title := titleStyle.Render("Filters — " + m.column().Title())

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, tag := range board.AllFilterTags {
		cursor := "  "
		style := normalItemStyle
		if i == m.filterCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "[ ]"
		if fs.Active(tag) {
			check = "[x]"
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, check, tag)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: toggle  esc: close"))

	return activePanelStyle.Width(m.width - 4).Render(strings.Join(rows, "\n"))
}

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func wrap(s string, w int) string {
	if w <= 0 || len(s) <= w {
		return s
	}
	words := strings.Fields(s)
	var lines []string
	line := ""
	for _, word := range words {
		if line != "" && len(line)+1+len(word) > w {
			lines = append(lines, line)
			line = word
			continue
		}
		if line == "" {
			line = word
		} else {
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
