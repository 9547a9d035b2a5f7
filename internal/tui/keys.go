package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	New           key.Binding
	Start         key.Binding
	Complete      key.Binding
	QuickComplete key.Binding
	SendBack      key.Binding
	Reopen        key.Binding
	Delete        key.Binding
	Undo          key.Binding
	Notes         key.Binding
	Leverage      key.Binding
	TimeSensitive key.Binding
	ResetTime     key.Binding
	Filter        key.Binding
	RateOne       key.Binding
	RateAll       key.Binding
	Export        key.Binding
	Tab1          key.Binding
	Tab2          key.Binding
	Tab3          key.Binding
	Tab           key.Binding
	Help          key.Binding
	Enter         key.Binding
	Back          key.Binding
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "brain dump"),
	),
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Complete: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "complete"),
	),
	QuickComplete: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "complete (no reflection)"),
	),
	SendBack: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "send back"),
	),
	Reopen: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reopen"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "undo"),
	),
	Notes: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "notes"),
	),
	Leverage: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "cycle leverage"),
	),
	TimeSensitive: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "time-sensitive"),
	),
	ResetTime: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset time"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "filters"),
	),
	RateOne: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rate"),
	),
	RateAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "rate all staged"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "board"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "rate"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "stats"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Start, k.Complete, k.Undo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Start, k.Complete, k.SendBack},
		{k.Delete, k.Undo, k.Notes, k.TimeSensitive, k.ResetTime},
		{k.Filter, k.Export, k.Tab1, k.Tab2, k.Tab3},
		{k.Up, k.Down, k.Left, k.Right, k.Quit},
	}
}
