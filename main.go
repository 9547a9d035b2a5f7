package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/esiq/internal/board"
	"github.com/sadopc/esiq/internal/store"
	"github.com/sadopc/esiq/internal/timer"
	"github.com/sadopc/esiq/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	b := board.New(s)
	tasks, err := s.LoadTasks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading tasks: %v\n", err)
		os.Exit(1)
	}
	b.Load(tasks)

	// Focus-timer reports land in the time_reports table; poll it on an
	// interval and on focus regain. The cursor starts at the last report
	// folded in a previous run (those seconds are already in the snapshot)
	// and advances past everything handed to the board, which deduplicates
	// anyway.
	cursor, err := s.ReportCursor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading report cursor: %v\n", err)
		os.Exit(1)
	}
	b.SeedReportCursor(cursor)
	relay := timer.NewRelay(func() ([]timer.Report, error) {
		after := cursor
		reports, err := s.ListTimeReports(store.ReportFilter{After: &after})
		if err != nil {
			return nil, err
		}
		for _, r := range reports {
			if r.ReportedAt.After(cursor) {
				cursor = r.ReportedAt
			}
		}
		return reports, nil
	}, 30*time.Second, 16)
	relay.Start()
	defer relay.Stop()

	app := tui.NewApp(b, s, relay)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
