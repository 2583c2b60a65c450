package tui

import (
	"context"

	"workbench/internal/color"
	"workbench/internal/reporting"
	"workbench/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

const eventBuffer = 1024

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	color.Apply(opts.Theme)

	var events <-chan reporting.Event
	if opts.Bus != nil {
		sub := opts.Bus.Subscribe(eventBuffer, nil)
		defer sub.Close()
		events = sub.C
	}

	p := tea.NewProgram(newModel(ctx, opts, events), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			logging.Debug("TUI-Lifecycle", "Dashboard cancelled: %v", ctx.Err())
			return nil
		}
		return err
	}
	return nil
}
