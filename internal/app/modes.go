package app

import (
	"context"

	"workbench/internal/agent"
	"workbench/internal/api"
	"workbench/internal/color"
	"workbench/internal/tui"
	"workbench/pkg/logging"
)

// RunServer serves the local control API until ctx is cancelled.
func (a *Application) RunServer(ctx context.Context, addr string) error {
	logging.Info("Server", "Control API listening on %s", addr)
	srv := api.NewServer(a.services.Orchestrator, a.services.Bus)
	return srv.ListenAndServe(ctx, addr)
}

// RunMCP serves stack operations as MCP tools over stdio.
func (a *Application) RunMCP(ctx context.Context, version string) error {
	logging.Info("MCP", "Serving MCP tools on stdio")
	return agent.NewServer(a.services.Orchestrator, version).ServeStdio(ctx)
}

// RunDashboard executes the interactive terminal dashboard.
func (a *Application) RunDashboard(ctx context.Context, theme color.Theme) error {
	logging.Info("CLI", "Starting dashboard...")

	// Switch logging to channel-based system for TUI integration
	logLevel := logging.LevelInfo
	if a.config.Debug {
		logLevel = logging.LevelDebug
	}
	logChan := logging.InitForTUI(logLevel)
	defer logging.CloseTUIChannel()

	err := tui.Run(ctx, tui.Options{
		Orchestrator: a.services.Orchestrator,
		Bus:          a.services.Bus,
		LogChan:      logChan,
		Debug:        a.config.Debug,
		Theme:        theme,
	})
	if err != nil {
		logging.Error("TUI-Lifecycle", err, "Error running dashboard")
		return err
	}
	logging.Info("TUI-Lifecycle", "Dashboard exited.")
	return nil
}
