package app

import (
	"fmt"
	"io"
	"os"

	"workbench/pkg/logging"
)

// Application is the main application structure that bootstraps workbench
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance. Logs
// go to logOutput; nil selects stderr so command output stays clean.
func NewApplication(cfg *Config, logOutput io.Writer) (*Application, error) {
	// Configure logging based on debug flag
	appLogLevel := logging.LevelWarn
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	if logOutput == nil {
		logOutput = os.Stderr
	}

	// Initialize logging for CLI output (will be replaced for TUI mode)
	logging.InitForCLI(appLogLevel, logOutput)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Config returns the application configuration.
func (a *Application) Config() *Config {
	return a.config
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Close releases everything InitializeServices opened.
func (a *Application) Close() error {
	return a.services.Close()
}
