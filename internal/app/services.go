package app

import (
	"fmt"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/fetch"
	"workbench/internal/health"
	"workbench/internal/orchestrator"
	"workbench/internal/registrar"
	"workbench/internal/reporting"
	"workbench/internal/runner"
	"workbench/pkg/logging"
)

// Services holds all the initialized services
type Services struct {
	Paths        config.Paths
	Store        *config.Store
	Bus          *reporting.Bus
	Audit        *reporting.AuditLog
	Reporter     *reporting.Reporter
	Engine       *containerizer.Engine
	Orchestrator *orchestrator.Orchestrator
}

// InitializeServices creates the store, the event stream and the
// orchestrator with its production collaborators.
func InitializeServices(cfg *Config) (*Services, error) {
	paths, err := config.ResolvePaths(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	store := config.NewStore(paths)

	audit, err := reporting.OpenAuditLog(paths.LogFile)
	if err != nil {
		return nil, err
	}
	bus := reporting.NewBus()
	reporter := reporting.NewReporter(bus, audit)

	r := runner.New()

	deps := orchestrator.Deps{
		Config:        store,
		Compose:       containerizer.NewCompose(r, cfg.StackFile, paths.EnvFile),
		Executor:      r,
		Fetcher:       fetch.New(),
		Prober:        health.NewProber(),
		Registrar:     registrar.New(),
		Prerequisites: containerizer.NewRuntimeProbe(r),
		LoadStack:     containerizer.LoadStack,
		Reporter:      reporter,
		StackFile:     cfg.StackFile,
	}

	engine, err := containerizer.NewEngine()
	if err != nil {
		logging.Warn("Bootstrap", "Container engine API unavailable, status will omit containers: %v", err)
	} else {
		deps.Engine = engine
	}

	logging.Debug("Bootstrap", "Data directory %s, stack file %s", paths.DataDir, cfg.StackFile)

	return &Services{
		Paths:        paths,
		Store:        store,
		Bus:          bus,
		Audit:        audit,
		Reporter:     reporter,
		Engine:       engine,
		Orchestrator: orchestrator.New(deps),
	}, nil
}

// Close releases the event stream, audit log and engine client.
func (s *Services) Close() error {
	m := s.Bus.Metrics()
	logging.Debug("Bootstrap", "Event bus: %d published, %d delivered, %d dropped",
		m.EventsPublished, m.EventsDelivered, m.EventsDropped)
	s.Bus.Close()
	if s.Engine != nil {
		_ = s.Engine.Close()
	}
	return s.Audit.Close()
}
