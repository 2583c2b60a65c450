package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/envfile"
	"workbench/internal/fetch"
	"workbench/internal/health"
	"workbench/internal/registrar"
	"workbench/internal/reporting"
	"workbench/internal/runner"
	"workbench/pkg/logging"
)

// ConfigStore loads and persists the StackConfig document.
type ConfigStore interface {
	Load() (config.StackConfig, error)
	Save(cfg config.StackConfig) ([]string, error)
	Paths() config.Paths
}

// ComposeRunner issues the external orchestration tool's subcommands.
type ComposeRunner interface {
	Pull(ctx context.Context, sink runner.Sink) runner.Result
	Up(ctx context.Context, sink runner.Sink) runner.Result
	Down(ctx context.Context, sink runner.Sink) runner.Result
	Logs(ctx context.Context, service string, tail int, sink runner.Sink) runner.Result
}

// Executor runs a downloaded artifact.
type Executor interface {
	Run(ctx context.Context, e runner.Execution) runner.Result
}

// Fetcher downloads artifacts.
type Fetcher interface {
	Download(ctx context.Context, url, dest string, onProgress fetch.ProgressFunc) (fetch.Artifact, error)
}

// Prober waits for a readiness endpoint.
type Prober interface {
	WaitReady(ctx context.Context, baseURL, path string, interval time.Duration, maxAttempts int) (health.Outcome, error)
}

// Registrar registers a capability with the web UI.
type Registrar interface {
	Register(ctx context.Context, baseURL string, creds registrar.Credentials, capability registrar.Capability) *registrar.Warning
}

// PrerequisiteChecker probes the container runtime.
type PrerequisiteChecker interface {
	Check(ctx context.Context) containerizer.Prerequisites
}

// ContainerLister reports the stack's containers from the engine.
type ContainerLister interface {
	Ping(ctx context.Context) error
	Containers(ctx context.Context) ([]containerizer.ContainerInfo, error)
}

// StackLoader parses the stack definition with the materialized environment.
type StackLoader func(ctx context.Context, stackFile string, env map[string]string) (*containerizer.Stack, error)

// Deps are the orchestrator's collaborators. Engine and LoadStack may be nil.
type Deps struct {
	Config        ConfigStore
	Compose       ComposeRunner
	Executor      Executor
	Fetcher       Fetcher
	Prober        Prober
	Registrar     Registrar
	Prerequisites PrerequisiteChecker
	Engine        ContainerLister
	LoadStack     StackLoader
	Reporter      *reporting.Reporter

	StackFile string
	// Readiness policy; zero values select health.DefaultInterval and
	// health.DefaultMaxAttempts.
	ProbeInterval time.Duration
	ProbeAttempts int
	// ProgressInterval throttles download progress events.
	ProgressInterval time.Duration
}

// Orchestrator runs the provisioning sequence and steady-state operations.
type Orchestrator struct {
	deps Deps

	// opMu serializes mutating operations; acquired with TryLock only.
	opMu sync.Mutex

	mu        sync.RWMutex
	state     State
	operation string
	prereqs   *containerizer.Prerequisites
	lastError string
}

// New creates an Orchestrator in the Idle state.
func New(deps Deps) *Orchestrator {
	if deps.ProbeInterval <= 0 {
		deps.ProbeInterval = health.DefaultInterval
	}
	if deps.ProbeAttempts <= 0 {
		deps.ProbeAttempts = health.DefaultMaxAttempts
	}
	if deps.ProgressInterval <= 0 {
		deps.ProgressInterval = 250 * time.Millisecond
	}
	if deps.Reporter == nil {
		deps.Reporter = reporting.NewReporter(nil, nil)
	}
	return &Orchestrator{deps: deps, state: StateIdle}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Operation returns the name of the operation in progress, or "".
func (o *Orchestrator) Operation() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.operation
}

// Reporter returns the reporter events are published through.
func (o *Orchestrator) Reporter() *reporting.Reporter {
	return o.deps.Reporter
}

// begin claims the single operation slot or fails with ErrBusy.
func (o *Orchestrator) begin(name string) (string, func(), error) {
	if !o.opMu.TryLock() {
		return "", nil, fmt.Errorf("cannot %s: %w (%s)", name, ErrBusy, o.Operation())
	}
	o.mu.Lock()
	o.operation = name
	o.mu.Unlock()

	opID := reporting.NewOperationID()
	logging.Debug("Orchestrator", "Operation %s started (%s)", name, opID)
	return opID, func() {
		o.mu.Lock()
		o.operation = ""
		o.mu.Unlock()
		o.opMu.Unlock()
		logging.Debug("Orchestrator", "Operation %s finished (%s)", name, opID)
	}, nil
}

func (o *Orchestrator) transition(opID string, to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()
	if from == to {
		return
	}
	logging.Info("Orchestrator", "State %s -> %s", from, to)
	o.deps.Reporter.StateChanged(opID, string(from), string(to))
}

func (o *Orchestrator) fail(opID, step string, err error) error {
	o.mu.Lock()
	o.lastError = err.Error()
	o.mu.Unlock()
	o.deps.Reporter.StepFinished(opID, step, err)
	return err
}

func (o *Orchestrator) succeed(opID, step string) {
	o.mu.Lock()
	o.lastError = ""
	o.mu.Unlock()
	o.deps.Reporter.StepFinished(opID, step, nil)
}

func (o *Orchestrator) info(opID, format string, args ...interface{}) {
	o.deps.Reporter.Line(opID, reporting.SeverityInfo, format, args...)
}

func (o *Orchestrator) warn(opID, format string, args ...interface{}) {
	o.deps.Reporter.Line(opID, reporting.SeverityWarn, format, args...)
}

func (o *Orchestrator) sink(opID string) runner.Sink {
	return func(line string) {
		o.deps.Reporter.Output(opID, line)
	}
}

// materialize regenerates the environment descriptor from the current
// configuration and writes it where compose reads it.
func (o *Orchestrator) materialize(opID string) (config.StackConfig, envfile.Descriptor, error) {
	cfg, err := o.deps.Config.Load()
	if err != nil {
		return cfg, nil, o.fail(opID, StepMaterialize, &StepError{Step: StepMaterialize, Err: err})
	}
	d := envfile.Materialize(cfg)
	path := o.deps.Config.Paths().EnvFile
	if err := d.Write(path); err != nil {
		return cfg, nil, o.fail(opID, StepMaterialize, &StepError{Step: StepMaterialize, Err: err})
	}
	o.info(opID, "Wrote environment descriptor to %s", path)
	return cfg, d, nil
}

// validateStack parses the stack definition before compose sees it and warns
// when no service publishes the configured web UI port.
func (o *Orchestrator) validateStack(ctx context.Context, opID string, cfg config.StackConfig, d envfile.Descriptor) (*containerizer.Stack, error) {
	if o.deps.LoadStack == nil || o.deps.StackFile == "" {
		return nil, nil
	}
	stack, err := o.deps.LoadStack(ctx, o.deps.StackFile, d.Map())
	if err != nil {
		return nil, o.fail(opID, StepValidate, &StepError{Step: StepValidate, Err: err})
	}
	o.info(opID, "Stack %s defines services: %v", o.deps.StackFile, stack.ServiceNames())

	webUIPort := strconv.Itoa(cfg.WebUIPort)
	published := stack.PublishedPorts()
	for _, ports := range published {
		if slices.Contains(ports, webUIPort) {
			return stack, nil
		}
	}
	o.warn(opID, "No service in %s publishes the web UI port %s (published: %v)", o.deps.StackFile, webUIPort, published)
	return stack, nil
}

// webUIBase is the host-side URL of the web UI.
func webUIBase(cfg config.StackConfig) string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.WebUIPort)
}
