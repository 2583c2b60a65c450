package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/envfile"
)

// Status is a point-in-time view of the orchestrator and the stack.
// StateSource is StateSourceEngine when State was derived from the container
// list rather than from operations run by this process.
type Status struct {
	State         State                         `json:"state" yaml:"state"`
	StateSource   string                        `json:"stateSource" yaml:"stateSource"`
	Operation     string                        `json:"operation,omitempty" yaml:"operation,omitempty"`
	LastError     string                        `json:"lastError,omitempty" yaml:"lastError,omitempty"`
	WebUIURL      string                        `json:"webuiUrl" yaml:"webuiUrl"`
	Prerequisites *containerizer.Prerequisites  `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	Containers    []containerizer.ContainerInfo `json:"containers" yaml:"containers"`
	EngineError   string                        `json:"engineError,omitempty" yaml:"engineError,omitempty"`
}

const (
	StateSourceOrchestrator = "orchestrator"
	StateSourceEngine       = "engine"
)

// Status reports the orchestrator state and, when an engine is configured,
// the stack's containers. An unreachable engine is reported in EngineError.
// A process that has not run any operation yet is Idle; its state is then
// derived from the containers so a fresh CLI invocation shows the real stack.
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	o.mu.RLock()
	s := Status{
		State:         o.state,
		StateSource:   StateSourceOrchestrator,
		Operation:     o.operation,
		LastError:     o.lastError,
		Prerequisites: o.prereqs,
	}
	o.mu.RUnlock()

	url, err := o.WebUIURL()
	if err != nil {
		return s, err
	}
	s.WebUIURL = url

	if o.deps.Engine == nil {
		return s, nil
	}
	if err := o.deps.Engine.Ping(ctx); err != nil {
		s.EngineError = err.Error()
		return s, nil
	}
	containers, err := o.deps.Engine.Containers(ctx)
	if err != nil {
		s.EngineError = err.Error()
		return s, nil
	}
	s.Containers = containers
	if s.State == StateIdle && s.Operation == "" {
		if derived, ok := stateFromContainers(containers); ok {
			s.State = derived
			s.StateSource = StateSourceEngine
		}
	}
	return s, nil
}

// stateFromContainers maps the engine's view of the stack onto a State.
// An empty list says nothing about the stack and leaves the caller's state.
func stateFromContainers(containers []containerizer.ContainerInfo) (State, bool) {
	if len(containers) == 0 {
		return StateIdle, false
	}
	running := 0
	for _, c := range containers {
		if c.State == "running" {
			running++
		}
	}
	switch {
	case running == len(containers):
		return StateServicesReady, true
	case running > 0:
		return StateServicesStarting, true
	default:
		return StateStopped, true
	}
}

// Containers lists the stack's containers through the engine API.
func (o *Orchestrator) Containers(ctx context.Context) ([]containerizer.ContainerInfo, error) {
	if o.deps.Engine == nil {
		return nil, errors.New("container engine is not available")
	}
	return o.deps.Engine.Containers(ctx)
}

// WebUIURL returns the host-side address of the web UI.
func (o *Orchestrator) WebUIURL() (string, error) {
	cfg, err := o.deps.Config.Load()
	if err != nil {
		return "", err
	}
	return webUIBase(cfg), nil
}

// Logs returns the last tail lines of service. It does not claim the
// operation slot so logs stay readable while a start is in progress.
func (o *Orchestrator) Logs(ctx context.Context, service string, tail int) (string, error) {
	envPath := o.deps.Config.Paths().EnvFile
	cfg, err := o.deps.Config.Load()
	if err != nil {
		return "", err
	}
	d := envfile.Materialize(cfg)
	if _, statErr := os.Stat(envPath); errors.Is(statErr, os.ErrNotExist) {
		if err := d.Write(envPath); err != nil {
			return "", &StepError{Step: StepMaterialize, Err: err}
		}
	}

	if o.deps.LoadStack != nil && o.deps.StackFile != "" {
		stack, err := o.deps.LoadStack(ctx, o.deps.StackFile, d.Map())
		if err != nil {
			return "", &StepError{Step: StepValidate, Err: err}
		}
		if err := stack.CheckService(service); err != nil {
			return "", err
		}
	}

	res := o.deps.Compose.Logs(ctx, service, tail, nil)
	if !res.Success() {
		return res.Output, &StepError{Step: StepLogs, ExitCode: res.ExitCode, Output: res.Output, Err: res.SpawnErr}
	}
	return res.Output, nil
}

// Config returns the stored configuration.
func (o *Orchestrator) Config() (config.StackConfig, error) {
	return o.deps.Config.Load()
}

// SaveConfig validates and persists cfg as a whole document, then rewrites
// the environment descriptor from it. Validation warnings are returned
// alongside a nil error.
func (o *Orchestrator) SaveConfig(cfg config.StackConfig) ([]string, error) {
	opID, done, err := o.begin("save configuration")
	if err != nil {
		return nil, err
	}
	defer done()

	warnings, err := o.deps.Config.Save(cfg)
	if err != nil {
		return nil, o.fail(opID, StepConfig, err)
	}
	for _, w := range warnings {
		o.warn(opID, "Configuration: %s", w)
	}

	path := o.deps.Config.Paths().EnvFile
	if err := envfile.Materialize(cfg).Write(path); err != nil {
		return warnings, o.fail(opID, StepConfig, fmt.Errorf("configuration saved but environment descriptor not written: %w", err))
	}
	o.info(opID, "Configuration saved")
	o.succeed(opID, StepConfig)
	return warnings, nil
}
