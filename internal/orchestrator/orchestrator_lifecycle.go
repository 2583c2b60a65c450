package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"workbench/internal/containerizer"
	"workbench/internal/fetch"
	"workbench/internal/health"
	"workbench/internal/registrar"
	"workbench/internal/runner"
)

// StartResult is the outcome of a start sequence that reached readiness.
// Warning is set when capability registration failed; the stack is usable
// regardless.
type StartResult struct {
	Probe   health.Outcome
	Warning *registrar.Warning
}

// CheckPrerequisites probes the container runtime. A missing or stopped
// runtime is reported in the result, not as an error.
func (o *Orchestrator) CheckPrerequisites(ctx context.Context) (containerizer.Prerequisites, error) {
	opID, done, err := o.begin("check prerequisites")
	if err != nil {
		return containerizer.Prerequisites{}, err
	}
	defer done()

	p := o.checkRuntime(ctx, opID)
	if !p.Ready() {
		o.deps.Reporter.StepFinished(opID, StepPrerequisites, ErrPrerequisitesNotMet)
	}
	return p, nil
}

// requireRuntime re-probes the runtime and refuses to continue unless it is
// installed and running.
func (o *Orchestrator) requireRuntime(ctx context.Context, opID string) error {
	if p := o.checkRuntime(ctx, opID); !p.Ready() {
		return o.fail(opID, StepPrerequisites, &StepError{Step: StepPrerequisites, Err: ErrPrerequisitesNotMet})
	}
	return nil
}

// checkRuntime runs the prerequisite probe, records and reports the result,
// and advances a settled orchestrator to PrerequisitesChecked.
func (o *Orchestrator) checkRuntime(ctx context.Context, opID string) containerizer.Prerequisites {
	o.info(opID, "Checking container runtime")
	p := o.deps.Prerequisites.Check(ctx)

	o.mu.Lock()
	o.prereqs = &p
	o.mu.Unlock()

	switch {
	case !p.Installed:
		o.warn(opID, "Docker Desktop is not installed. Download it from %s", containerizer.RuntimeDownloadURL)
	case !p.Running:
		o.warn(opID, "Docker is installed at %s but not running. Start Docker Desktop and check again", p.Location)
	default:
		o.info(opID, "Docker is installed at %s and running", p.Location)
	}
	if !p.Ready() {
		return p
	}

	o.succeed(opID, StepPrerequisites)
	if o.State().settled() {
		o.transition(opID, StatePrerequisitesChecked)
	}
	return p
}

// DownloadArtifact fetches spec into destDir and records its digest in a
// sidecar file. An empty destDir selects the data directory's downloads folder.
func (o *Orchestrator) DownloadArtifact(ctx context.Context, spec ArtifactSpec, destDir string) (fetch.Artifact, error) {
	opID, done, err := o.begin("download " + spec.Name)
	if err != nil {
		return fetch.Artifact{}, err
	}
	defer done()
	return o.download(ctx, opID, spec, destDir)
}

// InstallArtifact downloads spec, records its digest, then runs it with its
// unattended arguments. The digest is logged before execution so the audit
// trail ties the executed file to the downloaded bytes.
func (o *Orchestrator) InstallArtifact(ctx context.Context, spec ArtifactSpec, destDir string) (fetch.Artifact, error) {
	opID, done, err := o.begin("install " + spec.Name)
	if err != nil {
		return fetch.Artifact{}, err
	}
	defer done()

	a, err := o.download(ctx, opID, spec, destDir)
	if err != nil {
		return a, err
	}

	o.info(opID, "Executing %s %v", a.Path, spec.Args)
	res := o.deps.Executor.Run(ctx, runner.Execution{
		Command: a.Path,
		Args:    spec.Args,
		Dir:     filepath.Dir(a.Path),
		Sink:    o.sink(opID),
	})
	if !res.Success() {
		return a, o.fail(opID, StepInstall, &StepError{Step: StepInstall, ExitCode: res.ExitCode, Output: res.Output, Err: res.SpawnErr})
	}
	o.info(opID, "%s installed", spec.Name)
	o.succeed(opID, StepInstall)
	return a, nil
}

func (o *Orchestrator) download(ctx context.Context, opID string, spec ArtifactSpec, destDir string) (fetch.Artifact, error) {
	if destDir == "" {
		destDir = o.deps.Config.Paths().DownloadsDir
	}
	dest := filepath.Join(destDir, spec.FileName)

	o.info(opID, "Downloading %s from %s", spec.Name, spec.URL)
	progress := fetch.Throttle(func(received, total int64) {
		o.deps.Reporter.Progress(opID, spec.Name, received, total)
	}, o.deps.ProgressInterval)

	a, err := o.deps.Fetcher.Download(ctx, spec.URL, dest, progress)
	if err != nil {
		return a, o.fail(opID, StepDownload, &StepError{Step: StepDownload, Err: err})
	}
	o.info(opID, "Artifact %s sha256 %s", filepath.Base(a.Path), a.Hex())

	sidecar, err := fetch.WriteSidecar(a)
	if err != nil {
		return a, o.fail(opID, StepDownload, &StepError{Step: StepDownload, Err: err})
	}
	o.info(opID, "Digest recorded in %s", sidecar)
	o.succeed(opID, StepDownload)
	return a, nil
}

// PullImages fetches every service image of the stack.
func (o *Orchestrator) PullImages(ctx context.Context) error {
	opID, done, err := o.begin("pull images")
	if err != nil {
		return err
	}
	defer done()

	if err := o.requireRuntime(ctx, opID); err != nil {
		return err
	}
	cfg, d, err := o.materialize(opID)
	if err != nil {
		return err
	}
	if _, err := o.validateStack(ctx, opID, cfg, d); err != nil {
		return err
	}

	o.info(opID, "Pulling images")
	res := o.deps.Compose.Pull(ctx, o.sink(opID))
	if !res.Success() {
		return o.fail(opID, StepPull, &StepError{Step: StepPull, ExitCode: res.ExitCode, Output: res.Output, Err: res.SpawnErr})
	}
	o.succeed(opID, StepPull)

	if o.State() == StatePrerequisitesChecked {
		o.transition(opID, StateProvisioned)
	}
	return nil
}

// StartStack runs the runtime check, materialize, up, readiness wait and
// capability registration, strictly in that order. A readiness timeout moves to Error
// and leaves the started services running. Registration failures come back
// as StartResult.Warning, never as an error.
func (o *Orchestrator) StartStack(ctx context.Context) (StartResult, error) {
	var result StartResult

	opID, done, err := o.begin("start stack")
	if err != nil {
		return result, err
	}
	defer done()

	if err := o.requireRuntime(ctx, opID); err != nil {
		return result, err
	}
	cfg, d, err := o.materialize(opID)
	if err != nil {
		return result, err
	}
	if _, err := o.validateStack(ctx, opID, cfg, d); err != nil {
		return result, err
	}

	o.info(opID, "Starting services")
	res := o.deps.Compose.Up(ctx, o.sink(opID))
	if !res.Success() {
		return result, o.fail(opID, StepUp, &StepError{Step: StepUp, ExitCode: res.ExitCode, Output: res.Output, Err: res.SpawnErr})
	}
	o.succeed(opID, StepUp)
	if o.State() == StatePrerequisitesChecked {
		// up --build provisions any image that was not pulled
		o.transition(opID, StateProvisioned)
	}
	o.transition(opID, StateServicesStarting)

	base := webUIBase(cfg)
	o.info(opID, "Waiting for %s%s (every %s, up to %d attempts)", base, health.DefaultPath, o.deps.ProbeInterval, o.deps.ProbeAttempts)
	outcome, err := o.deps.Prober.WaitReady(ctx, base, health.DefaultPath, o.deps.ProbeInterval, o.deps.ProbeAttempts)
	result.Probe = outcome
	if err != nil {
		o.transition(opID, StateError)
		var te *health.TimeoutError
		if errors.As(err, &te) {
			err = fmt.Errorf("%w: %w", ErrReadinessTimeout, te)
		}
		return result, o.fail(opID, StepReadiness, &StepError{Step: StepReadiness, Err: err})
	}
	o.info(opID, "Web UI ready after %d attempt(s)", outcome.Attempts)
	o.succeed(opID, StepReadiness)
	o.transition(opID, StateServicesReady)

	o.info(opID, "Registering file access with the web UI")
	creds := registrar.Credentials{Email: cfg.AdminEmail, Password: cfg.AdminPassword}
	if w := o.deps.Registrar.Register(ctx, base, creds, registrar.FileAccessCapability(cfg.FileAPIKey)); w != nil {
		result.Warning = w
		o.warn(opID, "File access registration skipped: %v", w)
		o.deps.Reporter.StepFinished(opID, StepRegister, w)
	} else {
		o.succeed(opID, StepRegister)
	}
	o.transition(opID, StateCapabilityRegistered)

	o.info(opID, "Stack is up at %s", base)
	return result, nil
}

// Stop tears down every service. Stopping a stopped stack succeeds.
func (o *Orchestrator) Stop(ctx context.Context) error {
	opID, done, err := o.begin("stop stack")
	if err != nil {
		return err
	}
	defer done()

	if _, _, err := o.materialize(opID); err != nil {
		return err
	}

	o.info(opID, "Stopping services")
	res := o.deps.Compose.Down(ctx, o.sink(opID))
	if !res.Success() {
		return o.fail(opID, StepDown, &StepError{Step: StepDown, ExitCode: res.ExitCode, Output: res.Output, Err: res.SpawnErr})
	}
	o.succeed(opID, StepDown)
	o.transition(opID, StateStopped)
	return nil
}
