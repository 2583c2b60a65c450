// Package orchestrator sequences the provisioning of the local LLM stack and
// its steady-state operations.
//
// The installer flow runs in a fixed order:
//
//  1. CheckPrerequisites: the container runtime is installed and running
//  2. InstallArtifact: download a redistributable, record its digest, run it silently
//  3. PullImages: fetch every service image
//  4. StartStack: materialize the environment, start services, wait for the
//     web UI to answer its readiness endpoint, then register the file-access
//     capability with it
//
// Steady-state operations are Stop, Logs, Status, WebUIURL and SaveConfig.
//
// # State Machine
//
//	Idle -> PrerequisitesChecked -> Provisioned -> ServicesStarting -> ServicesReady -> CapabilityRegistered
//
// Stopped is reachable from any running state. Error is entered when the
// readiness budget is exhausted; it does not roll back started services.
//
// # Concurrency
//
// Only one mutating operation runs at a time. A second one issued while the
// first is outstanding fails immediately with ErrBusy. Read-only queries
// (State, Status, Logs, WebUIURL) never block on a running operation.
//
// # Events
//
// Every step writes human-readable lines, state transitions and step outcomes
// through a reporting.Reporter, so the audit log holds a complete trail of
// what was attempted even when a sequence fails.
//
// # Usage Example
//
//	orch := orchestrator.New(orchestrator.Deps{
//	    Config:        store,
//	    Compose:       containerizer.NewCompose(r, stackFile, paths.EnvFile),
//	    Executor:      r,
//	    Fetcher:       fetch.New(),
//	    Prober:        health.NewProber(),
//	    Registrar:     registrar.New(),
//	    Prerequisites: containerizer.NewRuntimeProbe(r),
//	    Reporter:      reporter,
//	    StackFile:     stackFile,
//	})
//	res, err := orch.StartStack(ctx)
package orchestrator
