package orchestrator

import (
	"errors"
	"fmt"
)

// State is the orchestrator's position in the provisioning sequence.
type State string

const (
	StateIdle                 State = "Idle"
	StatePrerequisitesChecked State = "PrerequisitesChecked"
	StateProvisioned          State = "Provisioned"
	StateServicesStarting     State = "ServicesStarting"
	StateServicesReady        State = "ServicesReady"
	StateCapabilityRegistered State = "CapabilityRegistered"
	StateStopped              State = "Stopped"
	StateError                State = "Error"
)

// Running reports whether services are believed to be up.
func (s State) Running() bool {
	switch s {
	case StateServicesStarting, StateServicesReady, StateCapabilityRegistered:
		return true
	}
	return false
}

// settled reports whether no services are running and no provisioning has
// progressed past the prerequisite check.
func (s State) settled() bool {
	switch s {
	case StateIdle, StateStopped, StateError:
		return true
	}
	return false
}

var (
	// ErrBusy is returned when another operation is already in progress.
	ErrBusy = errors.New("another operation is in progress")
	// ErrReadinessTimeout names the terminal failure of the start sequence.
	ErrReadinessTimeout = errors.New("readiness timeout")
	// ErrUnknownArtifact is returned for names missing from the catalogue.
	ErrUnknownArtifact = errors.New("unknown artifact")
	// ErrPrerequisitesNotMet is returned by pull and start when the container
	// runtime is missing or not running.
	ErrPrerequisitesNotMet = errors.New("container runtime is not installed or not running")
)

// Step names used in events, errors and the audit log.
const (
	StepPrerequisites = "prerequisites"
	StepDownload      = "download"
	StepInstall       = "install"
	StepMaterialize   = "materialize"
	StepValidate      = "validate"
	StepPull          = "pull"
	StepUp            = "up"
	StepReadiness     = "readiness"
	StepRegister      = "register"
	StepDown          = "down"
	StepLogs          = "logs"
	StepConfig        = "config"
)

// StepError is a failed provisioning step. ExitCode is set for steps that run
// an external command; Err for everything else.
type StepError struct {
	Step     string
	ExitCode int
	Output   string
	Err      error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed with exit code %d", e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error { return e.Err }
