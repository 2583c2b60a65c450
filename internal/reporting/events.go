package reporting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of event
type EventType string

const (
	// EventTypeLogLine carries one human-readable progress or output line.
	EventTypeLogLine EventType = "log.line"
	// EventTypeDownloadProgress reports bytes received for an artifact.
	EventTypeDownloadProgress EventType = "download.progress"
	// EventTypeStateChanged reports an orchestrator state transition.
	EventTypeStateChanged EventType = "state.changed"
	// EventTypeStepFinished reports the outcome of one provisioning step.
	EventTypeStepFinished EventType = "step.finished"
)

// EventSeverity indicates the importance of an event
type EventSeverity string

const (
	SeverityInfo  EventSeverity = "info"
	SeverityWarn  EventSeverity = "warn"
	SeverityError EventSeverity = "error"
	// SeverityOutput marks raw lines captured from a subprocess.
	SeverityOutput EventSeverity = "output"
)

// Progress is the payload of a download.progress event. Total is -1 when
// the size is unknown.
type Progress struct {
	Artifact string `json:"artifact"`
	Received int64  `json:"received"`
	Total    int64  `json:"total"`
}

// Percent returns completion in [0,1], or -1 when indeterminate.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	f := float64(p.Received) / float64(p.Total)
	if f > 1 {
		f = 1
	}
	return f
}

// Transition is the payload of a state.changed event.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StepOutcome is the payload of a step.finished event.
type StepOutcome struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Event is one entry on the event stream. Exactly one payload field is set,
// matching Type.
type Event struct {
	Type        EventType     `json:"type"`
	OperationID string        `json:"operationId"`
	Timestamp   time.Time     `json:"timestamp"`
	Severity    EventSeverity `json:"severity"`

	Line       string       `json:"line,omitempty"`
	Progress   *Progress    `json:"progress,omitempty"`
	Transition *Transition  `json:"transition,omitempty"`
	Step       *StepOutcome `json:"step,omitempty"`
}

// NewOperationID returns a fresh correlation ID for one orchestrator operation.
func NewOperationID() string {
	return uuid.NewString()
}

// NewLogLine creates a log.line event.
func NewLogLine(opID string, severity EventSeverity, line string) Event {
	return Event{
		Type:        EventTypeLogLine,
		OperationID: opID,
		Timestamp:   time.Now(),
		Severity:    severity,
		Line:        line,
	}
}

// NewProgress creates a download.progress event.
func NewProgress(opID, artifact string, received, total int64) Event {
	return Event{
		Type:        EventTypeDownloadProgress,
		OperationID: opID,
		Timestamp:   time.Now(),
		Severity:    SeverityInfo,
		Progress:    &Progress{Artifact: artifact, Received: received, Total: total},
	}
}

// NewStateChanged creates a state.changed event.
func NewStateChanged(opID, from, to string) Event {
	return Event{
		Type:        EventTypeStateChanged,
		OperationID: opID,
		Timestamp:   time.Now(),
		Severity:    SeverityInfo,
		Transition:  &Transition{From: from, To: to},
	}
}

// NewStepFinished creates a step.finished event; err may be nil.
func NewStepFinished(opID, step string, err error) Event {
	e := Event{
		Type:        EventTypeStepFinished,
		OperationID: opID,
		Timestamp:   time.Now(),
		Severity:    SeverityInfo,
		Step:        &StepOutcome{Step: step, OK: err == nil},
	}
	if err != nil {
		e.Severity = SeverityError
		e.Step.Error = err.Error()
	}
	return e
}

// String returns a human-readable description of the event
func (e Event) String() string {
	switch e.Type {
	case EventTypeLogLine:
		return e.Line
	case EventTypeDownloadProgress:
		if e.Progress.Total < 0 {
			return fmt.Sprintf("%s: %d bytes", e.Progress.Artifact, e.Progress.Received)
		}
		return fmt.Sprintf("%s: %d/%d bytes (%.0f%%)", e.Progress.Artifact, e.Progress.Received, e.Progress.Total, e.Progress.Percent()*100)
	case EventTypeStateChanged:
		return fmt.Sprintf("state %s -> %s", e.Transition.From, e.Transition.To)
	case EventTypeStepFinished:
		if e.Step.OK {
			return fmt.Sprintf("step %s succeeded", e.Step.Step)
		}
		return fmt.Sprintf("step %s failed: %s", e.Step.Step, e.Step.Error)
	}
	return string(e.Type)
}
