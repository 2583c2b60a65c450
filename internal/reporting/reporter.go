package reporting

import (
	"fmt"

	"workbench/pkg/logging"
)

// Reporter mirrors orchestrator progress into the audit log and the event
// bus. Either may be nil.
type Reporter struct {
	bus   *Bus
	audit *AuditLog
}

// NewReporter creates a Reporter over bus and audit.
func NewReporter(bus *Bus, audit *AuditLog) *Reporter {
	return &Reporter{bus: bus, audit: audit}
}

// Bus returns the event bus, for subscribers.
func (r *Reporter) Bus() *Bus {
	return r.bus
}

// Line records a timestamped progress line authored by the orchestrator.
func (r *Reporter) Line(opID string, severity EventSeverity, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	if r.audit != nil {
		if err := r.audit.Record("%s", text); err != nil {
			logging.Error("Reporter", err, "Failed to append to audit log")
		}
	}
	r.publish(NewLogLine(opID, severity, text))
}

// Output records one raw line of subprocess output, unprefixed.
func (r *Reporter) Output(opID, line string) {
	if r.audit != nil {
		if err := r.audit.Append(line); err != nil {
			logging.Error("Reporter", err, "Failed to append to audit log")
		}
	}
	r.publish(NewLogLine(opID, SeverityOutput, line))
}

// Progress publishes a download progress event. Progress is not written to
// the audit log.
func (r *Reporter) Progress(opID, artifact string, received, total int64) {
	r.publish(NewProgress(opID, artifact, received, total))
}

// StateChanged records a state transition.
func (r *Reporter) StateChanged(opID, from, to string) {
	if r.audit != nil {
		_ = r.audit.Record("state %s -> %s", from, to)
	}
	r.publish(NewStateChanged(opID, from, to))
}

// StepFinished records a step outcome; err may be nil.
func (r *Reporter) StepFinished(opID, step string, err error) {
	ev := NewStepFinished(opID, step, err)
	if r.audit != nil {
		_ = r.audit.Record("%s", ev.String())
	}
	r.publish(ev)
}

func (r *Reporter) publish(e Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
