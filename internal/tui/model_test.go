package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"
	"workbench/internal/registrar"
	"workbench/internal/reporting"
	"workbench/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestrator struct {
	state    orchestrator.State
	prereqs  containerizer.Prerequisites
	startErr error
	warning  *registrar.Warning
	calls    []string
}

func (f *fakeOrchestrator) State() orchestrator.State { return f.state }

func (f *fakeOrchestrator) CheckPrerequisites(context.Context) (containerizer.Prerequisites, error) {
	f.calls = append(f.calls, "check")
	return f.prereqs, nil
}

func (f *fakeOrchestrator) PullImages(context.Context) error {
	f.calls = append(f.calls, "pull")
	return nil
}

func (f *fakeOrchestrator) StartStack(context.Context) (orchestrator.StartResult, error) {
	f.calls = append(f.calls, "start")
	if f.startErr != nil {
		f.state = orchestrator.StateError
		return orchestrator.StartResult{}, f.startErr
	}
	f.state = orchestrator.StateCapabilityRegistered
	return orchestrator.StartResult{Warning: f.warning}, nil
}

func (f *fakeOrchestrator) Stop(context.Context) error {
	f.calls = append(f.calls, "stop")
	f.state = orchestrator.StateStopped
	return nil
}

func (f *fakeOrchestrator) WebUIURL() (string, error) { return "http://127.0.0.1:3000", nil }

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// runCmd executes cmd and returns the first opDoneMsg it yields, descending
// into batches.
func runCmd(t *testing.T, cmd tea.Cmd) (opDoneMsg, bool) {
	t.Helper()
	if cmd == nil {
		return opDoneMsg{}, false
	}
	switch msg := cmd().(type) {
	case opDoneMsg:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if done, ok := runCmd(t, c); ok {
				return done, true
			}
		}
	}
	return opDoneMsg{}, false
}

func newTestModel(orch *fakeOrchestrator) model {
	m := newModel(context.Background(), Options{Orchestrator: orch}, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(model)
}

func TestStartKeyRunsOperation(t *testing.T) {
	orch := &fakeOrchestrator{state: orchestrator.StateProvisioned}
	m := newTestModel(orch)

	updated, cmd := m.Update(keyPress('s'))
	m = updated.(model)
	assert.Equal(t, "start", m.operation)

	done, ok := runCmd(t, cmd)
	require.True(t, ok)
	assert.Equal(t, "start", done.name)

	updated, _ = m.Update(done)
	m = updated.(model)
	assert.Empty(t, m.operation)
	assert.Equal(t, orchestrator.StateCapabilityRegistered, m.state)
	assert.Equal(t, "start finished", m.statusMessage)
	assert.Equal(t, []string{"start"}, orch.calls)
}

func TestKeysDisabledWhileBusy(t *testing.T) {
	orch := &fakeOrchestrator{}
	m := newTestModel(orch)

	updated, _ := m.Update(keyPress('p'))
	m = updated.(model)
	require.Equal(t, "pull", m.operation)

	updated, cmd := m.Update(keyPress('x'))
	m = updated.(model)
	_, ran := runCmd(t, cmd)
	assert.False(t, ran)
	assert.Equal(t, "pull", m.operation)
	assert.True(t, m.statusIsError)
	assert.Contains(t, m.statusMessage, "Busy")
}

func TestCheckRecordsPrerequisites(t *testing.T) {
	orch := &fakeOrchestrator{prereqs: containerizer.Prerequisites{Installed: true, Location: "/usr/bin/docker"}}
	m := newTestModel(orch)

	_, cmd := m.Update(keyPress('c'))
	done, ok := runCmd(t, cmd)
	require.True(t, ok)
	updated, _ := m.Update(done)
	m = updated.(model)

	require.NotNil(t, m.prereqs)
	assert.Contains(t, m.renderPrerequisites(), "not running")
}

func TestStartFailureShowsError(t *testing.T) {
	orch := &fakeOrchestrator{startErr: orchestrator.ErrReadinessTimeout}
	m := newTestModel(orch)

	updated, cmd := m.Update(keyPress('s'))
	m = updated.(model)
	done, ok := runCmd(t, cmd)
	require.True(t, ok)
	updated, _ = m.Update(done)
	m = updated.(model)

	assert.Equal(t, orchestrator.StateError, m.state)
	assert.Equal(t, orchestrator.ErrReadinessTimeout.Error(), m.lastError)
	assert.True(t, m.statusIsError)
}

func TestRegistrationWarningIsNotAFailure(t *testing.T) {
	orch := &fakeOrchestrator{warning: &registrar.Warning{Step: registrar.StepAuthenticate, Err: errors.New("500")}}
	m := newTestModel(orch)

	updated, cmd := m.Update(keyPress('s'))
	m = updated.(model)
	done, _ := runCmd(t, cmd)
	updated, _ = m.Update(done)
	m = updated.(model)

	assert.Empty(t, m.lastError)
	assert.Contains(t, m.statusMessage, "warning")
}

func TestEventsUpdateView(t *testing.T) {
	m := newTestModel(&fakeOrchestrator{state: orchestrator.StateIdle})

	for _, ev := range []reporting.Event{
		reporting.NewStateChanged("op", "Idle", "ServicesStarting"),
		reporting.NewLogLine("op", reporting.SeverityInfo, "Starting services"),
		reporting.NewProgress("op", "vcredist", 50, 200),
		reporting.NewStepFinished("op", orchestrator.StepUp, errors.New("exit 1")),
	} {
		updated, _ := m.Update(eventMsg{event: ev})
		m = updated.(model)
	}

	assert.Equal(t, orchestrator.StateServicesStarting, m.state)
	require.Len(t, m.logLines, 1)
	assert.Equal(t, "Starting services", m.logLines[0].text)
	require.NotNil(t, m.download)
	assert.Equal(t, int64(50), m.download.Received)
	assert.Equal(t, "up: exit 1", m.lastError)

	view := m.View()
	assert.Contains(t, view, "ServicesStarting")
	assert.Contains(t, view, "Starting services")
	assert.Contains(t, view, "vcredist")
}

func TestLogEntriesOnlyShownInDebug(t *testing.T) {
	entry := logging.LogEntry{Level: logging.LevelInfo, Subsystem: "Bootstrap", Message: "hello"}

	m := newTestModel(&fakeOrchestrator{})
	updated, _ := m.Update(logEntryMsg{entry: entry})
	assert.Empty(t, updated.(model).logLines)

	m.debug = true
	updated, _ = m.Update(logEntryMsg{entry: entry})
	require.Len(t, updated.(model).logLines, 1)
	assert.Contains(t, updated.(model).logLines[0].text, "hello")
}

func TestCopyURL(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	defer func() { writeClipboard = orig }()

	m := newTestModel(&fakeOrchestrator{})
	updated, _ := m.Update(keyPress('y'))

	assert.Equal(t, "http://127.0.0.1:3000", copied)
	assert.Contains(t, updated.(model).statusMessage, "Copied")
}

func TestClearStatusIgnoresStaleTicks(t *testing.T) {
	m := newTestModel(&fakeOrchestrator{})
	m.setStatus("first", false)
	m.setStatus("second", false)

	updated, _ := m.Update(clearStatusMsg{seq: 1})
	assert.Equal(t, "second", updated.(model).statusMessage)

	updated, _ = updated.Update(clearStatusMsg{seq: 2})
	assert.Empty(t, updated.(model).statusMessage)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate(strings.Repeat("x", 20), 10)
	assert.Equal(t, strings.Repeat("x", 9)+"…", got)
	assert.Equal(t, "日本…", truncate("日本語テキスト", 6))
}

func TestQuit(t *testing.T) {
	m := newTestModel(&fakeOrchestrator{})
	updated, cmd := m.Update(keyPress('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, updated.(model).View())
}
