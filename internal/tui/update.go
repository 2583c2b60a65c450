package tui

import (
	"fmt"

	"workbench/internal/reporting"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.applyEvent(msg.event)
		return m, waitForEvent(m.events)

	case logEntryMsg:
		if m.debug {
			m.appendLog(reporting.SeverityOutput, msg.entry.String())
		}
		return m, waitForLog(m.logs)

	case opDoneMsg:
		return m, m.finishOperation(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.operation == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Check):
		return m, m.checkCmd()
	case key.Matches(msg, m.keys.Pull):
		return m, m.pullCmd()
	case key.Matches(msg, m.keys.Start):
		return m, m.startCmd()
	case key.Matches(msg, m.keys.Stop):
		return m, m.stopCmd()
	case key.Matches(msg, m.keys.CopyURL):
		return m, m.copyURL()
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) applyEvent(ev reporting.Event) {
	switch ev.Type {
	case reporting.EventTypeLogLine:
		m.appendLog(ev.Severity, ev.Line)
	case reporting.EventTypeDownloadProgress:
		if ev.Progress != nil {
			p := *ev.Progress
			m.download = &p
		}
	case reporting.EventTypeStateChanged:
		if ev.Transition != nil {
			m.state = stateOf(ev.Transition.To)
		}
	case reporting.EventTypeStepFinished:
		if ev.Step != nil && !ev.Step.OK {
			m.lastError = fmt.Sprintf("%s: %s", ev.Step.Step, ev.Step.Error)
		}
	}
}

func (m *model) finishOperation(msg opDoneMsg) tea.Cmd {
	m.operation = ""
	m.state = m.orch.State()
	if msg.prereqs != nil && msg.err == nil {
		m.prereqs = msg.prereqs
	}
	if msg.name == "pull" || msg.name == "start" {
		m.download = nil
	}

	switch {
	case msg.err != nil:
		m.lastError = msg.err.Error()
		return m.setStatus(fmt.Sprintf("%s failed", msg.name), true)
	case msg.warning != nil:
		return m.setStatus(fmt.Sprintf("%s finished with a warning: %v", msg.name, msg.warning), true)
	default:
		return m.setStatus(fmt.Sprintf("%s finished", msg.name), false)
	}
}

func (m *model) appendLog(severity reporting.EventSeverity, text string) {
	m.logLines = append(m.logLines, logLine{severity: severity, text: text})
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *model) resize() {
	w := m.width - panelStyle.GetHorizontalFrameSize()
	if w < 10 {
		w = 10
	}
	h := m.height - headerHeight - footerHeight - panelStyle.GetVerticalFrameSize() - 1
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.progress.Width = w - 30
	if m.progress.Width < 10 {
		m.progress.Width = 10
	}
	m.refreshLog()
}

func (m *model) refreshLog() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(prepareLogContent(m.logLines, m.viewport.Width))
	if atBottom {
		m.viewport.GotoBottom()
	}
}
