package tui

import (
	"context"
	"time"

	"workbench/internal/color"
	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"
	"workbench/internal/reporting"
	"workbench/pkg/logging"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Orchestrator is the subset of the stack orchestrator the dashboard drives.
type Orchestrator interface {
	State() orchestrator.State
	CheckPrerequisites(ctx context.Context) (containerizer.Prerequisites, error)
	PullImages(ctx context.Context) error
	StartStack(ctx context.Context) (orchestrator.StartResult, error)
	Stop(ctx context.Context) error
	WebUIURL() (string, error)
}

// Options configures the dashboard.
type Options struct {
	Orchestrator Orchestrator
	Bus          *reporting.Bus
	LogChan      <-chan logging.LogEntry
	Debug        bool
	Theme        color.Theme
}

var writeClipboard = clipboard.WriteAll

// statusClearAfter is how long a status bar message stays visible.
const statusClearAfter = 3 * time.Second

type model struct {
	ctx    context.Context
	orch   Orchestrator
	events <-chan reporting.Event
	logs   <-chan logging.LogEntry
	debug  bool

	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model
	viewport viewport.Model

	width, height int

	state     orchestrator.State
	operation string
	prereqs   *containerizer.Prerequisites
	download  *reporting.Progress
	lastError string

	logLines []logLine

	statusMessage string
	statusIsError bool
	statusSeq     int

	quitting bool
}

// Messages

type eventMsg struct{ event reporting.Event }

type logEntryMsg struct{ entry logging.LogEntry }

// opDoneMsg reports the end of an operation started from a key press.
type opDoneMsg struct {
	name    string
	err     error
	prereqs *containerizer.Prerequisites
	warning error
}

type clearStatusMsg struct{ seq int }

type logLine struct {
	severity reporting.EventSeverity
	text     string
}

func newModel(ctx context.Context, opts Options, events <-chan reporting.Event) model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return model{
		ctx:      ctx,
		orch:     opts.Orchestrator,
		events:   events,
		logs:     opts.LogChan,
		debug:    opts.Debug,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		viewport: viewport.New(80, 10),
		state:    opts.Orchestrator.State(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		waitForLog(m.logs),
	)
}

// waitForEvent reads one event; it yields nil once the channel closes.
func waitForEvent(ch <-chan reporting.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: ev}
	}
}

func waitForLog(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return logEntryMsg{entry: entry}
	}
}

func (m *model) setStatus(message string, isError bool) tea.Cmd {
	m.statusMessage = message
	m.statusIsError = isError
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusClearAfter, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// runOperation starts name in the background unless one is outstanding.
func (m *model) runOperation(name string, fn func(ctx context.Context) opDoneMsg) tea.Cmd {
	if m.operation != "" {
		return m.setStatus("Busy: "+m.operation, true)
	}
	m.operation = name
	m.lastError = ""
	ctx := m.ctx
	return tea.Batch(
		func() tea.Msg {
			msg := fn(ctx)
			msg.name = name
			return msg
		},
		m.spinner.Tick,
	)
}

func (m *model) checkCmd() tea.Cmd {
	orch := m.orch
	return m.runOperation("check", func(ctx context.Context) opDoneMsg {
		p, err := orch.CheckPrerequisites(ctx)
		return opDoneMsg{err: err, prereqs: &p}
	})
}

func (m *model) pullCmd() tea.Cmd {
	orch := m.orch
	return m.runOperation("pull", func(ctx context.Context) opDoneMsg {
		return opDoneMsg{err: orch.PullImages(ctx)}
	})
}

func (m *model) startCmd() tea.Cmd {
	orch := m.orch
	return m.runOperation("start", func(ctx context.Context) opDoneMsg {
		res, err := orch.StartStack(ctx)
		msg := opDoneMsg{err: err}
		if res.Warning != nil {
			msg.warning = res.Warning
		}
		return msg
	})
}

func (m *model) stopCmd() tea.Cmd {
	orch := m.orch
	return m.runOperation("stop", func(ctx context.Context) opDoneMsg {
		return opDoneMsg{err: orch.Stop(ctx)}
	})
}

func (m *model) copyURL() tea.Cmd {
	url, err := m.orch.WebUIURL()
	if err != nil {
		return m.setStatus("Failed to load configuration: "+err.Error(), true)
	}
	if err := writeClipboard(url); err != nil {
		logging.Warn("TUI", "Failed to copy URL: %v", err)
		return m.setStatus("Copy failed: "+err.Error(), true)
	}
	return m.setStatus("Copied "+url, false)
}
