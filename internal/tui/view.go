package tui

import (
	"fmt"
	"strings"

	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"
	"workbench/internal/reporting"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		headerStyle.Render("Local LLM Workbench"),
		m.renderState(),
		m.renderPrerequisites(),
		m.renderDownload(),
		panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			logPanelTitleStyle.Render(SafeIcon(IconScroll)+"Activity"),
			m.viewport.View(),
		)),
		m.renderStatusBar(),
		m.help.View(m.keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) renderState() string {
	style := stateIdleStyle
	icon := IconStop
	switch {
	case m.state == orchestrator.StateError:
		style, icon = stateErrorStyle, IconCross
	case m.state.Running():
		style, icon = stateRunningStyle, IconPlay
	}

	line := labelStyle.Render("State") + style.Render(SafeIcon(icon)+string(m.state))
	if m.operation != "" {
		line += "  " + m.spinner.View() + " " + m.operation
	}
	if m.lastError != "" {
		line += "\n" + labelStyle.Render("Last error") + stateErrorStyle.Render(truncate(m.lastError, m.width-16))
	}
	return line
}

func (m model) renderPrerequisites() string {
	label := labelStyle.Render("Docker")
	p := m.prereqs
	switch {
	case p == nil:
		return label + stateIdleStyle.Render("not checked (press c)")
	case !p.Installed:
		return label + stateErrorStyle.Render(SafeIcon(IconCross)+"not installed, see "+containerizer.RuntimeDownloadURL)
	case !p.Running:
		return label + logWarnStyle.Render(SafeIcon(IconWarning)+"installed but not running")
	default:
		return label + stateRunningStyle.Render(SafeIcon(IconCheck)+"running ("+p.Location+")")
	}
}

func (m model) renderDownload() string {
	label := labelStyle.Render("Download")
	d := m.download
	if d == nil {
		return label + stateIdleStyle.Render("none")
	}
	pct := d.Percent()
	if pct < 0 {
		return label + fmt.Sprintf("%s%s %d bytes", SafeIcon(IconHourglass), d.Artifact, d.Received)
	}
	return label + d.Artifact + " " + m.progress.ViewAs(pct)
}

func (m model) renderStatusBar() string {
	if m.statusMessage == "" {
		return ""
	}
	if m.statusIsError {
		return statusBarErrorStyle.Render(m.statusMessage)
	}
	return statusBarInfoStyle.Render(SafeIcon(IconCheck) + m.statusMessage)
}

// prepareLogContent truncates long lines to avoid viewport wrapping and
// styles them by severity.
func prepareLogContent(lines []logLine, maxWidth int) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = styleLine(l.severity, truncate(l.text, maxWidth))
	}
	return strings.Join(out, "\n")
}

func truncate(s string, maxWidth int) string {
	if maxWidth <= 1 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth-1, "") + "…"
}

func styleLine(severity reporting.EventSeverity, line string) string {
	switch severity {
	case reporting.SeverityError:
		return logErrorStyle.Render(line)
	case reporting.SeverityWarn:
		return logWarnStyle.Render(line)
	case reporting.SeverityOutput:
		return logOutputStyle.Render(line)
	default:
		return logInfoStyle.Render(line)
	}
}

func stateOf(s string) orchestrator.State {
	return orchestrator.State(s)
}
