package tui

import (
	"fmt"
	"strings"

	"workbench/internal/color"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	// maxLogLines bounds the in-memory activity log.
	maxLogLines = 1000
	// headerHeight and footerHeight are the fixed rows around the log pane.
	headerHeight = 6
	footerHeight = 2
)

const (
	IconCheck     = "✔"
	IconCross     = "❌"
	IconWarning   = "⚠"
	IconHourglass = "⏳"
	IconPlay      = "▶"
	IconStop      = "⏹"
	IconLink      = "🔗"
	IconScroll    = "📜"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(color.Text).
			Background(color.Surface).
			Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color.Border).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)

	stateRunningStyle = lipgloss.NewStyle().Foreground(color.Success).Bold(true)
	stateIdleStyle    = lipgloss.NewStyle().Foreground(color.Idle)
	stateErrorStyle   = lipgloss.NewStyle().Foreground(color.Error).Bold(true)

	logInfoStyle   = lipgloss.NewStyle().Foreground(color.Body)
	logWarnStyle   = lipgloss.NewStyle().Foreground(color.Warning).Bold(true)
	logErrorStyle  = lipgloss.NewStyle().Foreground(color.Error).Bold(true)
	logOutputStyle = lipgloss.NewStyle().Foreground(color.Muted)

	logPanelTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(color.Text)

	statusBarInfoStyle  = lipgloss.NewStyle().Foreground(color.Info)
	statusBarErrorStyle = lipgloss.NewStyle().Foreground(color.Error).Bold(true)
)

// SafeIcon returns the icon followed by enough spaces for wide glyphs.
func SafeIcon(icon string) string {
	spaces := 1
	if runewidth.StringWidth(icon) >= 2 {
		spaces = 2
	}
	return fmt.Sprintf("%s%s", icon, strings.Repeat(" ", spaces))
}
