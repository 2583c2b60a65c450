package color

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Text    = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	Surface = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#303030"}
	Border  = lipgloss.AdaptiveColor{Light: "#606060", Dark: "#A0A0A0"}
	Body    = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#E0E0E0"}
	Idle    = lipgloss.AdaptiveColor{Light: "#404040", Dark: "#C0C0C0"}
	Success = lipgloss.AdaptiveColor{Light: "#006600", Dark: "#8AE234"}
	Warning = lipgloss.AdaptiveColor{Light: "#A07000", Dark: "#FFD066"}
	Error   = lipgloss.AdaptiveColor{Light: "#B30000", Dark: "#FF6B6B"}
	Info    = lipgloss.AdaptiveColor{Light: "#004488", Dark: "#58A6FF"}
	Muted   = lipgloss.AdaptiveColor{Light: "#606060", Dark: "#909090"}
)

// Theme selects which variant of the palette is rendered.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme accepts auto, dark or light, case-insensitively.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeAuto, ThemeDark, ThemeLight:
		return t, nil
	case "":
		return ThemeAuto, nil
	}
	return "", fmt.Errorf("unknown theme %q (use auto, dark or light)", s)
}

// Apply forces the dark or light variants. ThemeAuto keeps lipgloss's
// background detection.
func Apply(t Theme) {
	switch t {
	case ThemeDark:
		Initialize(true)
	case ThemeLight:
		Initialize(false)
	}
}

// Initialize tells lipgloss which background the terminal has.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}
