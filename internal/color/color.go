package color

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Profile holds the semantic color palette used across the CLI output.
// Colors adapt to the terminal background via lipgloss adaptive colors.
type Profile struct {
	Primary lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
}

var defaultProfile = Profile{
	Primary: lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"},
	Success: lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"},
	Warning: lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
	Error:   lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
	Info:    lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"},
	Muted:   lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
}

// Semantic styles used by status rendering and confirmation prompts.
var (
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(defaultProfile.Primary)
	SuccessStyle = lipgloss.NewStyle().Foreground(defaultProfile.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(defaultProfile.Warning)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(defaultProfile.Error)
	InfoStyle    = lipgloss.NewStyle().Foreground(defaultProfile.Info)
	MutedStyle   = lipgloss.NewStyle().Foreground(defaultProfile.Muted)
)

// Initialize sets the lipgloss background assumption. Rendering with
// adaptive colors consults this, so it must run before the first styled
// print.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// Enabled reports whether colored output should be produced, honoring the
// NO_COLOR convention and dumb terminals.
func Enabled() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}
	return true
}

// SupportsTrueColor reports whether the terminal advertises 24-bit color.
func SupportsTrueColor() bool {
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	return colorterm == "truecolor" || colorterm == "24bit"
}
