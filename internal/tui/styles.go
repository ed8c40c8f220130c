package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Header     lipgloss.Style
	Launcher   lipgloss.Style
	Panel      lipgloss.Style
	User       lipgloss.Style
	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	Suggestion lipgloss.Style
	Muted      lipgloss.Style
	Spinner    lipgloss.Style
	Notice     lipgloss.Style
	NoticeHead lipgloss.Style
	Help       lipgloss.Style
}

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorDanger  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
)

func defaultStyles() styles {
	return styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1),
		Launcher: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1),
		User:       lipgloss.NewStyle(),
		UserLabel:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		BotLabel:   lipgloss.NewStyle().Bold(true),
		Suggestion: lipgloss.NewStyle().Foreground(colorPrimary),
		Muted:      lipgloss.NewStyle().Foreground(colorMuted),
		Spinner:    lipgloss.NewStyle().Foreground(colorPrimary),
		Notice: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorDanger).
			PaddingLeft(1),
		NoticeHead: lipgloss.NewStyle().Bold(true).Foreground(colorWarn),
		Help:       lipgloss.NewStyle().Foreground(colorMuted),
	}
}
