package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/cinesuite/internal/scene"
)

// Palette is the color set of one display theme.
type Palette struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Dim        lipgloss.Color
	Accent     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

var palettes = map[string]Palette{
	scene.ThemeLight: {
		Background: lipgloss.Color("#ffffff"),
		Foreground: lipgloss.Color("#1f2937"),
		Dim:        lipgloss.Color("#6b7280"),
		Accent:     lipgloss.Color("#4f46e5"),
		Success:    lipgloss.Color("#16a34a"),
		Error:      lipgloss.Color("#dc2626"),
		Border:     lipgloss.Color("#d1d5db"),
	},
	scene.ThemeDark: {
		Background: lipgloss.Color("#1a1b26"),
		Foreground: lipgloss.Color("#c0caf5"),
		Dim:        lipgloss.Color("#565f89"),
		Accent:     lipgloss.Color("#7aa2f7"),
		Success:    lipgloss.Color("#9ece6a"),
		Error:      lipgloss.Color("#f7768e"),
		Border:     lipgloss.Color("#3b4261"),
	},
	scene.ThemeRetro: {
		Background: lipgloss.Color("#2b2118"),
		Foreground: lipgloss.Color("#f4e4c1"),
		Dim:        lipgloss.Color("#a08c6a"),
		Accent:     lipgloss.Color("#e0a458"),
		Success:    lipgloss.Color("#9bc53d"),
		Error:      lipgloss.Color("#e55934"),
		Border:     lipgloss.Color("#6b5b45"),
	},
	scene.ThemeHacker: {
		Background: lipgloss.Color("#000000"),
		Foreground: lipgloss.Color("#00ff41"),
		Dim:        lipgloss.Color("#008f11"),
		Accent:     lipgloss.Color("#00ff41"),
		Success:    lipgloss.Color("#00ff41"),
		Error:      lipgloss.Color("#ff0033"),
		Border:     lipgloss.Color("#003b00"),
	},
}

// terminalColors maps TerminalModule.Color to a foreground.
var terminalColors = map[string]lipgloss.Color{
	"green": lipgloss.Color("#22c55e"),
	"red":   lipgloss.Color("#ef4444"),
	"blue":  lipgloss.Color("#3b82f6"),
	"amber": lipgloss.Color("#f59e0b"),
}

// PaletteFor returns the palette of a theme id, falling back to light.
func PaletteFor(themeID string) Palette {
	if p, ok := palettes[themeID]; ok {
		return p
	}
	return palettes[scene.ThemeLight]
}

type styles struct {
	title   lipgloss.Style
	dim     lipgloss.Style
	accent  lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	box     lipgloss.Style
}

func newStyles(gs scene.GlobalSettings) styles {
	p := PaletteFor(gs.ThemeID)
	accent := p.Accent
	if gs.AccentColor != "" {
		accent = lipgloss.Color(gs.AccentColor)
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		dim:     lipgloss.NewStyle().Foreground(p.Dim),
		accent:  lipgloss.NewStyle().Foreground(accent),
		success: lipgloss.NewStyle().Foreground(p.Success),
		err:     lipgloss.NewStyle().Foreground(p.Error),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Foreground(p.Foreground).
			Padding(0, 1),
	}
}
