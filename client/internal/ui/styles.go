package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"sharelite/client/internal/prefs"
)

// Styles is one palette. Pages keep a copy and get a new one on toggle.
type Styles struct {
	Name     string
	Title    lipgloss.Style
	Code     lipgloss.Style
	Focused  lipgloss.Style
	Blurred  lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Rejected lipgloss.Style
	Pane     lipgloss.Style
	Doc      lipgloss.Style
	Accent   lipgloss.Color
	Table    table.Styles
}

func darkStyles() Styles {
	return newStyles(prefs.ThemeDark, palette{
		fg: "#FFFDF5", dim: "240", accent: "#25A065", focus: "205",
		err: "#FF5F5F", selFg: "229", selBg: "57", border: "240",
	})
}

func lightStyles() Styles {
	return newStyles(prefs.ThemeLight, palette{
		fg: "#1C1C1C", dim: "245", accent: "#1F7A4D", focus: "161",
		err: "#C00000", selFg: "#FFFFFF", selBg: "#3D5AFE", border: "250",
	})
}

// StylesFor returns the palette named by theme, dark for anything else.
func StylesFor(theme string) Styles {
	if prefs.NormalizeTheme(theme) == prefs.ThemeLight {
		return lightStyles()
	}
	return darkStyles()
}

type palette struct {
	fg, dim, accent, focus, err, selFg, selBg, border string
}

func newStyles(name string, p palette) Styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(p.border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(p.selFg)).
		Background(lipgloss.Color(p.selBg)).
		Bold(false)

	return Styles{
		Name: name,
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color(p.accent)).
			Padding(0, 1),
		Code: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.accent)).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.accent)).
			Padding(0, 2),
		Focused:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.focus)),
		Blurred:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.dim)),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.fg)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.err)),
		Rejected: lipgloss.NewStyle().Foreground(lipgloss.Color(p.err)).Strikethrough(true),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(p.border)).
			Padding(0, 1),
		Doc:    lipgloss.NewStyle().Padding(1, 2),
		Accent: lipgloss.Color(p.accent),
		Table:  ts,
	}
}
