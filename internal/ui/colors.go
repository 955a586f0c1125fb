package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette(Colors{
	Accent: "#FF5500",
	OK:     "#04B575",
	Err:    "#FF0000",
	Warn:   "#FFA500",
	Muted:  "#626262",
})

// Colors are the hex colors a [Palette] is built from.
type Colors struct {
	Accent, OK, Err, Warn, Muted string
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	bar   lipgloss.Style // now-playing bar
}

func NewPalette(c Colors) *Palette {
	return &Palette{
		title: NewBold(c.Accent),
		ok:    NewBold(c.OK),
		err:   NewBold(c.Err),
		warn:  NewStyle(c.Warn),
		help:  NewEm(c.Muted),
		bar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(c.Accent)).
			Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
