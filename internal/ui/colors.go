package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#FF0033", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	cursor lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		cursor: NewBold(t),
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

// Intro renders a section banner.
func Intro(s string) string { return styles.title.Render("▶ " + s) }

// Outro renders a closing success line.
func Outro(s string) string { return styles.ok.Render("✓ " + s) }

// Note renders secondary information.
func Note(s string) string { return styles.help.Render(s) }

// Warn renders a recoverable problem.
func Warn(s string) string { return styles.warn.Render("⚠ " + s) }

// Failure renders a fatal problem.
func Failure(s string) string { return styles.err.Render("✗ " + s) }
