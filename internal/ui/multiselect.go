package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Option is one choice in a [MultiSelectModel].
type Option struct {
	Value string
	Label string
}

func (o Option) String() string {
	if o.Label == "" || o.Label == o.Value {
		return o.Value
	}
	return fmt.Sprintf("%s (%s)", o.Label, o.Value)
}

// MultiSelectModel lets the user pick any number of options.
type MultiSelectModel struct {
	title    string
	options  []Option
	selected map[int]bool
	visible  []int
	cursor   int

	filter    textinput.Model
	filtering bool

	done     bool
	canceled bool

	help help.Model
	keys keyMap
}

// NewMultiSelect creates a prompt over options. Indices in preselected start checked.
func NewMultiSelect(title string, options []Option, preselected ...int) *MultiSelectModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter"

	m := &MultiSelectModel{
		title:    title,
		options:  options,
		selected: map[int]bool{},
		filter:   ti,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	for _, i := range preselected {
		if i >= 0 && i < len(options) {
			m.selected[i] = true
		}
	}
	m.applyFilter()
	return m
}

// Init implements [tea.Model].
func (m *MultiSelectModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m *MultiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if key.Matches(keyMsg, m.keys.quit) {
		m.canceled = true
		return m, tea.Quit
	}

	if m.filtering {
		return m.updateFilter(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.toggle):
		if len(m.visible) > 0 {
			i := m.visible[m.cursor]
			m.selected[i] = !m.selected[i]
		}
	case key.Matches(keyMsg, m.keys.all):
		m.toggleVisible()
	case key.Matches(keyMsg, m.keys.filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(keyMsg, m.keys.enter):
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.back):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
			return m, nil
		}
		m.canceled = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *MultiSelectModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case key.Matches(msg, m.keys.back):
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *MultiSelectModel) toggleVisible() {
	all := true
	for _, i := range m.visible {
		if !m.selected[i] {
			all = false
			break
		}
	}
	for _, i := range m.visible {
		m.selected[i] = !all
	}
}

func (m *MultiSelectModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, o := range m.options {
		if q == "" || strings.Contains(strings.ToLower(o.Label), q) || strings.Contains(strings.ToLower(o.Value), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

// View renders the prompt.
func (m *MultiSelectModel) View() string {
	if m.done || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(Note("  no matching playlists"))
		b.WriteString("\n")
	}

	for row, i := range m.visible {
		cursor := "  "
		if row == m.cursor {
			cursor = styles.cursor.Render("> ")
		}
		check := "[ ]"
		if m.selected[i] {
			check = styles.ok.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, check, m.options[i])
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Selected returns the checked options in their original order.
func (m *MultiSelectModel) Selected() []Option {
	var out []Option
	for i, o := range m.options {
		if m.selected[i] {
			out = append(out, o)
		}
	}
	return out
}

// Canceled reports whether the user left without confirming.
func (m *MultiSelectModel) Canceled() bool {
	return m.canceled
}
