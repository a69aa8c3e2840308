package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel asks a yes/no question. Enter accepts the highlighted answer, which defaults to no.
type ConfirmModel struct {
	question string
	value    bool
	done     bool
	canceled bool
	help     help.Model
	keys     keyMap
}

// NewConfirm creates a yes/no prompt.
func NewConfirm(question string) *ConfirmModel {
	return &ConfirmModel{question: question, help: help.New(), keys: newKeyMap()}
}

// Init implements [tea.Model].
func (m *ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m *ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.yes):
		m.value, m.done = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.no):
		m.value, m.done = false, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.enter):
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.back), key.Matches(keyMsg, m.keys.quit):
		m.canceled = true
		return m, tea.Quit
	}

	switch keyMsg.String() {
	case "left", "right", "tab", "h", "l":
		m.value = !m.value
	}
	return m, nil
}

// View renders the prompt.
func (m *ConfirmModel) View() string {
	if m.done || m.canceled {
		return ""
	}

	yes, no := "Yes", "No"
	if m.value {
		yes = styles.cursor.Render("[Yes]")
	} else {
		no = styles.cursor.Render("[No]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s / %s\n\n", m.question, yes, no)
	b.WriteString(m.help.View(confirmKeys{m.keys}))
	return b.String()
}

// Value returns the chosen answer.
func (m *ConfirmModel) Value() bool {
	return m.value
}

// Canceled reports whether the user left without answering.
func (m *ConfirmModel) Canceled() bool {
	return m.canceled
}
