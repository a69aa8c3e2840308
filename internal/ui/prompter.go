package ui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user leaves a prompt without answering.
var ErrCanceled = errors.New("prompt canceled")

// Prompter asks the user questions.
type Prompter interface {
	MultiSelect(title string, options []Option) ([]Option, error)
	Confirm(question string) (bool, error)
}

// TerminalPrompter runs bubbletea programs on the given streams.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalPrompter creates a prompter reading from in and drawing to out.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

// MultiSelect shows options and returns those the user checked.
func (p *TerminalPrompter) MultiSelect(title string, options []Option) ([]Option, error) {
	final, err := p.run(NewMultiSelect(title, options))
	if err != nil {
		return nil, err
	}

	m, ok := final.(*MultiSelectModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model %T", final)
	}
	if m.Canceled() {
		return nil, ErrCanceled
	}
	return m.Selected(), nil
}

// Confirm asks a yes/no question.
func (p *TerminalPrompter) Confirm(question string) (bool, error) {
	final, err := p.run(NewConfirm(question))
	if err != nil {
		return false, err
	}

	m, ok := final.(*ConfirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model %T", final)
	}
	if m.Canceled() {
		return false, ErrCanceled
	}
	return m.Value(), nil
}

func (p *TerminalPrompter) run(model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model, tea.WithInput(p.in), tea.WithOutput(p.out))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run prompt: %w", err)
	}
	return final, nil
}
