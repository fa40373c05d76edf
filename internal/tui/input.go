package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

const (
	focusProblem = iota
	focusBackground
)

// inputModel is the problem entry form.
type inputModel struct {
	problem    textarea.Model
	background textarea.Model
	focus      int
	err        string // validation message
}

func newInputModel() inputModel {
	problem := textarea.New()
	problem.Placeholder = "Enter the problem or decision you want to analyze..."
	problem.ShowLineNumbers = false
	problem.SetHeight(5)
	problem.Focus()

	background := textarea.New()
	background.Placeholder = "Provide any relevant background information or constraints..."
	background.ShowLineNumbers = false
	background.SetHeight(4)

	return inputModel{problem: problem, background: background}
}

func (m *inputModel) setInput(in session.Input) {
	m.problem.SetValue(in.ProblemStatement)
	m.background.SetValue(in.BackgroundContext)
	m.err = ""
}

func (m inputModel) value() session.Input {
	return session.Input{
		ProblemStatement:  m.problem.Value(),
		BackgroundContext: m.background.Value(),
	}
}

func (m *inputModel) resize(width int) {
	w := width - 4
	if w < 20 {
		w = 20
	}
	m.problem.SetWidth(w)
	m.background.SetWidth(w)
}

func (m *inputModel) toggleFocus() tea.Cmd {
	if m.focus == focusProblem {
		m.focus = focusBackground
		m.problem.Blur()
		return m.background.Focus()
	}
	m.focus = focusProblem
	m.background.Blur()
	return m.problem.Focus()
}

func (m inputModel) update(msg tea.Msg) (inputModel, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusProblem {
		m.problem, cmd = m.problem.Update(msg)
	} else {
		m.background, cmd = m.background.Update(msg)
	}
	if _, ok := msg.(tea.KeyMsg); ok {
		m.err = ""
	}
	return m, cmd
}

// view renders the form. busy is the spinner line shown while the session is
// being created; failure is a submit error reported by the controller.
func (m inputModel) view(busy, failure string) string {
	var sb strings.Builder
	sb.WriteString(heading("What problem would you like to analyze?"))

	label := func(text string, focused bool) string {
		if focused {
			return focusedLabelStyle.Render("  " + text)
		}
		return labelStyle.Render("  " + text)
	}
	sb.WriteString(label("Problem Statement *", m.focus == focusProblem) + "\n")
	sb.WriteString(indent(m.problem.View(), "  ") + "\n\n")
	sb.WriteString(label("Background Context (Optional)", m.focus == focusBackground) + "\n")
	sb.WriteString(indent(m.background.View(), "  ") + "\n\n")

	switch {
	case busy != "":
		sb.WriteString("  " + busy + "\n")
	case m.err != "":
		sb.WriteString(errorStyle.Render("  ✗ "+m.err) + "\n")
	case failure != "":
		sb.WriteString(errorStyle.Render("  ✗ Error: "+failure) + "\n")
	}

	sb.WriteString(heading("How it works:"))
	for _, p := range hats.Order {
		sb.WriteString(bullet(labelStyle.Render(p.Label()+":") + " " + p.Focus()))
	}
	return sb.String()
}
