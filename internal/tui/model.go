// Package tui provides the Bubble Tea interface for running analyses and
// reading their results.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/hats/internal/controller"
	"github.com/fakeyudi/hats/internal/report"
	"github.com/fakeyudi/hats/internal/session"
)

// Controller is the session controller as the views use it.
type Controller interface {
	Submit(ctx context.Context, in session.Input) error
	EditPrevious()
	StartNew()
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (cancel func())
}

// Options configures the interactive program.
type Options struct {
	SaveDir    string        // where "s" writes reports
	SaveFormat report.Format // report encoding for "s"
	Title      string        // shown in the title bar
}

type (
	snapshotMsg   session.Snapshot
	submitDoneMsg struct{ err error }
	resetDoneMsg  struct{}
	savedMsg      struct {
		path string
		err  error
	}
)

// Model is the root Bubble Tea model. It owns no lifecycle state of its own;
// everything shown comes from the latest controller snapshot.
type Model struct {
	ctrl Controller
	opts Options

	snap session.Snapshot
	view View

	input    inputModel
	progress progressModel
	results  resultsModel

	submitting bool
	notice     string
	width      int
	height     int
	ready      bool
}

// New creates the root model for ctrl. ctrl may be nil for a read-only
// results viewer, in which case the initial snapshot must carry results.
func New(ctrl Controller, initial session.Snapshot, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "six thinking hats"
	}
	m := Model{
		ctrl:     ctrl,
		opts:     opts,
		snap:     initial,
		view:     Dispatch(initial),
		input:    newInputModel(),
		progress: newProgressModel(),
	}
	m.input.setInput(initial.Input)
	if initial.Results != nil {
		m.results = newResultsModel(initial.Results, 80, 20)
	}
	return m
}

// CurrentView returns the screen on display.
func (m Model) CurrentView() View { return m.view }

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.progress.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.input.resize(m.width)
		m.progress.resize(m.width)
		if m.snap.Results != nil {
			m.results.resize(m.width, m.contentHeight())
		}
		return m, nil

	case snapshotMsg:
		m.apply(session.Snapshot(msg))
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		if errors.Is(msg.err, controller.ErrBusy) {
			m.notice = "An analysis is already running."
		} else if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case resetDoneMsg:
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.notice = "Save failed: " + msg.err.Error()
		} else {
			m.notice = "Saved report to " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.progress.spinner, cmd = m.progress.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case ViewInput:
			return m.updateInput(msg)
		case ViewProgress:
			return m.updateProgress(msg)
		case ViewResults:
			return m.updateResults(msg)
		}
	}

	if m.view == ViewInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.update(msg)
		return m, cmd
	}
	return m, nil
}

// apply installs a newer snapshot and switches screens when Dispatch says so.
func (m *Model) apply(s session.Snapshot) {
	if s.Revision != 0 && s.Revision <= m.snap.Revision {
		return
	}
	prev := m.view
	m.snap = s
	m.view = Dispatch(s)
	if m.view == prev {
		return
	}
	m.notice = ""
	switch m.view {
	case ViewInput:
		m.input.setInput(s.Input)
	case ViewResults:
		m.results = newResultsModel(s.Results, m.width, m.contentHeight())
	}
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submitting {
		// Only a fresh start can leave a submission that hangs.
		if msg.String() != "ctrl+n" {
			return m, nil
		}
		m.submitting = false
	}
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab":
		return m, m.input.toggleFocus()
	case "ctrl+n":
		m.input.setInput(session.Input{})
		return m, m.reset(false)
	case "ctrl+s":
		in := m.input.value()
		if err := in.Validate(); err != nil {
			var verr *session.ValidationError
			if errors.As(err, &verr) {
				m.input.err = capitalize(verr.Err.Error())
			} else {
				m.input.err = err.Error()
			}
			return m, nil
		}
		if m.ctrl == nil {
			return m, nil
		}
		m.submitting = true
		m.notice = ""
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return submitDoneMsg{err: ctrl.Submit(context.Background(), in)}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.update(msg)
	return m, cmd
}

func (m Model) updateProgress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "e":
		return m, m.reset(true)
	case "n":
		return m, m.reset(false)
	}
	return m, nil
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab", "l", "right":
		m.results.sel.Next()
		m.results.refresh()
		return m, nil
	case "shift+tab", "h", "left":
		m.results.sel.Prev()
		m.results.refresh()
		return m, nil
	case "1", "2", "3", "4", "5", "6":
		if m.results.sel.SelectIndex(int(msg.String()[0] - '1')) {
			m.results.refresh()
		}
		return m, nil
	case "e":
		return m, m.reset(true)
	case "n":
		return m, m.reset(false)
	case "s":
		return m, m.save()
	}
	var cmd tea.Cmd
	m.results.vp, cmd = m.results.vp.Update(msg)
	return m, cmd
}

// reset asks the controller to go back to the input screen. It runs off the
// event loop because it joins the poll goroutine.
func (m Model) reset(keepInput bool) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		if keepInput {
			ctrl.EditPrevious()
		} else {
			ctrl.StartNew()
		}
		return resetDoneMsg{}
	}
}

func (m Model) save() tea.Cmd {
	b := m.snap.Results
	dir, format := m.opts.SaveDir, m.opts.SaveFormat
	return func() tea.Msg {
		path, err := report.Write(dir, format, b)
		return savedMsg{path: path, err: err}
	}
}

// contentHeight is the room left for the results viewport.
func (m Model) contentHeight() int {
	// title, tab bar and status bar
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  hats  " + m.opts.Title)

	var body, hint string
	switch m.view {
	case ViewInput:
		busy := ""
		if m.submitting || m.snap.Status.Active() {
			busy = m.progress.spinner.View() + " Creating session..."
		}
		failure := ""
		if m.snap.Status == session.StatusFailed {
			failure = m.snap.ErrorMessage
		}
		body = m.input.view(busy, failure)
		hint = "  tab switch field  ctrl+s start analysis  ctrl+n clear  esc quit"
	case ViewProgress:
		body = m.progress.view(m.snap)
		hint = "  e edit input  n start new  q quit"
	case ViewResults:
		body = lipgloss.JoinVertical(lipgloss.Left, m.results.tabBar(), m.results.vp.View())
		hint = "  ←/→ perspective  ↑/↓ scroll  1-6 jump  s save  e edit  n new  q quit"
		if m.ctrl == nil {
			hint = "  ←/→ perspective  ↑/↓ scroll  1-6 jump  s save  q quit"
		}
	}

	status := hint
	if m.notice != "" {
		status = "  " + m.notice
	}
	statusBar := statusBarStyle.Width(m.width).Render(status)

	if m.view == ViewResults {
		return lipgloss.JoinVertical(lipgloss.Left, title, body, statusBar)
	}
	// Pad the form screens so the status bar sits at the bottom.
	lines := strings.Count(body, "\n") + 1
	if pad := m.height - 2 - lines; pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, body, statusBar)
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Run starts the interactive program on ctrl and returns when the user quits.
func Run(ctrl Controller, opts Options) error {
	p := tea.NewProgram(New(ctrl, ctrl.Snapshot(), opts), tea.WithAltScreen())
	unsubscribe := ctrl.Subscribe(func(s session.Snapshot) {
		p.Send(snapshotMsg(s))
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

// RunReport opens a saved result bundle in the results screen.
func RunReport(b *session.ResultBundle, filename string, opts Options) error {
	if opts.Title == "" {
		opts.Title = filepath.Base(filename)
	}
	initial := session.Snapshot{
		SessionID: b.SessionID,
		Status:    session.StatusCompleted,
		Results:   b,
		Input:     session.Input{ProblemStatement: b.ProblemStatement, BackgroundContext: b.BackgroundContext},
	}
	p := tea.NewProgram(New(nil, initial, opts), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
