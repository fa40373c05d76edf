package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

// StatusText is the one-line description of a run's state.
func StatusText(s session.Snapshot) string {
	switch s.Status {
	case session.StatusInitiated:
		return "Initializing analysis..."
	case session.StatusProcessing:
		if len(s.Completed) == hats.Count {
			return "Analysis complete! Fetching results..."
		}
		return "Analyzing from multiple perspectives..."
	case session.StatusCompleted:
		return "Analysis complete!"
	case session.StatusFailed:
		return "Analysis failed"
	}
	return ""
}

// Percent maps a run's state to a progress fraction: nothing while initiated,
// half once processing plus a share per finished perspective, full when done.
func Percent(s session.Snapshot) float64 {
	switch s.Status {
	case session.StatusCompleted:
		return 1
	case session.StatusProcessing, session.StatusFailed:
		if s.Status == session.StatusFailed && len(s.Completed) == 0 {
			return 0
		}
		return 0.5 + 0.45*float64(len(s.Completed))/float64(hats.Count)
	}
	return 0
}

type progressModel struct {
	spinner spinner.Model
	bar     progress.Model
}

func newProgressModel() progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return progressModel{
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

func (m *progressModel) resize(width int) {
	w := width - 8
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	m.bar.Width = w
}

func (m progressModel) view(s session.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(heading("Analysis in Progress..."))

	if s.ErrorMessage != "" {
		sb.WriteString(errorStyle.Render("  ✗ Error: "+s.ErrorMessage) + "\n\n")
	}

	sb.WriteString("  " + m.bar.ViewAs(Percent(s)) + "\n\n")

	status := StatusText(s)
	if s.Status.Active() {
		status = m.spinner.View() + " " + status
	}
	sb.WriteString("  " + status + "\n")

	done := make(map[hats.Perspective]bool, len(s.Completed))
	for _, p := range s.Completed {
		done[p] = true
	}
	sb.WriteString(heading("Thinking Hats"))
	for _, p := range hats.Order {
		mark := pendingStyle.Render("○")
		if done[p] {
			mark = doneStyle.Render("✓")
		}
		fmt.Fprintf(&sb, "  %s  %s %s\n", mark, p.Emoji(), p.Label())
	}
	sb.WriteString("\n" + dimStyle.Render("  Session: "+s.SessionID) + "\n")
	return sb.String()
}
