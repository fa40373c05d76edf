package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

// resultsModel shows one perspective at a time with a tab bar on top.
type resultsModel struct {
	bundle *session.ResultBundle
	sel    Selector
	vp     viewport.Model
	width  int
}

func newResultsModel(b *session.ResultBundle, width, height int) resultsModel {
	r := resultsModel{bundle: b, sel: NewSelector(b), vp: viewport.New(width, height), width: width}
	r.refresh()
	return r
}

func (r *resultsModel) resize(width, height int) {
	r.width = width
	r.vp.Width = width
	r.vp.Height = height
	r.vp.SetContent(r.body())
}

func (r *resultsModel) refresh() {
	r.vp.SetContent(r.body())
	r.vp.GotoTop()
}

func (r resultsModel) tabBar() string {
	if r.sel.Degraded() {
		return ""
	}
	cur, _ := r.sel.Selected()
	var parts []string
	for i, p := range r.sel.Available() {
		label := fmt.Sprintf(" %d %s %s ", i+1, p.Emoji(), p.Title())
		if p == cur {
			parts = append(parts, tabStyle(p).Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
		if i < len(r.sel.Available())-1 {
			parts = append(parts, tabSepStyle.Render("│"))
		}
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(r.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

// body renders everything below the tab bar.
func (r resultsModel) body() string {
	b := r.bundle
	var sb strings.Builder

	sb.WriteString(heading("Problem Statement"))
	sb.WriteString(wrap(b.ProblemStatement, r.width) + "\n")
	if b.BackgroundContext != "" {
		sb.WriteString(heading("Background Context"))
		sb.WriteString(dimStyle.Render(wrap(b.BackgroundContext, r.width)) + "\n")
	}

	if r.sel.Degraded() {
		msg := "⚠ No hat results available. The analysis may have encountered issues."
		if b.ErrorMessage != "" {
			msg += "\nError: " + b.ErrorMessage
		}
		sb.WriteString("\n" + indent(warnBoxStyle.Render(msg), "  ") + "\n")
	} else {
		if b.Partial() {
			msg := fmt.Sprintf("⚠ Partial results: %d of %d perspectives available.", len(r.sel.Available()), hats.Count)
			if b.ErrorMessage != "" {
				msg += "\n" + b.ErrorMessage
			}
			sb.WriteString("\n" + indent(warnBoxStyle.Render(msg), "  ") + "\n")
		}
		p, _ := r.sel.Selected()
		res, _ := b.Lookup(p)
		sb.WriteString(renderPerspective(p, res, r.width))
	}

	if blue, ok := b.Lookup(hats.Blue); ok {
		var syn strings.Builder
		syn.WriteString(sectionHeader.Render("  📋 Synthesis (Blue Hat Summary)") + "\n\n")
		syn.WriteString(list("Key Insights", blue.KeyInsights, "No synthesis insights available", r.width))
		syn.WriteString(list("Recommendations", blue.Recommendations, "No synthesis recommendations available", r.width))
		sb.WriteString("\n" + synthesisStyle.Render(syn.String()) + "\n")
	}

	sb.WriteString("\n")
	if !b.CreatedAt.IsZero() {
		sb.WriteString(dimStyle.Render("  Created: "+b.CreatedAt.Local().Format("2006-01-02 15:04:05 MST")) + "\n")
	}
	sb.WriteString(dimStyle.Render("  Session ID: "+b.SessionID) + "\n")
	return sb.String()
}

func renderPerspective(p hats.Perspective, res session.PerspectiveResult, width int) string {
	var sb strings.Builder
	name := res.AgentName
	if name == "" {
		name = p.Label()
	}
	sb.WriteString(heading(p.Emoji() + " " + name))
	sb.WriteString(dimStyle.Render("  "+p.Focus()) + "\n")
	if res.ConfidenceLevel != "" {
		sb.WriteString(labelStyle.Render("  Confidence:") + " " + res.ConfidenceLevel + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(list("Key Insights", res.KeyInsights, "No insights available", width))
	sb.WriteString(list("Recommendations", res.Recommendations, "No recommendations available", width))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  Execution time: %.2fms", res.ExecutionTimeMs)) + "\n")
	return sb.String()
}

func list(title string, items []string, empty string, width int) string {
	var sb strings.Builder
	sb.WriteString(labelStyle.Render("  "+title) + "\n")
	if len(items) == 0 {
		sb.WriteString(bullet(dimStyle.Render(empty)))
	}
	w := width - 10
	if w < 20 {
		w = 20
	}
	for _, item := range items {
		sb.WriteString(bullet(lipgloss.NewStyle().Width(w).Render(item)))
	}
	sb.WriteString("\n")
	return sb.String()
}

// wrap soft-wraps s to width columns and indents it two spaces.
func wrap(s string, width int) string {
	if width < 20 {
		width = 20
	}
	return indent(lipgloss.NewStyle().Width(width-4).Render(s), "  ")
}
