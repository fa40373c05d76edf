package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

const (
	versionSentinel = "<!-- hats-report-version: 1 -->"
	dataPrefix      = "<!-- hats-data: "
	dataSuffix      = " -->"
)

// MarkdownRenderer renders a ResultBundle as human-readable Markdown with an
// embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(b *session.ResultBundle) ([]byte, error) {
	jsonBytes, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	sb.WriteString("# Six Thinking Hats Analysis\n\n")
	sb.WriteString("## Problem\n\n")
	fmt.Fprintf(&sb, "%s\n\n", b.ProblemStatement)
	if b.BackgroundContext != "" {
		sb.WriteString("### Background\n\n")
		fmt.Fprintf(&sb, "%s\n\n", b.BackgroundContext)
	}

	if b.Partial() {
		sb.WriteString("> **Partial results.**")
		if b.ErrorMessage != "" {
			fmt.Fprintf(&sb, " %s", b.ErrorMessage)
		}
		sb.WriteString("\n\n")
	}

	available := b.Available()
	if len(available) == 0 {
		sb.WriteString("_No perspective results were produced._\n\n")
	}
	for _, p := range available {
		res, _ := b.Lookup(p)
		fmt.Fprintf(&sb, "## %s %s\n\n", p.Emoji(), p.Label())
		fmt.Fprintf(&sb, "_%s_\n\n", p.Focus())
		if res.AgentName != "" {
			fmt.Fprintf(&sb, "- Agent: %s\n", res.AgentName)
		}
		if res.ConfidenceLevel != "" {
			fmt.Fprintf(&sb, "- Confidence: %s\n", res.ConfidenceLevel)
		}
		fmt.Fprintf(&sb, "- Execution time: %.2f ms\n\n", res.ExecutionTimeMs)

		writeList(&sb, "Key Insights", res.KeyInsights, "_No insights available._")
		writeList(&sb, "Recommendations", res.Recommendations, "_No recommendations available._")
	}

	if blue, ok := b.Lookup(hats.Blue); ok {
		sb.WriteString("## Synthesis (Blue Hat Summary)\n\n")
		writeList(&sb, "Key Insights", blue.KeyInsights, "_No synthesis insights available._")
		writeList(&sb, "Recommendations", blue.Recommendations, "_No synthesis recommendations available._")
	}

	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "Session: `%s`", b.SessionID)
	if !b.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, " | Created: %s", b.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

func writeList(sb *strings.Builder, title string, items []string, empty string) {
	fmt.Fprintf(sb, "### %s\n\n", title)
	if len(items) == 0 {
		sb.WriteString(empty + "\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteString("\n")
}

// MarkdownParser parses a Markdown report by extracting the embedded base64
// JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*session.ResultBundle, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid hats report: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid hats report: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid hats report: malformed data payload")
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a valid hats report: corrupted base64 payload: %w", err)
	}

	var b session.ResultBundle
	if err := json.Unmarshal(jsonBytes, &b); err != nil {
		return nil, fmt.Errorf("not a valid hats report: failed to parse embedded JSON: %w", err)
	}
	return &b, nil
}
