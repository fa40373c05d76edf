package report_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/report"
	"github.com/fakeyudi/hats/internal/session"
)

// text draws printable strings that every encoding round-trips verbatim.
func text(t *rapid.T, label string) string {
	return rapid.StringMatching(`[a-zA-Z0-9][a-zA-Z0-9 .,?']{0,40}[a-zA-Z0-9.?]`).Draw(t, label)
}

func texts(t *rapid.T, label string) []string {
	n := rapid.IntRange(0, 3).Draw(t, label+"_count")
	out := make([]string, n)
	for i := range out {
		out[i] = text(t, label)
	}
	return out
}

// generateBundle produces a bundle with an arbitrary subset of perspectives.
func generateBundle(t *rapid.T) *session.ResultBundle {
	sec := rapid.Int64Range(1_000_000_000, 1_900_000_000).Draw(t, "created_unix_sec")
	b := &session.ResultBundle{
		SessionID:        rapid.StringMatching(`[a-f0-9]{8}-[a-f0-9]{4}`).Draw(t, "session_id"),
		ProblemStatement: text(t, "problem"),
		CreatedAt:        time.Unix(sec, 0).UTC(),
		Perspectives:     make(map[hats.Perspective]session.PerspectiveResult),
	}
	if rapid.Bool().Draw(t, "has_background") {
		b.BackgroundContext = text(t, "background")
	}
	if rapid.Bool().Draw(t, "has_error") {
		b.ErrorMessage = text(t, "error_message")
	}
	for _, p := range hats.Order {
		if !rapid.Bool().Draw(t, "present_"+string(p)) {
			continue
		}
		b.Perspectives[p] = session.PerspectiveResult{
			AgentName:       text(t, "agent_name"),
			ConfidenceLevel: rapid.SampledFrom([]string{"low", "medium", "high", "0.75"}).Draw(t, "confidence"),
			KeyInsights:     texts(t, "insight"),
			Recommendations: texts(t, "recommendation"),
			ExecutionTimeMs: float64(rapid.IntRange(0, 100_000).Draw(t, "exec_ms")) / 4,
		}
	}
	return b
}

func assertSameBundle(t *rapid.T, got, want *session.ResultBundle) {
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}
}

// Feature: hats, Property 5: every report format round-trips a bundle
func TestReportRoundTrip(t *testing.T) {
	for _, f := range []report.Format{report.FormatMarkdown, report.FormatJSON, report.FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			renderer := report.RendererFor(f)
			parser := report.ParserFor("report" + f.Ext())

			rapid.Check(t, func(t *rapid.T) {
				original := generateBundle(t)

				data, err := renderer.Render(original)
				if err != nil {
					t.Fatalf("Render: %v", err)
				}
				got, err := parser.Parse(data)
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				assertSameBundle(t, got, original)
			})
		})
	}
}

// Feature: hats, Property 6: Markdown reports list present hats in order
func TestMarkdownSections(t *testing.T) {
	renderer := &report.MarkdownRenderer{}

	rapid.Check(t, func(t *rapid.T) {
		b := generateBundle(t)
		data, err := renderer.Render(b)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		md := string(data)

		if !strings.Contains(md, "## Problem") {
			t.Error("missing problem section")
		}
		last := -1
		for _, p := range hats.Order {
			heading := "## " + p.Emoji() + " " + p.Label()
			idx := strings.Index(md, heading)
			_, present := b.Lookup(p)
			if present != (idx >= 0) {
				t.Fatalf("%s present=%v but heading index %d", p, present, idx)
			}
			if present {
				if idx < last {
					t.Fatalf("%s is out of canonical order", p)
				}
				last = idx
			}
		}
		if b.Partial() != strings.Contains(md, "Partial results") {
			t.Errorf("partial notice mismatch: Partial()=%v", b.Partial())
		}
	})
}

func TestMarkdownFallbackTexts(t *testing.T) {
	b := &session.ResultBundle{
		SessionID:        "sid-1",
		ProblemStatement: "Should we migrate to microservices?",
		Perspectives: map[hats.Perspective]session.PerspectiveResult{
			hats.White: {AgentName: "White Thinker", ExecutionTimeMs: 1234.5},
		},
	}
	data, err := (&report.MarkdownRenderer{}).Render(b)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	md := string(data)
	for _, want := range []string{
		"_No insights available._",
		"_No recommendations available._",
		"- Execution time: 1234.50 ms",
		"> **Partial results.**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Synthesis") {
		t.Error("synthesis section without a blue hat result")
	}
}

func TestMarkdownParser_PlainMarkdownWithoutSentinel(t *testing.T) {
	_, err := (&report.MarkdownParser{}).Parse([]byte("# Notes\n\n- item 1\n"))
	if err == nil || !strings.Contains(err.Error(), "not a valid hats report") {
		t.Fatalf("expected 'not a valid hats report' error, got %v", err)
	}
}

func TestMarkdownParser_CorruptedPayload(t *testing.T) {
	cases := map[string]string{
		"bad base64":   "<!-- hats-report-version: 1 -->\n<!-- hats-data: !!!not-base64!!! -->\n",
		"missing data": "<!-- hats-report-version: 1 -->\n\n# Six Thinking Hats Analysis\n",
		"bad json": "<!-- hats-report-version: 1 -->\n<!-- hats-data: " +
			base64.StdEncoding.EncodeToString([]byte("not json {{")) + " -->\n",
		"unterminated": "<!-- hats-report-version: 1 -->\n<!-- hats-data: abc",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := (&report.MarkdownParser{}).Parse([]byte(in))
			if err == nil || !strings.Contains(err.Error(), "not a valid hats report") {
				t.Fatalf("expected 'not a valid hats report' error, got %v", err)
			}
		})
	}
}

func TestJSONParser_MalformedJSON(t *testing.T) {
	for _, in := range []string{"", `{"results": {`, "not json", `[1, 2, 3]`} {
		_, err := (&report.JSONParser{}).Parse([]byte(in))
		if err == nil || !strings.Contains(err.Error(), "failed to parse JSON report") {
			t.Errorf("Parse(%q): expected descriptive error, got %v", in, err)
		}
	}
}

func TestYAMLParser_Rejects(t *testing.T) {
	for _, in := range []string{"", "results: [unclosed", "- just\n- a list\n"} {
		if _, err := (&report.YAMLParser{}).Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]report.Format{
		"markdown": report.FormatMarkdown,
		"md":       report.FormatMarkdown,
		"":         report.FormatMarkdown,
		"JSON":     report.FormatJSON,
		".yml":     report.FormatYAML,
		"yaml":     report.FormatYAML,
	}
	for in, want := range cases {
		got, err := report.ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := report.ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

func TestWriteAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	b := &session.ResultBundle{
		SessionID:        "0123456789abcdef",
		ProblemStatement: "Should we migrate to microservices?",
		CreatedAt:        time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC),
		Perspectives: map[hats.Perspective]session.PerspectiveResult{
			hats.White: {AgentName: "White Thinker", KeyInsights: []string{"facts"}},
			hats.Blue:  {AgentName: "Blue Thinker", Recommendations: []string{"decide"}},
		},
	}

	for _, f := range []report.Format{report.FormatMarkdown, report.FormatJSON, report.FormatYAML} {
		path, err := report.Write(dir, f, b)
		if err != nil {
			t.Fatalf("Write(%s): %v", f, err)
		}
		if want := filepath.Join(dir, "hats-01234567-20250304-102030"+f.Ext()); path != want {
			t.Errorf("path = %q, want %q", path, want)
		}
		got, err := report.Read(path)
		if err != nil {
			t.Fatalf("Read(%s): %v", path, err)
		}
		if len(got.Available()) != 2 || got.SessionID != b.SessionID {
			t.Errorf("Read(%s) = %+v", path, got)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 reports, got %d", len(entries))
	}
}

func TestReadDropsUnknownPerspectives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	raw := `{"session_id": "s", "problem_statement": "p", "results": {"white": {"agent_name": "W"}, "purple": {"agent_name": "P"}}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := report.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := b.Available(); len(got) != 1 || got[0] != hats.White {
		t.Errorf("Available() = %v, want [white]", got)
	}
	if len(b.Perspectives) != 1 {
		t.Errorf("unknown key kept: %v", b.Perspectives)
	}
}

func TestWriteNilBundle(t *testing.T) {
	if _, err := report.Write(t.TempDir(), report.FormatJSON, nil); err == nil {
		t.Error("expected error for nil bundle")
	}
}

func TestFileNameSanitizesSessionID(t *testing.T) {
	cases := map[string]string{
		"../../x":    "hats-------x-undated.json",
		`a\b/c`:      "hats-a-b-c-undated.json",
		"":           "hats-local-undated.json",
		"abc_DEF-12": "hats-abc_DEF--undated.json",
	}
	for id, want := range cases {
		got := report.FileName(&session.ResultBundle{SessionID: id}, report.FormatJSON)
		if got != want {
			t.Errorf("FileName(%q) = %q, want %q", id, got, want)
		}
	}

	dir := t.TempDir()
	path, err := report.Write(dir, report.FormatJSON, &session.ResultBundle{SessionID: "../../escape"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("report written to %q, outside %q", path, dir)
	}
}
