package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/report"
	"github.com/fakeyudi/hats/internal/session"
	"github.com/fakeyudi/hats/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <report>",
	Short: "View a saved analysis report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		b, err := report.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printBundle(cmd.OutOrStdout(), b)
			return nil
		}
		format, err := report.ParseFormat(cfg.DefaultFormat)
		if err != nil {
			format = report.FormatMarkdown
		}
		return tui.RunReport(b, path, tui.Options{SaveDir: cfg.OutputDir, SaveFormat: format})
	},
}

// printBundle writes a plain-text rendition of b to w, perspectives in
// canonical order.
func printBundle(w io.Writer, b *session.ResultBundle) {
	fmt.Fprintln(w, "## Problem")
	fmt.Fprintln(w, indent(b.ProblemStatement, "  "))
	if b.BackgroundContext != "" {
		fmt.Fprintln(w, "  Background:")
		fmt.Fprintln(w, indent(b.BackgroundContext, "    "))
	}
	fmt.Fprintln(w)

	available := b.Available()
	if len(available) == 0 {
		fmt.Fprintln(w, "## Perspectives")
		fmt.Fprintln(w, "  (none)")
		if b.ErrorMessage != "" {
			fmt.Fprintf(w, "  Error: %s\n", b.ErrorMessage)
		}
		fmt.Fprintln(w)
	} else if b.Partial() {
		fmt.Fprintf(w, "Partial results: %d of %d perspectives available.\n\n", len(available), hats.Count)
	}

	for _, p := range available {
		r, _ := b.Lookup(p)
		fmt.Fprintf(w, "## %s %s\n", p.Emoji(), p.Label())
		fmt.Fprintf(w, "  Agent:      %s\n", r.AgentName)
		fmt.Fprintf(w, "  Confidence: %s\n", r.ConfidenceLevel)
		fmt.Fprintf(w, "  Time:       %.2f ms\n", r.ExecutionTimeMs)
		printList(w, "Key Insights", r.KeyInsights)
		printList(w, "Recommendations", r.Recommendations)
		fmt.Fprintln(w)
	}

	if !b.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created: %s\n", b.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "Session: %s\n", b.SessionID)
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "  %s:\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "    (none)")
		return
	}
	for i, item := range items {
		fmt.Fprintf(w, "    %d. %s\n", i+1, item)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
