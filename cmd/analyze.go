package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/hats/internal/controller"
	"github.com/fakeyudi/hats/internal/inputwatch"
	"github.com/fakeyudi/hats/internal/log"
	"github.com/fakeyudi/hats/internal/report"
	"github.com/fakeyudi/hats/internal/session"
	"github.com/fakeyudi/hats/internal/tui"
)

type analyzeOptions struct {
	context string
	file    string
	format  string
	output  string
	watch   bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze [problem statement]",
	Short: "Run one analysis and print the report",
	Long: `Run one analysis without the interactive interface. The rendered report is
written to stdout, or saved under --output with its path printed instead.
Progress goes to stderr.

With --file the problem is read from a text file; a line containing only
"---" separates the problem statement from background context. --watch
re-runs the analysis each time that file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := analyzeInput(analyzeOpts, args)
		if err != nil {
			return err
		}
		format, err := reportFormat(analyzeOpts.format)
		if err != nil {
			return err
		}
		if analyzeOpts.watch && analyzeOpts.file == "" {
			return errors.New("--watch requires --file")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctrl := newController()
		defer ctrl.Close()

		if err := runAnalysis(ctx, cmd, ctrl, in, format, analyzeOpts.output); err != nil {
			if !analyzeOpts.watch {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
		}
		if !analyzeOpts.watch {
			return nil
		}
		return watchAnalysis(ctx, cmd, ctrl, analyzeOpts, format)
	},
}

// analyzeInput assembles the input from the file, the positional arguments
// and --context, in increasing precedence.
func analyzeInput(opts analyzeOptions, args []string) (session.Input, error) {
	var in session.Input
	if opts.file != "" {
		read, err := inputwatch.ReadInput(opts.file)
		if err != nil {
			return session.Input{}, err
		}
		in = read
	}
	if len(args) > 0 {
		in.ProblemStatement = strings.TrimSpace(strings.Join(args, " "))
	}
	if opts.context != "" {
		in.BackgroundContext = strings.TrimSpace(opts.context)
	}
	if err := in.Validate(); err != nil {
		return session.Input{}, err
	}
	return in, nil
}

// runAnalysis submits in, reports progress on stderr until the run settles
// and then emits the report.
func runAnalysis(ctx context.Context, cmd *cobra.Command, ctrl *controller.Controller, in session.Input, format report.Format, outDir string) error {
	logger := log.WithComponent("analyze")
	stderr := cmd.ErrOrStderr()

	var last string
	unsubscribe := ctrl.Subscribe(func(s session.Snapshot) {
		if s.Status == session.StatusIdle {
			return
		}
		text := tui.StatusText(s)
		if text == last {
			return
		}
		last = text
		fmt.Fprintf(stderr, "%3.0f%%  %s\n", tui.Percent(s)*100, text)
	})
	defer unsubscribe()

	if err := ctrl.Submit(ctx, in); err != nil {
		return err
	}
	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return err
	}
	if snap.Status == session.StatusFailed {
		logger.Warn().Str("session_id", snap.SessionID).Str("error_message", snap.ErrorMessage).Msg("analysis failed")
		return fmt.Errorf("analysis failed: %s", snap.ErrorMessage)
	}
	if snap.Results == nil {
		return errors.New("analysis ended without results")
	}
	return emitReport(cmd.OutOrStdout(), snap.Results, format, outDir)
}

func emitReport(w io.Writer, b *session.ResultBundle, format report.Format, outDir string) error {
	if outDir != "" {
		path, err := report.Write(outDir, format, b)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, path)
		return err
	}
	data, err := report.RendererFor(format).Render(b)
	if err != nil {
		return err
	}
	if format == report.FormatMarkdown && isTerminal(w) {
		if styled, err := renderMarkdown(data); err == nil {
			data = styled
		}
	}
	_, err = w.Write(data)
	return err
}

// renderMarkdown styles a Markdown report for the terminal. The embedded
// metadata comments are dropped first.
func renderMarkdown(data []byte) ([]byte, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, err
	}
	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "<!-- hats-") {
			continue
		}
		kept = append(kept, line)
	}
	out, err := r.Render(strings.Join(kept, "\n"))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// watchAnalysis re-runs the analysis after every change to opts.file until
// ctx is cancelled. A change that arrives during a run is picked up once
// that run settles.
func watchAnalysis(ctx context.Context, cmd *cobra.Command, ctrl *controller.Controller, opts analyzeOptions, format report.Format) error {
	stderr := cmd.ErrOrStderr()
	changes := make(chan session.Input, 1)

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- inputwatch.Watch(ctx, opts.file, inputwatch.DefaultDebounce, func(in session.Input, err error) {
			if err != nil {
				fmt.Fprintf(stderr, "reading %s: %v\n", opts.file, err)
				return
			}
			// Keep only the newest edit.
			select {
			case <-changes:
			default:
			}
			changes <- in
		})
	}()

	fmt.Fprintf(stderr, "Watching %s for changes (Ctrl+C to stop)\n", opts.file)
	for {
		select {
		case <-ctx.Done():
			return <-watchErr
		case err := <-watchErr:
			return err
		case in := <-changes:
			if opts.context != "" {
				in.BackgroundContext = strings.TrimSpace(opts.context)
			}
			if err := in.Validate(); err != nil {
				fmt.Fprintf(stderr, "%v\n", err)
				continue
			}
			ctrl.StartNew()
			if err := runAnalysis(ctx, cmd, ctrl, in, format, opts.output); err != nil {
				if ctx.Err() != nil {
					return <-watchErr
				}
				fmt.Fprintf(stderr, "%v\n", err)
			}
		}
	}
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeOpts.context, "context", "c", "", "background context for the problem")
	f.StringVarP(&analyzeOpts.file, "file", "f", "", "read the problem from a text file")
	f.StringVar(&analyzeOpts.format, "format", "", "report format: markdown, json or yaml (default from config)")
	f.StringVarP(&analyzeOpts.output, "output", "o", "", "save the report in this directory instead of printing it")
	f.BoolVarP(&analyzeOpts.watch, "watch", "w", false, "re-run when --file changes")
	rootCmd.AddCommand(analyzeCmd)
}
