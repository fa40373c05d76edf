package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/hats/internal/config"
	"github.com/fakeyudi/hats/internal/controller"
	"github.com/fakeyudi/hats/internal/jobclient"
	"github.com/fakeyudi/hats/internal/log"
	"github.com/fakeyudi/hats/internal/profile"
	"github.com/fakeyudi/hats/internal/report"
	"github.com/fakeyudi/hats/internal/tui"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

// closeLog releases the log file opened for the current invocation.
var closeLog = func() error { return nil }

var (
	serviceURLFlag string
	logLevelFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "hats",
	Short: "Analyze a problem from six thinking-hat perspectives",
	Long: `hats submits a problem statement to a six thinking hats analysis service,
follows the analysis while it runs and presents each perspective's insights
and recommendations.

Run without arguments for the interactive interface, or use 'hats analyze'
for scripted runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to hats! Looks like this is your first time.")
			if err := runSetup(cmd, false); err != nil {
				return err
			}
		}

		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		fillFromProfile(&cfg, activeProfile)
		if serviceURLFlag != "" {
			cfg.ServiceURL = serviceURLFlag
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}

		return configureLogging(cfg)
	},
}

// fillFromProfile lets profile values fill config fields still at their
// defaults.
func fillFromProfile(c *config.Config, p *profile.Profile) {
	if p == nil {
		return
	}
	if c.ServiceURL == config.DefaultServiceURL && p.ServiceURL != "" {
		c.ServiceURL = p.ServiceURL
	}
	if (c.DefaultFormat == "" || c.DefaultFormat == string(report.FormatMarkdown)) && p.DefaultFormat != "" {
		c.DefaultFormat = p.DefaultFormat
	}
	if c.OutputDir == "." && p.OutputDir != "" && p.OutputDir != "." {
		c.OutputDir = p.OutputDir
	}
}

func configureLogging(c config.Config) error {
	_ = closeLog()
	w, closer, err := log.OpenFile(c.LogFile)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	closeLog = closer
	log.Configure(log.Config{Level: c.LogLevel, Output: w})
	return nil
}

// newController wires a job client and controller from the merged config.
func newController() *controller.Controller {
	client := jobclient.New(cfg.ServiceURL,
		jobclient.WithTimeout(cfg.Timeout()),
		jobclient.WithLogger(log.WithComponent("jobclient")),
	)
	return controller.New(client,
		controller.WithPollInterval(cfg.PollEvery()),
		controller.WithLogger(log.WithComponent("controller")),
	)
}

// reportFormat resolves a --format value, falling back to the configured
// default.
func reportFormat(flag string) (report.Format, error) {
	if flag == "" {
		flag = cfg.DefaultFormat
	}
	return report.ParseFormat(flag)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(os.Stdout.Fd()) {
		cmd.Println("hats needs an interactive terminal. Use 'hats analyze' for scripted runs.")
		return nil
	}
	format, err := reportFormat("")
	if err != nil {
		return err
	}

	ctrl := newController()
	defer ctrl.Close()

	return tui.Run(ctrl, tui.Options{SaveDir: cfg.OutputDir, SaveFormat: format})
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}

func init() {
	rootCmd.RunE = runInteractive
	rootCmd.PersistentFlags().StringVar(&serviceURLFlag, "service-url", "", "analysis service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
}
