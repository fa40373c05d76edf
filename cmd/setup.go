package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hats/internal/profile"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure hats (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before profile exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd, true)
	},
}

// runSetup runs the interactive setup wizard on the command's streams.
// When edit is true the existing profile supplies the defaults.
func runSetup(cmd *cobra.Command, edit bool) error {
	out := cmd.OutOrStdout()

	var existing *profile.Profile
	if edit && profile.Exists() {
		p, err := profile.Load()
		if err == nil {
			existing = p
		}
	}

	prof, err := profile.RunSetup(cmd.InOrStdin(), out, existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	fmt.Fprintln(out, "  ✓ Profile saved.")
	fmt.Fprintln(out, "  Setup complete. Run 'hats' to start an analysis.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
