package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/jobclient"
	"github.com/fakeyudi/hats/internal/log"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show the progress of an analysis session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := jobclient.New(cfg.ServiceURL,
			jobclient.WithTimeout(cfg.Timeout()),
			jobclient.WithLogger(log.WithComponent("jobclient")),
		)
		p, err := client.FetchProgress(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		cmd.Printf("Session: %s\n", args[0])
		cmd.Printf("Status: %s\n", p.Status)
		if p.ErrorMessage != "" {
			cmd.Printf("Error: %s\n", p.ErrorMessage)
		}
		cmd.Printf("Completed: %s\n", joinHats(p.Completed))
		cmd.Printf("Pending: %s\n", joinHats(p.Pending))
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the analysis service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := jobclient.New(cfg.ServiceURL,
			jobclient.WithTimeout(cfg.Timeout()),
			jobclient.WithLogger(log.WithComponent("jobclient")),
		)
		if err := client.Health(cmd.Context()); err != nil {
			return err
		}
		cmd.Printf("%s is healthy\n", client.BaseURL())
		return nil
	},
}

func joinHats(ps []hats.Perspective) string {
	if len(ps) == 0 {
		return "(none)"
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pingCmd)
}
