package cli

import (
	"github.com/spf13/cobra"
)

// Commands that read the server's own state over HTTP

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndPrint[HealthResult]("/api/v1/health")
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many players, games, rooms and connections the server holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndPrint[StatsResult]("/api/v1/stats")
		},
	}
}

// fetchAndPrint decodes the body at path into a T and prints it in the configured format
func fetchAndPrint[T any](path string) error {
	var result T
	if err := client.Get(path, &result); err != nil {
		return err
	}
	NewOutput(cfg.Output).Print(result)
	return nil
}
