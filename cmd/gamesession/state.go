package main

import (
	"github.com/aretw0/gamesession/internal/cli"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print every session as JSON",
	Long:  `Prints the state snapshot of a running server (--server) or, without it, of the configured store.`,
	Run: func(cmd *cobra.Command, args []string) {
		snap, err := snapshot(cmd)
		exitOnError("querying state", err)
		exitOnError("writing state", cli.WriteState(cmd.OutOrStdout(), snap))
	},
}

func snapshot(cmd *cobra.Command) (domain.StateSnapshot, error) {
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		return cli.FetchState(cmd.Context(), server)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return domain.StateSnapshot{}, err
	}
	return cli.LoadState(cmd.Context(), cfg)
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().String("server", "", "Base URL of a running server")
}
