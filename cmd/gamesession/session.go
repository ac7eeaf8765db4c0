package main

import (
	"github.com/aretw0/gamesession/internal/cli"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect stored sessions",
	Long:  `List and inspect the sessions kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("loading config", err)

		snap, err := cli.LoadState(cmd.Context(), cfg)
		exitOnError("listing sessions", err)
		exitOnError("listing sessions", cli.ListSessions(cmd.OutOrStdout(), snap.Sessions))
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <player>",
	Short: "Inspect the session of a player",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("loading config", err)

		exitOnError("inspecting session", cli.InspectSession(cmd.Context(), cfg, domain.ActorID(args[0]), cmd.OutOrStdout()))
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
}
