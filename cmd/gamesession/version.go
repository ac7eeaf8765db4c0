package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/gamesession"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gamesession",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gamesession version %s\n", strings.TrimSpace(gamesession.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
