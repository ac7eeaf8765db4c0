package main

import (
	"context"
	"os"

	"github.com/aretw0/gamesession/internal/cli"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play [player]",
	Short: "Play a game in the terminal",
	Long:  `Plays against the in-process reference scoring service. Prompts are shown only when stdin is a terminal.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("loading config", err)

		player := "player"
		if len(args) > 0 {
			player = args[0]
		}
		headless, _ := cmd.Flags().GetBool("headless")
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			headless = true
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		err = cli.Play(sigCtx, cfg, cli.PlayOptions{
			Player:   domain.ActorID(player),
			Headless: headless,
		}, os.Stdin, cmd.OutOrStdout())
		exitOnError("playing", err)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Bool("headless", false, "Run without prompts")
}
