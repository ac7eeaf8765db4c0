package main

import (
	"context"

	"github.com/aretw0/gamesession"
	"github.com/aretw0/gamesession/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the orchestrator and exposes it over HTTP. Without --service-url the
reference scoring service runs in-process.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("loading config", err)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		exitOnError("serving", cli.Serve(sigCtx, cfg, gamesession.Version, cmd.OutOrStdout()))
	},
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Host the reference scoring service",
	Long: `Serves the reference scoring service over HTTP for an orchestrator started
with --service-url. Replies are posted to --reply-url.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("loading config", err)
		addr, _ := cmd.Flags().GetString("listen")
		replyURL, _ := cmd.Flags().GetString("reply-url")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		exitOnError("serving", cli.ServeService(sigCtx, addr, replyURL, cfg, cmd.OutOrStdout()))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("service-url", "", "Base URL of a remote scoring service")
	serveCmd.Flags().Duration("send-timeout", 0, "How long the remote service may take to accept a request (default 500ms)")

	rootCmd.AddCommand(serviceCmd)
	serviceCmd.Flags().String("listen", ":8081", "Address to listen on")
	serviceCmd.Flags().String("reply-url", "http://localhost:8080", "Base URL of the orchestrator")
}
