package main

import (
	"fmt"
	"os"

	"github.com/aretw0/gamesession/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gamesession",
	Short: "gamesession orchestrates word-guessing games against a scoring service",
	Long: `gamesession keeps one session per player, forwards guesses to a scoring
service and concludes games that time out.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")
	flags.String("service-address", "", "Address of the scoring service")
	flags.String("store", "", "Session store (memory, file, sqlite, redis)")
	flags.String("store-path", "", "Directory (file) or database path (sqlite)")
	flags.String("redis-addr", "", "Redis address for the redis store")
}

// loadConfig resolves the configuration: file, then environment, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, nil)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]*string{
		"log-level":       &cfg.LogLevel,
		"log-format":      &cfg.LogFormat,
		"service-address": &cfg.ServiceAddress,
		"store":           &cfg.Store.Kind,
		"store-path":      &cfg.Store.Path,
		"redis-addr":      &cfg.Store.RedisAddr,
		"addr":            &cfg.HTTP.Addr,
		"service-url":     &cfg.ServiceURL,
	}
	for name, dst := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	if f := cmd.Flags().Lookup("send-timeout"); f != nil && f.Changed {
		cfg.SendTimeout, _ = cmd.Flags().GetDuration("send-timeout")
	}
	return cfg, cfg.Validate()
}

func exitOnError(msg string, err error) {
	if err != nil {
		fmt.Printf("Error %s: %v\n", msg, err)
		os.Exit(1)
	}
}
