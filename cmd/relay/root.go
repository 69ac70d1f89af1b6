package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - rate-limited chat proxy for LLM APIs",
	Long: `Relay is a chat proxy that gates traffic to an upstream LLM API.

Every request passes through a rolling-window rate limiter before being
validated and forwarded upstream. Denied requests receive a 429 with a
Retry-After header and never reach the provider. Decisions are recorded
for audit, and window state survives restarts.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "relay.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
