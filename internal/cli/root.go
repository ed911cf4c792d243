package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "relayctl",
		Short: "Player and operator tool for the relay server",
		Long: `relayctl joins a relay server as a player, or inspects a running server
through its admin gRPC service.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json (env: RELAY_OUTPUT)")

	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newPlayersCmd())
	rootCmd.AddCommand(newInfoCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
