package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "rpsclient",
		Short: "Client for the rock-paper-scissors game server",
		Long: `rpsclient connects to the rock-paper-scissors game server over TLS.

Use "play" for an interactive session. The other commands query the
server's read-only HTTP status API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.APIURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "Game server address (env: RPS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.APIURL, "api", cfg.APIURL, "Status API URL (env: RPS_API)")
	rootCmd.PersistentFlags().StringVar(&cfg.CAFile, "ca-file", cfg.CAFile, "CA certificate for the game server (env: RPS_CA_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newRankingsCmd())
	rootCmd.AddCommand(newTournamentsCmd())
	rootCmd.AddCommand(newOnlineCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
