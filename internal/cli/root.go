package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tictactoe",
		Short: "Two-player tic-tac-toe with browsable move history",
		Long: `tictactoe runs a same-device, two-player game of tic-tac-toe.

Every move is kept in a history that can be revisited; playing a move from
an earlier position discards the moves that followed it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (env: TTT_*)")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newPlayCmd(&configPath))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
