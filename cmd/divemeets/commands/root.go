package commands

import (
	"context"
	"fmt"
	"os"

	"diveanalytics-backend/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "divemeets",
	Short: "divemeets imports DiveMeets competition results and serves diver profiles.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and http message dumps.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the json5 config file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
