package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flowdash/internal/commands"
	"flowdash/internal/output"
	"flowdash/internal/tui"
)

var jsonFlag bool

var rootCmd = &cobra.Command{
	Use:   "flowdash",
	Short: "Terminal dashboard for an agent workflow backend",
	Long:  "flowdash watches workflows, agents, tasks and suggestions over REST and a live push channel",
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&commands.ConfigFile, "config", "", "Config file (default ./config.yaml or ~/.config/flowdash/config.yaml)")

	rootCmd.AddCommand(commands.VersionCmd)
	rootCmd.AddCommand(commands.GetCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.SummaryCmd)
	rootCmd.AddCommand(commands.DevServerCmd)
	rootCmd.AddCommand(commands.ConfigCmd)

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		cfg, err := commands.LoadConfig()
		if err != nil {
			output.PrintError(err)
			return
		}

		// If stdin is a TTY, launch the dashboard
		if !jsonFlag && term.IsTerminal(int(os.Stdin.Fd())) {
			if err := tui.Run(cfg); err != nil {
				output.PrintError(err)
			}
			return
		}

		// Non-TTY fallback: one-shot summary
		if err := commands.RunSummary(context.Background(), cfg); err != nil {
			output.PrintError(err)
		}
	}
}

func main() {
	// Propagate --json flag before execution
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.JSONMode = jsonFlag
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
