package commands

import (
	"time"

	"github.com/spf13/cobra"

	"flowdash/internal/output"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion()
	},
}

// GetCmd represents the get command
var GetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Fetch one API resource",
	Long: "Run a single fetch cycle against the API and print the JSON payload.\n" +
		"Paths without a leading slash are resolved under /api/, e.g. 'workflows/wf-001'.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()
		ctx, cancel := signalContext()
		defer cancel()
		exitOnError(RunGet(ctx, cfg, args[0]))
	},
}

// WatchCmd represents the watch command
var WatchCmd = &cobra.Command{
	Use:   "watch [channels...]",
	Short: "Stream live events",
	Long:  "Open the push channel, subscribe to the given channels (default: live.channels) and print each event until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		count, _ := cmd.Flags().GetInt("count")
		cfg := mustConfig()
		ctx, cancel := signalContext()
		defer cancel()
		exitOnError(RunWatch(ctx, cfg, args, count))
	},
}

func init() {
	WatchCmd.Flags().IntP("count", "n", 0, "Exit after this many events (0 = unlimited)")
}

// SummaryCmd represents the summary command
var SummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print dashboard metrics",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()
		ctx, cancel := signalContext()
		defer cancel()
		exitOnError(RunSummary(ctx, cfg))
	},
}

// DevServerCmd represents the devserver command
var DevServerCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run the fixture backend",
	Long:  "Serve sample workflows, agents, tasks and suggestions over REST and /ws for local development.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()
		if cmd.Flags().Changed("addr") {
			cfg.DevServer.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("simulate") {
			cfg.DevServer.SimulateInterval, _ = cmd.Flags().GetDuration("simulate")
		}
		ctx, cancel := signalContext()
		defer cancel()
		exitOnError(RunDevServer(ctx, cfg))
	},
}

func init() {
	DevServerCmd.Flags().String("addr", ":8000", "Listen address")
	DevServerCmd.Flags().Duration("simulate", 0*time.Second, "Push simulated updates at this interval (0 = off)")
}

// ConfigCmd represents the config parent command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

// ConfigShowCmd represents the config show command
var ConfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(RunConfigShow(mustConfig()))
	},
}

func init() {
	ConfigCmd.AddCommand(ConfigShowCmd)
}

func exitOnError(err error) {
	if err != nil {
		output.PrintError(err)
	}
}
