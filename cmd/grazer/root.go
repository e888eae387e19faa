package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grazerhq/grazer/internal/config"
	"github.com/grazerhq/grazer/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "grazer",
	Short: "Grazer - Single-Day Dining Itinerary Planner",
	Long: `Grazer plans one day of eating around your calendar.

Give it a plain-text calendar and a planning area; it extracts
your commitments, geocodes them, pulls dining candidates from
OpenStreetMap, asks a language model to pick where you should eat,
and fits the meals into the free gaps of your day.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// resolveConfigPath determines the config file path from flags and
// environment, falling back to the default under the home directory.
func resolveConfigPath() string {
	if globalFlags.ConfigFile != "" {
		return globalFlags.ConfigFile
	}

	homeDir := globalFlags.HomeDir
	if homeDir == "" {
		homeDir = os.Getenv("GRAZER_HOME")
	}
	if homeDir == "" {
		homeDir = config.DefaultHomeDir()
	}
	return config.DefaultConfigPath(homeDir)
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.String())
	},
}

var completionCmd = &cobra.Command{
	Use:       "completion [bash|zsh|fish|powershell]",
	Short:     "Generate shell completion scripts",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}
