package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helmcode/gamemodel-ai/cmd"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gamemodel-ai",
		Short: "AI-powered game theory modeling",
		Long: `gamemodel-ai turns narrative text such as news articles into validated
game models: players, an extensive form game tree or a strategy matrix, and
payoffs for every outcome.`,
		SilenceUsage: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	cmd.BindGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(
		cmd.NewAnalyzeCmd(),
		cmd.NewValidateCmd(),
		cmd.NewNormalizeCmd(),
		cmd.NewServeCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gamemodel-ai version %s\n", version)
		},
	}
}
