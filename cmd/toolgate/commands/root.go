// Package commands provides the CLI commands for toolgate.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/toolgate/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel string
	workDir  string
)

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "toolgate - permission engine for AI agent tool calls",
	Long: `toolgate decides whether an AI coding agent's tool invocations
(shell commands, file edits, web fetches) are allowed, denied, or need
interactive approval, based on the project's permission settings in
.claude/settings.local.json.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Pretty: true,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&workDir, "cwd", "", "Working directory (defaults to current directory)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("toolgate %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getWorkDir returns the working directory from flag or current directory.
func getWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}
