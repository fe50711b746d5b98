// Package commands provides the CLI commands for the chat relay.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itzenzy2/PersonalChatBot/internal/config"
	"github.com/itzenzy2/PersonalChatBot/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	configPath string
	logLevel   string
	prettyLogs bool
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "Chat relay for Gemini and GitHub Models",
	Long: `chatrelay exposes one chat endpoint in front of Google Gemini and
GitHub Models. The model name picks the provider; web-search grounding
and system prompts are adapted to what each model supports.

Run 'chatrelay serve' to start the HTTP server.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (JSON, JSONC or YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "Human-readable console logs")

	rootCmd.SetVersionTemplate(fmt.Sprintf("chatrelay %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(pingCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if prettyLogs {
		loaded.Log.Pretty = true
	}

	logging.Init(loaded.Logging())
	cfg = loaded
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}
