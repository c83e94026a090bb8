package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/mcpilot/internal/config"
	"github.com/harunnryd/mcpilot/internal/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "mcpilot",
	Short:   "Tool-calling chat client and MCP tool server",
	Long:    `mcpilot talks to an OpenAI-compatible model, runs the tools it asks for through an MCP session and serves its own tools over HTTP and MCP.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mcpilot/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("models.default", config.DefaultModelDefault, "model used for completions")
}
