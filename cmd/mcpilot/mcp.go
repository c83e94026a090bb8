package main

import (
	"context"
	"log/slog"

	"github.com/harunnryd/mcpilot/internal/model"
	"github.com/harunnryd/mcpilot/internal/server"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the built-in tools over MCP stdio",
	Long:  `Serve the built-in tools to an MCP client over stdin/stdout, e.g. mcpilot chat "stdio://mcpilot mcp".`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()
		ctx := sig.Context()

		fetcher, err := newFetchClient(cfg)
		if err != nil {
			return err
		}

		var completer model.Completer
		if router, err := newCompleter(ctx, cfg); err != nil {
			slog.Debug("Chat tool disabled", "error", err)
		} else {
			completer = router
		}

		runner, err := newToolRunner(cfg, fetcher, completer)
		if err != nil {
			return err
		}

		srv := server.NewMCPServer(runner, cfg.Client.Name, version)
		slog.Debug("Serving MCP over stdio", "tools", runner.Registry().Names())
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
