package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/mcpilot/internal/tool/formatter"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list <server>",
	Short: "List the tools a server offers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		ctx := context.Background()

		sess, err := openSession(ctx, cfg, args[0], mode, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", args[0], err)
		}
		defer sess.Close()

		defs, err := sess.ListTools(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tools: %w", err)
		}

		fmt.Println(formatter.NewTableFormatter().FormatTools(defs))
		return nil
	},
}

func init() {
	toolsListCmd.Flags().String("mode", "", "transport for URL servers: sse or http (default from client.mode)")
	toolsCmd.AddCommand(toolsListCmd)
	rootCmd.AddCommand(toolsCmd)
}
