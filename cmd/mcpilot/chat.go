package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <server>",
	Short: "Start an interactive chat backed by an MCP tool server",
	Long: `Connect to an MCP tool server and chat with the configured model.

<server> is a python (.py) or node (.js) script, a command line (optionally
prefixed with stdio://), an http(s) URL, or "local" for the built-in tools.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		transcriptPath, _ := cmd.Flags().GetString("transcript")
		if transcriptPath == "" {
			transcriptPath = cfg.Client.TranscriptPath
		}

		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()
		ctx := sig.Context()

		completer, err := newCompleter(ctx, cfg)
		if err != nil {
			return err
		}

		sess, err := openSession(ctx, cfg, args[0], mode, completer)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", args[0], err)
		}
		defer sess.Close()

		tools, err := sess.ListTools(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tools: %w", err)
		}
		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t.Name)
		}
		fmt.Printf("Connected to server with tools: %s\n", strings.Join(names, ", "))

		orch, err := newOrchestrator(cfg, completer, sess)
		if err != nil {
			return err
		}

		repl := NewREPL(orch, os.Stdin, os.Stdout)
		runErr := repl.Run(ctx)
		if err := repl.Save(transcriptPath); err != nil {
			slog.Error("Failed to save transcript", "path", transcriptPath, "error", err)
		}
		return runErr
	},
}

func init() {
	chatCmd.Flags().String("mode", "", "transport for URL servers: sse or http (default from client.mode)")
	chatCmd.Flags().String("transcript", "", "write the session transcripts to this file on exit")
	rootCmd.AddCommand(chatCmd)
}
