package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <server> <query>",
	Short: "Answer a single query and exit",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		asJSON, _ := cmd.Flags().GetBool("json")
		query := strings.Join(args[1:], " ")

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

		orch, err := newOrchestrator(cfg, completer, sess)
		if err != nil {
			return err
		}

		tr := orch.ProcessQuery(ctx, query)
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tr)
		}
		fmt.Println(tr.Render())
		return nil
	},
}

func init() {
	askCmd.Flags().String("mode", "", "transport for URL servers: sse or http (default from client.mode)")
	askCmd.Flags().Bool("json", false, "print the structured transcript as JSON")
	rootCmd.AddCommand(askCmd)
}
