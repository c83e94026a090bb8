package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harunnryd/mcpilot/internal/config"
	"github.com/harunnryd/mcpilot/internal/fetch"
	"github.com/harunnryd/mcpilot/internal/intent"
	"github.com/harunnryd/mcpilot/internal/model"
	"github.com/harunnryd/mcpilot/internal/server"
	"github.com/harunnryd/mcpilot/internal/tool/builtin"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP tool server",
	Long:  `Serve the built-in tools over HTTP (/v1/functions, /v1/chat/completions) and MCP streamable HTTP (/mcp).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fetchInternal, _ := cmd.Flags().GetBool("fetch-internal")
		fetchURLs, _ := cmd.Flags().GetStringSlice("fetch-url")
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()
		ctx := sig.Context()

		fetcher, err := newFetchClient(cfg)
		if err != nil {
			return err
		}
		for _, u := range fetchURLs {
			fetcher.AddService(u)
		}
		if fetchInternal {
			fetcher.SetUseExternal(false)
		}
		slog.Info("Fetch configuration", "external", !fetchInternal && cfg.Tools.Fetch.UseExternal, "services", fetcher.Services())

		helper, err := startFetchHelper(ctx, cfg, fetcher, fetchInternal)
		if err != nil {
			return err
		}
		if helper != nil {
			defer helper.Stop()
		}

		// the HTTP tools work without a model; only chat needs one
		var completer model.Completer
		if router, err := newCompleter(ctx, cfg); err != nil {
			slog.Warn("Chat completions disabled", "error", err)
		} else {
			completer = router
		}

		runner, err := newToolRunner(cfg, fetcher, completer)
		if err != nil {
			return err
		}

		srv, err := server.New(cfg.Server, server.Deps{
			Runner:     runner,
			Completer:  completer,
			Classifier: intent.NewKeyword(builtin.KnownCities()),
		})
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}
		fmt.Printf("mcpilot serving on %s (tools: %v)\n", srv.Addr(), runner.Registry().Names())

		<-ctx.Done()
		return srv.Stop(context.Background())
	},
}

// startFetchHelper launches the local fetch service when it is enabled and
// external services are in use. Another instance holding the lock is not an
// error; that helper serves this process too.
func startFetchHelper(ctx context.Context, cfg *config.Config, fetcher *fetch.Client, fetchInternal bool) (*fetch.Helper, error) {
	hc := cfg.Tools.Fetch.Helper
	if fetchInternal || !cfg.Tools.Fetch.UseExternal || !hc.Enabled {
		return nil, nil
	}

	settle, err := config.DurationOrDefault(hc.Settle, config.DefaultFetchHelperSettle)
	if err != nil {
		return nil, fmt.Errorf("parse tools.fetch.helper.settle: %w", err)
	}

	helper := fetch.NewHelper(fetch.HelperOptions{
		Command:  hc.Command,
		BaseURL:  hc.BaseURL,
		Settle:   settle,
		LockPath: hc.LockPath,
	}, fetcher)

	err = helper.Start(ctx)
	switch {
	case errors.Is(err, fetch.ErrHelperRunning):
		slog.Info("Fetch helper already running on this host")
		if hc.BaseURL != "" {
			fetcher.AddService(hc.BaseURL)
		}
		return nil, nil
	case err != nil:
		slog.Warn("Fetch helper failed to start, using the remaining fetch services", "error", err)
		return nil, nil
	}
	return helper, nil
}

func init() {
	serveCmd.Flags().Int("port", config.DefaultServerPort, "server port")
	serveCmd.Flags().Bool("fetch-internal", false, "use the built-in fetcher instead of external fetch services")
	serveCmd.Flags().StringSlice("fetch-url", nil, "add an external fetch service base URL (repeatable)")
	rootCmd.AddCommand(serveCmd)
}
