package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/mcpilot/internal/config"
	"github.com/harunnryd/mcpilot/internal/fetch"
	"github.com/harunnryd/mcpilot/internal/intent"
	"github.com/harunnryd/mcpilot/internal/model"
	"github.com/harunnryd/mcpilot/internal/orchestrator"
	"github.com/harunnryd/mcpilot/internal/session"
	"github.com/harunnryd/mcpilot/internal/tool"

	// built-in tools register themselves
	_ "github.com/harunnryd/mcpilot/internal/tool/builtin"
)

// localTarget serves the built-in tools in-process instead of dialing a server.
const localTarget = "local"

var dialSession = func(ctx context.Context, target string, opts session.Options) (session.Session, error) {
	return session.Dial(ctx, target, opts)
}

func newCompleter(ctx context.Context, cfg *config.Config) (*model.Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return model.NewRouter(ctx, cfg.Models)
}

func newFetchClient(cfg *config.Config) (*fetch.Client, error) {
	fc := cfg.Tools.Fetch
	timeout, err := config.DurationOrDefault(fc.Timeout, config.DefaultFetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse tools.fetch.timeout: %w", err)
	}
	return fetch.New(fetch.Options{
		UseExternal: fc.UseExternal,
		Services:    fc.Services,
		Timeout:     timeout,
		UserAgent:   fc.UserAgent,
		MaxLength:   fc.MaxLength,
	}), nil
}

// newToolRunner builds the built-in tools. completer may be nil, in which case
// the chat tool is left out.
func newToolRunner(cfg *config.Config, fetcher *fetch.Client, completer model.Completer) (*tool.Runner, error) {
	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{
		Fetcher:         fetcher,
		FetchMaxLength:  cfg.Tools.Fetch.MaxLength,
		Completer:       completer,
		CompletionModel: cfg.Models.Default,
	})
	if err != nil {
		return nil, err
	}
	return tool.NewRunner(registry), nil
}

func openSession(ctx context.Context, cfg *config.Config, target, mode string, completer model.Completer) (session.Session, error) {
	if target == localTarget {
		fetcher, err := newFetchClient(cfg)
		if err != nil {
			return nil, err
		}
		runner, err := newToolRunner(cfg, fetcher, completer)
		if err != nil {
			return nil, err
		}
		return session.NewLocal(runner), nil
	}

	if mode == "" {
		mode = cfg.Client.Mode
	}
	return dialSession(ctx, target, session.Options{
		Mode:          mode,
		ClientName:    cfg.Client.Name,
		ClientVersion: version,
	})
}

func newOrchestrator(cfg *config.Config, completer model.Completer, sess session.Session) (*orchestrator.Orchestrator, error) {
	opts, err := orchestrator.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	classifier := intent.NewDirect(cfg.Orchestrator.FetchTool, cfg.Orchestrator.FetchMaxLength)
	return orchestrator.New(completer, sess, classifier, opts), nil
}
