package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/harunnryd/mcpilot/internal/config"
	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/logger"
	"github.com/harunnryd/mcpilot/internal/model/contract"
	anthropicProvider "github.com/harunnryd/mcpilot/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/mcpilot/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/mcpilot/internal/model/providers/openai"
)

// Router resolves the model named by a request to its provider and retries
// once on the configured fallback model.
type Router struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewRouter builds providers for every registry entry that has credentials.
func NewRouter(ctx context.Context, cfg config.ModelsConfig) (*Router, error) {
	r := &Router{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}

	for _, entry := range cfg.Registry {
		provider, err := createProvider(ctx, entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}
		r.Register(entry.Name, provider)
		slog.Debug("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if _, ok := r.lookup(cfg.Default); !ok {
		return nil, apperrors.Config(fmt.Sprintf("default model %q has no usable provider", cfg.Default))
	}

	return r, nil
}

// Register binds a model name to a provider.
func (r *Router) Register(model string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[model] = p
}

// ListModels returns registered model names, sorted.
func (r *Router) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

// Complete sends req to its model, filling model and sampling defaults from
// config when the request leaves them empty.
func (r *Router) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if req.Model == "" {
		req.Model = r.cfg.Default
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = r.cfg.MaxTokens
	}
	if req.Temperature <= 0 {
		req.Temperature = r.cfg.Temperature
	}

	log := logger.FromContext(ctx)

	model := req.Model
	provider, ok := r.lookup(model)
	if !ok {
		if r.cfg.Fallback == "" || model == r.cfg.Fallback {
			return nil, apperrors.NotFound(fmt.Sprintf("model %s", model))
		}
		log.Warn("Model not found, using fallback", "model", model, "fallback", r.cfg.Fallback)
		model = r.cfg.Fallback
		if provider, ok = r.lookup(model); !ok {
			return nil, apperrors.NotFound(fmt.Sprintf("fallback model %s", model))
		}
	}

	req.Model = model
	resp, err := provider.Generate(ctx, req)
	if err == nil {
		log.Debug("Completion finished", "model", model, "tool_calls", len(resp.ToolCalls))
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Error("Provider request failed", "model", model, "error", err)

	if r.cfg.Fallback == "" || model == r.cfg.Fallback {
		return nil, err
	}

	fallback, ok := r.lookup(r.cfg.Fallback)
	if !ok {
		return nil, err
	}

	log.Info("Attempting fallback", "from", model, "to", r.cfg.Fallback)
	req.Model = r.cfg.Fallback
	return fallback.Generate(ctx, req)
}

func (r *Router) lookup(model string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[model]
	return p, ok
}

func createProvider(ctx context.Context, entry config.ModelRegistry) (Provider, error) {
	timeout, err := config.DurationOrDefault(entry.RequestTimeout, config.DefaultRequestTimeout)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid request_timeout for model %s: %v", entry.Name, err))
	}

	switch entry.Provider {
	case config.ProviderOpenAI, config.ProviderDashScope:
		if entry.APIKey == "" {
			return nil, apperrors.Config(fmt.Sprintf("API key required for %s provider", entry.Provider))
		}
		baseURL := entry.BaseURL
		if baseURL == "" && entry.Provider == config.ProviderDashScope {
			baseURL = config.DefaultDashScopeBaseURL
		}
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}
		return openaiProvider.New(entry.Provider, entry.APIKey, baseURL, entry.Name, timeout), nil

	case config.ProviderOllama:
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = config.DefaultOllamaAPIKey
		}
		return openaiProvider.New(entry.Provider, apiKey, baseURL, entry.Name, timeout), nil

	case config.ProviderAnthropic:
		if entry.APIKey == "" {
			return nil, apperrors.Config("API key required for anthropic provider")
		}
		return anthropicProvider.New(entry.Provider, entry.APIKey, entry.BaseURL, timeout), nil

	case config.ProviderGemini:
		if entry.APIKey == "" {
			return nil, apperrors.Config("API key required for gemini provider")
		}
		p, err := geminiProvider.New(ctx, entry.Provider, entry.APIKey, timeout)
		if err != nil {
			return nil, apperrors.WrapWithCategory(err, "failed to create gemini provider", apperrors.ErrInternal)
		}
		return p, nil

	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}
