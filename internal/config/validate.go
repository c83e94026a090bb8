package config

import (
	"fmt"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
)

// Validate checks everything a model-backed command needs before it starts.
// There is no built-in credential: a model without an API key is an error.
func (c *Config) Validate() error {
	if c.Orchestrator.MaxChainCalls < 1 {
		return apperrors.Config(fmt.Sprintf("orchestrator.max_chain_calls must be at least 1, got %d", c.Orchestrator.MaxChainCalls))
	}
	if _, err := DurationOrDefault(c.Orchestrator.FetchTimeout, DefaultOrchestratorFetchTimeout); err != nil {
		return apperrors.Config(fmt.Sprintf("orchestrator.fetch_timeout: %v", err))
	}

	if c.Models.Default == "" {
		return apperrors.Config("models.default is empty")
	}

	names := []string{c.Models.Default}
	if c.Models.Fallback != "" && c.Models.Fallback != c.Models.Default {
		names = append(names, c.Models.Fallback)
	}

	for _, name := range names {
		m, ok := c.FindModel(name)
		if !ok {
			return apperrors.Config(fmt.Sprintf("model %q is not declared in models.registry", name))
		}
		if m.APIKey == "" && m.Provider != ProviderOllama {
			return apperrors.Config(fmt.Sprintf("model %q (%s) has no API key; set models.registry[].api_key or %s", name, m.Provider, keyHint(m.Provider)))
		}
	}

	return nil
}

func keyHint(provider string) string {
	switch provider {
	case ProviderDashScope:
		return "ALIYUN_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}
