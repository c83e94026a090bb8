package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server       ServerConfig       `koanf:"server" yaml:"server"`
	Models       ModelsConfig       `koanf:"models" yaml:"models"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator" yaml:"orchestrator"`
	Tools        ToolsConfig        `koanf:"tools" yaml:"tools"`
	Client       ClientConfig       `koanf:"client" yaml:"client"`
}

type ServerConfig struct {
	Port            int    `koanf:"port" yaml:"port"`
	LogLevel        string `koanf:"log_level" yaml:"log_level"`
	ReadTimeout     string `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type ModelsConfig struct {
	Default     string          `koanf:"default" yaml:"default"`
	Fallback    string          `koanf:"fallback" yaml:"fallback"`
	MaxTokens   int             `koanf:"max_tokens" yaml:"max_tokens"`
	Temperature float64         `koanf:"temperature" yaml:"temperature"`
	Registry    []ModelRegistry `koanf:"registry" yaml:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name" yaml:"name"`
	Provider       string `koanf:"provider" yaml:"provider"`
	BaseURL        string `koanf:"base_url" yaml:"base_url,omitempty"`
	APIKey         string `koanf:"api_key" yaml:"api_key,omitempty"`
	RequestTimeout string `koanf:"request_timeout" yaml:"request_timeout,omitempty"`
}

type OrchestratorConfig struct {
	MaxChainCalls  int    `koanf:"max_chain_calls" yaml:"max_chain_calls"`
	FetchTool      string `koanf:"fetch_tool" yaml:"fetch_tool"`
	FetchTimeout   string `koanf:"fetch_timeout" yaml:"fetch_timeout"`
	FetchMaxLength int    `koanf:"fetch_max_length" yaml:"fetch_max_length"`
}

type ToolsConfig struct {
	Fetch FetchToolConfig `koanf:"fetch" yaml:"fetch"`
}

type FetchToolConfig struct {
	UseExternal bool             `koanf:"use_external" yaml:"use_external"`
	Services    []string         `koanf:"services" yaml:"services"`
	Timeout     string           `koanf:"timeout" yaml:"timeout"`
	UserAgent   string           `koanf:"user_agent" yaml:"user_agent"`
	MaxLength   int              `koanf:"max_length" yaml:"max_length"`
	Helper      FetchHelperConfig `koanf:"helper" yaml:"helper"`
}

// FetchHelperConfig describes the optional local fetch helper process.
type FetchHelperConfig struct {
	Enabled  bool   `koanf:"enabled" yaml:"enabled"`
	Command  string `koanf:"command" yaml:"command"`
	BaseURL  string `koanf:"base_url" yaml:"base_url"`
	Settle   string `koanf:"settle" yaml:"settle"`
	LockPath string `koanf:"lock_path" yaml:"lock_path"`
}

type ClientConfig struct {
	Mode           string `koanf:"mode" yaml:"mode"`
	TranscriptPath string `koanf:"transcript_path" yaml:"transcript_path"`
	Name           string `koanf:"name" yaml:"name"`
}

const (
	DefaultServerPort            = 8001
	DefaultServerLogLevel        = "info"
	DefaultServerReadTimeout     = "10s"
	DefaultServerWriteTimeout    = "60s"
	DefaultServerIdleTimeout     = "60s"
	DefaultServerShutdownTimeout = "5s"

	DefaultModelDefault     = "qwen-max-latest"
	DefaultModelMaxTokens   = 2000
	DefaultModelTemperature = 0.7
	DefaultRequestTimeout   = "120s"
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultDashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultOllamaBaseURL    = "http://localhost:11434/v1"
	DefaultOllamaAPIKey     = "ollama"

	DefaultOrchestratorMaxChainCalls  = 5
	DefaultOrchestratorFetchTool      = "fetch"
	DefaultOrchestratorFetchTimeout   = "30s"
	DefaultOrchestratorFetchMaxLength = 10000

	DefaultFetchUseExternal    = true
	DefaultFetchTimeout        = "30s"
	DefaultFetchUserAgent      = "ModelContextProtocol/1.0 (User-Specified; +https://github.com/modelcontextprotocol/servers)"
	DefaultFetchMaxLength      = 10000
	DefaultFetchHelperCommand  = "uvx mcp-server-fetch"
	DefaultFetchHelperSettle   = "2s"
	DefaultFetchHelperLockPath = "~/.mcpilot/fetch-helper.lock"

	DefaultClientMode = "stdio"
	DefaultClientName = "mcpilot"

	ProviderOpenAI    = "openai"
	ProviderDashScope = "dashscope"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultFetchServices are the external fetch services tried in order.
var DefaultFetchServices = []string{
	"http://localhost:6277/v1",
	"http://localhost:3000/v1",
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             DefaultServerPort,
		"server.log_level":        DefaultServerLogLevel,
		"server.read_timeout":     DefaultServerReadTimeout,
		"server.write_timeout":    DefaultServerWriteTimeout,
		"server.idle_timeout":     DefaultServerIdleTimeout,
		"server.shutdown_timeout": DefaultServerShutdownTimeout,
		"models.default":          DefaultModelDefault,
		"models.fallback":         "",
		"models.max_tokens":       DefaultModelMaxTokens,
		"models.temperature":      DefaultModelTemperature,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: ProviderDashScope},
			{Name: "gpt-4o-mini", Provider: ProviderOpenAI},
			{Name: "local-llama", Provider: ProviderOllama, BaseURL: DefaultOllamaBaseURL},
		},
		"orchestrator.max_chain_calls":  DefaultOrchestratorMaxChainCalls,
		"orchestrator.fetch_tool":       DefaultOrchestratorFetchTool,
		"orchestrator.fetch_timeout":    DefaultOrchestratorFetchTimeout,
		"orchestrator.fetch_max_length": DefaultOrchestratorFetchMaxLength,
		"tools.fetch.use_external":      DefaultFetchUseExternal,
		"tools.fetch.services":          DefaultFetchServices,
		"tools.fetch.timeout":           DefaultFetchTimeout,
		"tools.fetch.user_agent":        DefaultFetchUserAgent,
		"tools.fetch.max_length":        DefaultFetchMaxLength,
		"tools.fetch.helper.enabled":    false,
		"tools.fetch.helper.command":    DefaultFetchHelperCommand,
		"tools.fetch.helper.base_url":   "",
		"tools.fetch.helper.settle":     DefaultFetchHelperSettle,
		"tools.fetch.helper.lock_path":  DefaultFetchHelperLockPath,
		"client.mode":                   DefaultClientMode,
		"client.transcript_path":        "",
		"client.name":                   DefaultClientName,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".mcpilot", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// MCPILOT_ORCHESTRATOR_FETCH_TIMEOUT cannot be expressed this way since
	// "_" separates levels; multi-word keys come from the file or flags.
	k.Load(env.Provider("MCPILOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "MCPILOT_")), "_", ".", -1)
	}), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = ProviderOpenAI
		}
	}

	applyProviderEnv(&cfg)

	path, err := ExpandPath(cfg.Tools.Fetch.Helper.LockPath)
	if err != nil {
		return nil, err
	}
	cfg.Tools.Fetch.Helper.LockPath = path

	path, err = ExpandPath(cfg.Client.TranscriptPath)
	if err != nil {
		return nil, err
	}
	cfg.Client.TranscriptPath = path

	return &cfg, nil
}

// applyProviderEnv fills credentials and endpoints from the conventional
// provider environment variables when the config leaves them empty.
func applyProviderEnv(cfg *Config) {
	keys := map[string][]string{
		ProviderOpenAI:    {"OPENAI_API_KEY"},
		ProviderDashScope: {"ALIYUN_API_KEY", "DASHSCOPE_API_KEY"},
		ProviderAnthropic: {"ANTHROPIC_API_KEY"},
		ProviderGemini:    {"GEMINI_API_KEY"},
	}

	for i, m := range cfg.Models.Registry {
		if m.APIKey != "" {
			continue
		}
		for _, name := range keys[m.Provider] {
			if key := os.Getenv(name); key != "" {
				cfg.Models.Registry[i].APIKey = key
				break
			}
		}
	}

	base := os.Getenv("ALIYUN_API_BASE")
	model := os.Getenv("ALIYUN_MODEL")
	for i, m := range cfg.Models.Registry {
		if m.Provider != ProviderDashScope {
			continue
		}
		if base != "" && m.BaseURL == "" {
			cfg.Models.Registry[i].BaseURL = base
		}
		if model != "" && m.Name == cfg.Models.Default {
			cfg.Models.Registry[i].Name = model
			cfg.Models.Default = model
		}
	}
}

// FindModel returns the registry entry named name.
func (c *Config) FindModel(name string) (ModelRegistry, bool) {
	for _, m := range c.Models.Registry {
		if m.Name == name {
			return m, true
		}
	}
	return ModelRegistry{}, false
}
