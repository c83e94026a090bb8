package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/harunnryd/mcpilot/internal/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigInitCmd(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, configInitCmd.RunE(cmd, nil))
	assert.Contains(t, out.String(), "Initialized config")

	configPath := filepath.Join(tmpDir, ".mcpilot", "config.yaml")
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var parsed config.Config
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, config.DefaultServerPort, parsed.Server.Port)
	assert.Equal(t, config.DefaultModelDefault, parsed.Models.Default)
	assert.Equal(t, config.DefaultOrchestratorMaxChainCalls, parsed.Orchestrator.MaxChainCalls)

	out.Reset()
	require.NoError(t, configInitCmd.RunE(cmd, nil))
	assert.Contains(t, out.String(), "already exists")
}

func TestConfigViewRedacts(t *testing.T) {
	prev := cfg
	defer func() { cfg = prev }()

	cfg = &config.Config{Models: config.ModelsConfig{
		Default:  "m1",
		Registry: []config.ModelRegistry{{Name: "m1", Provider: "openai", APIKey: "sk-secret-123456"}},
	}}

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, configViewCmd.RunE(cmd, nil))

	assert.NotContains(t, out.String(), "sk-secret-123456")
	assert.Contains(t, out.String(), "sk************56")
}

func TestRedactConfigSecrets(t *testing.T) {
	original := &config.Config{
		Models: config.ModelsConfig{
			Registry: []config.ModelRegistry{
				{Name: "m1", APIKey: "sk-secret-123456"},
				{Name: "m2", APIKey: "abc"},
				{Name: "m3"},
			},
		},
	}

	redacted := redactConfigSecrets(original)

	assert.Equal(t, "sk-secret-123456", original.Models.Registry[0].APIKey)
	assert.Equal(t, "sk************56", redacted.Models.Registry[0].APIKey)
	assert.Equal(t, "****", redacted.Models.Registry[1].APIKey)
	assert.Equal(t, "", redacted.Models.Registry[2].APIKey)
	assert.Nil(t, redactConfigSecrets(nil))
}
