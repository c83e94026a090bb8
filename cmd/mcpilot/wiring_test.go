package main

import (
	"context"
	"testing"
	"time"

	"github.com/harunnryd/mcpilot/internal/config"
	"github.com/harunnryd/mcpilot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	loaded, err := config.Load(nil)
	require.NoError(t, err)
	return loaded
}

func TestOpenLocalSession(t *testing.T) {
	c := loadTestConfig(t)

	sess, err := openSession(context.Background(), c, localTarget, "", nil)
	require.NoError(t, err)
	defer sess.Close()

	defs, err := sess.ListTools(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"calculate", "fetch", "get_weather"}, names)
}

func TestOpenSessionUsesConfiguredMode(t *testing.T) {
	c := loadTestConfig(t)
	c.Client.Mode = session.ModeSSE

	var got session.Options
	var gotTarget string
	prev := dialSession
	defer func() { dialSession = prev }()
	dialSession = func(ctx context.Context, target string, opts session.Options) (session.Session, error) {
		gotTarget = target
		got = opts
		return nil, assert.AnError
	}

	_, err := openSession(context.Background(), c, "http://localhost:8001/sse", "", nil)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "http://localhost:8001/sse", gotTarget)
	assert.Equal(t, session.ModeSSE, got.Mode)
	assert.Equal(t, config.DefaultClientName, got.ClientName)

	_, _ = openSession(context.Background(), c, "http://localhost:8001/mcp", session.ModeHTTP, nil)
	assert.Equal(t, session.ModeHTTP, got.Mode)
}

func TestNewOrchestratorRejectsBadTimeout(t *testing.T) {
	c := loadTestConfig(t)
	c.Orchestrator.FetchTimeout = "soon"

	_, err := newOrchestrator(c, nil, nil)
	assert.Error(t, err)
}

func TestFetchClientFromConfig(t *testing.T) {
	c := loadTestConfig(t)
	client, err := newFetchClient(c)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFetchServices, client.Services())

	c.Tools.Fetch.Timeout = "x"
	_, err = newFetchClient(c)
	assert.Error(t, err)
}

func TestStartFetchHelperDisabled(t *testing.T) {
	c := loadTestConfig(t)
	client, err := newFetchClient(c)
	require.NoError(t, err)

	helper, err := startFetchHelper(context.Background(), c, client, false)
	require.NoError(t, err)
	assert.Nil(t, helper)

	c.Tools.Fetch.Helper.Enabled = true
	helper, err = startFetchHelper(context.Background(), c, client, true)
	require.NoError(t, err)
	assert.Nil(t, helper)
}

func TestStartFetchHelperRegistersService(t *testing.T) {
	c := loadTestConfig(t)
	c.Tools.Fetch.Helper = config.FetchHelperConfig{
		Enabled:  true,
		Command:  "sleep 30",
		BaseURL:  "http://127.0.0.1:6299/v1",
		Settle:   (50 * time.Millisecond).String(),
		LockPath: t.TempDir() + "/helper.lock",
	}
	client, err := newFetchClient(c)
	require.NoError(t, err)

	helper, err := startFetchHelper(context.Background(), c, client, false)
	require.NoError(t, err)
	require.NotNil(t, helper)
	defer helper.Stop()

	assert.True(t, helper.Running())
	assert.Equal(t, "http://127.0.0.1:6299/v1", client.Services()[0])
}
