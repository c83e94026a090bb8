package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
	err  error
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"q": map[string]interface{}{"type": "string"},
		},
		"required": []string{"q"},
	}
}
func (t *stubTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	if t.err != nil {
		return nil, t.err
	}
	return TextResult("ok:" + string(input)), nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubTool{name: " lookup "})

	_, ok := registry.Get("lookup")
	require.True(t, ok)
	_, ok = registry.Get("web.lookup")
	require.False(t, ok)

	defs := registry.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "lookup", defs[0].Name)
}

func TestRunnerExecute(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubTool{name: "lookup"})
	registry.Register(&stubTool{name: "broken", err: errors.New("backend down")})
	runner := NewRunner(registry)

	res, err := runner.Execute(context.Background(), "lookup", json.RawMessage(`{"q":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, `ok:{"q":"x"}`, res.String())

	_, err = runner.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = runner.Execute(context.Background(), "lookup", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = runner.Execute(context.Background(), "broken", json.RawMessage(`{"q":"x"}`))
	assert.ErrorIs(t, err, apperrors.ErrToolExecution)
	assert.Contains(t, err.Error(), "backend down")
}

func TestResult(t *testing.T) {
	res, err := JSONResult(map[string]int{"result": 8})
	require.NoError(t, err)
	assert.Equal(t, KindJSON, res.Kind)
	assert.Equal(t, `{"result":8}`, res.String())
	assert.Equal(t, map[string]any{"result": float64(8)}, res.Value())

	text := TextResult("plain")
	assert.Equal(t, "plain", text.Value())
	assert.Error(t, text.Decode(&map[string]any{}))

	_, err = JSONResult(func() {})
	assert.Error(t, err)

	var nilResult *Result
	assert.Equal(t, "", nilResult.String())
}
