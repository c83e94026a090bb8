package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/harunnryd/mcpilot/internal/model/contract"
	toolcore "github.com/harunnryd/mcpilot/internal/tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCompleter struct {
	got contract.CompletionRequest
}

func (e *echoCompleter) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	e.got = req
	return &contract.CompletionResponse{Content: "echo: " + req.Messages[len(req.Messages)-1].Content}, nil
}

func TestChatToolExecute(t *testing.T) {
	completer := &echoCompleter{}
	tool := &ChatTool{Completer: completer, Model: "qwen-max-latest"}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"messages":[{"role":"user","content":"ping"}]}`))
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, "echo: ping", out["response"])
	assert.Equal(t, "assistant", out["role"])
	assert.Equal(t, "qwen-max-latest", completer.got.Model)

	_, err = tool.Execute(context.Background(), json.RawMessage(`{"messages":[]}`))
	assert.Error(t, err)
}

func TestChatBuiltinNeedsCompleter(t *testing.T) {
	tools, err := toolcore.InstantiateBuiltins(toolcore.BuiltinOptions{})
	require.NoError(t, err)
	for _, tl := range tools {
		assert.NotEqual(t, "chat", tl.Name())
	}

	tools, err = toolcore.InstantiateBuiltins(toolcore.BuiltinOptions{Completer: &echoCompleter{}})
	require.NoError(t, err)
	assert.Len(t, tools, 4)
}
