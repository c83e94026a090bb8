package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsHistoryAndParsesToolCalls(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "x", "object": "chat.completion", "model": "qwen-max-latest",
			"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
				"role": "assistant", "content": "",
				"tool_calls": [{"id": "", "type": "function", "function": {"name": "calculate", "arguments": "{\"expression\":\"1+1\"}"}}]
			}}]
		}`))
	}))
	defer srv.Close()

	p := New("dashscope", "sk-test", srv.URL+"/", "qwen-max-latest", 5*time.Second)
	resp, err := p.Generate(context.Background(), contract.CompletionRequest{
		Messages: []contract.Message{
			{Role: contract.RoleUser, Content: "1+1?"},
			{Role: contract.RoleAssistant, ToolCalls: []*contract.ToolCall{{ID: "call_0", Name: "calculate", Input: `{"expression":"2"}`}}},
			{Role: contract.RoleTool, ToolCallID: "call_0", Content: `{"result":2}`},
		},
		Tools:       []contract.ToolDef{{Name: "calculate", Description: "math"}},
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "qwen-max-latest", got["model"])
	assert.EqualValues(t, 2000, got["max_tokens"])
	assert.Len(t, got["messages"], 3)
	assert.Len(t, got["tools"], 1)

	require.True(t, resp.HasToolCalls())
	assert.Empty(t, resp.ToolCalls[0].ID)
	assert.Equal(t, "calculate", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"expression":"1+1"}`, resp.ToolCalls[0].Input)
}

func TestGenerateNonSuccessIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := New("openai", "nope", srv.URL, "gpt-4o-mini", time.Second)
	_, err := p.Generate(context.Background(), contract.CompletionRequest{
		Messages: []contract.Message{{Role: contract.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAPI)
	assert.Contains(t, err.Error(), "401")
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer srv.Close()

	p := New("openai", "k", srv.URL, "m", time.Second)
	_, err := p.Generate(context.Background(), contract.CompletionRequest{})
	assert.ErrorIs(t, err, apperrors.ErrAPI)
}
