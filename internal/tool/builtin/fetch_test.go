package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harunnryd/mcpilot/internal/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchToolExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Hi</title></head><body><p>hello world</p></body></html>`))
	}))
	defer server.Close()

	tool := &FetchTool{Client: fetch.New(fetch.Options{}), MaxLength: 5}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"url":"`+server.URL+`"}`))
	require.NoError(t, err)

	var page fetch.Page
	require.NoError(t, res.Decode(&page))
	assert.Equal(t, "Hi", page.Title)
	assert.Equal(t, "hello", page.Content)
	assert.True(t, page.Truncated)

	res, err = tool.Execute(context.Background(), json.RawMessage(`{"url":"`+server.URL+`","maxLength":100}`))
	require.NoError(t, err)
	require.NoError(t, res.Decode(&page))
	assert.Equal(t, "hello world", page.Content)
}
