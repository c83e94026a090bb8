package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/fetch"
	toolcore "github.com/harunnryd/mcpilot/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("fetch", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		client := options.Fetcher
		if client == nil {
			client = fetch.New(fetch.Options{MaxLength: options.FetchMaxLength})
		}
		return &FetchTool{Client: client, MaxLength: options.FetchMaxLength}, nil
	})
}

// FetchTool downloads a web page and returns its readable text.
type FetchTool struct {
	Client    *fetch.Client
	MaxLength int
}

func (t *FetchTool) Name() string { return "fetch" }

func (t *FetchTool) Description() string {
	return "Fetch a URL from the internet and return its content as plain text."
}

func (t *FetchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "URL to fetch",
			},
			"maxLength": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of characters to return (default 10000)",
			},
		},
		"required": []string{"url"},
	}
}

func (t *FetchTool) Execute(ctx context.Context, input json.RawMessage) (*toolcore.Result, error) {
	var args struct {
		URL       string `json:"url"`
		MaxLength int    `json:"maxLength"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid input: %v", err))
	}

	maxLength := args.MaxLength
	if maxLength <= 0 {
		maxLength = t.MaxLength
	}

	page, err := t.Client.Fetch(ctx, args.URL, maxLength)
	if err != nil {
		return nil, err
	}
	return toolcore.JSONResult(page)
}
