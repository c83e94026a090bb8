package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/model"
	"github.com/harunnryd/mcpilot/internal/model/contract"
	toolcore "github.com/harunnryd/mcpilot/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("chat", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		if options.Completer == nil {
			return nil, toolcore.ErrBuiltinUnavailable
		}
		return &ChatTool{Completer: options.Completer, Model: options.CompletionModel}, nil
	})
}

// ChatTool relays a message list to the completion endpoint.
type ChatTool struct {
	Completer model.Completer
	Model     string
}

func (t *ChatTool) Name() string { return "chat" }

func (t *ChatTool) Description() string {
	return "Send a list of chat messages to the language model and return its reply."
}

func (t *ChatTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"messages": map[string]interface{}{
				"type":        "array",
				"description": "Conversation messages, each with role and content",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"role":    map[string]interface{}{"type": "string"},
						"content": map[string]interface{}{"type": "string"},
					},
					"required": []string{"role", "content"},
				},
			},
		},
		"required": []string{"messages"},
	}
}

func (t *ChatTool) Execute(ctx context.Context, input json.RawMessage) (*toolcore.Result, error) {
	var args struct {
		Messages []contract.Message `json:"messages"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid input: %v", err))
	}
	if len(args.Messages) == 0 {
		return nil, apperrors.InvalidInput("messages is empty")
	}

	resp, err := t.Completer.Complete(ctx, contract.CompletionRequest{Model: t.Model, Messages: args.Messages})
	if err != nil {
		return nil, err
	}
	return toolcore.JSONResult(map[string]string{
		"role":     contract.RoleAssistant,
		"response": resp.Content,
	})
}
