package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/model/contract"
	"github.com/harunnryd/mcpilot/internal/tool"
)

const fetchPrefix = "fetch "

// Direct recognizes text the user typed as a tool invocation:
//
//	fetch https://example.com
//	<tool> {"json": "object"}
//	<tool> https://example.com      (tools with a url parameter only)
type Direct struct {
	FetchTool      string
	FetchMaxLength int
}

func NewDirect(fetchTool string, fetchMaxLength int) *Direct {
	return &Direct{FetchTool: fetchTool, FetchMaxLength: fetchMaxLength}
}

func (d *Direct) Classify(ctx context.Context, text string, tools []contract.ToolDef) (*Match, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, fetchPrefix) {
		target := strings.TrimSpace(strings.TrimPrefix(text, fetchPrefix))
		if target != "" {
			return &Match{
				Tool: d.fetchTool(),
				Args: map[string]any{"url": target, "maxLength": d.FetchMaxLength},
			}, nil
		}
	}

	name, argsText, ok := splitInvocation(text)
	if !ok {
		return nil, nil
	}
	def, listed := findTool(tools, name)
	if !listed {
		return nil, nil
	}

	if strings.HasPrefix(argsText, "{") && strings.HasSuffix(argsText, "}") {
		var args map[string]any
		if err := json.Unmarshal([]byte(argsText), &args); err != nil {
			return nil, fmt.Errorf("arguments for %s: %w: %w", name, apperrors.ErrMalformedToolCall, err)
		}
		return &Match{Tool: name, Args: args}, nil
	}

	if _, hasURL := tool.PropertyType(def.Parameters, "url"); hasURL {
		return &Match{Tool: name, Args: map[string]any{"url": argsText}}, nil
	}
	return nil, nil
}

func (d *Direct) fetchTool() string {
	if d.FetchTool == "" {
		return "fetch"
	}
	return d.FetchTool
}

func splitInvocation(text string) (name, rest string, ok bool) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i <= 0 {
		return "", "", false
	}
	rest = strings.TrimSpace(text[i:])
	if rest == "" {
		return "", "", false
	}
	return text[:i], rest, true
}
