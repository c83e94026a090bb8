package orchestrator

import (
	"fmt"

	"github.com/harunnryd/mcpilot/internal/model/contract"
)

// Conversation is the message history of one query plus the tool schema
// offered to the model on every round. It belongs to a single ProcessQuery
// call and is dropped when that call returns.
type Conversation struct {
	messages []contract.Message
	tools    []contract.ToolDef
}

func NewConversation(query string, tools []contract.ToolDef) *Conversation {
	return &Conversation{
		messages: []contract.Message{{Role: contract.RoleUser, Content: query}},
		tools:    tools,
	}
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []contract.Message {
	out := make([]contract.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Tools() []contract.ToolDef {
	return c.tools
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// AppendRound records one executed tool round: the assistant message that
// asked for the calls, then one tool message per call in the same order.
func (c *Conversation) AppendRound(content string, calls []*contract.ToolCall, results []contract.Message) error {
	if len(calls) != len(results) {
		return fmt.Errorf("tool round has %d calls but %d results", len(calls), len(results))
	}
	for i, call := range calls {
		r := results[i]
		if r.Role != contract.RoleTool || r.ToolCallID != call.ID {
			return fmt.Errorf("tool result %d answers %q, want %q", i, r.ToolCallID, call.ID)
		}
	}

	c.messages = append(c.messages, contract.Message{
		Role:      contract.RoleAssistant,
		Content:   content,
		ToolCalls: calls,
	})
	c.messages = append(c.messages, results...)
	return nil
}
