package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/logger"
	"github.com/harunnryd/mcpilot/internal/model/contract"
)

const maxRequestBytes = 1 << 20

// chatRequest is the legacy function-calling request shape.
type chatRequest struct {
	Messages     []chatMessage   `json:"messages"`
	Model        string          `json:"model,omitempty"`
	Temperature  *float64        `json:"temperature,omitempty"`
	MaxTokens    int             `json:"max_tokens,omitempty"`
	FunctionCall json.RawMessage `json:"function_call,omitempty"`
	Functions    []functionDef   `json:"functions,omitempty"`
}

type chatMessage struct {
	Role         string        `json:"role"`
	Content      *string       `json:"content"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *functionCall `json:"function_call,omitempty"`
}

type functionDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Status  string      `json:"status"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": Version,
		"tools":   s.runner.Registry().Names(),
		"chat":    s.completer != nil,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeChatError(w, apperrors.InvalidInput(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	if len(req.Messages) == 0 {
		s.writeChatError(w, apperrors.InvalidInput("messages must not be empty"))
		return
	}

	defs := functionDefs(req.Functions)
	if last := req.Messages[len(req.Messages)-1]; len(defs) > 0 && strings.EqualFold(last.Role, contract.RoleUser) {
		match, err := s.classifier.Classify(ctx, textOf(last.Content), defs)
		if err != nil {
			log.Warn("Intent classification failed", "error", err)
		}
		if match != nil {
			log.Info("Routed chat request to function", "function", match.Tool)
			writeJSON(w, http.StatusOK, chatResponse{
				Message: chatMessage{
					Role:         contract.RoleAssistant,
					FunctionCall: &functionCall{Name: match.Tool, Arguments: match.ArgsJSON()},
				},
				Status: statusSuccess,
			})
			return
		}
	}

	if s.completer == nil {
		s.writeChatError(w, apperrors.Config("no completion model configured"))
		return
	}

	creq := contract.CompletionRequest{
		Model:     req.Model,
		Messages:  toContractMessages(req.Messages),
		Tools:     defs,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		creq.Temperature = *req.Temperature
	}

	resp, err := s.completer.Complete(ctx, creq)
	if err != nil {
		log.Error("Completion failed", "error", err)
		s.writeChatError(w, err)
		return
	}

	msg := chatMessage{Role: contract.RoleAssistant}
	if resp.HasToolCalls() {
		call := resp.ToolCalls[0]
		msg.FunctionCall = &functionCall{Name: call.Name, Arguments: call.Input}
	} else {
		content := resp.Content
		msg.Content = &content
	}
	writeJSON(w, http.StatusOK, chatResponse{Message: msg, Status: statusSuccess})
}

func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	text := err.Error()
	writeJSON(w, s.mapper.HTTPStatus(err), chatResponse{
		Message: chatMessage{Role: contract.RoleAssistant, Content: &text},
		Status:  statusError,
	})
}

func (s *Server) handleFunction(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := r.Context()

	if _, ok := s.runner.Registry().Get(name); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": fmt.Sprintf("function %q not found", name)})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "could not read request body"})
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte(`{}`)
	}

	res, err := s.runner.Execute(ctx, name, body)
	if err != nil {
		status := http.StatusInternalServerError
		if !errors.Is(err, apperrors.ErrToolExecution) {
			status = s.mapper.HTTPStatus(err)
		}
		writeJSON(w, status, map[string]string{"detail": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": res.Value()})
}

func functionDefs(functions []functionDef) []contract.ToolDef {
	defs := make([]contract.ToolDef, 0, len(functions))
	for _, f := range functions {
		if f.Name == "" {
			continue
		}
		defs = append(defs, contract.ToolDef{Name: f.Name, Description: f.Description, Parameters: f.Parameters})
	}
	return defs
}

// toContractMessages maps legacy function-calling turns onto tool calls: an
// assistant function_call gets an id, and the function message that follows
// answers it.
func toContractMessages(in []chatMessage) []contract.Message {
	out := make([]contract.Message, 0, len(in))
	pending := ""

	for i, m := range in {
		role := strings.ToLower(m.Role)
		switch {
		case role == contract.RoleAssistant && m.FunctionCall != nil:
			pending = fmt.Sprintf("call_%d", i)
			out = append(out, contract.Message{
				Role:    contract.RoleAssistant,
				Content: textOf(m.Content),
				ToolCalls: []*contract.ToolCall{{
					ID:    pending,
					Name:  m.FunctionCall.Name,
					Input: m.FunctionCall.Arguments,
				}},
			})
		case role == "function" && pending != "":
			out = append(out, contract.Message{
				Role:       contract.RoleTool,
				Content:    textOf(m.Content),
				Name:       m.Name,
				ToolCallID: pending,
			})
			pending = ""
		case role == "function":
			out = append(out, contract.Message{
				Role:    contract.RoleUser,
				Content: fmt.Sprintf("Result of %s: %s", m.Name, textOf(m.Content)),
			})
		default:
			out = append(out, contract.Message{Role: role, Content: textOf(m.Content), Name: m.Name})
		}
	}
	return out
}

func textOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
