// Package orchestrator runs the tool-calling conversation for one query: ask
// the model, execute the tools it requests through the session, feed the
// results back and stop on a final answer, a failure or the chain ceiling.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/harunnryd/mcpilot/internal/config"
	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/intent"
	"github.com/harunnryd/mcpilot/internal/logger"
	"github.com/harunnryd/mcpilot/internal/model"
	"github.com/harunnryd/mcpilot/internal/model/contract"
	"github.com/harunnryd/mcpilot/internal/session"
	"github.com/harunnryd/mcpilot/internal/tool"
)

type Options struct {
	Model         string
	MaxChainCalls int
	FetchTool     string
	FetchTimeout  time.Duration
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	timeout, err := config.DurationOrDefault(cfg.Orchestrator.FetchTimeout, config.DefaultOrchestratorFetchTimeout)
	if err != nil {
		return Options{}, apperrors.WrapWithCategory(err, "orchestrator.fetch_timeout", apperrors.ErrConfig)
	}
	return Options{
		Model:         cfg.Models.Default,
		MaxChainCalls: cfg.Orchestrator.MaxChainCalls,
		FetchTool:     cfg.Orchestrator.FetchTool,
		FetchTimeout:  timeout,
	}, nil
}

type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTools
	stateDone
)

type Orchestrator struct {
	completer  model.Completer
	session    session.Session
	classifier intent.Classifier
	opts       Options
	guard      fetchGuard
}

// New wires a loop. A nil classifier disables direct dispatch.
func New(completer model.Completer, sess session.Session, classifier intent.Classifier, opts Options) *Orchestrator {
	if classifier == nil {
		classifier = intent.None
	}
	if opts.MaxChainCalls <= 0 {
		opts.MaxChainCalls = config.DefaultOrchestratorMaxChainCalls
	}
	if opts.FetchTool == "" {
		opts.FetchTool = config.DefaultOrchestratorFetchTool
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &Orchestrator{
		completer:  completer,
		session:    sess,
		classifier: classifier,
		opts:       opts,
		guard:      fetchGuard{timeout: opts.FetchTimeout},
	}
}

// ProcessQuery answers one user query. It never returns an error: every
// failure ends up as a line of the transcript.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string) (tr *Transcript) {
	queryID := logger.NewTraceID()
	ctx = logger.WithTraceID(ctx, queryID)
	log := logger.FromContext(ctx)
	tr = newTranscript(queryID, query)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Query panicked", "panic", r, "stack", string(debug.Stack()))
			tr.fail(fmt.Errorf("%v", r))
		}
	}()

	start := time.Now()
	if err := o.process(ctx, query, tr); err != nil {
		log.Error("Query failed", "error", err, "stack", string(debug.Stack()))
		tr.fail(err)
	}
	log.Info("Query finished", "outcome", tr.Outcome, "chain_length", tr.ChainLength, "duration", time.Since(start))
	return tr
}

func (o *Orchestrator) process(ctx context.Context, query string, tr *Transcript) error {
	tools, err := o.session.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	match, err := o.classifier.Classify(ctx, query, tools)
	if errors.Is(err, apperrors.ErrMalformedToolCall) {
		tr.end(malformedLine(err), OutcomeMalformed)
		return nil
	}
	if err != nil {
		return err
	}
	if match != nil {
		return o.dispatch(ctx, match, tr)
	}

	return o.converse(ctx, NewConversation(query, tools), tr)
}

// dispatch runs a typed tool invocation once and makes its result the answer.
func (o *Orchestrator) dispatch(ctx context.Context, match *intent.Match, tr *Transcript) error {
	logger.FromContext(ctx).Info("Direct tool dispatch", "tool", match.Tool)

	args := match.ArgsJSON()
	tr.announce(match.Tool, args)

	start := time.Now()
	res, err := o.callTool(ctx, match.Tool, match.Args)
	if err != nil {
		return o.endOnToolError(ctx, match.Tool, err, tr)
	}

	text := res.String()
	tr.record(ToolCallRecord{Name: match.Tool, Args: args, Result: text, Duration: time.Since(start)})
	tr.finish(text, OutcomeDirect)
	return nil
}

func (o *Orchestrator) converse(ctx context.Context, conv *Conversation, tr *Transcript) error {
	log := logger.FromContext(ctx)
	var resp *contract.CompletionResponse
	st := stateAwaitingModel

	for st != stateDone {
		switch st {
		case stateAwaitingModel:
			var err error
			resp, err = o.completer.Complete(ctx, contract.CompletionRequest{
				Model:    o.opts.Model,
				Messages: conv.Messages(),
				Tools:    conv.Tools(),
			})
			if err != nil {
				return err
			}

			switch {
			case !resp.HasToolCalls():
				tr.finish(resp.Content, OutcomeAnswered)
				st = stateDone
			case tr.ChainLength >= o.opts.MaxChainCalls:
				log.Warn("Chain-call ceiling reached", "limit", o.opts.MaxChainCalls)
				tr.add(chainLimitNotice)
				tr.finish(resp.Content, OutcomeChainLimit)
				st = stateDone
			default:
				st = stateExecutingTools
			}

		case stateExecutingTools:
			next, err := o.executeRound(ctx, conv, resp, tr)
			if err != nil {
				return err
			}
			st = next
		}
	}
	return nil
}

// executeRound runs the requested calls in order. A malformed call or a fetch
// timeout ends the query. A failed call skips the rest of the round; whatever
// already ran is still handed back to the model.
func (o *Orchestrator) executeRound(ctx context.Context, conv *Conversation, resp *contract.CompletionResponse, tr *Transcript) (state, error) {
	var (
		executed []*contract.ToolCall
		results  []contract.Message
	)

	for i, call := range resp.ToolCalls {
		args, err := parseArguments(call)
		if err != nil {
			logger.FromContext(ctx).Warn("Malformed tool call", "tool", call.Name, "error", err)
			tr.end(malformedLine(err), OutcomeMalformed)
			return stateDone, nil
		}

		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%d", tr.ChainLength, i)
		}
		argsJSON := canonicalArgs(args)
		tr.announce(call.Name, argsJSON)

		start := time.Now()
		res, err := o.callTool(ctx, call.Name, args)
		if err != nil {
			if ctx.Err() != nil {
				return stateDone, ctx.Err()
			}
			if errors.Is(err, apperrors.ErrTimeout) {
				return stateDone, o.endOnToolError(ctx, call.Name, err, tr)
			}
			o.logToolError(ctx, call.Name, err)
			tr.add(toolErrorLine(call.Name, o.userMessage(call.Name, err)))
			break
		}

		text := res.String()
		tr.record(ToolCallRecord{ID: id, Name: call.Name, Args: argsJSON, Result: text, Duration: time.Since(start)})
		executed = append(executed, &contract.ToolCall{ID: id, Name: call.Name, Input: call.Input})
		results = append(results, contract.Message{
			Role:       contract.RoleTool,
			Content:    text,
			Name:       call.Name,
			ToolCallID: id,
		})
	}

	if len(executed) == 0 {
		tr.Outcome = OutcomeToolError
		return stateDone, nil
	}

	if err := conv.AppendRound(resp.Content, executed, results); err != nil {
		return stateDone, apperrors.Internal(err.Error())
	}
	tr.ChainLength++
	return stateAwaitingModel, nil
}

func (o *Orchestrator) callTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	if name != o.opts.FetchTool {
		return o.session.CallTool(ctx, name, args)
	}
	return o.guard.run(ctx, func(ctx context.Context) (*tool.Result, error) {
		return o.session.CallTool(ctx, name, args)
	})
}

// endOnToolError closes the transcript for a call that failed outside of a
// model round, or for a fetch timeout inside one.
func (o *Orchestrator) endOnToolError(ctx context.Context, name string, err error, tr *Transcript) error {
	if errors.Is(err, apperrors.ErrTimeout) {
		logger.FromContext(ctx).Warn("Fetch timed out", "tool", name, "timeout", o.opts.FetchTimeout)
		tr.end(timeoutMessage(o.opts.FetchTimeout), OutcomeTimeout)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	o.logToolError(ctx, name, err)
	tr.end(toolErrorLine(name, o.userMessage(name, err)), OutcomeToolError)
	return nil
}

func (o *Orchestrator) logToolError(ctx context.Context, name string, err error) {
	logger.FromContext(ctx).Error("Tool call failed", "tool", name, "error", err, "stack", string(debug.Stack()))
}

// userMessage is the short text shown for a failed call. Fetch failures are
// reduced to a category message; the raw error only goes to the log.
func (o *Orchestrator) userMessage(name string, err error) string {
	if name == o.opts.FetchTool {
		return apperrors.FriendlyFetchMessage(err)
	}
	return err.Error()
}

func parseArguments(call *contract.ToolCall) (map[string]any, error) {
	input := strings.TrimSpace(call.Input)
	if input == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return nil, fmt.Errorf("arguments for %s: %w: %w", call.Name, apperrors.ErrMalformedToolCall, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func canonicalArgs(args map[string]any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func toolErrorLine(name, msg string) string {
	return fmt.Sprintf("tool call error (%s): %s", name, msg)
}

func malformedLine(err error) string {
	return "malformed tool call: " + err.Error()
}
