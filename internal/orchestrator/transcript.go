package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// Outcome says how a query ended.
type Outcome string

const (
	OutcomeAnswered   Outcome = "answered"
	OutcomeDirect     Outcome = "direct"
	OutcomeMalformed  Outcome = "malformed_call"
	OutcomeToolError  Outcome = "tool_error"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeChainLimit Outcome = "chain_limit"
	OutcomeError      Outcome = "error"
)

const (
	chainLimitNotice = "maximum chain-call limit reached"
	queryErrorPrefix = "error processing query: "
)

// ToolCallRecord is one tool invocation that ran to completion.
type ToolCallRecord struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Args     string        `json:"args"`
	Result   string        `json:"result"`
	Duration time.Duration `json:"duration"`
}

// Transcript is the structured result of ProcessQuery. Lines interleave
// tool announcements, error lines and model text in the order they happened.
type Transcript struct {
	QueryID     string           `json:"query_id"`
	Query       string           `json:"query"`
	Lines       []string         `json:"lines"`
	FinalText   string           `json:"final_text"`
	ToolCalls   []ToolCallRecord `json:"tool_calls,omitempty"`
	ChainLength int              `json:"chain_length"`
	Outcome     Outcome          `json:"outcome"`
}

func newTranscript(queryID, query string) *Transcript {
	return &Transcript{QueryID: queryID, Query: query}
}

// Render joins the lines the way the chat prompt prints them.
func (t *Transcript) Render() string {
	return strings.Join(t.Lines, "\n")
}

func (t *Transcript) add(line string) {
	t.Lines = append(t.Lines, line)
}

func (t *Transcript) announce(name, args string) {
	t.add(fmt.Sprintf("[calling tool %s with args %s]", name, args))
}

func (t *Transcript) record(rec ToolCallRecord) {
	t.ToolCalls = append(t.ToolCalls, rec)
}

func (t *Transcript) finish(text string, outcome Outcome) {
	t.add(text)
	t.FinalText = text
	t.Outcome = outcome
}

func (t *Transcript) end(line string, outcome Outcome) {
	t.add(line)
	t.Outcome = outcome
}

func (t *Transcript) fail(err error) {
	t.end(queryErrorPrefix+err.Error(), OutcomeError)
}
