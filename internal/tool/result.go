package tool

import (
	"encoding/json"
	"fmt"
)

// ResultKind tags how a tool result is carried.
type ResultKind string

const (
	KindJSON ResultKind = "json"
	KindText ResultKind = "text"
)

// Result is the outcome of a tool call: either structured JSON or plain text.
type Result struct {
	Kind ResultKind
	JSON json.RawMessage
	Text string
}

// JSONResult marshals v into a structured result.
func JSONResult(v any) (*Result, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &Result{Kind: KindJSON, JSON: raw}, nil
}

// TextResult wraps plain text.
func TextResult(text string) *Result {
	return &Result{Kind: KindText, Text: text}
}

// String renders the result as conversation text.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	if r.Kind == KindJSON {
		return string(r.JSON)
	}
	return r.Text
}

// Value returns the decoded JSON payload, or the text itself.
func (r *Result) Value() any {
	if r == nil {
		return nil
	}
	if r.Kind == KindJSON {
		var v any
		if err := json.Unmarshal(r.JSON, &v); err == nil {
			return v
		}
		return string(r.JSON)
	}
	return r.Text
}

// Decode unmarshals a JSON result into out.
func (r *Result) Decode(out any) error {
	if r == nil || r.Kind != KindJSON {
		return fmt.Errorf("tool result is not json")
	}
	return json.Unmarshal(r.JSON, out)
}
