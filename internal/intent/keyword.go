package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/harunnryd/mcpilot/internal/logger"
	"github.com/harunnryd/mcpilot/internal/model/contract"
)

var (
	expressionPattern = regexp.MustCompile(`[0-9+\-*/().\s]+`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
)

// Rule is one keyword category. Extract returns the tool arguments, or nil
// when the text triggered the rule but held nothing usable.
type Rule struct {
	Tool     string
	Keywords []string
	Symbols  string
	Extract  func(text string) map[string]any
}

func (r Rule) triggered(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return r.Symbols != "" && strings.ContainsAny(text, r.Symbols)
}

// Keyword routes on fixed keywords, checking rules in order. Only the first
// triggered rule is consulted; if its extraction fails the text goes to the
// model rather than to a later rule.
type Keyword struct {
	Rules []Rule
}

// NewKeyword builds the calculate, weather and fetch rules. cities is the
// exact-match set for weather lookups.
func NewKeyword(cities []string) *Keyword {
	return &Keyword{Rules: []Rule{
		{
			Tool:     "calculate",
			Keywords: []string{"calculate", "compute", "计算", "算一下"},
			Symbols:  "=+-*/",
			Extract:  extractExpression,
		},
		{
			Tool:     "get_weather",
			Keywords: []string{"weather", "temperature", "天气", "气温"},
			Extract:  cityExtractor(cities),
		},
		{
			Tool:     "fetch",
			Keywords: []string{"fetch", "crawl", "获取网页", "抓取"},
			Extract:  extractURL,
		},
	}}
}

func (k *Keyword) Classify(ctx context.Context, text string, tools []contract.ToolDef) (*Match, error) {
	for _, rule := range k.Rules {
		if !rule.triggered(text) {
			continue
		}

		log := logger.FromContext(ctx)
		if _, ok := findTool(tools, rule.Tool); !ok {
			log.Debug("Keyword rule fired for undeclared function", "tool", rule.Tool)
			return nil, nil
		}
		args := rule.Extract(text)
		if args == nil {
			log.Debug("Keyword rule fired but extraction failed", "tool", rule.Tool)
			return nil, nil
		}
		log.Debug("Keyword rule matched", "tool", rule.Tool)
		return &Match{Tool: rule.Tool, Args: args}, nil
	}
	return nil, nil
}

// extractExpression takes the first operator run that holds a digit, so the
// slashes of a URL or a lone hyphen never pass for arithmetic.
func extractExpression(text string) map[string]any {
	for _, m := range expressionPattern.FindAllString(text, -1) {
		expr := strings.TrimSpace(m)
		if strings.ContainsAny(expr, "0123456789") {
			return map[string]any{"expression": expr}
		}
	}
	return nil
}

func extractURL(text string) map[string]any {
	if u := urlPattern.FindString(text); u != "" {
		return map[string]any{"url": u}
	}
	return nil
}

func cityExtractor(cities []string) func(string) map[string]any {
	quoted := make([]string, 0, len(cities))
	for _, c := range cities {
		quoted = append(quoted, regexp.QuoteMeta(c))
	}
	if len(quoted) == 0 {
		return func(string) map[string]any { return nil }
	}
	pattern := regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)`)
	return func(text string) map[string]any {
		if city := pattern.FindString(text); city != "" {
			return map[string]any{"city": city}
		}
		return nil
	}
}
