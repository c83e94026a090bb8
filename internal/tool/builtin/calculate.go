package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"math"
	"strings"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	toolcore "github.com/harunnryd/mcpilot/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("calculate", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &CalculateTool{}, nil
	})
}

// CalculateTool evaluates arithmetic expressions.
type CalculateTool struct{}

func (t *CalculateTool) Name() string { return "calculate" }

func (t *CalculateTool) Description() string {
	return "Evaluate an arithmetic expression with + - * / %, parentheses and decimals, for example '2 + 2 * 3'."
}

func (t *CalculateTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"expression": map[string]interface{}{
				"type":        "string",
				"description": "Arithmetic expression, for example '(1 + 2) * 3'",
			},
		},
		"required": []string{"expression"},
	}
}

func (t *CalculateTool) Execute(ctx context.Context, input json.RawMessage) (*toolcore.Result, error) {
	var args struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid input: %v", err))
	}

	value, err := Evaluate(args.Expression)
	if err != nil {
		return nil, err
	}
	return toolcore.JSONResult(map[string]any{
		"expression": strings.TrimSpace(args.Expression),
		"result":     value,
	})
}

// Evaluate computes an arithmetic expression exactly and returns it as a
// float64. Only numeric literals, the four operators, modulo, unary signs
// and parentheses are accepted.
func Evaluate(expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, apperrors.InvalidInput("expression is empty")
	}

	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("cannot parse %q", expr))
	}

	v, err := eval(node)
	if err != nil {
		return 0, err
	}

	f, _ := constant.Float64Val(constant.ToFloat(v))
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, apperrors.InvalidInput("result out of range")
	}
	return f, nil
}

func eval(node ast.Expr) (constant.Value, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported literal %s", n.Value))
		}
		return constant.MakeFromLiteral(n.Value, n.Kind, 0), nil

	case *ast.ParenExpr:
		return eval(n.X)

	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD, token.SUB:
			return constant.UnaryOp(n.Op, x, 0), nil
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported operator %s", n.Op))

	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return nil, err
		}

		switch n.Op {
		case token.ADD, token.SUB, token.MUL:
			return constant.BinaryOp(x, n.Op, y), nil
		case token.QUO:
			if constant.Sign(y) == 0 {
				return nil, apperrors.InvalidInput("division by zero")
			}
			return constant.BinaryOp(constant.ToFloat(x), token.QUO, constant.ToFloat(y)), nil
		case token.REM:
			if x.Kind() != constant.Int || y.Kind() != constant.Int {
				return nil, apperrors.InvalidInput("modulo needs integer operands")
			}
			if constant.Sign(y) == 0 {
				return nil, apperrors.InvalidInput("division by zero")
			}
			return constant.BinaryOp(x, token.REM, y), nil
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported operator %s", n.Op))
	}

	return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported expression %T", node))
}
