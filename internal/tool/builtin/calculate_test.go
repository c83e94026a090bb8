package builtin

import (
	"context"
	"encoding/json"
	"testing"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 2 * 3", 8},
		{"(1 + 2) * 3", 9},
		{"10 / 4", 2.5},
		{"1 / 3 * 3", 1},
		{"-5 + +2", -3},
		{"7 % 3", 1},
		{"0.1 + 0.2", 0.3},
		{" 42 ", 42},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEvaluateRejects(t *testing.T) {
	for _, expr := range []string{"", "1 / 0", "1.5 % 2", "os.Exit(1)", "2 ** 3", `"a" + "b"`, "x + 1", "1 << 2", "1e308 * 10", "-1e308 * 10"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestCalculateToolExecute(t *testing.T) {
	res, err := (&CalculateTool{}).Execute(context.Background(), json.RawMessage(`{"expression":"6 * 7"}`))
	require.NoError(t, err)

	var out struct {
		Expression string  `json:"expression"`
		Result     float64 `json:"result"`
	}
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, "6 * 7", out.Expression)
	assert.Equal(t, 42.0, out.Result)
}
