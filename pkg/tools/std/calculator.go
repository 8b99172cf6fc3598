package std

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZhuLinsen/MiniAgent/pkg/expr"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

type calculatorArgs struct {
	Expression string `json:"expression" jsonschema:"description=The mathematical expression to calculate e.g. 2 + 2 * 3"`
}

// NewCalculator - calculator: вычисляет арифметическое выражение через pkg/expr.
func NewCalculator() (tools.Tool, error) {
	return tools.NewFunc("calculator",
		"Calculate the result of a mathematical expression. Supports + - * / // % ^, parentheses, pi, e and functions like sqrt, sin, log, round.",
		func(ctx context.Context, args calculatorArgs) (any, error) {
			expression := strings.TrimSpace(args.Expression)
			result, err := expr.Eval(expression)
			if err != nil {
				return nil, fmt.Errorf("failed to calculate expression '%s': %w", expression, err)
			}
			return result, nil
		})
}
