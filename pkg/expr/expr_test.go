package expr

import (
	"errors"
	"math"
	"testing"
)

func TestEval(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"2 + 2", 4},
		{"2 + 2 * 3", 8},
		{"(2 + 2) * 3", 12},
		{"10 / 4", 2.5},
		{"7 // 2", 3},
		{"-7 // 2", -4},
		{"7 % 3", 1},
		{"-7 % 3", 2},
		{"2 ^ 10", 1024},
		{"2 ** 3 ** 2", 512},
		{"-2 ^ 2", -4},
		{"--3", 3},
		{"+5", 5},
		{".5 + 1.5", 2},
		{"1e3 + 2.5E-1", 1000.25},
		{"1234 * 5678", 7006652},
		{"sqrt(16)", 4},
		{"pow(2, 8)", 256},
		{"max(1, 5, 3)", 5},
		{"min(4, -1)", -1},
		{"sum()", 0},
		{"abs(-3.5)", 3.5},
		{"round(2.5)", 2},
		{"round(3.14159, 2)", 3.14},
		{"log(e)", 1},
		{"log(8, 2)", 3},
		{"log10(1000)", 3},
		{"floor(-1.5) + ceil(1.2)", 0},
		{"int(-2.7)", -2},
		{"degrees(pi)", 180},
		{"sin(0) + cos(0)", 1},
		{"2 * pi", 2 * math.Pi},
		{"  3  ", 3},
		{"SQRT(9)", 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Eval(tt.input)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.input, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Eval(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		input  string
		target error
		syntax bool
	}{
		{input: "1 / 0", target: ErrDivisionByZero},
		{input: "1 % 0", target: ErrDivisionByZero},
		{input: "5 // 0", target: ErrDivisionByZero},
		{input: "foo(1)", target: ErrUnknownFunction},
		{input: "__import__(1)", target: ErrUnknownFunction},
		{input: "x + 1", target: ErrUnknownName},
		{input: "sqrt(-1)", target: ErrDomain},
		{input: "log(0)", target: ErrDomain},
		{input: "", syntax: true},
		{input: "2 +", syntax: true},
		{input: "(1 + 2", syntax: true},
		{input: "1 + 2)", syntax: true},
		{input: "2 $ 3", syntax: true},
		{input: "1.2.3", syntax: true},
		{input: "sqrt(1, 2)", syntax: true},
		{input: "pow(2)", syntax: true},
		{input: "2e", syntax: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Eval(tt.input)
			if err == nil {
				t.Fatalf("Eval(%q) expected error", tt.input)
			}
			if tt.syntax {
				var se *SyntaxError
				if !errors.As(err, &se) {
					t.Errorf("Eval(%q) expected SyntaxError, got %T: %v", tt.input, err, err)
				}
				return
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("Eval(%q) error = %v, want %v", tt.input, err, tt.target)
			}
		})
	}
}

func TestEval_DeepNesting(t *testing.T) {
	input := ""
	for i := 0; i < 500; i++ {
		input += "("
	}
	input += "1"
	for i := 0; i < 500; i++ {
		input += ")"
	}

	if _, err := Eval(input); err == nil {
		t.Fatal("expected nesting error")
	}

	deepMinus := ""
	for i := 0; i < 1000; i++ {
		deepMinus += "-"
	}
	if _, err := Eval(deepMinus + "1"); err == nil {
		t.Fatal("expected nesting error for unary chain")
	}
}
