// Package expr вычисляет арифметические выражения без исполнения кода.
//
// Грамматика (recursive descent):
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "//" | "%") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ ("^" | "**") unary ]
//	primary = number | const | func "(" [ expr { "," expr } ] ")" | "(" expr ")"
//
// Степень правоассоциативна и связывает сильнее унарного минуса: -2^2 = -4.
// Функции и константы ограничены белым списком.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Ошибки вычисления.
var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrUnknownFunction = errors.New("unknown function")
	ErrUnknownName     = errors.New("unknown name")
	ErrDomain          = errors.New("math domain error")
)

// SyntaxError - ошибка разбора с позицией (в байтах) во входной строке.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

const maxDepth = 128

// Eval разбирает и вычисляет выражение.
func Eval(input string) (float64, error) {
	p := &parser{src: input}
	p.next()

	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.tok.kind != tokEOF {
		return 0, p.errorf("unexpected %q", p.tok.text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrDomain
	}
	return v, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

type parser struct {
	src   string
	pos   int
	tok   token
	err   error
	depth int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

// next читает следующий токен в p.tok.
func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}

	c := p.src[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		p.lexNumber(start)
	case c == '_' || unicode.IsLetter(rune(c)):
		for p.pos < len(p.src) && (p.src[p.pos] == '_' || unicode.IsLetter(rune(p.src[p.pos])) || unicode.IsDigit(rune(p.src[p.pos]))) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos], pos: start}
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", pos: start}
	case strings.HasPrefix(p.src[p.pos:], "**"), strings.HasPrefix(p.src[p.pos:], "//"):
		p.pos += 2
		p.tok = token{kind: tokOp, text: p.src[start:p.pos], pos: start}
	case strings.ContainsRune("+-*/%^", rune(c)):
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
		p.err = &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
}

func (p *parser) lexNumber(start int) {
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
		p.pos++
	}
	// Экспонента: 1e10, 2.5E-3
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		save := p.pos
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		digits := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if p.pos == digits {
			// "2e" без цифр: e - это константа, а не экспонента
			p.pos = save
		}
	}

	text := p.src[start:p.pos]
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.tok = token{kind: tokNumber, text: text, pos: start}
		p.err = &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", text)}
		return
	}
	p.tok = token{kind: tokNumber, text: text, num: num, pos: start}
}

func (p *parser) expr() (float64, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return 0, p.errorf("expression nested too deeply")
	}

	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/" || p.tok.text == "//" || p.tok.text == "%") {
		op := p.tok.text
		p.next()
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left /= right
		case "//":
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left = math.Floor(left / right)
		case "%":
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			// Знак результата как у делителя
			left = left - right*math.Floor(left/right)
		}
	}
	return left, nil
}

func (p *parser) unary() (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "+") {
		op := p.tok.text
		p.next()

		p.depth++
		defer func() { p.depth-- }()
		if p.depth > maxDepth {
			return 0, p.errorf("expression nested too deeply")
		}

		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.power()
}

func (p *parser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if p.tok.kind == tokOp && (p.tok.text == "^" || p.tok.text == "**") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *parser) primary() (float64, error) {
	if p.err != nil {
		return 0, p.err
	}

	switch p.tok.kind {
	case tokNumber:
		v := p.tok.num
		p.next()
		return v, p.err

	case tokLParen:
		p.next()
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.tok.kind != tokRParen {
			return 0, p.errorf("expected ')'")
		}
		p.next()
		return v, p.err

	case tokIdent:
		name := p.tok.text
		p.next()
		if p.tok.kind == tokLParen {
			return p.call(name)
		}
		if v, ok := constants[strings.ToLower(name)]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownName, name)

	case tokEOF:
		return 0, p.errorf("unexpected end of expression")
	}

	return 0, p.errorf("unexpected %q", p.tok.text)
}

func (p *parser) call(name string) (float64, error) {
	fn, ok := functions[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	// p.tok == '('
	p.next()
	var args []float64
	if p.tok.kind != tokRParen {
		for {
			v, err := p.expr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.tok.kind == tokComma {
				p.next()
				continue
			}
			break
		}
	}
	if p.tok.kind != tokRParen {
		return 0, p.errorf("expected ')' after arguments of %s", name)
	}
	p.next()
	if p.err != nil {
		return 0, p.err
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return 0, &SyntaxError{Pos: p.tok.pos, Msg: fmt.Sprintf("%s: wrong number of arguments (%d)", name, len(args))}
	}

	v, err := fn.eval(args)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%s: %w", name, ErrDomain)
	}
	return v, nil
}
