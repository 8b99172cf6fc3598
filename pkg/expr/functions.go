package expr

import (
	"math"
)

type function struct {
	minArgs int
	maxArgs int // -1 - без ограничения
	eval    func(args []float64) (float64, error)
}

func unary(f func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, eval: func(a []float64) (float64, error) {
		return f(a[0]), nil
	}}
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
	"inf": math.Inf(1),
}

// functions - белый список функций калькулятора.
var functions = map[string]function{
	"abs":     unary(math.Abs),
	"sqrt":    unary(math.Sqrt),
	"exp":     unary(math.Exp),
	"log10":   unary(math.Log10),
	"log2":    unary(math.Log2),
	"sin":     unary(math.Sin),
	"cos":     unary(math.Cos),
	"tan":     unary(math.Tan),
	"asin":    unary(math.Asin),
	"acos":    unary(math.Acos),
	"atan":    unary(math.Atan),
	"sinh":    unary(math.Sinh),
	"cosh":    unary(math.Cosh),
	"tanh":    unary(math.Tanh),
	"ceil":    unary(math.Ceil),
	"floor":   unary(math.Floor),
	"int":     unary(math.Trunc),
	"float":   unary(func(x float64) float64 { return x }),
	"degrees": unary(func(x float64) float64 { return x * 180 / math.Pi }),
	"radians": unary(func(x float64) float64 { return x * math.Pi / 180 }),

	"log": {minArgs: 1, maxArgs: 2, eval: func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, ErrDomain
		}
		if len(a) == 2 {
			if a[1] <= 0 || a[1] == 1 {
				return 0, ErrDomain
			}
			return math.Log(a[0]) / math.Log(a[1]), nil
		}
		return math.Log(a[0]), nil
	}},
	"pow": {minArgs: 2, maxArgs: 2, eval: func(a []float64) (float64, error) {
		return math.Pow(a[0], a[1]), nil
	}},
	"atan2": {minArgs: 2, maxArgs: 2, eval: func(a []float64) (float64, error) {
		return math.Atan2(a[0], a[1]), nil
	}},
	"round": {minArgs: 1, maxArgs: 2, eval: func(a []float64) (float64, error) {
		if len(a) == 1 {
			return math.RoundToEven(a[0]), nil
		}
		scale := math.Pow(10, math.Trunc(a[1]))
		return math.RoundToEven(a[0]*scale) / scale, nil
	}},
	"min": {minArgs: 1, maxArgs: -1, eval: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	}},
	"max": {minArgs: 1, maxArgs: -1, eval: func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	}},
	"sum": {minArgs: 0, maxArgs: -1, eval: func(a []float64) (float64, error) {
		var s float64
		for _, v := range a {
			s += v
		}
		return s, nil
	}},
}
