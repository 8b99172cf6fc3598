package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FuncTool - инструмент из типизированной функции.
//
// Схема параметров строится один раз при создании из структуры T.
type FuncTool[T any] struct {
	def ToolDefinition
	fn  func(ctx context.Context, args T) (any, error)
}

// NewFunc создаёт инструмент, аргументы которого декодируются в T.
func NewFunc[T any](name, description string, fn func(ctx context.Context, args T) (any, error)) (*FuncTool[T], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: tool %q has nil function", ErrInvalidDefinition, name)
	}

	schema, err := SchemaFor[T]()
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}

	return &FuncTool[T]{
		def: ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		fn: fn,
	}, nil
}

// MustFunc - NewFunc, паникующий при ошибке схемы.
func MustFunc[T any](name, description string, fn func(ctx context.Context, args T) (any, error)) *FuncTool[T] {
	t, err := NewFunc(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Definition реализует Tool.
func (t *FuncTool[T]) Definition() ToolDefinition { return t.def }

// Execute реализует Tool.
func (t *FuncTool[T]) Execute(ctx context.Context, argsJSON string) (any, error) {
	var args T
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}
	return t.fn(ctx, args)
}

// Args - аргументы динамического инструмента.
type Args map[string]any

// String возвращает строковый аргумент или def.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Float возвращает числовой аргумент или def.
func (a Args) Float(key string, def float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// Int возвращает целочисленный аргумент или def.
func (a Args) Int(key string, def int) int {
	if _, ok := a[key]; !ok {
		return def
	}
	return int(a.Float(key, float64(def)))
}

// Bool возвращает логический аргумент или def.
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

// DynamicTool - инструмент со схемой из явного списка параметров.
type DynamicTool struct {
	def ToolDefinition
	fn  func(ctx context.Context, args Args) (any, error)
}

// NewDynamic создаёт инструмент из списка Param и функции над Args.
func NewDynamic(name, description string, params []Param, fn func(ctx context.Context, args Args) (any, error)) (*DynamicTool, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: tool %q has nil function", ErrInvalidDefinition, name)
	}

	schema, err := SchemaFromParams(params)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}

	return &DynamicTool{
		def: ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		fn: fn,
	}, nil
}

// Definition реализует Tool.
func (t *DynamicTool) Definition() ToolDefinition { return t.def }

// Execute реализует Tool. Значения по умолчанию подставляются и здесь,
// чтобы инструмент работал и вне реестра.
func (t *DynamicTool) Execute(ctx context.Context, argsJSON string) (any, error) {
	args := Args{}
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}
	applyDefaults(t.def.Parameters, args)
	return t.fn(ctx, args)
}
