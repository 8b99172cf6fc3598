package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// DefaultToolTimeout - защитный timeout выполнения одного инструмента.
const DefaultToolTimeout = 2 * time.Minute

// Request - запрос на вызов инструмента, распознанный в ответе модели.
type Request struct {
	// ID - tool_call_id (structured mode) или сгенерированный идентификатор.
	ID   string
	Name string
	Args map[string]any
}

// Result - итог вызова: значение или ошибка, никогда не оба.
type Result struct {
	ID       string
	Name     string
	Value    any
	Err      error
	Duration time.Duration
}

// OK сообщает, завершился ли вызов успешно.
func (r Result) OK() bool { return r.Err == nil }

// Text - текст результата для истории диалога.
//
// Ошибки форматируются так, чтобы модель могла отреагировать:
// "Error: Tool foo not found" или "Error executing tool: ...".
func (r Result) Text() string {
	if r.Err != nil {
		if errors.Is(r.Err, ErrToolNotFound) {
			return fmt.Sprintf("Error: Tool %s not found", r.Name)
		}
		var te *ToolError
		if errors.As(r.Err, &te) {
			return fmt.Sprintf("Error executing tool: %v", te.Err)
		}
		return fmt.Sprintf("Error executing tool: %v", r.Err)
	}
	return FormatValue(r.Value)
}

// FormatValue превращает результат инструмента в текст: строки как есть,
// остальное - компактный JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Invoker выполняет инструменты из реестра.
//
// Invoke никогда не паникует и не возвращает error: все сбои (нет инструмента,
// неверные аргументы, ошибка или паника инструмента, timeout) попадают в Result.
type Invoker struct {
	registry     *Registry
	timeout      time.Duration
	toolTimeouts map[string]time.Duration
}

// InvokerOption настраивает Invoker.
type InvokerOption func(*Invoker)

// WithTimeout задаёт timeout по умолчанию (0 - без timeout).
func WithTimeout(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.timeout = d
	}
}

// WithToolTimeout переопределяет timeout для конкретного инструмента.
func WithToolTimeout(name string, d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.toolTimeouts[name] = d
	}
}

// NewInvoker создаёт Invoker поверх реестра.
func NewInvoker(registry *Registry, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		registry:     registry,
		timeout:      DefaultToolTimeout,
		toolTimeouts: make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Registry возвращает реестр Invoker'а.
func (inv *Invoker) Registry() *Registry { return inv.registry }

// Invoke выполняет один запрос.
func (inv *Invoker) Invoke(ctx context.Context, req Request) Result {
	start := time.Now()
	result := Result{ID: req.ID, Name: req.Name}

	utils.Info("Executing tool", "name", req.Name, "args", req.Args)

	tool, ok := inv.registry.Lookup(req.Name)
	if !ok {
		result.Err = &ToolError{Tool: req.Name, Err: ErrToolNotFound}
		utils.Warn("Tool not found", "name", req.Name)
		return result
	}

	argsJSON, err := inv.registry.PrepareArgs(req.Name, req.Args)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		utils.Warn("Tool arguments rejected", "name", req.Name, "error", err)
		return result
	}

	value, err := inv.execute(ctx, tool, req.Name, argsJSON)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		utils.Warn("Tool execution failed",
			"name", req.Name,
			"duration_ms", result.Duration.Milliseconds(),
			"error", err)
		return result
	}

	result.Value = value
	utils.Debug("Tool execution finished",
		"name", req.Name,
		"duration_ms", result.Duration.Milliseconds(),
		"result", utils.TruncateContent(FormatValue(value), 200))
	return result
}

// InvokeAll выполняет запросы по порядку.
//
// Между вызовами проверяется ctx: при отмене возвращаются уже полученные
// результаты и ctx.Err().
func (inv *Invoker) InvokeAll(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, inv.Invoke(ctx, req))
	}
	return results, nil
}

// execute запускает инструмент в отдельной goroutine, чтобы соблюдать
// timeout и ловить панику.
//
// Бросить инструмент можно только по timeout. Отмена ctx вызывающего
// передаётся инструменту, но результат всё равно дожидается: выполнение
// прерывается на границе между вызовами, а не посреди инструмента.
func (inv *Invoker) execute(ctx context.Context, tool Tool, name, argsJSON string) (any, error) {
	timeout := inv.timeout
	if custom, ok := inv.toolTimeouts[name]; ok {
		timeout = custom
	}

	toolCtx := ctx
	var expired <-chan time.Time
	if timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()

		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	timedOut := func() error {
		return toolErr(name, ErrToolExecution, fmt.Errorf("timeout after %v", timeout))
	}

	type execResult struct {
		value any
		err   error
	}
	resultChan := make(chan execResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				utils.Error("Tool panicked", "name", name, "panic", r, "stack", string(debug.Stack()))
				resultChan <- execResult{err: toolErr(name, ErrToolExecution, fmt.Errorf("panic: %v", r))}
			}
		}()

		value, err := tool.Execute(toolCtx, argsJSON)
		resultChan <- execResult{value: value, err: err}
	}()

	select {
	case <-expired:
		utils.Warn("Tool abandoned after timeout", "name", name, "timeout", timeout)
		return nil, timedOut()

	case res := <-resultChan:
		if res.err == nil {
			return res.value, nil
		}
		if errors.Is(toolCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, timedOut()
		}
		if errors.Is(res.err, ErrInvalidArguments) || errors.Is(res.err, ErrToolExecution) {
			var te *ToolError
			if errors.As(res.err, &te) {
				return nil, res.err
			}
			return nil, &ToolError{Tool: name, Err: res.err}
		}
		return nil, toolErr(name, ErrToolExecution, res.err)
	}
}
