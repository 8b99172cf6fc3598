// Package llmtest содержит fake-провайдеры для тестов агента.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
)

// ErrScriptExhausted возвращается, когда провайдера вызвали больше раз, чем есть ответов.
var ErrScriptExhausted = errors.New("llmtest: script exhausted")

// Step - один заранее заданный ответ модели.
//
// Если Err != nil, вызов возвращает ошибку. Если задан Func, ответ
// вычисляется из переданной истории.
type Step struct {
	Reply llm.Message
	Err   error
	Func  func(messages []llm.Message, opts llm.GenerateOptions) (llm.Message, error)
}

// Call - запись одного вызова Generate.
type Call struct {
	Messages []llm.Message
	Options  llm.GenerateOptions
}

// ScriptedProvider возвращает ответы из сценария по порядку и
// запоминает все запросы.
type ScriptedProvider struct {
	mu    sync.Mutex
	steps []Step
	calls []Call
}

// NewScripted создаёт провайдер из шагов.
func NewScripted(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// Replies - сценарий из одних текстовых ответов ассистента.
func Replies(contents ...string) *ScriptedProvider {
	steps := make([]Step, len(contents))
	for i, c := range contents {
		steps[i] = Step{Reply: llm.Message{Role: llm.RoleAssistant, Content: c}}
	}
	return NewScripted(steps...)
}

// Text - шаг с текстовым ответом.
func Text(content string) Step {
	return Step{Reply: llm.Message{Role: llm.RoleAssistant, Content: content}}
}

// ToolCalls - шаг со структурированными вызовами функций.
func ToolCalls(calls ...llm.ToolCall) Step {
	return Step{Reply: llm.Message{Role: llm.RoleAssistant, ToolCalls: calls}}
}

// Fail - шаг, возвращающий ошибку.
func Fail(err error) Step {
	return Step{Err: err}
}

// Generate реализует llm.Provider.
func (p *ScriptedProvider) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	if err := ctx.Err(); err != nil {
		return llm.Message{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	o := llm.ApplyOptions(opts...)
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	p.calls = append(p.calls, Call{Messages: snapshot, Options: o})

	idx := len(p.calls) - 1
	if idx >= len(p.steps) {
		return llm.Message{}, fmt.Errorf("%w: call %d", ErrScriptExhausted, idx+1)
	}

	step := p.steps[idx]
	switch {
	case step.Err != nil:
		return llm.Message{}, step.Err
	case step.Func != nil:
		return step.Func(snapshot, o)
	default:
		reply := step.Reply
		if reply.Role == "" {
			reply.Role = llm.RoleAssistant
		}
		return reply, nil
	}
}

// Calls возвращает копию всех записанных вызовов.
func (p *ScriptedProvider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount - число вызовов Generate.
func (p *ScriptedProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// LastCall возвращает последний вызов; ok=false если вызовов не было.
func (p *ScriptedProvider) LastCall() (Call, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.calls) == 0 {
		return Call{}, false
	}
	return p.calls[len(p.calls)-1], true
}

var _ llm.Provider = (*ScriptedProvider)(nil)
