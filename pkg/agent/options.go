package agent

import (
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
	"github.com/ZhuLinsen/MiniAgent/pkg/extract"
	"github.com/ZhuLinsen/MiniAgent/pkg/prompt"
	"github.com/ZhuLinsen/MiniAgent/pkg/reflector"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools/std"
)

// Значения по умолчанию.
const (
	DefaultSystemPrompt       = "You are a helpful AI assistant."
	DefaultMaxIterations      = 10
	DefaultMaxToolResultChars = 4000
)

// Option настраивает Agent.
type Option func(*Agent)

// WithMode задаёт режим распознавания вызовов инструментов.
func WithMode(mode extract.Mode) Option {
	return func(a *Agent) { a.mode = mode }
}

// WithMaxIterations задаёт лимит шагов с инструментами на один запрос.
func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIterations = n }
}

// WithSystemPrompt задаёт базовый system prompt.
func WithSystemPrompt(s string) Option {
	return func(a *Agent) { a.systemPrompt = s }
}

// WithMaxToolResultChars обрезает результаты инструментов перед добавлением
// в историю. 0 - без ограничения.
func WithMaxToolResultChars(n int) Option {
	return func(a *Agent) { a.maxResultChars = n }
}

// WithModel переопределяет модель провайдера.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithTemperature задаёт температуру запросов цикла.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = &t }
}

// WithMaxTokens ограничивает длину ответа модели.
func WithMaxTokens(n int) Option {
	return func(a *Agent) { a.maxTokens = n }
}

// WithEmitter подключает получателя событий цикла.
func WithEmitter(e events.Emitter) Option {
	return func(a *Agent) { a.emitter = e }
}

// WithTraceDir включает JSON-трейс каждого запуска в dir (debug.Recorder).
func WithTraceDir(dir string) Option {
	return func(a *Agent) { a.traceDir = dir }
}

// WithReflector включает рефлексию финального ответа.
func WithReflector(r *reflector.Reflector) Option {
	return func(a *Agent) { a.reflector = r }
}

// WithPrompts подменяет набор промптов.
func WithPrompts(set *prompt.Set) Option {
	return func(a *Agent) {
		if set != nil {
			a.prompts = set
		}
	}
}

// WithRegistry использует готовый реестр инструментов.
func WithRegistry(reg *tools.Registry) Option {
	return func(a *Agent) {
		if reg != nil {
			a.registry = reg
		}
	}
}

// WithToolDeps задаёт зависимости встроенных инструментов для LoadBuiltinTool.
func WithToolDeps(deps std.Deps) Option {
	return func(a *Agent) { a.toolDeps = deps }
}

// WithInvokerOptions передаёт опции в tools.Invoker (timeouts).
func WithInvokerOptions(opts ...tools.InvokerOption) Option {
	return func(a *Agent) { a.invokerOpts = append(a.invokerOpts, opts...) }
}

// WithExtractorOptions передаёт опции в extract.Extractor.
func WithExtractorOptions(opts ...extract.Option) Option {
	return func(a *Agent) { a.extractorOpts = append(a.extractorOpts, opts...) }
}
