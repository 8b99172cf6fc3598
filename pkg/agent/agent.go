// Package agent реализует цикл агента: запрос к модели, распознавание
// вызова инструмента, выполнение, возврат результата в историю и так
// до финального ответа или исчерпания лимита итераций.
//
// Basic usage:
//
//	cfg, _ := config.Load("config.yaml")
//	a, _ := agent.NewFromConfig(cfg)
//	out, _ := a.Run(ctx, "Calculate 2 + 2")
//	fmt.Println(out.Answer)
//
// With custom tool:
//
//	a, _ := agent.New(provider)
//	a.AddTool(myTool)
//	out, _ := a.Run(ctx, "...")
//	if out.Degraded() {
//	    // лимит итераций исчерпан
//	}
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZhuLinsen/MiniAgent/pkg/config"
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
	"github.com/ZhuLinsen/MiniAgent/pkg/extract"
	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/ZhuLinsen/MiniAgent/pkg/llm/openai"
	"github.com/ZhuLinsen/MiniAgent/pkg/prompt"
	"github.com/ZhuLinsen/MiniAgent/pkg/reflector"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools/std"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// ErrNoProvider - агент создан без провайдера модели.
var ErrNoProvider = errors.New("agent: llm provider is required")

// Agent - фасад над циклом: провайдер, реестр инструментов, промпты, рефлексия.
//
// Thread-safe: каждый Run работает со своей историей, реестр общий.
type Agent struct {
	provider  llm.Provider
	registry  *tools.Registry
	invoker   *tools.Invoker
	extractor *extract.Extractor
	reflector *reflector.Reflector
	prompts   *prompt.Set

	mode           extract.Mode
	systemPrompt   string
	maxIterations  int
	maxResultChars int

	model       string
	temperature *float64
	maxTokens   int

	emitter  events.Emitter
	traceDir string
	toolDeps std.Deps

	invokerOpts   []tools.InvokerOption
	extractorOpts []extract.Option
}

// New создаёт агента поверх провайдера.
//
// Повторы при сбоях транспорта - забота провайдера (llm.RetryProvider);
// NewFromConfig собирает такую обёртку сам.
func New(provider llm.Provider, opts ...Option) (*Agent, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}

	a := &Agent{
		provider:       provider,
		registry:       tools.NewRegistry(),
		prompts:        prompt.Defaults(),
		mode:           extract.ModeText,
		systemPrompt:   DefaultSystemPrompt,
		maxIterations:  DefaultMaxIterations,
		maxResultChars: DefaultMaxToolResultChars,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.maxIterations < 1 {
		return nil, fmt.Errorf("agent: max iterations must be >= 1, got %d", a.maxIterations)
	}
	if a.model == "" {
		if named, ok := provider.(interface{ Model() string }); ok {
			a.model = named.Model()
		}
	}

	a.invoker = tools.NewInvoker(a.registry, a.invokerOpts...)
	a.extractor = extract.New(a.mode, a.extractorOpts...)
	a.mode = a.extractor.Mode()

	utils.Info("Agent initialized",
		"model", a.model,
		"mode", a.mode,
		"max_iterations", a.maxIterations,
		"reflector", a.reflector.Enabled())

	return a, nil
}

// NewFromConfig собирает агента из конфигурации: OpenAI-совместимый клиент
// с повторами и rate limit, промпты из prompts.dir, встроенные инструменты
// из agent.default_tools (пустой список - все настроенные), рефлексия.
//
// opts применяются после значений из конфигурации.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Agent, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	client := openai.NewClient(cfg.LLM)
	provider := llm.NewRetryProvider(client, llm.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		MinDelay:    cfg.Retry.MinDelay.Std(),
		MaxDelay:    cfg.Retry.MaxDelay.Std(),
	}, llm.WithRateLimit(cfg.Retry.RequestsPerMinute))

	prompts, err := prompt.LoadDir(cfg.Prompts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	deps, err := std.DepsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init tool dependencies: %w", err)
	}

	base := []Option{
		WithMode(extract.Mode(cfg.Agent.Mode)),
		WithMaxIterations(cfg.Agent.MaxIterations),
		WithSystemPrompt(cfg.Agent.SystemPrompt),
		WithMaxToolResultChars(cfg.Agent.MaxToolResultChars),
		WithModel(cfg.LLM.Model),
		WithTemperature(cfg.LLM.Temperature),
		WithMaxTokens(cfg.LLM.MaxTokens),
		WithPrompts(prompts),
		WithToolDeps(deps),
	}
	if cfg.Reflector.Enabled {
		// Рефлексия ходит в модель без повторов.
		base = append(base, WithReflector(reflector.New(client,
			reflector.WithTemperature(cfg.Reflector.Temperature),
			reflector.WithMaxTokens(cfg.Reflector.MaxTokens),
			reflector.WithSystemPrompt(cfg.Reflector.SystemPrompt),
			reflector.WithPrompts(prompts),
		)))
	}

	a, err := New(provider, append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	if len(cfg.Agent.DefaultTools) > 0 {
		for _, name := range cfg.Agent.DefaultTools {
			if err := a.LoadBuiltinTool(name); err != nil {
				return nil, err
			}
		}
	} else if _, err := a.LoadBuiltinTools(); err != nil {
		return nil, err
	}

	return a, nil
}

// AddTool регистрирует инструмент.
func (a *Agent) AddTool(tool tools.Tool) error {
	if err := a.registry.Register(tool); err != nil {
		return fmt.Errorf("failed to register tool '%s': %w", tool.Definition().Name, err)
	}
	utils.Info("Tool registered", "name", tool.Definition().Name)
	return nil
}

// LoadBuiltinTool регистрирует встроенный инструмент по имени (см. std.Names).
func (a *Agent) LoadBuiltinTool(name string) error {
	tool, err := std.New(name, a.toolDeps)
	if err != nil {
		return fmt.Errorf("failed to load builtin tool: %w", err)
	}
	return a.AddTool(tool)
}

// LoadBuiltinTools регистрирует все настроенные встроенные инструменты.
func (a *Agent) LoadBuiltinTools() ([]string, error) {
	names, err := std.RegisterAll(a.registry, a.toolDeps)
	if err != nil {
		return names, fmt.Errorf("failed to load builtin tools: %w", err)
	}
	utils.Info("Builtin tools loaded", "tools", names)
	return names, nil
}

// AvailableTools возвращает имена зарегистрированных инструментов.
func (a *Agent) AvailableTools() []string {
	return a.registry.Names()
}

// Registry возвращает реестр инструментов агента.
func (a *Agent) Registry() *tools.Registry { return a.registry }

// Mode возвращает режим распознавания вызовов.
func (a *Agent) Mode() extract.Mode { return a.mode }

// Model возвращает имя модели (может быть пустым).
func (a *Agent) Model() string { return a.model }

// MaxIterations возвращает лимит итераций.
func (a *Agent) MaxIterations() int { return a.maxIterations }

// RunAsync запускает Run в отдельной goroutine. Канал получает ровно
// одно значение и закрывается.
func (a *Agent) RunAsync(ctx context.Context, query string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		outcome, err := a.Run(ctx, query)
		out <- Result{Outcome: outcome, Err: err}
	}()
	return out
}
