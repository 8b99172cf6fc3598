// Package extract классифицирует ответ модели: финальный ответ или вызов инструмента.
//
// Две стратегии распознавания:
//   - structured: поля ToolCalls ответа (Function Calling);
//   - free text: поиск одной из текстовых конвенций (TOOL: x ARGS: {...} и др.)
//     и JSON-конверта {"tool": ..., "parameters": {...}}.
//
// Неразборчивый ответ не является ошибкой: он становится финальным ответом.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
	"github.com/google/uuid"
)

// Mode - стратегия распознавания.
type Mode string

const (
	// ModeText - только текстовые конвенции.
	ModeText Mode = "text"
	// ModeStructured - только ToolCalls (и JSON-конверт).
	ModeStructured Mode = "structured"
	// ModeAuto - сначала ToolCalls, затем текстовые конвенции.
	ModeAuto Mode = "auto"
)

// Source - откуда взят вызов.
type Source string

const (
	SourceNone       Source = ""
	SourceStructured Source = "structured"
	SourceFreeText   Source = "free_text"
	SourceEnvelope   Source = "json_envelope"
)

// Decision - результат классификации одного ответа.
//
// Если Calls пуст, ответ финальный и Answer содержит текст ответа без изменений.
type Decision struct {
	Answer     string
	Calls      []tools.Request
	Source     Source
	Convention string
}

// IsFinal сообщает, является ли ответ финальным.
func (d Decision) IsFinal() bool { return len(d.Calls) == 0 }

// Extractor распознаёт вызовы инструментов в ответах модели.
type Extractor struct {
	mode  Mode
	newID func() string
}

// Option настраивает Extractor.
type Option func(*Extractor)

// WithIDGenerator подменяет генератор tool_call_id для текстовых вызовов.
func WithIDGenerator(gen func() string) Option {
	return func(e *Extractor) {
		e.newID = gen
	}
}

// New создаёт Extractor. Неизвестный режим трактуется как ModeText.
func New(mode Mode, opts ...Option) *Extractor {
	switch mode {
	case ModeText, ModeStructured, ModeAuto:
	default:
		mode = ModeText
	}

	e := &Extractor{
		mode:  mode,
		newID: newCallID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode возвращает режим распознавания.
func (e *Extractor) Mode() Mode { return e.mode }

func newCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// Extract классифицирует ответ модели.
func (e *Extractor) Extract(msg llm.Message) Decision {
	if e.mode != ModeText && msg.HasToolCalls() {
		return Decision{
			Calls:  ParseStructured(msg.ToolCalls, e.newID),
			Source: SourceStructured,
		}
	}

	if e.mode != ModeStructured {
		if call, ok := ParseFreeText(msg.Content); ok {
			return e.single(call, SourceFreeText)
		}
	}

	if call, ok := ParseEnvelope(msg.Content); ok {
		return e.single(call, SourceEnvelope)
	}

	return Decision{Answer: msg.Content}
}

func (e *Extractor) single(call FreeTextCall, source Source) Decision {
	return Decision{
		Calls: []tools.Request{{
			ID:   e.newID(),
			Name: call.Name,
			Args: call.Args,
		}},
		Source:     source,
		Convention: call.Convention,
	}
}

// ParseStructured превращает ToolCalls провайдера в запросы к инструментам.
//
// Невалидный JSON аргументов не является ошибкой: аргументы становятся
// пустым объектом, а дальнейшую проверку выполняет Invoker. Пустой ID
// заменяется сгенерированным (newID может быть nil).
func ParseStructured(calls []llm.ToolCall, newID func() string) []tools.Request {
	if newID == nil {
		newID = newCallID
	}

	reqs := make([]tools.Request, 0, len(calls))
	for _, tc := range calls {
		reqs = append(reqs, tools.Request{
			ID:   idOr(tc.ID, newID),
			Name: tc.Name,
			Args: parseArguments(tc.Name, tc.Args),
		})
	}
	return reqs
}

func idOr(id string, gen func() string) string {
	if id != "" {
		return id
	}
	return gen()
}

// parseArguments разбирает JSON аргументов; при ошибке возвращает {}.
func parseArguments(name, raw string) map[string]any {
	cleaned := utils.CleanJsonBlock(raw)
	if cleaned == "" {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(cleaned), &args); err != nil || args == nil {
		utils.Warn("Failed to parse tool call arguments, using empty arguments",
			"tool", name,
			"args", utils.TruncateContent(raw, 200),
			"error", err)
		return map[string]any{}
	}
	return args
}
