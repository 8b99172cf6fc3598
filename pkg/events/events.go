// Package events предоставляет Port (Emitter/Subscriber) для наблюдения за циклом агента.
//
// Библиотека (pkg/agent) зависит только от интерфейса Emitter; UI, CLI и
// debug-рекордер подключаются как адаптеры.
//
//	emitter := events.NewChanEmitter(64)
//	a, _ := agent.New(provider, agent.WithEmitter(emitter))
//
//	sub := emitter.Subscribe()
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventToolCall:
//	        ui.showTool(event.Data.(events.ToolCallData).ToolName)
//	    case events.EventDone:
//	        ui.showAnswer(event.Data.(events.DoneData).Answer)
//	    }
//	}
//
// Все реализации интерфейсов должны быть thread-safe.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события от агента.
type EventType string

const (
	// EventThinking отправляется перед каждым запросом к модели.
	EventThinking EventType = "thinking"

	// EventMessage отправляется, когда модель вернула ответ.
	EventMessage EventType = "message"

	// EventToolCall отправляется перед выполнением инструмента.
	EventToolCall EventType = "tool_call"

	// EventToolResult отправляется когда инструмент вернул результат (или ошибку).
	EventToolResult EventType = "tool_result"

	// EventReflection отправляется после прохода рефлексии.
	EventReflection EventType = "reflection"

	// EventBudgetExhausted отправляется, когда исчерпан лимит итераций.
	EventBudgetExhausted EventType = "budget_exhausted"

	// EventError отправляется при ошибке, прервавшей выполнение.
	EventError EventType = "error"

	// EventDone отправляется когда агент завершил работу.
	EventDone EventType = "done"
)

// EventData - sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс.
type EventData interface {
	eventData()
}

// ThinkingData содержит данные для EventThinking.
type ThinkingData struct {
	RunID         string
	Query         string
	Iteration     int
	MessagesCount int
	Model         string
}

func (ThinkingData) eventData() {}

// ToolCallData содержит данные о вызове инструмента.
type ToolCallData struct {
	RunID     string
	Iteration int
	ID        string
	ToolName  string
	Args      string
	Source    string // structured, free_text, json_envelope
}

func (ToolCallData) eventData() {}

// ToolResultData содержит результат выполнения инструмента.
type ToolResultData struct {
	RunID     string
	Iteration int
	ID        string
	ToolName  string
	Result    string
	Error     string // пусто при успехе
	Duration  time.Duration
}

func (ToolResultData) eventData() {}

// MessageData содержит ответ модели для EventMessage.
type MessageData struct {
	RunID     string
	Iteration int
	Content   string
	ToolCalls []ToolCallData
	Duration  time.Duration
}

func (MessageData) eventData() {}

// ReflectionData содержит результат рефлексии.
type ReflectionData struct {
	RunID    string
	Original string
	Answer   string
	Changed  bool
}

func (ReflectionData) eventData() {}

// BudgetData содержит данные для EventBudgetExhausted.
type BudgetData struct {
	RunID      string
	Iterations int
	Answer     string
}

func (BudgetData) eventData() {}

// ErrorData содержит данные для EventError.
type ErrorData struct {
	RunID string
	Err   error
}

func (ErrorData) eventData() {}

// DoneData содержит итог выполнения для EventDone.
type DoneData struct {
	RunID      string
	Answer     string
	Status     string
	Iterations int
	ModelCalls int
	Reflected  bool
	Duration   time.Duration
}

func (DoneData) eventData() {}

// Event представляет событие от агента.
//
// Для каждого EventType существует соответствующий тип данных:
//   - EventThinking: ThinkingData
//   - EventMessage: MessageData
//   - EventToolCall: ToolCallData
//   - EventToolResult: ToolResultData
//   - EventReflection: ReflectionData
//   - EventBudgetExhausted: BudgetData
//   - EventError: ErrorData
//   - EventDone: DoneData
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// New создаёт событие с текущим временем.
func New(typ EventType, data EventData) Event {
	return Event{Type: typ, Data: data, Timestamp: time.Now()}
}

// Emitter - это Port для отправки событий.
//
// Emitter инвертирует зависимость: библиотека (pkg/agent) зависит
// от этого интерфейса, а не от конкретного UI.
type Emitter interface {
	// Emit отправляет событие.
	//
	// Если context отменён, операция должна прерваться.
	Emit(ctx context.Context, event Event)
}

// EmitterFunc позволяет использовать функцию как Emitter.
type EmitterFunc func(ctx context.Context, event Event)

// Emit реализует Emitter.
func (f EmitterFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// Multi рассылает событие всем emitters по порядку. nil пропускаются.
func Multi(emitters ...Emitter) Emitter {
	list := make([]Emitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			list = append(list, e)
		}
	}
	return EmitterFunc(func(ctx context.Context, event Event) {
		for _, e := range list {
			e.Emit(ctx, event)
		}
	})
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	//
	// Канал закрывается при вызове ChanEmitter.Close().
	Events() <-chan Event

	// Close освобождает ресурсы подписчика.
	Close()
}
