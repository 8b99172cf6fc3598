// Package debug записывает трейс выполнения агента в JSON файл.
//
// Трейс содержит каждую итерацию цикла: ответ модели, вызванные инструменты,
// их результаты и длительности. Один файл на один запуск: run-<id>.json.
package debug

import "time"

// DebugLog представляет полный трейс выполнения одного запроса.
type DebugLog struct {
	// RunID - уникальный идентификатор запуска (используется в имени файла)
	RunID string `json:"run_id"`

	// Timestamp - время начала выполнения
	Timestamp time.Time `json:"timestamp"`

	// UserQuery - исходный запрос пользователя
	UserQuery string `json:"user_query"`

	Model string `json:"model,omitempty"`

	// Duration - общая длительность выполнения в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Iterations - итерации цикла "модель → инструмент"
	Iterations []Iteration `json:"iterations"`

	Summary Summary `json:"summary"`

	// Status - final или budget_exhausted
	Status string `json:"status,omitempty"`

	// Reflection - результат рефлексии, если она выполнялась
	Reflection *Reflection `json:"reflection,omitempty"`

	FinalResult string `json:"final_result,omitempty"`

	// Error - ошибка если выполнение завершилось неудачно
	Error string `json:"error,omitempty"`
}

// Iteration представляет одну итерацию цикла.
type Iteration struct {
	// Number - номер итерации (начиная с 1)
	Number int `json:"iteration"`

	// Duration - длительность итерации в миллисекундах
	Duration int64 `json:"duration_ms"`

	LLMRequest LLMRequest `json:"llm_request"`

	LLMResponse LLMResponse `json:"llm_response"`

	// ToolsExecuted - инструменты, выполненные на этой итерации
	ToolsExecuted []ToolExecution `json:"tools_executed,omitempty"`

	// IsFinal - true если это финальная итерация (без tool calls)
	IsFinal bool `json:"is_final,omitempty"`

	started time.Time
}

// LLMRequest содержит информацию о запросе к модели.
type LLMRequest struct {
	Model string `json:"model,omitempty"`

	// MessagesCount - количество сообщений в запросе
	MessagesCount int `json:"messages_count"`
}

// LLMResponse содержит ответ модели.
type LLMResponse struct {
	Content string `json:"content,omitempty"`

	ToolCalls []ToolCallInfo `json:"tool_calls,omitempty"`

	// Duration - длительность генерации в миллисекундах
	Duration int64 `json:"duration_ms"`

	Error string `json:"error,omitempty"`
}

// ToolCallInfo описывает вызов инструмента, распознанный в ответе.
type ToolCallInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Args   string `json:"args"`
	Source string `json:"source,omitempty"`
}

// ToolExecution описывает выполнение одного инструмента.
type ToolExecution struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`

	// Args - аргументы (пусто если IncludeToolArgs=false)
	Args string `json:"args,omitempty"`

	// Result - результат выполнения (может быть обрезан по MaxResultSize)
	Result string `json:"result,omitempty"`

	ResultTruncated bool `json:"result_truncated,omitempty"`

	// Duration - длительность выполнения в миллисекундах
	Duration int64 `json:"duration_ms"`

	Success bool `json:"success"`

	Error string `json:"error,omitempty"`
}

// Reflection - итог прохода рефлексии.
type Reflection struct {
	Changed  bool   `json:"changed"`
	Original string `json:"original,omitempty"`
}

// Summary содержит агрегированную статистику выполнения.
type Summary struct {
	TotalLLMCalls int `json:"total_llm_calls"`

	TotalToolsExecuted int `json:"total_tools_executed"`

	// TotalLLMDuration - общее время всех вызовов модели в миллисекундах
	TotalLLMDuration int64 `json:"total_llm_duration_ms"`

	// TotalToolDuration - общее время выполнения инструментов в миллисекундах
	TotalToolDuration int64 `json:"total_tool_duration_ms"`

	Errors []string `json:"errors,omitempty"`

	// VisitedTools - уникальные инструменты в порядке первого вызова
	VisitedTools []string `json:"visited_tools,omitempty"`
}
