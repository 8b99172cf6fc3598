// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Role - роль автора сообщения в истории.
type Role string

// Константы для удобства
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid сообщает, является ли роль одной из четырёх известных.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message - одно сообщение истории.
//
// ToolName и ToolCallID заполняются только для role=tool (structured mode).
// ToolCalls заполняется только для assistant-сообщений, в которых модель
// запросила вызов функций.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolName   string     `json:"tool_name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall - запрос модели на вызов функции (Function Calling).
//
// Args - сырая JSON-строка аргументов, как её прислал провайдер.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"arguments"`
}

// FunctionDef - описание функции, отправляемое модели в structured mode.
//
// Parameters - JSON Schema объекта аргументов.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// HasToolCalls сообщает, запросила ли модель вызов функций.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
