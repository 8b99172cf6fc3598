// Package conversation хранит историю диалога агента.
//
// Transcript - упорядоченный append-only список сообщений. Сообщения
// никогда не удаляются и не переставляются; Append проверяет инварианты
// последовательности:
//   - первое сообщение всегда role=system, других system-сообщений нет;
//   - role=tool идёт сразу после assistant-сообщения (или других tool-ответов
//     на него) и несёт tool_call_id одного из его ToolCalls, каждый id один раз.
//
// Thread-safe через sync.RWMutex.
package conversation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
)

// ErrInvalidSequence - нарушен порядок сообщений.
var ErrInvalidSequence = errors.New("invalid message sequence")

// Transcript - история одного запроса.
type Transcript struct {
	mu       sync.RWMutex
	messages []llm.Message
}

// New создаёт историю, начинающуюся с системного сообщения.
func New(systemPrompt string) *Transcript {
	return &Transcript{
		messages: []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
	}
}

// Append добавляет сообщение в конец истории.
func (t *Transcript) Append(msg llm.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.check(msg); err != nil {
		return err
	}

	t.messages = append(t.messages, cloneMessage(msg))
	return nil
}

// check проверяет, можно ли добавить msg. Вызывать под mu.
func (t *Transcript) check(msg llm.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidSequence, msg.Role)
	}

	if len(t.messages) == 0 {
		if msg.Role != llm.RoleSystem {
			return fmt.Errorf("%w: first message must be system, got %s", ErrInvalidSequence, msg.Role)
		}
		return nil
	}

	switch msg.Role {
	case llm.RoleSystem:
		return fmt.Errorf("%w: system message allowed only at position 0", ErrInvalidSequence)
	case llm.RoleTool:
		return t.checkToolResult(msg)
	}
	return nil
}

// checkToolResult ищет assistant-сообщение, на которое отвечает msg.
func (t *Transcript) checkToolResult(msg llm.Message) error {
	if msg.ToolCallID == "" {
		return fmt.Errorf("%w: tool message without tool_call_id", ErrInvalidSequence)
	}

	answered := make(map[string]bool)
	for i := len(t.messages) - 1; i >= 0; i-- {
		prev := t.messages[i]
		switch prev.Role {
		case llm.RoleTool:
			answered[prev.ToolCallID] = true
			continue
		case llm.RoleAssistant:
			if answered[msg.ToolCallID] {
				return fmt.Errorf("%w: duplicate result for tool call %s", ErrInvalidSequence, msg.ToolCallID)
			}
			for _, tc := range prev.ToolCalls {
				if tc.ID == msg.ToolCallID {
					return nil
				}
			}
			return fmt.Errorf("%w: tool call %s was not requested by the preceding assistant message", ErrInvalidSequence, msg.ToolCallID)
		}
		break
	}

	return fmt.Errorf("%w: tool message must follow an assistant message", ErrInvalidSequence)
}

// AppendUser добавляет сообщение пользователя.
func (t *Transcript) AppendUser(content string) error {
	return t.Append(llm.Message{Role: llm.RoleUser, Content: content})
}

// AppendToolResult добавляет ответ инструмента для structured mode.
func (t *Transcript) AppendToolResult(callID, toolName, content string) error {
	return t.Append(llm.Message{
		Role:       llm.RoleTool,
		Content:    content,
		ToolName:   toolName,
		ToolCallID: callID,
	})
}

// Messages возвращает копию истории; изменения копии не влияют на Transcript.
func (t *Transcript) Messages() []llm.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]llm.Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = cloneMessage(m)
	}
	return out
}

// Len - число сообщений.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last возвращает последнее сообщение (zero value для пустой истории).
func (t *Transcript) Last() llm.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return llm.Message{}
	}
	return cloneMessage(t.messages[len(t.messages)-1])
}

// SystemPrompt - содержимое системного сообщения.
func (t *Transcript) SystemPrompt() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return ""
	}
	return t.messages[0].Content
}

func cloneMessage(m llm.Message) llm.Message {
	if len(m.ToolCalls) > 0 {
		calls := make([]llm.ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}
