// Package prompt загружает и рендерит промпты агента.
//
// Встроенные промпты (инструкции по вызову инструментов, сообщение с
// результатом инструмента, рефлексия) можно переопределить YAML файлами
// в директории prompts.dir:
//
//	agent_system.yaml - system prompt текстового режима
//	tool_result.yaml  - сообщение с результатом инструмента (текстовый режим)
//	reflection.yaml   - system + user сообщения рефлексии
package prompt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// Имена файлов в директории промптов.
const (
	AgentSystemFile = "agent_system.yaml"
	ToolResultFile  = "tool_result.yaml"
	ReflectionFile  = "reflection.yaml"
)

// SystemData - данные шаблона agent_system.
type SystemData struct {
	SystemPrompt string
	Tools        []tools.Descriptor
}

// ToolResultData - данные шаблона tool_result.
type ToolResultData struct {
	Name   string
	Result string
}

// ReflectionData - данные шаблона reflection.
type ReflectionData struct {
	Query    string
	Response string
}

// Set - набор промптов агента.
type Set struct {
	AgentSystem *PromptFile
	ToolResult  *PromptFile
	Reflection  *PromptFile
}

// Defaults возвращает встроенные промпты.
func Defaults() *Set {
	return &Set{
		AgentSystem: &PromptFile{Messages: []Message{{Role: "system", Content: defaultAgentSystem}}},
		ToolResult:  &PromptFile{Messages: []Message{{Role: "user", Content: defaultToolResult}}},
		Reflection: &PromptFile{Messages: []Message{
			{Role: "system", Content: defaultReflectionSystem},
			{Role: "user", Content: defaultReflectionUser},
		}},
	}
}

// LoadDir загружает промпты из директории. Отсутствующие файлы
// заменяются встроенными; пустой dir даёт Defaults().
func LoadDir(dir string) (*Set, error) {
	set := Defaults()
	if dir == "" {
		return set, nil
	}

	targets := []struct {
		file string
		dst  **PromptFile
	}{
		{AgentSystemFile, &set.AgentSystem},
		{ToolResultFile, &set.ToolResult},
		{ReflectionFile, &set.Reflection},
	}

	for _, t := range targets {
		path := filepath.Join(dir, t.file)
		pf, err := Load(path)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		utils.Info("Prompt override loaded", "file", path)
		*t.dst = pf
	}

	return set, nil
}

// System рендерит system prompt текстового режима со списком инструментов.
func (s *Set) System(data SystemData) (string, error) {
	msgs, err := s.AgentSystem.RenderMessages(data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", AgentSystemFile, err)
	}
	return strings.TrimSpace(joinContent(msgs)), nil
}

// ToolResultMessage рендерит сообщение с результатом инструмента.
func (s *Set) ToolResultMessage(name, result string) (string, error) {
	msgs, err := s.ToolResult.RenderMessages(ToolResultData{Name: name, Result: result})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", ToolResultFile, err)
	}
	return joinContent(msgs), nil
}

// ReflectionMessages рендерит сообщения запроса рефлексии.
func (s *Set) ReflectionMessages(query, response string) ([]Message, error) {
	msgs, err := s.Reflection.RenderMessages(ReflectionData{Query: query, Response: response})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", ReflectionFile, err)
	}
	return msgs, nil
}

func joinContent(msgs []Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

const defaultAgentSystem = `{{.SystemPrompt}}

You are a powerful AI assistant that can use various tools to complete tasks. Carefully analyze the user's request to determine if you need to use tools to solve the problem.

Available tools:
{{range .Tools}}
Tool: {{.Name}}
Description: {{.Description}}
Parameters:
{{range .Params}}    - {{.Name}}: {{.Description}}{{if .Required}} (required){{end}}
{{end}}{{end}}
Important: When using tools, you must strictly follow this format:
TOOL: <tool_name>
ARGS: {"parameter_name": "parameter_value"}

For example, when the user asks "Calculate 2 + 2", you should respond:
TOOL: calculator
ARGS: {"expression": "2 + 2"}

Note:
1. You must use strict JSON format
2. You must use double quotes for strings in JSON
3. If the parameter value is a number, quotes are not needed
4. After getting the tool execution result, explain the result in a concise and clear way

If you don't need to use tools, you can directly answer the user's question. If the question is outside the scope of the available tools, use your knowledge to answer directly.`

const defaultToolResult = `Tool execution result: {{.Name}} returned: {{.Result}}
Continue answering the user's question, or call another tool if needed.`

const defaultReflectionSystem = `You are a high-quality response analyzer. Your task is to evaluate and improve given responses.`

const defaultReflectionUser = `Please evaluate the quality of the following response, which is an answer to a user query. After evaluation, provide an improved version if necessary:

User Query: {{.Query}}

Current Response:
{{.Response}}

Please evaluate the response based on the following aspects:
1. Accuracy: Is the information accurate?
2. Relevance: Does the response fully answer the user's query?
3. Completeness: Does it cover all important aspects?
4. Clarity: Is the expression clear and understandable?
5. Logicality: Are the arguments logical?
6. Format: Is the format appropriate and easy to read?

If there are obvious issues with the current response, please provide an improved response. If the current response is already good, please state "Current response is already good" and return the original response.

Evaluation:`
