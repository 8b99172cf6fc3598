// Интерфейс Tool и структуры определений.

package tools

import (
	"context"
	"sort"
)

// JSONSchema представляет JSON Schema для параметров инструмента.
//
// Формат соответствует JSON Schema specification для Function Calling API.
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для LLM (Function Calling API format).
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"` // JSON Schema объекта аргументов
}

// Tool - контракт, который должен реализовать любой инструмент.
type Tool interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента.
	// argsJSON - JSON-объект аргументов (уже после извлечения из ответа модели).
	// Результат - строка или любые данные, сериализуемые в JSON.
	Execute(ctx context.Context, argsJSON string) (any, error)
}

// ParamType - тип параметра в терминах JSON Schema.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// Param - один параметр инструмента: тип, обязательность, значение по умолчанию.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
}

// Descriptor - человекочитаемое описание инструмента для system prompt.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`
}

// Describe строит Descriptor из определения инструмента.
func Describe(t Tool) Descriptor {
	def := t.Definition()
	return Descriptor{
		Name:        def.Name,
		Description: def.Description,
		Params:      ParamsFromSchema(def.Parameters),
	}
}

// ParamsFromSchema извлекает плоский список параметров из object-схемы.
// Параметры отсортированы: сначала обязательные, затем по имени.
func ParamsFromSchema(schema JSONSchema) []Param {
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return nil
	}

	required := make(map[string]bool)
	for _, name := range stringList(schema["required"]) {
		required[name] = true
	}

	params := make([]Param, 0, len(props))
	for name, raw := range props {
		prop, _ := raw.(map[string]any)
		p := Param{Name: name, Required: required[name]}
		if prop != nil {
			if typ, ok := prop["type"].(string); ok {
				p.Type = ParamType(typ)
			}
			if desc, ok := prop["description"].(string); ok {
				p.Description = desc
			}
			if def, ok := prop["default"]; ok {
				p.Default = def
			}
		}
		params = append(params, p)
	}

	sort.Slice(params, func(i, j int) bool {
		if params[i].Required != params[j].Required {
			return params[i].Required
		}
		return params[i].Name < params[j].Name
	})
	return params
}

// stringList принимает []string или []any из JSON.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
