package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaFor строит JSON Schema объекта аргументов из Go-структуры T.
//
// Описания и значения по умолчанию берутся из тегов invopop/jsonschema:
//
//	type calcArgs struct {
//		Expression string `json:"expression" jsonschema:"description=Arithmetic expression"`
//		Precision  int    `json:"precision,omitempty" jsonschema:"default=6"`
//	}
//
// Поля без omitempty считаются обязательными, лишние поля запрещены.
func SchemaFor[T any]() (JSONSchema, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}

	data, err := json.Marshal(r.Reflect(new(T)))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// $schema/$id мешают некоторым провайдерам Function Calling
	delete(schema, "$schema")
	delete(schema, "$id")

	if schema["type"] != "object" {
		return nil, fmt.Errorf("%w: argument type must be a struct, got schema type %v", ErrInvalidDefinition, schema["type"])
	}
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	return schema, nil
}

// SchemaFromParams строит object-схему из явного списка параметров.
func SchemaFromParams(params []Param) (JSONSchema, error) {
	props := make(map[string]any, len(params))
	required := make([]any, 0, len(params))

	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: parameter name cannot be empty", ErrInvalidDefinition)
		}
		if _, dup := props[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidDefinition, p.Name)
		}

		typ := p.Type
		if typ == "" {
			typ = TypeString
		}
		switch typ {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		default:
			return nil, fmt.Errorf("%w: parameter %q has unknown type %q", ErrInvalidDefinition, p.Name, typ)
		}

		prop := map[string]any{"type": string(typ)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := JSONSchema{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

// compileSchema компилирует схему в валидатор.
func compileSchema(name string, schema JSONSchema) (*sjsonschema.Schema, error) {
	doc, err := toJSONValue(schema)
	if err != nil {
		return nil, err
	}

	url := name + ".schema.json"
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// toJSONValue приводит v к виду, который понимает валидатор (json.Number для чисел).
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return sjsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// applyDefaults подставляет default из схемы для отсутствующих аргументов.
func applyDefaults(schema JSONSchema, args map[string]any) {
	props, _ := schema["properties"].(map[string]any)
	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		def, ok := prop["default"]
		if !ok {
			continue
		}
		if _, present := args[name]; !present {
			args[name] = def
		}
	}
}
