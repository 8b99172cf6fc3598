// Реестр для хранения и поиска инструментов.
package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Имя инструмента должно распознаваться free-text конвенциями (\w+).
var toolNameRe = regexp.MustCompile(`^\w+$`)

// entry - зарегистрированный инструмент вместе со скомпилированной схемой.
type entry struct {
	tool      Tool
	def       ToolDefinition
	validator *sjsonschema.Schema
}

// Registry - потокобезопасное хранилище инструментов.
//
// Реестр передаётся агенту и Invoker'у явно; глобального реестра нет.
// Порядок List/Describe совпадает с порядком регистрации.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
	order []string
}

// NewRegistry создает новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*entry),
	}
}

// validateToolDefinition проверяет что ToolDefinition соответствует JSON Schema.
//
// Валидирует:
//   - Name не пустой и состоит из [A-Za-z0-9_]
//   - Parameters является JSON объектом с type == "object"
//   - Parameters.required является массивом строк
func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: tool name cannot be empty", ErrInvalidDefinition)
	}
	if !toolNameRe.MatchString(def.Name) {
		return fmt.Errorf("%w: tool name %q must match [A-Za-z0-9_]+", ErrInvalidDefinition, def.Name)
	}

	if def.Parameters == nil {
		return fmt.Errorf("%w: tool '%s': parameters cannot be nil", ErrInvalidDefinition, def.Name)
	}

	// Прогоняем через JSON, чтобы одинаково обработать []string и []any
	paramsJSON, err := json.Marshal(def.Parameters)
	if err != nil {
		return fmt.Errorf("%w: tool '%s': failed to marshal parameters: %v", ErrInvalidDefinition, def.Name, err)
	}

	var params map[string]any
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return fmt.Errorf("%w: tool '%s': parameters must be a JSON object, got: %s", ErrInvalidDefinition, def.Name, string(paramsJSON))
	}

	typeStr, ok := params["type"].(string)
	if !ok {
		return fmt.Errorf("%w: tool '%s': parameters must have string 'type' field", ErrInvalidDefinition, def.Name)
	}
	if typeStr != "object" {
		return fmt.Errorf("%w: tool '%s': parameters.type must be 'object', got: '%s'", ErrInvalidDefinition, def.Name, typeStr)
	}

	if requiredVal, exists := params["required"]; exists {
		required, ok := requiredVal.([]any)
		if !ok {
			return fmt.Errorf("%w: tool '%s': parameters.required must be an array", ErrInvalidDefinition, def.Name)
		}
		for i, item := range required {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("%w: tool '%s': parameters.required[%d] must be a string, got: %T", ErrInvalidDefinition, def.Name, i, item)
			}
		}
	}

	return nil
}

// Register добавляет инструмент в реестр с валидацией схемы.
//
// Возвращает ErrInvalidDefinition для некорректной схемы и
// ErrDuplicateTool, если имя уже занято.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()

	if err := validateToolDefinition(def); err != nil {
		return err
	}

	validator, err := compileSchema(def.Name, def.Parameters)
	if err != nil {
		return fmt.Errorf("%w: tool '%s': %v", ErrInvalidDefinition, def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &ToolError{Tool: def.Name, Err: ErrDuplicateTool}
	}

	r.tools[def.Name] = &entry{tool: tool, def: def, validator: validator}
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister - Register, паникующий при ошибке. Для статических наборов в main.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Lookup ищет инструмент по имени.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// Get ищет инструмент по имени; отсутствие - ErrToolNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return nil, &ToolError{Tool: name, Err: ErrToolNotFound}
	}
	return tool, nil
}

// Len - число инструментов.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names возвращает имена в порядке регистрации.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List возвращает инструменты в порядке регистрации.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

// Describe возвращает описания всех инструментов для system prompt.
func (r *Registry) Describe() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		e := r.tools[name]
		out = append(out, Descriptor{
			Name:        e.def.Name,
			Description: e.def.Description,
			Params:      ParamsFromSchema(e.def.Parameters),
		})
	}
	return out
}

// GetDefinitions возвращает список всех определений для отправки в LLM.
func (r *Registry) GetDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// FunctionDefs - определения в формате llm для structured mode.
func (r *Registry) FunctionDefs() []llm.FunctionDef {
	defs := r.GetDefinitions()
	out := make([]llm.FunctionDef, len(defs))
	for i, d := range defs {
		out[i] = llm.FunctionDef{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return out
}

// Clear удаляет все инструменты.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]*entry)
	r.order = nil
}

// PrepareArgs подставляет значения по умолчанию и проверяет аргументы схемой.
//
// Возвращает нормализованный JSON для Tool.Execute. Ошибки оборачивают
// ErrInvalidArguments или ErrToolNotFound.
func (r *Registry) PrepareArgs(name string, args map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", &ToolError{Tool: name, Err: ErrToolNotFound}
	}

	merged := make(map[string]any, len(args))
	for k, v := range args {
		merged[k] = v
	}
	applyDefaults(e.def.Parameters, merged)

	inst, err := toJSONValue(merged)
	if err != nil {
		return "", toolErr(name, ErrInvalidArguments, err)
	}
	if err := e.validator.Validate(inst); err != nil {
		return "", toolErr(name, ErrInvalidArguments, err)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return "", toolErr(name, ErrInvalidArguments, err)
	}
	return string(data), nil
}
