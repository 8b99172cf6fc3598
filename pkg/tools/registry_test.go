package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool - минимальная реализация Tool с произвольной схемой.
type stubTool struct {
	def ToolDefinition
}

func (s stubTool) Definition() ToolDefinition { return s.def }

func (s stubTool) Execute(ctx context.Context, argsJSON string) (any, error) {
	return argsJSON, nil
}

func objectSchema() JSONSchema {
	return JSONSchema{"type": "object", "properties": map[string]any{}}
}

func TestValidateToolDefinition(t *testing.T) {
	tests := []struct {
		name    string
		def     ToolDefinition
		wantErr bool
	}{
		{"valid", ToolDefinition{Name: "ok_tool", Parameters: objectSchema()}, false},
		{"empty name", ToolDefinition{Parameters: objectSchema()}, true},
		{"name with spaces", ToolDefinition{Name: "bad tool", Parameters: objectSchema()}, true},
		{"nil parameters", ToolDefinition{Name: "t"}, true},
		{"missing type", ToolDefinition{Name: "t", Parameters: JSONSchema{"properties": map[string]any{}}}, true},
		{"non-object type", ToolDefinition{Name: "t", Parameters: JSONSchema{"type": "string"}}, true},
		{"required not array", ToolDefinition{Name: "t", Parameters: JSONSchema{"type": "object", "required": "x"}}, true},
		{"required with number", ToolDefinition{Name: "t", Parameters: JSONSchema{"type": "object", "required": []any{1}}}, true},
		{"required strings", ToolDefinition{Name: "t", Parameters: JSONSchema{"type": "object", "required": []string{"x"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateToolDefinition(tt.def)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDefinition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(stubTool{ToolDefinition{Name: "b_tool", Description: "B", Parameters: objectSchema()}}))
	require.NoError(t, r.Register(stubTool{ToolDefinition{Name: "a_tool", Description: "A", Parameters: objectSchema()}}))

	tool, ok := r.Lookup("a_tool")
	require.True(t, ok)
	assert.Equal(t, "A", tool.Definition().Description)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrToolNotFound)

	// Порядок регистрации сохраняется
	assert.Equal(t, []string{"b_tool", "a_tool"}, r.Names())
	assert.Len(t, r.List(), 2)
	assert.Len(t, r.GetDefinitions(), 2)
	assert.Equal(t, "b_tool", r.FunctionDefs()[0].Name)
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	tool := stubTool{ToolDefinition{Name: "dup", Parameters: objectSchema()}}

	require.NoError(t, r.Register(tool))
	err := r.Register(tool)
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{ToolDefinition{Name: "x", Parameters: objectSchema()}}))

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())

	// После Clear имя снова свободно
	require.NoError(t, r.Register(stubTool{ToolDefinition{Name: "x", Parameters: objectSchema()}}))
}

func TestRegistry_Describe(t *testing.T) {
	r := NewRegistry()
	tool, err := NewDynamic("file_stats", "Directory statistics", []Param{
		{Name: "pattern", Type: TypeString, Default: "*"},
		{Name: "directory", Type: TypeString, Description: "Directory to scan", Required: true},
	}, func(ctx context.Context, args Args) (any, error) { return nil, nil })
	require.NoError(t, err)
	require.NoError(t, r.Register(tool))

	descs := r.Describe()
	require.Len(t, descs, 1)
	assert.Equal(t, "file_stats", descs[0].Name)
	require.Len(t, descs[0].Params, 2)

	// Обязательные параметры идут первыми
	assert.Equal(t, "directory", descs[0].Params[0].Name)
	assert.True(t, descs[0].Params[0].Required)
	assert.Equal(t, "pattern", descs[0].Params[1].Name)
	assert.Equal(t, "*", descs[0].Params[1].Default)
}

func TestRegistry_PrepareArgs(t *testing.T) {
	r := NewRegistry()
	tool, err := NewDynamic("process_list", "List processes", []Param{
		{Name: "limit", Type: TypeInteger, Default: 10},
		{Name: "sort", Type: TypeString, Required: true},
	}, func(ctx context.Context, args Args) (any, error) { return nil, nil })
	require.NoError(t, err)
	require.NoError(t, r.Register(tool))

	tests := []struct {
		name    string
		args    map[string]any
		want    string
		wantErr error
	}{
		{"defaults applied", map[string]any{"sort": "cpu"}, `{"limit":10,"sort":"cpu"}`, nil},
		{"explicit value kept", map[string]any{"sort": "cpu", "limit": float64(3)}, `{"limit":3,"sort":"cpu"}`, nil},
		{"missing required", map[string]any{}, "", ErrInvalidArguments},
		{"wrong type", map[string]any{"sort": "cpu", "limit": "ten"}, "", ErrInvalidArguments},
		{"fractional integer", map[string]any{"sort": "cpu", "limit": 2.5}, "", ErrInvalidArguments},
		{"nil args", nil, "", ErrInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.PrepareArgs("process_list", tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}

	_, err = r.PrepareArgs("nope", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}
