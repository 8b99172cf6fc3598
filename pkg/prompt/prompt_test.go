package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

func calculatorDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "calculator",
		Description: "Evaluate a math expression",
		Params: []tools.Param{
			{Name: "expression", Type: tools.TypeString, Description: "Expression to evaluate", Required: true},
			{Name: "precision", Type: tools.TypeInteger, Description: "Digits after point"},
		},
	}
}

func TestDefaultSystemPrompt(t *testing.T) {
	set := Defaults()

	got, err := set.System(SystemData{
		SystemPrompt: "You are a helpful AI assistant.",
		Tools:        []tools.Descriptor{calculatorDescriptor()},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "You are a helpful AI assistant."))
	assert.Contains(t, got, "Tool: calculator\nDescription: Evaluate a math expression\nParameters:\n")
	assert.Contains(t, got, "    - expression: Expression to evaluate (required)\n")
	assert.Contains(t, got, "    - precision: Digits after point\n")
	assert.NotContains(t, got, "Digits after point (required)")
	assert.Contains(t, got, "TOOL: <tool_name>\nARGS: {\"parameter_name\": \"parameter_value\"}")
}

func TestDefaultSystemPrompt_NoTools(t *testing.T) {
	got, err := Defaults().System(SystemData{SystemPrompt: "Base."})
	require.NoError(t, err)
	assert.Contains(t, got, "Available tools:\n\nImportant:")
}

func TestToolResultMessage(t *testing.T) {
	got, err := Defaults().ToolResultMessage("calculator", "4")
	require.NoError(t, err)
	assert.Equal(t, "Tool execution result: calculator returned: 4\nContinue answering the user's question, or call another tool if needed.", got)
}

func TestReflectionMessages(t *testing.T) {
	msgs, err := Defaults().ReflectionMessages("What is 2+2?", "It is 4.")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "You are a high-quality response analyzer. Your task is to evaluate and improve given responses.", msgs[0].Content)

	assert.Equal(t, "user", msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "User Query: What is 2+2?\n\nCurrent Response:\nIt is 4.\n")
	assert.True(t, strings.HasSuffix(msgs[1].Content, "Evaluation:"))
}

func TestRender_UserContentIsNotTemplate(t *testing.T) {
	msgs, err := Defaults().ReflectionMessages("{{.Query}}", "{{ broken")
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, "User Query: {{.Query}}")
	assert.Contains(t, msgs[1].Content, "{{ broken")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
config:
  temperature: 0.2
  max_tokens: 500
messages:
  - role: system
    content: "Be brief."
  - role: user
    content: "Q: {{.Query}}"
`), 0o644))

	pf, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, pf.Config.Temperature)
	assert.InDelta(t, 0.2, *pf.Config.Temperature, 1e-9)
	assert.Equal(t, 500, pf.Config.MaxTokens)

	msgs, err := pf.RenderMessages(map[string]string{"Query": "hi"})
	require.NoError(t, err)
	assert.Equal(t, []Message{{Role: "system", Content: "Be brief."}, {Role: "user", Content: "Q: hi"}}, msgs)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("messages:\n  - role: user\n    content: \"{{ .Query \"\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "template parse error")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("config: {}\n"), 0o644))
	_, err = Load(empty)
	assert.ErrorContains(t, err, "has no messages")
}

func TestRenderMessages_MissingKey(t *testing.T) {
	pf := &PromptFile{Messages: []Message{{Role: "user", Content: "{{.Nope}}"}}}
	_, err := pf.RenderMessages(map[string]string{"Query": "x"})
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	set, err := LoadDir("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), set)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ToolResultFile), []byte(`
messages:
  - role: user
    content: "[{{.Name}}] {{.Result}}"
`), 0o644))

	set, err = LoadDir(dir)
	require.NoError(t, err)

	got, err := set.ToolResultMessage("clock", "noon")
	require.NoError(t, err)
	assert.Equal(t, "[clock] noon", got)

	// Остальные файлы не заданы - встроенные промпты.
	assert.Equal(t, Defaults().AgentSystem, set.AgentSystem)
	assert.Equal(t, Defaults().Reflection, set.Reflection)
}

func TestLoadDir_BrokenOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ReflectionFile), []byte("messages: [oops"), 0o644))

	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, "yaml parse error")
}
