package extract

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("call_%d", n)
	}
}

func assistant(content string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: content}
}

func TestParseFreeText_ConventionInvariance(t *testing.T) {
	const args = `{"expression": "2 + 2"}`
	want := map[string]any{"expression": "2 + 2"}

	surfaces := map[string]string{
		"standard":    "TOOL: calculator\nARGS: " + args,
		"typo":        "TOL: calculator ARGS: " + args,
		"chinese":     "使用工具: calculator 参数: " + args,
		"use_tool":    "USE TOOL: calculator WITH ARGS: " + args,
		"spaced":      "T O O L : calculator A R G S : " + args,
		"chinese_alt": "工具名称: calculator\n工具参数: " + args,
		"capitalized": "Tool: calculator Args: " + args,
		"arguments":   "Tool: calculator\nArguments: " + args,
	}

	for conv, text := range surfaces {
		t.Run(conv, func(t *testing.T) {
			call, ok := ParseFreeText("Let me compute that.\n" + text + "\n")
			require.True(t, ok)
			assert.Equal(t, "calculator", call.Name)
			assert.Equal(t, want, call.Args)
			assert.Equal(t, conv, call.Convention)
		})
	}
}

func TestParseFreeText_NoMatch(t *testing.T) {
	texts := []string{
		"",
		"The answer is 4.",
		"TOOL: calculator but no args",
		"ARGS: {\"x\": 1}",
		"TOOL: calculator ARGS: not json",
	}
	for _, text := range texts {
		_, ok := ParseFreeText(text)
		assert.False(t, ok, text)
	}
}

func TestParseFreeText_NestedJSON(t *testing.T) {
	call, ok := ParseFreeText(`TOOL: http_request ARGS: {"url": "https://x", "headers": {"Accept": "application/json"}} done`)
	require.True(t, ok)
	assert.Equal(t, "http_request", call.Name)
	assert.Equal(t, map[string]any{"Accept": "application/json"}, call.Args["headers"])
}

func TestParseFreeText_FallsThroughOnBadJSON(t *testing.T) {
	text := "TOOL: broken ARGS: {not json}\nTool: calculator Args: {\"expression\": \"1+1\"}"

	call, ok := ParseFreeText(text)
	require.True(t, ok)
	assert.Equal(t, "calculator", call.Name)
	assert.Equal(t, "capitalized", call.Convention)
}

func TestParseFreeText_OrderWins(t *testing.T) {
	// Обе конвенции присутствуют: побеждает первая по списку, а не по позиции
	text := "Tool: second Args: {\"n\": 2}\nTOOL: first ARGS: {\"n\": 1}"

	call, ok := ParseFreeText(text)
	require.True(t, ok)
	assert.Equal(t, "first", call.Name)
}

func TestParseFreeText_InvalidJSONFallsThroughToLaterConvention(t *testing.T) {
	call, ok := ParseFreeText("TOOL: alpha ARGS: {\"x\": 1,}\nActually: Tool: beta Args: {\"y\": 2}")
	require.True(t, ok)
	assert.Equal(t, "beta", call.Name)
	assert.Equal(t, "capitalized", call.Convention)
	assert.Equal(t, map[string]any{"y": float64(2)}, call.Args)
}

func TestParseFreeText_InvalidJSONIsNotRepaired(t *testing.T) {
	_, ok := ParseFreeText(`TOOL: http_request ARGS: {"url": "https://h/a/*b*/c", "method": "GET",}`)
	assert.False(t, ok)

	call, ok := ParseFreeText(`TOOL: http_request ARGS: {"url": "https://h/a/*b*/c", "method": "GET"}`)
	require.True(t, ok)
	assert.Equal(t, "https://h/a/*b*/c", call.Args["url"])
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		ok     bool
		tool   string
		params map[string]any
	}{
		{"plain", `{"tool": "get_current_time", "parameters": {}}`, true, "get_current_time", map[string]any{}},
		{"fenced", "```json\n{\"tool\": \"calculator\", \"parameters\": {\"expression\": \"3*3\"}}\n```", true, "calculator", map[string]any{"expression": "3*3"}},
		{"non-object params", `{"tool": "calculator", "parameters": "3*3"}`, true, "calculator", map[string]any{}},
		{"missing parameters", `{"tool": "calculator"}`, false, "", nil},
		{"missing tool", `{"parameters": {}}`, false, "", nil},
		{"other json", `{"answer": 4}`, false, "", nil},
		{"prose", `The result is {"tool": "x", "parameters": {}}`, false, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := ParseEnvelope(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.tool, call.Name)
				assert.Equal(t, tt.params, call.Args)
			}
		})
	}
}

func TestParseStructured_ExactMatch(t *testing.T) {
	raw := `{"expression": "2 + 2", "precision": 3, "flags": [true, false], "nested": {"k": null}}`
	var want map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &want))

	reqs := ParseStructured([]llm.ToolCall{{ID: "call_x", Name: "calculator", Args: raw}}, nil)
	require.Len(t, reqs, 1)
	assert.Equal(t, "call_x", reqs[0].ID)
	assert.Equal(t, "calculator", reqs[0].Name)
	assert.Equal(t, want, reqs[0].Args)
}

func TestParseStructured_BadArguments(t *testing.T) {
	reqs := ParseStructured([]llm.ToolCall{
		{ID: "a", Name: "t1", Args: `{"broken": `},
		{ID: "", Name: "t2", Args: ""},
		{ID: "c", Name: "t3", Args: `[1, 2]`},
	}, fixedID())

	require.Len(t, reqs, 3)
	for _, r := range reqs {
		assert.Equal(t, map[string]any{}, r.Args)
	}
	assert.Equal(t, "call_1", reqs[1].ID)
}

func TestExtract_Modes(t *testing.T) {
	structured := llm.Message{
		Role:      llm.RoleAssistant,
		Content:   "TOOL: text_tool ARGS: {}",
		ToolCalls: []llm.ToolCall{{ID: "s1", Name: "structured_tool", Args: "{}"}},
	}
	textOnly := assistant("TOOL: text_tool ARGS: {}")

	tests := []struct {
		name     string
		mode     Mode
		msg      llm.Message
		wantTool string
		source   Source
	}{
		{"text ignores tool calls", ModeText, structured, "text_tool", SourceFreeText},
		{"structured prefers tool calls", ModeStructured, structured, "structured_tool", SourceStructured},
		{"structured ignores free text", ModeStructured, textOnly, "", SourceNone},
		{"auto prefers tool calls", ModeAuto, structured, "structured_tool", SourceStructured},
		{"auto falls back to text", ModeAuto, textOnly, "text_tool", SourceFreeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.mode, WithIDGenerator(fixedID())).Extract(tt.msg)
			assert.Equal(t, tt.source, d.Source)
			if tt.wantTool == "" {
				assert.True(t, d.IsFinal())
				assert.Equal(t, tt.msg.Content, d.Answer)
				return
			}
			require.Len(t, d.Calls, 1)
			assert.Equal(t, tt.wantTool, d.Calls[0].Name)
		})
	}
}

func TestExtract_Passthrough(t *testing.T) {
	replies := []string{
		"It is sunny today.",
		"",
		"  leading and trailing spaces  ",
		"Use the formula {a + b} to solve it.",
		"多语言回答",
	}

	for _, mode := range []Mode{ModeText, ModeStructured, ModeAuto} {
		e := New(mode)
		for _, r := range replies {
			d := e.Extract(assistant(r))
			assert.True(t, d.IsFinal())
			assert.Equal(t, r, d.Answer, "mode %s", mode)
		}
	}
}

func TestExtract_EnvelopeInStructuredMode(t *testing.T) {
	d := New(ModeStructured, WithIDGenerator(fixedID())).Extract(assistant(`{"tool": "calculator", "parameters": {"expression": "1"}}`))

	require.False(t, d.IsFinal())
	assert.Equal(t, SourceEnvelope, d.Source)
	assert.Equal(t, "call_1", d.Calls[0].ID)
}

func TestNew_UnknownMode(t *testing.T) {
	assert.Equal(t, ModeText, New("weird").Mode())
}

func TestNewCallID(t *testing.T) {
	a, b := newCallID(), newCallID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("call_")+24)
}
