package conversation

import (
	"sync"
	"testing"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assistantWithCalls(ids ...string) llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant}
	for _, id := range ids {
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{ID: id, Name: "calculator", Args: "{}"})
	}
	return msg
}

func TestNew_StartsWithSystem(t *testing.T) {
	tr := New("be helpful")

	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "be helpful", tr.SystemPrompt())
}

func TestAppend_Sequence(t *testing.T) {
	tests := []struct {
		name    string
		prefix  []llm.Message
		msg     llm.Message
		wantErr bool
	}{
		{
			name: "user after system",
			msg:  llm.Message{Role: llm.RoleUser, Content: "hi"},
		},
		{
			name:    "second system",
			msg:     llm.Message{Role: llm.RoleSystem, Content: "again"},
			wantErr: true,
		},
		{
			name:    "unknown role",
			msg:     llm.Message{Role: "robot"},
			wantErr: true,
		},
		{
			name:   "tool after matching assistant",
			prefix: []llm.Message{{Role: llm.RoleUser, Content: "q"}, assistantWithCalls("c1")},
			msg:    llm.Message{Role: llm.RoleTool, ToolCallID: "c1", Content: "4"},
		},
		{
			name:   "second tool result for same assistant",
			prefix: []llm.Message{{Role: llm.RoleUser, Content: "q"}, assistantWithCalls("c1", "c2"), {Role: llm.RoleTool, ToolCallID: "c1"}},
			msg:    llm.Message{Role: llm.RoleTool, ToolCallID: "c2", Content: "ok"},
		},
		{
			name:    "duplicate tool result",
			prefix:  []llm.Message{{Role: llm.RoleUser, Content: "q"}, assistantWithCalls("c1"), {Role: llm.RoleTool, ToolCallID: "c1"}},
			msg:     llm.Message{Role: llm.RoleTool, ToolCallID: "c1"},
			wantErr: true,
		},
		{
			name:    "tool with unknown id",
			prefix:  []llm.Message{{Role: llm.RoleUser, Content: "q"}, assistantWithCalls("c1")},
			msg:     llm.Message{Role: llm.RoleTool, ToolCallID: "zzz"},
			wantErr: true,
		},
		{
			name:    "tool without id",
			prefix:  []llm.Message{{Role: llm.RoleUser, Content: "q"}, assistantWithCalls("c1")},
			msg:     llm.Message{Role: llm.RoleTool},
			wantErr: true,
		},
		{
			name:    "tool after user",
			prefix:  []llm.Message{{Role: llm.RoleUser, Content: "q"}},
			msg:     llm.Message{Role: llm.RoleTool, ToolCallID: "c1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New("sys")
			for _, m := range tt.prefix {
				require.NoError(t, tr.Append(m))
			}

			before := tr.Len()
			err := tr.Append(tt.msg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSequence)
				assert.Equal(t, before, tr.Len(), "rejected message must not be stored")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, before+1, tr.Len())
		})
	}
}

func TestZeroTranscript_RequiresSystemFirst(t *testing.T) {
	var tr Transcript

	assert.ErrorIs(t, tr.AppendUser("hi"), ErrInvalidSequence)
	assert.Equal(t, llm.Message{}, tr.Last())
	require.NoError(t, tr.Append(llm.Message{Role: llm.RoleSystem, Content: "s"}))
	assert.Equal(t, "s", tr.SystemPrompt())
}

func TestMessages_ReturnsCopy(t *testing.T) {
	tr := New("sys")
	require.NoError(t, tr.Append(assistantWithCalls("c1")))

	msgs := tr.Messages()
	msgs[0].Content = "mutated"
	msgs[1].ToolCalls[0].Name = "mutated"

	fresh := tr.Messages()
	assert.Equal(t, "sys", fresh[0].Content)
	assert.Equal(t, "calculator", fresh[1].ToolCalls[0].Name)
}

func TestAppendToolResult(t *testing.T) {
	tr := New("sys")
	require.NoError(t, tr.AppendUser("2+2"))
	require.NoError(t, tr.Append(assistantWithCalls("call_1")))
	require.NoError(t, tr.AppendToolResult("call_1", "calculator", "4"))

	last := tr.Last()
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "calculator", last.ToolName)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "4", last.Content)
}

func TestAppend_Concurrent(t *testing.T) {
	tr := New("sys")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.AppendUser("msg")
			_ = tr.Messages()
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, tr.Len())
}
