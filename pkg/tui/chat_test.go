package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZhuLinsen/MiniAgent/pkg/agent"
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
)

func newTestModel(run RunFunc) *Model {
	m := NewModel(context.Background(), run, nil, Config{ModelName: "test-model"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func typeQuery(m *Model, q string) tea.Cmd {
	m.textarea.SetValue(q)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func joined(m *Model) string {
	return strings.Join(m.Lines(), "\n")
}

func TestModel_SubmitRunsQuery(t *testing.T) {
	var got string
	m := newTestModel(func(_ context.Context, q string) (agent.Outcome, error) {
		got = q
		return agent.Outcome{Answer: "4", Status: agent.StatusFinal}, nil
	})

	cmd := typeQuery(m, "  Calculate 2 + 2  ")
	require.NotNil(t, cmd)
	assert.True(t, m.Busy())
	assert.Empty(t, m.textarea.Value())
	assert.Contains(t, joined(m), "You:")
	assert.Contains(t, joined(m), "Calculate 2 + 2")

	msg := cmd()
	assert.Equal(t, "Calculate 2 + 2", got)

	m.Update(msg)
	assert.False(t, m.Busy())
	assert.Contains(t, joined(m), "AI:")
	assert.Contains(t, joined(m), "4")
	assert.Contains(t, m.View(), "Model: test-model")
}

func TestModel_IgnoresEmptyAndBusyInput(t *testing.T) {
	calls := 0
	m := newTestModel(func(context.Context, string) (agent.Outcome, error) {
		calls++
		return agent.Outcome{}, nil
	})

	assert.Nil(t, typeQuery(m, "   "))

	require.NotNil(t, typeQuery(m, "first"))
	assert.Nil(t, typeQuery(m, "second"))
	assert.Zero(t, calls)
}

func TestModel_DegradedAndError(t *testing.T) {
	m := newTestModel(nil)

	m.Update(runDoneMsg{outcome: agent.Outcome{Answer: "partial", Status: agent.StatusBudgetExhausted}})
	assert.Contains(t, joined(m), "AI (incomplete):")

	m.Update(runDoneMsg{err: errors.New("model call failed")})
	assert.Contains(t, joined(m), "ERROR: model call failed")
}

func TestModel_Events(t *testing.T) {
	m := newTestModel(nil)

	m.Update(EventMsg(events.New(events.EventThinking, events.ThinkingData{Iteration: 2})))
	assert.Contains(t, m.View(), "step 2")

	m.Update(EventMsg(events.New(events.EventToolCall, events.ToolCallData{ToolName: "calculator", Args: `{"expression":"2+2"}`})))
	m.Update(EventMsg(events.New(events.EventToolResult, events.ToolResultData{ToolName: "calculator", Result: "4", Duration: 3 * time.Millisecond})))
	m.Update(EventMsg(events.New(events.EventToolResult, events.ToolResultData{ToolName: "foo", Result: "Error: Tool foo not found", Error: "not found"})))
	m.Update(EventMsg(events.New(events.EventBudgetExhausted, events.BudgetData{Iterations: 3})))

	out := joined(m)
	assert.Contains(t, out, `Tool: calculator {"expression":"2+2"}`)
	assert.Contains(t, out, "Result: calculator -> 4 (3ms)")
	assert.Contains(t, out, "Error: Tool foo not found")
	assert.Contains(t, out, "Iteration limit reached after 3 steps")
}

func TestModel_CancelAndQuit(t *testing.T) {
	block := make(chan struct{})
	m := newTestModel(func(ctx context.Context, _ string) (agent.Outcome, error) {
		<-ctx.Done()
		close(block)
		return agent.Outcome{}, ctx.Err()
	})

	cmd := typeQuery(m, "slow")
	require.NotNil(t, cmd)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	<-block
	msg := <-done

	m.Update(msg)
	assert.Contains(t, joined(m), "context canceled")

	_, quit := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, quit)
	assert.IsType(t, tea.QuitMsg{}, quit())
}

func TestModel_MaxMessages(t *testing.T) {
	m := NewModel(context.Background(), nil, nil, Config{MaxMessages: 2})
	for i := 0; i < 5; i++ {
		m.Update(EventMsg(events.New(events.EventToolCall, events.ToolCallData{ToolName: "t"})))
	}
	assert.Len(t, m.Lines(), 2)
}

func TestWaitForEvent(t *testing.T) {
	assert.Nil(t, WaitForEvent(nil))

	emitter := events.NewChanEmitter(1)
	sub := emitter.Subscribe()
	emitter.Emit(context.Background(), events.New(events.EventDone, events.DoneData{Answer: "x"}))

	msg := WaitForEvent(sub)()
	ev, ok := msg.(EventMsg)
	require.True(t, ok)
	assert.Equal(t, events.EventDone, ev.Type)

	emitter.Close()
	assert.IsType(t, subscriptionClosedMsg{}, WaitForEvent(sub)())
}

func TestWrapLines(t *testing.T) {
	got := wrapLines([]string{"one two three four"}, 9)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(strings.TrimSpace(line)), 9)
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, strings.Fields(got))
	assert.Equal(t, "a\nb", wrapLines([]string{"a", "b"}, 0))
}
