package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/ZhuLinsen/MiniAgent/pkg/llm/llmtest"
)

func TestProbeConnection(t *testing.T) {
	p := llmtest.Replies("  Test successful \n")

	res := llm.ProbeConnection(context.Background(), p)
	require.True(t, res.OK)
	assert.NoError(t, res.Err)
	assert.Equal(t, "connection", res.Name)
	assert.Equal(t, "Test successful", res.Content)

	call, ok := p.LastCall()
	require.True(t, ok)
	assert.Equal(t, 10, call.Options.MaxTokens)
	assert.Empty(t, call.Options.Functions)
	require.Len(t, call.Messages, 1)
	assert.Equal(t, llm.RoleUser, call.Messages[0].Role)
}

func TestProbeCapabilities_Error(t *testing.T) {
	boom := errors.New("401 unauthorized")
	p := llmtest.NewScripted(llmtest.Fail(boom))

	res := llm.ProbeCapabilities(context.Background(), p)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, boom)
	assert.Contains(t, res.Err.Error(), "capabilities probe")
}

func TestProbeToolCalling(t *testing.T) {
	p := llmtest.NewScripted(llmtest.ToolCalls(llm.ToolCall{
		ID: "call_1", Name: "calculator", Args: `{"expression":"1234*5678"}`,
	}))

	res := llm.ProbeToolCalling(context.Background(), p)
	require.True(t, res.OK)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "calculator", res.ToolCalls[0].Name)

	call, _ := p.LastCall()
	require.Len(t, call.Options.Functions, 1)
	assert.Equal(t, llm.ProbeCalculator.Name, call.Options.Functions[0].Name)
}
