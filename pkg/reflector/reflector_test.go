package reflector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/ZhuLinsen/MiniAgent/pkg/llm/llmtest"
	"github.com/ZhuLinsen/MiniAgent/pkg/prompt"
)

func TestExtractImprovement(t *testing.T) {
	tests := []struct {
		name     string
		critique string
		want     string
		wantOK   bool
	}{
		{"improved response", "Accuracy is low.\nImproved Response:\n  The answer is 4.  ", "The answer is 4.", true},
		{"improved version", "Improved Version: Paris", "Paris", true},
		{"here is", "Meh.\nHere is the improved response: Better text", "Better text", true},
		{"optimized", "Optimized Answer: 42", "42", true},
		{"list order wins", "Optimized Answer: A\nImproved Response: B", "B", true},
		{"first occurrence", "Improved Response: one Improved Response: two", "one Improved Response: two", true},
		{"already good", "Current response is already good", "", false},
		{"no improvement", "No improvement needed.", "", false},
		{"no marker", "The response is fine overall.", "", false},
		{"empty after marker", "Improved Response:   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractImprovement(tt.critique)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReflect_Improves(t *testing.T) {
	provider := llmtest.Replies("1. Accuracy: ok\nImproved Response: 2 + 2 = 4")
	r := New(provider, WithTemperature(0.3), WithMaxTokens(256))

	got := r.Reflect(context.Background(), "Calculate 2 + 2", "4")
	assert.Equal(t, "2 + 2 = 4", got)

	call, ok := provider.LastCall()
	require.True(t, ok)
	require.Len(t, call.Messages, 2)
	assert.Equal(t, llm.RoleSystem, call.Messages[0].Role)
	assert.Contains(t, call.Messages[1].Content, "User Query: Calculate 2 + 2")
	require.NotNil(t, call.Options.Temperature)
	assert.InDelta(t, 0.3, *call.Options.Temperature, 1e-9)
	assert.Equal(t, 256, call.Options.MaxTokens)
}

func TestReflect_KeepsOriginal(t *testing.T) {
	tests := []struct {
		name     string
		provider *llmtest.ScriptedProvider
	}{
		{"already good", llmtest.Replies("Current response is already good")},
		{"no marker", llmtest.Replies("Looks fine.")},
		{"same text", llmtest.Replies("Improved Response: 4")},
		{"transport error", llmtest.NewScripted(llmtest.Fail(errors.New("connection refused")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.provider)
			assert.Equal(t, "4", r.Reflect(context.Background(), "q", "4"))
			assert.Equal(t, 1, tt.provider.CallCount())
		})
	}
}

func TestReflect_NoOp(t *testing.T) {
	provider := llmtest.Replies("Improved Response: changed")

	disabled := New(provider, WithEnabled(false))
	for _, answer := range []string{"a", "", "Improved Response: x"} {
		assert.Equal(t, answer, disabled.Reflect(context.Background(), "q", answer))
	}

	var nilReflector *Reflector
	assert.Equal(t, "a", nilReflector.Reflect(context.Background(), "q", "a"))
	assert.False(t, nilReflector.Enabled())

	noProvider := New(nil)
	assert.False(t, noProvider.Enabled())
	assert.Equal(t, "a", noProvider.Reflect(context.Background(), "q", "a"))

	enabled := New(provider)
	assert.Equal(t, "  ", enabled.Reflect(context.Background(), "q", "  "))

	assert.Zero(t, provider.CallCount())
}

func TestReflect_CanceledContext(t *testing.T) {
	provider := llmtest.Replies("Improved Response: changed")
	r := New(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, "orig", r.Reflect(ctx, "q", "orig"))
}

func TestBuildPrompt_Overrides(t *testing.T) {
	temp := 0.1
	set := prompt.Defaults()
	set.Reflection = &prompt.PromptFile{
		Config: prompt.PromptConfig{Temperature: &temp, MaxTokens: 99},
		Messages: []prompt.Message{
			{Role: "system", Content: "critic"},
			{Role: "user", Content: "Q={{.Query}} A={{.Response}}"},
		},
	}

	r := New(llmtest.Replies(), WithPrompts(set), WithSystemPrompt("strict critic"))
	msgs, err := r.BuildPrompt("why", "because")
	require.NoError(t, err)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleSystem, Content: "strict critic"},
		{Role: llm.RoleUser, Content: "Q=why A=because"},
	}, msgs)

	assert.InDelta(t, 0.1, r.temperature, 1e-9)
	assert.Equal(t, 99, r.maxTokens)
}
