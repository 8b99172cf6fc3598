package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZhuLinsen/MiniAgent/pkg/config"
	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	openai "github.com/sashabaranov/go-openai"
)

// newTestServer поднимает fake chat/completions endpoint.
// handler получает разобранный запрос и пишет ответ сам.
func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req openai.ChatCompletionRequest)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCompletion(w http.ResponseWriter, msg openai.ChatCompletionMessage) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:      "chatcmpl-1",
		Object:  "chat.completion",
		Created: 1,
		Model:   "test-model",
		Choices: []openai.ChatCompletionChoice{{Index: 0, Message: msg, FinishReason: openai.FinishReasonStop}},
	})
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(config.LLMConfig{
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     srv.URL + "/v1",
		Temperature: 0.7,
	})
}

// TestNewClient тестирует создание клиента.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
	}{
		{
			name: "minimal config",
			cfg:  config.LLMConfig{APIKey: "test-key", Model: "gpt-4"},
		},
		{
			name: "with custom base url",
			cfg:  config.LLMConfig{APIKey: "test-key", Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1/"},
		},
		{
			name: "azure",
			cfg:  config.LLMConfig{APIKey: "test-key", Model: "my-deployment", Provider: "azure", BaseURL: "https://me.openai.azure.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.cfg)
			if client == nil {
				t.Fatal("expected non-nil client")
			}
			if client.Model() != tt.cfg.Model {
				t.Errorf("expected model %s, got %s", tt.cfg.Model, client.Model())
			}
			if client.api == nil {
				t.Error("expected non-nil api client")
			}
		})
	}
}

// TestConvertToolsToOpenAI тестирует конвертацию описаний функций.
func TestConvertToolsToOpenAI(t *testing.T) {
	input := []llm.FunctionDef{
		{
			Name:        "calculator",
			Description: "Evaluate an arithmetic expression",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{"type": "string"},
				},
				"required": []string{"expression"},
			},
		},
		{
			Name:        "get_current_time",
			Description: "Current time",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
	}

	result := convertToolsToOpenAI(input)

	if len(result) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result))
	}
	for i, tool := range result {
		if tool.Type != openai.ToolTypeFunction {
			t.Errorf("tool %d: expected type function, got %s", i, tool.Type)
		}
		if tool.Function == nil || tool.Function.Name != input[i].Name {
			t.Errorf("tool %d: name mismatch", i)
		}
	}
}

// TestMapToOpenAI проверяет маппинг tool-сообщений и ToolCalls ассистента.
func TestMapToOpenAI(t *testing.T) {
	assistant := mapToOpenAI(llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "calculator", Args: `{"expression":"2+2"}`}},
	})
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(assistant.ToolCalls))
	}
	if assistant.ToolCalls[0].Function.Arguments != `{"expression":"2+2"}` {
		t.Errorf("arguments not preserved: %s", assistant.ToolCalls[0].Function.Arguments)
	}

	tool := mapToOpenAI(llm.Message{Role: llm.RoleTool, Content: "4", ToolName: "calculator", ToolCallID: "call_1"})
	if tool.ToolCallID != "call_1" || tool.Name != "calculator" || tool.Role != "tool" {
		t.Errorf("unexpected tool message: %+v", tool)
	}
}

// TestGenerate_Text проверяет обычный текстовый ответ и передачу опций.
func TestGenerate_Text(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newTestServer(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		got = req
		writeCompletion(w, openai.ChatCompletionMessage{Role: "assistant", Content: "4"})
	})

	resp, err := testClient(srv).Generate(context.Background(),
		[]llm.Message{
			{Role: llm.RoleSystem, Content: "sys"},
			{Role: llm.RoleUser, Content: "2+2?"},
		},
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(64))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "4" || resp.Role != llm.RoleAssistant {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got.Model != "test-model" {
		t.Errorf("expected model test-model, got %s", got.Model)
	}
	if got.Temperature != float32(0.2) {
		t.Errorf("expected temperature 0.2, got %v", got.Temperature)
	}
	if got.MaxTokens != 64 {
		t.Errorf("expected max tokens 64, got %d", got.MaxTokens)
	}
	if len(got.Messages) != 2 || len(got.Tools) != 0 {
		t.Errorf("unexpected request: %d messages, %d tools", len(got.Messages), len(got.Tools))
	}
}

// TestGenerate_ToolCalls проверяет structured mode.
func TestGenerate_ToolCalls(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newTestServer(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		got = req
		writeCompletion(w, openai.ChatCompletionMessage{
			Role: "assistant",
			ToolCalls: []openai.ToolCall{{
				ID:       "call_abc",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "calculator", Arguments: `{"expression":"2 + 2"}`},
			}},
		})
	})

	resp, err := testClient(srv).Generate(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "Calculate 2 + 2"}},
		llm.WithFunctions([]llm.FunctionDef{{Name: "calculator", Parameters: map[string]any{"type": "object"}}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Tools) != 1 {
		t.Fatalf("expected tools in request, got %d", len(got.Tools))
	}
	if !resp.HasToolCalls() {
		t.Fatal("expected tool calls in response")
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_abc" || tc.Name != "calculator" || tc.Args != `{"expression":"2 + 2"}` {
		t.Errorf("unexpected tool call: %+v", tc)
	}
}

// TestGenerate_Errors проверяет классификацию ошибок транспорта.
func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"server error is transient", http.StatusServiceUnavailable, true},
		{"rate limit is transient", http.StatusTooManyRequests, true},
		{"auth error is permanent", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
			})

			_, err := testClient(srv).Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
			if err == nil {
				t.Fatal("expected error")
			}

			var te *llm.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransportError, got %T", err)
			}
			if te.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, te.StatusCode)
			}
			if llm.IsTransient(err) != tt.transient {
				t.Errorf("expected transient=%v", tt.transient)
			}
		})
	}
}

// TestGenerate_EmptyChoices проверяет ответ без choices.
func TestGenerate_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	_, err := testClient(srv).Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

// TestGenerate_NetworkError проверяет недоступный endpoint.
func TestGenerate_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(config.LLMConfig{APIKey: "k", Model: "m", BaseURL: url + "/v1"})
	_, err := client.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !llm.IsTransient(err) {
		t.Errorf("network error should be transient: %v", err)
	}
}
