// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Поддерживает Function Calling (tools) для structured mode агента.
// Работает с OpenAI, DeepSeek, Azure OpenAI и любыми совместимыми endpoint'ами.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/config"
	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
)

const opChatCompletion = "chat completion"

// Client реализует интерфейс llm.Provider для OpenAI-совместимых API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewClient создает клиент на основе LLM-секции конфигурации.
//
// Для provider=azure (или base URL с "azure") используется Azure-конфигурация SDK,
// где Model - имя deployment'а.
func NewClient(cfg config.LLMConfig) *Client {
	var apiCfg openai.ClientConfig
	if isAzure(cfg) {
		apiCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	} else {
		apiCfg = openai.DefaultConfig(cfg.APIKey)
		// Поддержка custom BaseURL для non-OpenAI провайдеров (DeepSeek и т.д.)
		if cfg.BaseURL != "" {
			apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
	}
	apiCfg.OrgID = cfg.Organization

	if cfg.Timeout > 0 {
		apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout.Std()}
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func isAzure(cfg config.LLMConfig) bool {
	return strings.EqualFold(cfg.Provider, "azure") ||
		strings.Contains(strings.ToLower(cfg.BaseURL), "azure")
}

// Model возвращает имя модели по умолчанию.
func (c *Client) Model() string { return c.model }

// Generate выполняет запрос к API и возвращает ответ модели.
//
// Алгоритм:
//  1. Конвертирует внутренние сообщения в формат OpenAI SDK
//  2. Если переданы функции (WithFunctions) - добавляет их как tools
//  3. Вызывает API
//  4. Конвертирует ответ обратно, включая ToolCalls
//
// Сбои транспорта возвращаются как *llm.TransportError.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	o := llm.ApplyOptions(opts...)

	req := c.buildRequest(messages, o)

	utils.Debug("LLM request started",
		"model", req.Model,
		"messages_count", len(messages),
		"tools_count", len(req.Tools))

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", req.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, llm.ErrEmptyResponse
	}

	result := mapFromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

func (c *Client) buildRequest(messages []llm.Message, o llm.GenerateOptions) openai.ChatCompletionRequest {
	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    openaiMsgs,
		Temperature: float32(c.temperature),
		MaxTokens:   c.maxTokens,
	}

	if o.Model != "" {
		req.Model = o.Model
	}
	if o.Temperature != nil {
		req.Temperature = float32(*o.Temperature)
	}
	if o.MaxTokens > 0 {
		req.MaxTokens = o.MaxTokens
	}

	if len(o.Functions) > 0 {
		req.Tools = convertToolsToOpenAI(o.Functions)
		// LLM сама решает когда вызывать tools
		req.ToolChoice = "auto"
	}

	return req
}

// mapToOpenAI конвертирует наше внутреннее сообщение в формат SDK.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       string(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}

	if m.Role == llm.RoleTool && m.ToolName != "" {
		msg.Name = m.ToolName
	}

	if len(m.ToolCalls) > 0 {
		msg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			msg.ToolCalls[i] = openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			}
		}
	}

	return msg
}

// mapFromOpenAI конвертирует ответ SDK во внутренний формат.
func mapFromOpenAI(choice openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}
	if result.Role == "" {
		result.Role = llm.RoleAssistant
	}

	if len(choice.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}

	return result
}

// convertToolsToOpenAI конвертирует описания функций в формат OpenAI Function Calling.
//
// FunctionDef.Parameters уже является JSON Schema объектом и передаётся как есть.
func convertToolsToOpenAI(defs []llm.FunctionDef) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}

// classifyError оборачивает ошибку SDK в *llm.TransportError с HTTP-статусом.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewTransportError(opChatCompletion, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.NewTransportError(opChatCompletion, reqErr.HTTPStatusCode, err)
	}

	return llm.NewTransportError(opChatCompletion, 0, err)
}

var _ llm.Provider = (*Client)(nil)
