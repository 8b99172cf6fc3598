// Package reflector выполняет один дополнительный проход модели над готовым
// ответом: критика по фиксированным критериям и, при необходимости,
// улучшенная версия ответа.
//
// Ошибки рефлексии никогда не выходят наружу: при любой проблеме
// возвращается исходный ответ.
package reflector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/ZhuLinsen/MiniAgent/pkg/prompt"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// Маркеры улучшенного ответа. Проверяются по порядку.
var improvementMarkers = []string{
	"Improved Response:",
	"Improved Version:",
	"Here is the improved response:",
	"Optimized Answer:",
}

// Фразы "улучшать нечего".
var noImprovementPhrases = []string{
	"Current response is already good",
	"No improvement needed",
}

// DefaultTemperature - температура запроса рефлексии по умолчанию.
const DefaultTemperature = 0.7

// Reflector - самопроверка ответа агента.
//
// Нулевой или выключенный Reflector ничего не делает.
type Reflector struct {
	provider     llm.Provider
	prompts      *prompt.Set
	enabled      bool
	temperature  float64
	maxTokens    int
	systemPrompt string
}

// Option настраивает Reflector.
type Option func(*Reflector)

// WithEnabled включает или выключает рефлексию.
func WithEnabled(enabled bool) Option {
	return func(r *Reflector) { r.enabled = enabled }
}

// WithTemperature задаёт температуру запроса критики.
func WithTemperature(t float64) Option {
	return func(r *Reflector) { r.temperature = t }
}

// WithMaxTokens ограничивает длину ответа критики. 0 - без ограничения.
func WithMaxTokens(n int) Option {
	return func(r *Reflector) { r.maxTokens = n }
}

// WithPrompts подменяет набор промптов (reflection.yaml).
func WithPrompts(set *prompt.Set) Option {
	return func(r *Reflector) {
		if set != nil {
			r.prompts = set
		}
	}
}

// WithSystemPrompt переопределяет system сообщение критики.
func WithSystemPrompt(s string) Option {
	return func(r *Reflector) { r.systemPrompt = s }
}

// New создаёт включённый Reflector поверх провайдера.
//
// Провайдер передаётся без retry-обёртки: повторы относятся только к
// основному циклу агента.
func New(provider llm.Provider, opts ...Option) *Reflector {
	r := &Reflector{
		provider:    provider,
		prompts:     prompt.Defaults(),
		enabled:     true,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.prompts.Reflection != nil && r.prompts.Reflection.Config.Temperature != nil {
		r.temperature = *r.prompts.Reflection.Config.Temperature
	}
	if r.maxTokens == 0 && r.prompts.Reflection != nil {
		r.maxTokens = r.prompts.Reflection.Config.MaxTokens
	}
	return r
}

// Enabled сообщает, будет ли Reflect обращаться к модели.
func (r *Reflector) Enabled() bool {
	return r != nil && r.enabled && r.provider != nil
}

// Reflect возвращает улучшенный ответ или answer без изменений.
func (r *Reflector) Reflect(ctx context.Context, query, answer string) string {
	if !r.Enabled() {
		utils.Debug("Reflector disabled, skipping")
		return answer
	}
	if strings.TrimSpace(answer) == "" {
		utils.Debug("Reflector: empty response, skipping")
		return answer
	}

	messages, err := r.BuildPrompt(query, answer)
	if err != nil {
		utils.Error("Reflector: prompt render failed", "error", err)
		return answer
	}

	opts := []llm.GenerateOption{llm.WithTemperature(r.temperature)}
	if r.maxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(r.maxTokens))
	}

	start := time.Now()
	reply, err := r.provider.Generate(ctx, messages, opts...)
	if err != nil {
		utils.Error("Reflector: critique request failed", "error", err, "duration", time.Since(start))
		return answer
	}
	utils.Debug("Reflector: critique received", "content", utils.TruncateContent(reply.Content, 100))

	improved, ok := ExtractImprovement(reply.Content)
	if !ok || improved == answer {
		utils.Debug("Reflector: no significant improvement")
		return answer
	}

	utils.Info("Reflector produced an improved response", "duration", time.Since(start))
	return improved
}

// BuildPrompt собирает сообщения запроса критики.
func (r *Reflector) BuildPrompt(query, answer string) ([]llm.Message, error) {
	set := prompt.Defaults()
	if r != nil && r.prompts != nil {
		set = r.prompts
	}

	rendered, err := set.ReflectionMessages(query, answer)
	if err != nil {
		return nil, fmt.Errorf("reflection prompt: %w", err)
	}

	messages := make([]llm.Message, 0, len(rendered))
	for _, m := range rendered {
		msg := llm.Message{Role: llm.Role(m.Role), Content: m.Content}
		if msg.Role == llm.RoleSystem && r != nil && r.systemPrompt != "" {
			msg.Content = r.systemPrompt
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ExtractImprovement ищет улучшенную версию в ответе критики.
//
// Берётся текст после первого найденного маркера (в порядке списка).
// ok=false, если маркера нет или модель сочла ответ хорошим.
func ExtractImprovement(critique string) (string, bool) {
	for _, marker := range improvementMarkers {
		if _, after, found := strings.Cut(critique, marker); found {
			improved := strings.TrimSpace(after)
			return improved, improved != ""
		}
	}

	for _, phrase := range noImprovementPhrases {
		if strings.Contains(critique, phrase) {
			utils.Debug("Reflector: model reports no improvement needed", "phrase", phrase)
			return "", false
		}
	}

	return "", false
}
