package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProbeResult - итог одной проверки провайдера.
type ProbeResult struct {
	Name      string
	OK        bool
	Content   string
	ToolCalls []ToolCall
	Latency   time.Duration
	Err       error
}

// Тексты проверок validate-llm.
const (
	probeConnectionPrompt = "Please reply with the two words 'Test successful' and nothing else"
	probeCapabilityText   = "Artificial intelligence is a branch of computer science dedicated to creating machines " +
		"capable of simulating human intelligence. It involves developing systems that can perceive, reason, learn, " +
		"and make decisions. The applications of artificial intelligence are wide-ranging, including natural language " +
		"processing, computer vision, robotics, and expert systems."
	probeToolPrompt = "Calculate 1234 multiplied by 5678."
)

// ProbeCalculator - функция, которую модели предлагают в ProbeToolCalling.
var ProbeCalculator = FunctionDef{
	Name:        "calculator",
	Description: "Perform simple mathematical calculations",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "The mathematical expression to calculate, such as '2+2' or '5*6'",
			},
		},
		"required": []string{"expression"},
	},
}

// ProbeConnection проверяет, что endpoint отвечает на короткий запрос.
func ProbeConnection(ctx context.Context, p Provider) ProbeResult {
	return probe(ctx, p, "connection", probeConnectionPrompt, WithMaxTokens(10))
}

// ProbeCapabilities просит модель сформулировать вопрос по тексту.
func ProbeCapabilities(ctx context.Context, p Provider) ProbeResult {
	prompt := "Based on the following text, generate a high-quality question. " +
		"The question should have clear direction and test understanding of the core content:\n" + probeCapabilityText
	return probe(ctx, p, "capabilities", prompt, WithMaxTokens(500))
}

// ProbeToolCalling предлагает модели calculator и проверяет, вернула ли она
// структурированный вызов. Ответ без ToolCalls не считается ошибкой:
// модель может описать вызов текстом, тогда агент работает в text mode.
func ProbeToolCalling(ctx context.Context, p Provider) ProbeResult {
	return probe(ctx, p, "tool_calling", probeToolPrompt,
		WithMaxTokens(500), WithFunctions([]FunctionDef{ProbeCalculator}))
}

func probe(ctx context.Context, p Provider, name, prompt string, opts ...GenerateOption) ProbeResult {
	start := time.Now()
	reply, err := p.Generate(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
	res := ProbeResult{
		Name:    name,
		Latency: time.Since(start),
	}
	if err != nil {
		res.Err = fmt.Errorf("%s probe: %w", name, err)
		return res
	}

	res.OK = true
	res.Content = strings.TrimSpace(reply.Content)
	res.ToolCalls = reply.ToolCalls
	return res
}
