package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ZhuLinsen/MiniAgent/pkg/conversation"
	"github.com/ZhuLinsen/MiniAgent/pkg/debug"
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
	"github.com/ZhuLinsen/MiniAgent/pkg/extract"
	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
	"github.com/ZhuLinsen/MiniAgent/pkg/prompt"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// run - состояние одного запуска. История принадлежит только ему.
type run struct {
	agent   *Agent
	id      string
	query   string
	start   time.Time
	emitter events.Emitter

	transcript *conversation.Transcript
	genOpts    []llm.GenerateOption

	iterations int
	modelCalls int

	lastModelDuration time.Duration
}

// Run выполняет запрос пользователя.
//
// Цикл:
//  1. запрос к модели с текущей историей;
//  2. ответ добавляется в историю и классифицируется extract.Extractor;
//  3. финальный ответ (возможно, после рефлексии) завершает цикл;
//  4. вызовы инструментов выполняются по порядку, результаты попадают
//     в историю (role=tool для structured, user-сообщение для текстового режима);
//  5. после maxIterations шагов с инструментами возвращается содержимое
//     последнего сообщения со Status=StatusBudgetExhausted.
//
// Ошибка возвращается только при сбое модели (после повторов провайдера),
// отмене ctx или нарушении порядка истории. Outcome при этом всё равно
// заполнен: история остаётся согласованной и доступной для анализа.
func (a *Agent) Run(ctx context.Context, query string) (Outcome, error) {
	r, err := a.newRun(query)
	if err != nil {
		return Outcome{}, err
	}

	utils.Info("Running agent query", "run_id", r.id, "query", utils.TruncateContent(query, 200))

	outcome, err := r.loop(ctx)
	outcome.Duration = time.Since(r.start)

	if err != nil {
		utils.Error("Agent query failed", "run_id", r.id, "error", err)
		r.emit(ctx, events.EventError, events.ErrorData{RunID: r.id, Err: err})
		return outcome, err
	}

	utils.Info("Agent query completed",
		"run_id", r.id,
		"status", outcome.Status,
		"iterations", outcome.Iterations,
		"model_calls", outcome.ModelCalls,
		"duration", outcome.Duration)

	r.emit(ctx, events.EventDone, events.DoneData{
		RunID:      r.id,
		Answer:     outcome.Answer,
		Status:     string(outcome.Status),
		Iterations: outcome.Iterations,
		ModelCalls: outcome.ModelCalls,
		Reflected:  outcome.Reflected,
		Duration:   outcome.Duration,
	})
	return outcome, nil
}

func (a *Agent) newRun(query string) (*run, error) {
	r := &run{
		agent:   a,
		id:      uuid.NewString(),
		query:   query,
		start:   time.Now(),
		emitter: a.emitter,
	}

	if a.traceDir != "" {
		rec, err := debug.NewRecorder(debug.DefaultRecorderConfig(a.traceDir))
		if err != nil {
			utils.Warn("Trace recorder disabled", "dir", a.traceDir, "error", err)
		} else {
			rec.SetRunID(r.id)
			r.emitter = events.Multi(a.emitter, rec)
		}
	}

	system, err := a.buildSystemPrompt()
	if err != nil {
		return nil, err
	}

	r.transcript = conversation.New(system)
	if err := r.transcript.AppendUser(query); err != nil {
		return nil, err
	}

	r.genOpts = a.generateOptions()
	return r, nil
}

// buildSystemPrompt добавляет описание инструментов, если ответы модели
// разбираются как текст.
func (a *Agent) buildSystemPrompt() (string, error) {
	if a.mode == extract.ModeStructured {
		return a.systemPrompt, nil
	}

	system, err := a.prompts.System(prompt.SystemData{
		SystemPrompt: a.systemPrompt,
		Tools:        a.registry.Describe(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to build system prompt: %w", err)
	}
	return system, nil
}

func (a *Agent) generateOptions() []llm.GenerateOption {
	var opts []llm.GenerateOption
	if a.model != "" {
		opts = append(opts, llm.WithModel(a.model))
	}
	if a.temperature != nil {
		opts = append(opts, llm.WithTemperature(*a.temperature))
	}
	if a.maxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(a.maxTokens))
	}
	if a.mode != extract.ModeText && a.registry.Len() > 0 {
		opts = append(opts, llm.WithFunctions(a.registry.FunctionDefs()))
	}
	return opts
}

func (r *run) loop(ctx context.Context) (Outcome, error) {
	a := r.agent

	for {
		utils.Info("Iteration", "run_id", r.id, "n", r.iterations+1, "max", a.maxIterations)

		reply, err := r.callModel(ctx)
		if err != nil {
			return r.outcome(""), err
		}

		decision := a.extractor.Extract(reply)
		if err := r.appendReply(ctx, reply, decision); err != nil {
			return r.outcome(""), err
		}

		if decision.IsFinal() {
			return r.finish(ctx, decision.Answer), nil
		}

		if err := r.executeCalls(ctx, decision); err != nil {
			return r.outcome(""), err
		}

		r.iterations++
		if r.iterations >= a.maxIterations {
			return r.exhausted(ctx), nil
		}
	}
}

// callModel - граница отмены: перед запросом проверяется ctx.
func (r *run) callModel(ctx context.Context) (llm.Message, error) {
	if err := ctx.Err(); err != nil {
		return llm.Message{}, err
	}

	messages := r.transcript.Messages()
	r.emit(ctx, events.EventThinking, events.ThinkingData{
		RunID:         r.id,
		Query:         r.query,
		Iteration:     r.iterations + 1,
		MessagesCount: len(messages),
		Model:         r.agent.model,
	})

	start := time.Now()
	reply, err := r.agent.provider.Generate(ctx, messages, r.genOpts...)
	r.modelCalls++
	r.lastModelDuration = time.Since(start)
	if err != nil {
		return llm.Message{}, fmt.Errorf("model call failed: %w", err)
	}

	utils.Debug("Model replied",
		"run_id", r.id,
		"duration_ms", r.lastModelDuration.Milliseconds(),
		"tool_calls", len(reply.ToolCalls),
		"content", utils.TruncateContent(reply.Content, 200))

	return reply, nil
}

// appendReply добавляет ответ модели в историю. Для structured вызовов
// сохраняются ToolCalls с итоговыми ID, чтобы ответы role=tool ссылались на них.
func (r *run) appendReply(ctx context.Context, reply llm.Message, d extract.Decision) error {
	msg := llm.Message{Role: llm.RoleAssistant, Content: reply.Content}

	var calls []events.ToolCallData
	for i, req := range d.Calls {
		raw := encodeArgs(req.Args)
		if d.Source == extract.SourceStructured {
			if i < len(reply.ToolCalls) {
				raw = reply.ToolCalls[i].Args
			}
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{ID: req.ID, Name: req.Name, Args: raw})
		}
		calls = append(calls, events.ToolCallData{
			RunID:     r.id,
			Iteration: r.iterations + 1,
			ID:        req.ID,
			ToolName:  req.Name,
			Args:      raw,
			Source:    string(d.Source),
		})
	}

	if err := r.transcript.Append(msg); err != nil {
		return fmt.Errorf("append assistant reply: %w", err)
	}

	r.emit(ctx, events.EventMessage, events.MessageData{
		RunID:     r.id,
		Iteration: r.iterations + 1,
		Content:   reply.Content,
		ToolCalls: calls,
		Duration:  r.lastModelDuration,
	})
	return nil
}

// executeCalls выполняет вызовы строго по порядку. Граница отмены -
// перед каждым вызовом; оставшиеся вызовы получают ответ с ошибкой
// отмены, чтобы у каждого tool_call_id был результат.
func (r *run) executeCalls(ctx context.Context, d extract.Decision) error {
	for i, req := range d.Calls {
		if err := ctx.Err(); err != nil {
			if d.Source == extract.SourceStructured {
				for _, rest := range d.Calls[i:] {
					if appendErr := r.transcript.AppendToolResult(rest.ID, rest.Name, fmt.Sprintf("Error executing tool: %v", err)); appendErr != nil {
						utils.Warn("Failed to record canceled tool call",
							"run_id", r.id,
							"tool", rest.Name,
							"call_id", rest.ID,
							"error", appendErr)
					}
				}
			}
			return err
		}

		r.emit(ctx, events.EventToolCall, events.ToolCallData{
			RunID:     r.id,
			Iteration: r.iterations + 1,
			ID:        req.ID,
			ToolName:  req.Name,
			Args:      encodeArgs(req.Args),
			Source:    string(d.Source),
		})

		res := r.agent.invoker.Invoke(ctx, req)
		text := utils.TruncateContent(res.Text(), r.agent.maxResultChars)

		data := events.ToolResultData{
			RunID:     r.id,
			Iteration: r.iterations + 1,
			ID:        req.ID,
			ToolName:  req.Name,
			Result:    text,
			Duration:  res.Duration,
		}
		if res.Err != nil {
			data.Error = res.Err.Error()
		}
		r.emit(ctx, events.EventToolResult, data)

		if err := r.appendToolResult(d.Source, res, text); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) appendToolResult(source extract.Source, res tools.Result, text string) error {
	if source == extract.SourceStructured {
		if err := r.transcript.AppendToolResult(res.ID, res.Name, text); err != nil {
			return fmt.Errorf("append tool result: %w", err)
		}
		return nil
	}

	content, err := r.agent.prompts.ToolResultMessage(res.Name, text)
	if err != nil {
		return err
	}
	if err := r.transcript.AppendUser(content); err != nil {
		return fmt.Errorf("append tool result: %w", err)
	}
	return nil
}

func (r *run) finish(ctx context.Context, answer string) Outcome {
	out := r.outcome(answer)
	out.Status = StatusFinal

	if refl := r.agent.reflector; refl.Enabled() {
		improved := refl.Reflect(ctx, r.query, answer)
		out.Reflected = improved != answer
		out.Answer = improved
		r.emit(ctx, events.EventReflection, events.ReflectionData{
			RunID:    r.id,
			Original: answer,
			Answer:   improved,
			Changed:  out.Reflected,
		})
	}
	return out
}

func (r *run) exhausted(ctx context.Context) Outcome {
	out := r.outcome(r.transcript.Last().Content)
	out.Status = StatusBudgetExhausted

	utils.Warn("Reached maximum iterations", "run_id", r.id, "max", r.agent.maxIterations)
	r.emit(ctx, events.EventBudgetExhausted, events.BudgetData{
		RunID:      r.id,
		Iterations: r.iterations,
		Answer:     out.Answer,
	})
	return out
}

func (r *run) outcome(answer string) Outcome {
	return Outcome{
		RunID:      r.id,
		Answer:     answer,
		Iterations: r.iterations,
		ModelCalls: r.modelCalls,
		Transcript: r.transcript.Messages(),
	}
}

func (r *run) emit(ctx context.Context, typ events.EventType, data events.EventData) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(ctx, events.New(typ, data))
}

func encodeArgs(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
