package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZhuLinsen/MiniAgent/pkg/events"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// Recorder записывает трейс одного запуска агента и сохраняет его в JSON файл.
//
// Recorder реализует events.Emitter: его можно подключить к агенту напрямую
// (или через events.Multi вместе с UI). По событию EventDone/EventError
// трейс сохраняется автоматически.
//
// Потокобезопасен. Один Recorder на один запуск.
type Recorder struct {
	mu sync.Mutex

	config RecorderConfig

	log DebugLog

	// current - текущая итерация (заполняется по мере выполнения)
	current *Iteration

	// pendingArgs - аргументы вызовов, ожидающих результата (по ID)
	pendingArgs map[string]string

	visited map[string]struct{}
	errors  []string

	savedPath string
	saveErr   error
}

// RecorderConfig конфигурация для создания Recorder.
type RecorderConfig struct {
	// LogsDir - директория для сохранения логов (пусто = текущая)
	LogsDir string

	// IncludeToolArgs - включать аргументы инструментов в лог
	IncludeToolArgs bool

	// IncludeToolResults - включать результаты инструментов в лог
	IncludeToolResults bool

	// MaxResultSize - максимальный размер результата (превышение обрезается).
	// 0 означает без ограничений
	MaxResultSize int
}

// DefaultRecorderConfig - аргументы и результаты включены, результат до 4000 символов.
func DefaultRecorderConfig(dir string) RecorderConfig {
	return RecorderConfig{
		LogsDir:            dir,
		IncludeToolArgs:    true,
		IncludeToolResults: true,
		MaxResultSize:      4000,
	}
}

// NewRecorder создает новый Recorder с заданной конфигурацией.
//
// Если LogsDir не существует, пытается создать её.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	return &Recorder{
		config: cfg,
		log: DebugLog{
			RunID:     uuid.NewString(),
			Timestamp: time.Now(),
		},
		pendingArgs: make(map[string]string),
		visited:     make(map[string]struct{}),
	}, nil
}

// RunID возвращает идентификатор запуска.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.RunID
}

// SetRunID задаёт идентификатор запуска (агент передаёт свой).
func (r *Recorder) SetRunID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		r.log.RunID = id
	}
}

// Path возвращает путь сохранённого файла (пусто, если ещё не сохранён) и ошибку сохранения.
func (r *Recorder) Path() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.savedPath, r.saveErr
}

// Emit реализует events.Emitter.
func (r *Recorder) Emit(_ context.Context, ev events.Event) {
	switch data := ev.Data.(type) {
	case events.ThinkingData:
		r.Start(data.Query, data.Model)
		r.StartIteration(data.Iteration, LLMRequest{Model: data.Model, MessagesCount: data.MessagesCount})

	case events.MessageData:
		resp := LLMResponse{Content: data.Content, Duration: data.Duration.Milliseconds()}
		for _, c := range data.ToolCalls {
			resp.ToolCalls = append(resp.ToolCalls, ToolCallInfo{ID: c.ID, Name: c.ToolName, Args: c.Args, Source: c.Source})
		}
		r.RecordLLMResponse(resp)

	case events.ToolCallData:
		r.mu.Lock()
		r.pendingArgs[data.ID] = data.Args
		r.mu.Unlock()

	case events.ToolResultData:
		r.mu.Lock()
		args := r.pendingArgs[data.ID]
		delete(r.pendingArgs, data.ID)
		r.mu.Unlock()

		r.RecordToolExecution(ToolExecution{
			ID:       data.ID,
			Name:     data.ToolName,
			Args:     args,
			Result:   data.Result,
			Duration: data.Duration.Milliseconds(),
			Success:  data.Error == "",
			Error:    data.Error,
		})

	case events.ReflectionData:
		r.mu.Lock()
		r.log.Reflection = &Reflection{Changed: data.Changed}
		if data.Changed {
			r.log.Reflection.Original = data.Original
		}
		r.mu.Unlock()

	case events.BudgetData:
		r.mu.Lock()
		r.errors = append(r.errors, fmt.Sprintf("iteration budget exhausted after %d iterations", data.Iterations))
		r.mu.Unlock()

	case events.ErrorData:
		r.mu.Lock()
		if data.Err != nil {
			r.log.Error = data.Err.Error()
		}
		r.mu.Unlock()
		r.save("", time.Since(r.startedAt()))

	case events.DoneData:
		r.mu.Lock()
		r.log.Status = data.Status
		r.mu.Unlock()
		r.save(data.Answer, data.Duration)
	}
}

func (r *Recorder) startedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Timestamp
}

func (r *Recorder) save(answer string, d time.Duration) {
	path, err := r.Finalize(answer, d)
	if err != nil {
		utils.Error("Failed to save debug trace", "error", err)
		return
	}
	utils.Debug("Debug trace saved", "path", path)
}

// Start запоминает запрос пользователя (только первый вызов).
func (r *Recorder) Start(userQuery, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.log.UserQuery == "" {
		r.log.UserQuery = userQuery
		r.log.Model = model
		r.log.Timestamp = time.Now()
	}
}

// StartIteration начинает запись новой итерации (предыдущая закрывается).
func (r *Recorder) StartIteration(num int, req LLMRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endIterationLocked()
	r.current = &Iteration{
		Number:     num,
		LLMRequest: req,
		started:    time.Now(),
	}
}

// RecordLLMResponse записывает ответ модели.
func (r *Recorder) RecordLLMResponse(resp LLMResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return
	}
	r.current.LLMResponse = resp
	r.current.IsFinal = len(resp.ToolCalls) == 0
	if resp.Error != "" {
		r.errors = append(r.errors, fmt.Sprintf("LLM error: %s", resp.Error))
	}
}

// RecordToolExecution записывает выполнение инструмента.
func (r *Recorder) RecordToolExecution(exec ToolExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return
	}

	// Применяем конфигурацию включения/обрезки данных
	if !r.config.IncludeToolArgs {
		exec.Args = ""
	}
	if !r.config.IncludeToolResults {
		exec.Result = ""
	} else if r.config.MaxResultSize > 0 && len([]rune(exec.Result)) > r.config.MaxResultSize {
		exec.Result = utils.TruncateContent(exec.Result, r.config.MaxResultSize)
		exec.ResultTruncated = true
	}

	r.current.ToolsExecuted = append(r.current.ToolsExecuted, exec)

	if _, seen := r.visited[exec.Name]; !seen {
		r.visited[exec.Name] = struct{}{}
		r.log.Summary.VisitedTools = append(r.log.Summary.VisitedTools, exec.Name)
	}

	if !exec.Success && exec.Error != "" {
		r.errors = append(r.errors, fmt.Sprintf("Tool %s: %s", exec.Name, exec.Error))
	}
}

// EndIteration завершает текущую итерацию.
func (r *Recorder) EndIteration() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endIterationLocked()
}

func (r *Recorder) endIterationLocked() {
	if r.current == nil {
		return
	}
	r.current.Duration = time.Since(r.current.started).Milliseconds()
	r.log.Iterations = append(r.log.Iterations, *r.current)
	r.current = nil
}

// Snapshot возвращает копию накопленного трейса (без сохранения).
func (r *Recorder) Snapshot() DebugLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.log
	log.Iterations = append([]Iteration(nil), r.log.Iterations...)
	if r.current != nil {
		log.Iterations = append(log.Iterations, *r.current)
	}
	return log
}

// Finalize завершает запись и сохраняет лог в файл.
//
// Возвращает путь к сохраненному файлу или ошибку.
func (r *Recorder) Finalize(finalResult string, duration time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endIterationLocked()

	r.log.FinalResult = finalResult
	r.log.Duration = duration.Milliseconds()
	r.buildSummary()

	data, err := json.MarshalIndent(r.log, "", "  ")
	if err != nil {
		r.saveErr = fmt.Errorf("failed to marshal debug log: %w", err)
		return "", r.saveErr
	}

	filePath := r.filePath()
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		r.saveErr = fmt.Errorf("failed to write debug log: %w", err)
		return "", r.saveErr
	}

	r.savedPath, r.saveErr = filePath, nil
	return filePath, nil
}

// buildSummary формирует агрегированную статистику. Вызывать под mu.
func (r *Recorder) buildSummary() {
	s := &r.log.Summary
	s.Errors = append([]string(nil), r.errors...)
	s.TotalLLMCalls, s.TotalToolsExecuted = 0, 0
	s.TotalLLMDuration, s.TotalToolDuration = 0, 0

	for _, iter := range r.log.Iterations {
		s.TotalLLMCalls++
		s.TotalLLMDuration += iter.LLMResponse.Duration
		for _, tool := range iter.ToolsExecuted {
			s.TotalToolsExecuted++
			s.TotalToolDuration += tool.Duration
		}
	}
}

// filePath возвращает путь к файлу для сохранения.
func (r *Recorder) filePath() string {
	name := "run-" + r.log.RunID + ".json"
	if r.config.LogsDir != "" {
		return filepath.Join(r.config.LogsDir, name)
	}
	return name
}

var _ events.Emitter = (*Recorder)(nil)
