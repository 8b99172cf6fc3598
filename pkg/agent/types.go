package agent

import (
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/llm"
)

// Status - как завершился запуск.
type Status string

const (
	// StatusFinal - модель дала финальный ответ.
	StatusFinal Status = "final"

	// StatusBudgetExhausted - лимит итераций исчерпан, ответ деградированный:
	// это содержимое последнего сообщения истории, а не ответ модели.
	StatusBudgetExhausted Status = "budget_exhausted"
)

// Outcome - итог одного запуска Run.
type Outcome struct {
	RunID  string
	Answer string
	Status Status

	// Iterations - число выполненных шагов с инструментами.
	Iterations int

	// ModelCalls - число запросов к модели в цикле (без рефлексии).
	ModelCalls int

	// Reflected - ответ был заменён рефлексией.
	Reflected bool

	// Transcript - копия истории на момент завершения.
	Transcript []llm.Message

	Duration time.Duration
}

// Degraded сообщает, что ответ не является финальным ответом модели.
func (o Outcome) Degraded() bool {
	return o.Status == StatusBudgetExhausted
}

// Result - значение из канала RunAsync.
type Result struct {
	Outcome Outcome
	Err     error
}
