package tools

import (
	"errors"
	"fmt"
)

// Ошибки инструментов.
var (
	// ErrToolNotFound - инструмента с таким именем нет в реестре.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments - аргументы не прошли разбор или проверку схемой.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrToolExecution - инструмент вернул ошибку или паниковал.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrDuplicateTool - имя уже занято в реестре.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrInvalidDefinition - определение инструмента не валидно.
	ErrInvalidDefinition = errors.New("invalid tool definition")
)

// ToolError связывает ошибку с именем инструмента.
type ToolError struct {
	Tool string
	Err  error
}

// Error реализует error.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %v", e.Tool, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *ToolError) Unwrap() error { return e.Err }

func toolErr(name string, kind error, cause error) error {
	if cause == nil {
		return &ToolError{Tool: name, Err: kind}
	}
	return &ToolError{Tool: name, Err: fmt.Errorf("%w: %w", kind, cause)}
}
