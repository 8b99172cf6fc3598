package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse возвращается, когда провайдер ответил без choices.
var ErrEmptyResponse = errors.New("no choices in response")

// TransportError - сбой обмена с model endpoint.
//
// StatusCode == 0 означает сетевую ошибку (соединение, DNS, таймаут),
// иначе - HTTP-статус ответа. Retryable решает, повторит ли RetryProvider запрос.
type TransportError struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

// Error реализует error.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: transport error (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError классифицирует сбой по HTTP-статусу.
//
// Повторяются: сетевые ошибки, 408, 429 и все 5xx. Отмена контекста
// никогда не повторяется.
func NewTransportError(op string, statusCode int, err error) *TransportError {
	retryable := statusCode == 0 ||
		statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= 500

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		retryable = false
	}

	return &TransportError{
		Op:         op,
		StatusCode: statusCode,
		Retryable:  retryable,
		Err:        err,
	}
}

// IsTransient сообщает, можно ли повторить запрос после err.
func IsTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}
