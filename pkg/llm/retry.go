package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
	"golang.org/x/time/rate"
)

// RetryPolicy - параметры повторов вызова модели.
type RetryPolicy struct {
	// MaxAttempts - общее число попыток, включая первую.
	MaxAttempts int

	// MinDelay и MaxDelay ограничивают паузу между попытками.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy - 3 попытки, пауза от 1s до 60s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		MinDelay:    time.Second,
		MaxDelay:    60 * time.Second,
	}
}

// Backoff возвращает паузу перед попыткой attempt+1 (attempt с нуля).
//
// Randomized exponential: равномерно из [0, min(MaxDelay, MinDelay*2^(attempt+1))],
// затем зажимается в [MinDelay, MaxDelay]. jitter - значение из [0, 1).
func (p RetryPolicy) Backoff(attempt int, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}

	high := p.MinDelay * time.Duration(int64(1)<<uint(attempt+1))
	if p.MaxDelay > 0 && (high > p.MaxDelay || high <= 0) {
		high = p.MaxDelay
	}

	delay := time.Duration(jitter * float64(high))
	if delay < p.MinDelay {
		delay = p.MinDelay
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// RetryProvider оборачивает Provider повторами с backoff.
//
// Повторяются только ошибки, для которых IsTransient == true. Ответ модели,
// который не удалось разобрать, ошибкой не является и здесь не виден.
// Опционально ограничивает частоту запросов через rate.Limiter.
type RetryProvider struct {
	next    Provider
	policy  RetryPolicy
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func() float64
}

// RetryOption настраивает RetryProvider.
type RetryOption func(*RetryProvider)

// WithRateLimit ограничивает число запросов в минуту (0 - без ограничения).
func WithRateLimit(requestsPerMinute int) RetryOption {
	return func(r *RetryProvider) {
		if requestsPerMinute > 0 {
			r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
		}
	}
}

// WithSleeper подменяет ожидание между попытками (для тестов).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryProvider) {
		r.sleep = sleep
	}
}

// WithJitter подменяет источник случайности backoff (для тестов).
func WithJitter(jitter func() float64) RetryOption {
	return func(r *RetryProvider) {
		r.jitter = jitter
	}
}

// NewRetryProvider создаёт обёртку над next.
func NewRetryProvider(next Provider, policy RetryPolicy, opts ...RetryOption) *RetryProvider {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	r := &RetryProvider{
		next:   next,
		policy: policy,
		sleep:  sleepContext,
		jitter: rand.Float64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate вызывает next.Generate, повторяя временные сбои транспорта.
func (r *RetryProvider) Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error) {
	var lastErr error

	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return Message{}, fmt.Errorf("rate limiter: %w", err)
			}
		}

		resp, err := r.next.Generate(ctx, messages, opts...)
		if err == nil {
			return resp, nil
		}

		if !IsTransient(err) {
			return Message{}, err
		}
		lastErr = err

		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		delay := r.policy.Backoff(attempt, r.jitter())
		utils.Warn("Model call failed, retrying",
			"attempt", attempt+1,
			"max_attempts", r.policy.MaxAttempts,
			"delay", delay,
			"error", err)

		if err := r.sleep(ctx, delay); err != nil {
			return Message{}, err
		}
	}

	return Message{}, fmt.Errorf("model call failed after %d attempts: %w", r.policy.MaxAttempts, lastErr)
}

// sleepContext ждёт d или отмены ctx.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Provider = (*RetryProvider)(nil)
