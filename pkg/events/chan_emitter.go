package events

import (
	"context"
	"sync"
)

// ChanEmitter - стандартная реализация Emitter через канал.
//
// Thread-safe. Emit после Close ничего не делает.
type ChanEmitter struct {
	mu     sync.RWMutex
	ch     chan Event
	done   chan struct{}
	once   sync.Once
	closed bool
}

// NewChanEmitter создаёт новый ChanEmitter с буферизованным каналом.
//
// buffer определяет размер буфера канала.
// Если buffer = 0, канал будет небуферизованным (blocking).
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// Emit отправляет событие в канал.
//
// Блокируется, пока событие не прочитано (или есть место в буфере),
// context не отменён или emitter не закрыт.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	select {
	case e.ch <- event:
	case <-ctx.Done():
	case <-e.done:
	}
}

// Subscribe возвращает Subscriber для чтения событий.
//
// Все подписчики читают из одного канала: каждое событие получает один из них.
func (e *ChanEmitter) Subscribe() Subscriber {
	return &chanSubscriber{ch: e.ch}
}

// Close закрывает канал и освобождает ресурсы.
//
// Заблокированные Emit разблокируются до закрытия канала.
func (e *ChanEmitter) Close() {
	e.once.Do(func() {
		close(e.done)

		e.mu.Lock()
		defer e.mu.Unlock()
		e.closed = true
		close(e.ch)
	})
}

// chanSubscriber реализует Subscriber интерфейс.
type chanSubscriber struct {
	ch <-chan Event
}

// Events возвращает read-only канал событий.
func (s *chanSubscriber) Events() <-chan Event {
	return s.ch
}

// Close - no-op: реальный канал закрывается только через ChanEmitter.Close().
func (s *chanSubscriber) Close() {}

var (
	_ Emitter    = (*ChanEmitter)(nil)
	_ Emitter    = EmitterFunc(nil)
	_ Subscriber = (*chanSubscriber)(nil)
)
