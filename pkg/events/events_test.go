package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestChanEmitter_Deliver(t *testing.T) {
	e := NewChanEmitter(4)
	sub := e.Subscribe()

	e.Emit(context.Background(), New(EventThinking, ThinkingData{Query: "hi", Iteration: 1}))
	e.Emit(context.Background(), New(EventDone, DoneData{Answer: "hello"}))
	e.Close()

	var got []EventType
	for ev := range sub.Events() {
		got = append(got, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	}
	assert.Equal(t, []EventType{EventThinking, EventDone}, got)
}

func TestChanEmitter_EmitAfterClose(t *testing.T) {
	e := NewChanEmitter(1)
	e.Close()
	e.Close()

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), New(EventDone, DoneData{}))
	})
}

func TestChanEmitter_ContextCancel(t *testing.T) {
	e := NewChanEmitter(0)
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	e.Emit(ctx, New(EventThinking, ThinkingData{}))
	assert.Less(t, time.Since(start), time.Second)
}

func TestChanEmitter_CloseUnblocksEmit(t *testing.T) {
	e := NewChanEmitter(0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Emit(context.Background(), New(EventThinking, ThinkingData{}))
	}()

	time.Sleep(10 * time.Millisecond)
	e.Close()
	wg.Wait()
}

func TestMulti(t *testing.T) {
	var mu sync.Mutex
	var got []string

	record := func(name string) Emitter {
		return EmitterFunc(func(ctx context.Context, ev Event) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+string(ev.Type))
		})
	}

	m := Multi(record("a"), nil, record("b"))
	m.Emit(context.Background(), New(EventError, ErrorData{}))

	require.Len(t, got, 2)
	assert.Equal(t, []string{"a:error", "b:error"}, got)
}
