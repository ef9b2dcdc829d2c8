package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishAwaitsAllHandlers(t *testing.T) {
	b := New()
	var count int64

	for i := 0; i < 5; i++ {
		b.Subscribe(AgentStart, func(ctx context.Context, payload any) error {
			atomic.AddInt64(&count, 1)
			return nil
		})
	}

	b.PublishAsync(context.Background(), AgentStart, "payload")
	assert.EqualValues(t, 5, atomic.LoadInt64(&count), "PublishAsync must await every handler")
}

func TestBus_HandlerErrorIsIsolated(t *testing.T) {
	b := New()
	var ok int64

	b.Subscribe(AgentError, func(ctx context.Context, payload any) error {
		return errors.New("observer broke")
	})
	b.Subscribe(AgentError, func(ctx context.Context, payload any) error {
		atomic.AddInt64(&ok, 1)
		return nil
	})

	// Must not panic and must still run the healthy handler.
	b.PublishAsync(context.Background(), AgentError, nil)
	assert.EqualValues(t, 1, atomic.LoadInt64(&ok))
}

func TestBus_HandlerPanicIsIsolated(t *testing.T) {
	b := New()
	var ok int64

	b.Subscribe(ResponseReady, func(ctx context.Context, payload any) error {
		panic("observer panic")
	})
	b.Subscribe(ResponseReady, func(ctx context.Context, payload any) error {
		atomic.AddInt64(&ok, 1)
		return nil
	})

	b.PublishAsync(context.Background(), ResponseReady, nil)
	assert.EqualValues(t, 1, atomic.LoadInt64(&ok))
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	var count int64

	sub := b.Subscribe(IntentDetected, func(ctx context.Context, payload any) error {
		atomic.AddInt64(&count, 1)
		return nil
	})

	b.PublishAsync(context.Background(), IntentDetected, nil)
	b.Unsubscribe(sub)
	b.PublishAsync(context.Background(), IntentDetected, nil)

	assert.EqualValues(t, 1, atomic.LoadInt64(&count))
}

func TestBus_Once(t *testing.T) {
	b := New()
	var count int64

	b.Once(AgentComplete, func(ctx context.Context, payload any) error {
		atomic.AddInt64(&count, 1)
		return nil
	})

	b.PublishAsync(context.Background(), AgentComplete, nil)
	b.PublishAsync(context.Background(), AgentComplete, nil)

	assert.EqualValues(t, 1, atomic.LoadInt64(&count))
}

func TestBus_ClearAndEvents(t *testing.T) {
	b := New()
	b.Subscribe(AgentStart, func(ctx context.Context, payload any) error { return nil })
	b.Subscribe(AgentComplete, func(ctx context.Context, payload any) error { return nil })

	assert.Len(t, b.Events(), 2)

	b.Clear(AgentStart)
	assert.Len(t, b.Events(), 1)

	b.Clear("")
	assert.Empty(t, b.Events())
}

func TestBus_ConcurrentPublish(t *testing.T) {
	b := New()
	var count int64
	b.Subscribe(MemoryUpdated, func(ctx context.Context, payload any) error {
		atomic.AddInt64(&count, 1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.PublishAsync(context.Background(), MemoryUpdated, nil)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 20, atomic.LoadInt64(&count))
}
