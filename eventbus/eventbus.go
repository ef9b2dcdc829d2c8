package eventbus

import (
	"context"
	"sync"

	"github.com/arthvani/arthvani/logging"
)

// Canonical lifecycle event names.
const (
	AgentStart     = "agent:start"
	AgentComplete  = "agent:complete"
	AgentError     = "agent:error"
	IntentDetected = "intent:detected"
	ResponseReady  = "response:ready"
	MemoryUpdated  = "memory:updated"
)

// Handler observes one published event. A returned error is logged and
// swallowed; it never propagates to the publisher.
type Handler func(ctx context.Context, payload any) error

// Subscription identifies one registered handler so it can be removed later.
type Subscription struct {
	event string
	id    uint64
}

// Event returns the event name this subscription is attached to.
func (s *Subscription) Event() string { return s.event }

type registration struct {
	id   uint64
	fn   Handler
	once bool
}

// Bus is a concurrency-safe in-process publish/subscribe bus.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]registration
	logger   logging.Logger
}

// Options configures construction of a Bus.
type Options struct {
	Logger logging.Logger
}

// New constructs an empty bus with optional overrides.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bus{handlers: make(map[string][]registration), logger: opts.Logger}
}

// Subscribe registers a handler for the named event and returns a
// subscription usable with Unsubscribe.
func (b *Bus) Subscribe(event string, h Handler) *Subscription {
	return b.subscribe(event, h, false)
}

// Once registers a handler that is removed after its first invocation.
func (b *Bus) Once(event string, h Handler) *Subscription {
	return b.subscribe(event, h, true)
}

func (b *Bus) subscribe(event string, h Handler, once bool) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[event] = append(b.handlers[event], registration{id: b.nextID, fn: h, once: once})
	return &Subscription{event: event, id: b.nextID}
}

// Unsubscribe removes a previously registered handler. Unknown subscriptions
// are ignored.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub.event, sub.id)
}

func (b *Bus) removeLocked(event string, id uint64) {
	regs := b.handlers[event]
	for i, r := range regs {
		if r.id == id {
			b.handlers[event] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// PublishAsync invokes all handlers for the event concurrently and waits for
// every one of them to finish. Handler errors and panics are logged and
// swallowed so that no observer can break orchestration.
func (b *Bus) PublishAsync(ctx context.Context, event string, payload any) {
	b.mu.Lock()
	regs := make([]registration, len(b.handlers[event]))
	copy(regs, b.handlers[event])
	for _, r := range regs {
		if r.once {
			b.removeLocked(event, r.id)
		}
	}
	b.mu.Unlock()

	if len(regs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, r := range regs {
		wg.Add(1)
		go func(r registration) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					b.logger.Error("eventbus: handler panic for %s: %v", event, rec)
				}
			}()
			if err := r.fn(ctx, payload); err != nil {
				b.logger.Warn("eventbus: handler error for %s: %v", event, err)
			}
		}(r)
	}
	wg.Wait()
}

// Clear removes all handlers for the named event, or every handler when the
// event is empty.
func (b *Bus) Clear(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if event == "" {
		b.handlers = make(map[string][]registration)
		return
	}
	delete(b.handlers, event)
}

// Events returns the names of all events with at least one handler.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := make([]string, 0, len(b.handlers))
	for e, regs := range b.handlers {
		if len(regs) > 0 {
			events = append(events, e)
		}
	}
	return events
}
