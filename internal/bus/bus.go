// Package bus implements the typed publish/subscribe router at the centre of
// the pipeline. Routing is keyed by the closed models.EventKind set, handlers
// for one event run as independent goroutines, and a failing handler can
// never reach the publisher or its siblings.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"
)

// Handler processes a single event. A returned error is reported through the
// bus error channel and does not affect delivery to other handlers.
type Handler func(ctx context.Context, ev models.Event) error

// HandlerError describes a handler failure surfaced on the side channel.
type HandlerError struct {
	Kind models.EventKind
	Err  error
}

func (e HandlerError) Error() string {
	return fmt.Sprintf("handler for %s failed: %v", e.Kind, e.Err)
}

// ErrorReporter receives handler failures. It must not panic.
type ErrorReporter func(HandlerError)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus routes events to subscribers of their exact kind.
type Bus struct {
	mu      sync.RWMutex
	subs    map[models.EventKind][]subscription
	nextID  uint64
	onError ErrorReporter
	metrics repository.Metrics
}

// Option configures a Bus.
type Option func(*Bus)

// WithErrorReporter replaces the default log-based failure reporter.
func WithErrorReporter(fn ErrorReporter) Option {
	return func(b *Bus) {
		if fn != nil {
			b.onError = fn
		}
	}
}

// WithMetrics records publish counts, handler errors and dispatch latency.
func WithMetrics(m repository.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// New creates a bus. The logger backs the default error reporter.
func New(log *applogger.Logger, opts ...Option) *Bus {
	b := &Bus{
		subs: make(map[models.EventKind][]subscription),
	}
	b.onError = func(he HandlerError) {
		if log != nil {
			log.Error("event handler failed",
				applogger.String("kind", he.Kind.String()),
				applogger.Error(he.Err),
			)
		}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for every future event of the given kind.
// Handlers are invoked in registration order. The returned function removes
// exactly this registration; calling it more than once is a no-op.
func (b *Bus) Subscribe(kind models.EventKind, h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[kind]
			for i, s := range list {
				if s.id == id {
					b.subs[kind] = append(list[:i:i], list[i+1:]...)
					return
				}
			}
		})
	}
}

// On registers a typed handler for T's kind, sparing callers the assertion.
func On[T models.Event](b *Bus, h func(ctx context.Context, ev T) error) func() {
	var zero T
	return b.Subscribe(zero.EventKind(), func(ctx context.Context, ev models.Event) error {
		typed, ok := ev.(T)
		if !ok {
			return fmt.Errorf("bus: %s event has unexpected concrete type %T", zero.EventKind(), ev)
		}
		return h(ctx, typed)
	})
}

// Publish delivers ev to every handler currently registered for its kind and
// returns once all of them finished. Each handler runs as its own goroutine,
// launched in subscription order, so one slow handler does not hold up its
// siblings. Errors and panics are recovered per handler and surfaced through
// the error reporter, never through Publish.
func (b *Bus) Publish(ctx context.Context, ev models.Event) {
	kind := ev.EventKind()

	b.mu.RLock()
	list := b.subs[kind]
	snapshot := make([]subscription, len(list))
	copy(snapshot, list)
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.RecordEventPublished(kind.String())
	}
	if len(snapshot) == 0 {
		return
	}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(len(snapshot))
	for _, s := range snapshot {
		go func(s subscription) {
			defer wg.Done()
			b.invoke(ctx, kind, s.handler, ev)
		}(s)
	}
	wg.Wait()
	if b.metrics != nil {
		b.metrics.RecordLatency("bus_dispatch", time.Since(start).Seconds())
	}
}

func (b *Bus) invoke(ctx context.Context, kind models.EventKind, h Handler, ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.report(HandlerError{Kind: kind, Err: fmt.Errorf("panic: %v", r)})
		}
	}()
	if err := h(ctx, ev); err != nil {
		b.report(HandlerError{Kind: kind, Err: err})
	}
}

func (b *Bus) report(he HandlerError) {
	if b.metrics != nil {
		b.metrics.RecordHandlerError(he.Kind.String())
	}
	if b.onError != nil {
		b.onError(he)
	}
}

// SubscriberCount returns the number of handlers registered for kind.
func (b *Bus) SubscriberCount(kind models.EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
