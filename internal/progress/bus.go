// Package progress delivers pipeline progress events to a single external
// listener. The bus is the pipeline's only producer; the listener consumes
// from Events. Delivery is non-blocking: when the listener falls behind, the
// oldest pending event is dropped rather than buffering without bound.
package progress

import (
	"sync"

	"newslens/internal/core"
)

// DefaultBufferSize bounds pending events per bus.
const DefaultBufferSize = 64

// Listener receives progress events. Implementations must not block.
type Listener interface {
	OnEvent(event core.ProgressEvent)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(event core.ProgressEvent)

// OnEvent calls f(event).
func (f ListenerFunc) OnEvent(event core.ProgressEvent) { f(event) }

// Bus is a single-writer event channel with drop-on-overflow semantics.
// Events from one run are delivered (or dropped) in emission order.
type Bus struct {
	events  chan core.ProgressEvent
	dropped int
	mu      sync.Mutex
	closed  bool
}

// NewBus creates a bus with the given buffer size (DefaultBufferSize when <= 0).
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Bus{events: make(chan core.ProgressEvent, buffer)}
}

// Events returns the receive side of the bus.
func (b *Bus) Events() <-chan core.ProgressEvent {
	return b.events
}

// Emit publishes an event. When the buffer is full the oldest pending event
// is discarded so the producer never blocks.
func (b *Bus) Emit(event core.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for {
		select {
		case b.events <- event:
			return
		default:
		}
		select {
		case <-b.events:
			b.dropped++
		default:
		}
	}
}

// Dropped reports how many events were discarded due to a slow listener.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close terminates the event stream. Emit becomes a no-op afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

// Forward drains the bus into a listener until the bus is closed.
// Intended to run on its own goroutine.
func (b *Bus) Forward(listener Listener) {
	if listener == nil {
		for range b.events {
		}
		return
	}
	for event := range b.events {
		listener.OnEvent(event)
	}
}
