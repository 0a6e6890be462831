// Package ringbuffer provides a fixed-capacity, overwrite-oldest-on-full
// buffer with a notification-coalescing subscription model. It backs both
// the document-change history and the run console: high-frequency pushes
// between flushes collapse into a single listener notification so UI
// consumers re-render at most once per scheduling tick.
package ringbuffer

import (
	"sync"
	"time"
)

// FlushScheduler arranges for flush to run once on a later scheduling
// tick. The default scheduler uses a zero-delay timer; callers with a
// frame-driven render loop supply their own.
type FlushScheduler func(flush func())

// Snapshot is a consistent read of the buffer's externally visible state.
// Version strictly increases on every visible mutation.
type Snapshot struct {
	Version  uint64
	Length   int
	Capacity int
}

// RingBuffer is a bounded sequential store of capacity fixed at
// construction. Once full, a push overwrites the oldest slot, so Length
// never exceeds the capacity. Mutations must come from a single producer;
// reads and subscriptions are safe from any goroutine.
type RingBuffer[T any] struct {
	schedule FlushScheduler

	mu           sync.Mutex
	items        []T
	start        int
	length       int
	version      uint64
	flushArmed   bool
	listeners    map[int]func()
	nextListener int
}

// New creates a buffer with the given capacity. A nil scheduler selects
// the zero-delay timer default. Panics when capacity is not positive.
func New[T any](capacity int, schedule FlushScheduler) *RingBuffer[T] {
	if capacity <= 0 {
		panic("ringbuffer: capacity must be positive")
	}
	if schedule == nil {
		schedule = func(flush func()) {
			time.AfterFunc(0, flush)
		}
	}

	return &RingBuffer[T]{
		schedule:  schedule,
		items:     make([]T, capacity),
		listeners: make(map[int]func()),
	}
}

// Push appends one item, overwriting the oldest when full. Listeners are
// not notified synchronously; a coalescing flush is armed instead.
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	rb.appendLocked(item)
	rb.armFlushLocked()
	rb.mu.Unlock()
}

// PushMany appends items in order, coalescing into the same flush as any
// other pushes on this tick.
func (rb *RingBuffer[T]) PushMany(items []T) {
	if len(items) == 0 {
		return
	}

	rb.mu.Lock()
	for _, item := range items {
		rb.appendLocked(item)
	}
	rb.armFlushLocked()
	rb.mu.Unlock()
}

// Get returns the item at the logical index, oldest first. The second
// return value is false when the index is out of range.
func (rb *RingBuffer[T]) Get(index int) (T, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if index < 0 || index >= rb.length {
		var zero T
		return zero, false
	}
	return rb.items[(rb.start+index)%len(rb.items)], true
}

// ToArray returns the buffered items oldest-first. The result holds at
// most the buffer's capacity.
func (rb *RingBuffer[T]) ToArray() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]T, rb.length)
	for i := range out {
		out[i] = rb.items[(rb.start+i)%len(rb.items)]
	}
	return out
}

// Clear empties the buffer, bumps the version, and notifies listeners
// synchronously.
func (rb *RingBuffer[T]) Clear() {
	rb.mu.Lock()
	rb.start = 0
	rb.length = 0
	rb.version++
	listeners := rb.listenersLocked()
	rb.mu.Unlock()

	for _, listener := range listeners {
		listener()
	}
}

// Subscribe registers a listener invoked once per flush and on Clear.
// The returned function removes the listener.
func (rb *RingBuffer[T]) Subscribe(listener func()) (unsubscribe func()) {
	rb.mu.Lock()
	id := rb.nextListener
	rb.nextListener++
	rb.listeners[id] = listener
	rb.mu.Unlock()

	return func() {
		rb.mu.Lock()
		delete(rb.listeners, id)
		rb.mu.Unlock()
	}
}

// Snapshot returns a consistent view of version, length, and capacity.
func (rb *RingBuffer[T]) Snapshot() Snapshot {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return Snapshot{
		Version:  rb.version,
		Length:   rb.length,
		Capacity: len(rb.items),
	}
}

// appendLocked stores one item, advancing the logical start once full.
func (rb *RingBuffer[T]) appendLocked(item T) {
	capacity := len(rb.items)
	if rb.length < capacity {
		rb.items[(rb.start+rb.length)%capacity] = item
		rb.length++
		return
	}
	rb.items[rb.start] = item
	rb.start = (rb.start + 1) % capacity
}

// armFlushLocked schedules at most one pending flush.
func (rb *RingBuffer[T]) armFlushLocked() {
	if rb.flushArmed {
		return
	}
	rb.flushArmed = true
	rb.schedule(rb.flush)
}

// flush delivers the coalesced notification: one version increment and
// one call per listener, regardless of how many pushes accumulated.
func (rb *RingBuffer[T]) flush() {
	rb.mu.Lock()
	if !rb.flushArmed {
		rb.mu.Unlock()
		return
	}
	rb.flushArmed = false
	rb.version++
	listeners := rb.listenersLocked()
	rb.mu.Unlock()

	for _, listener := range listeners {
		listener()
	}
}

// listenersLocked snapshots the listener set so notifications run outside
// the lock.
func (rb *RingBuffer[T]) listenersLocked() []func() {
	listeners := make([]func(), 0, len(rb.listeners))
	for _, listener := range rb.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}
