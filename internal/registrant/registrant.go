//
//
package registrant

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one subscription. The zero Handle is never issued.
type Handle struct {
	id uuid.UUID
}

// Valid reports whether h was returned by Add.
func (h Handle) Valid() bool {
	return h.id != uuid.Nil
}

// String returns the handle identifier.
func (h Handle) String() string {
	return h.id.String()
}

type entry[T any] struct {
	handle Handle
	fn     func(T)
}

// List is a set of callbacks notified together. The zero value is ready to use.
type List[T any] struct {
	mu      sync.Mutex
	entries []entry[T]
}

// Add registers fn and returns the handle used to remove it.
func (l *List[T]) Add(fn func(T)) Handle {
	h := Handle{id: uuid.New()}

	l.mu.Lock()
	l.entries = append(l.entries, entry[T]{handle: h, fn: fn})
	l.mu.Unlock()

	return h
}

// AddIf registers fn and, when active is true, calls it once with payload
// before returning. Used for level-triggered conditions where a late
// subscriber must learn the condition already holds.
func (l *List[T]) AddIf(fn func(T), active bool, payload T) Handle {
	h := l.Add(fn)
	if active {
		fn(payload)
	}
	return h
}

// Remove unregisters the callback behind h. Unknown handles are ignored.
func (l *List[T]) Remove(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.handle == h {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// NotifyAll calls every registered callback in registration order.
// Callbacks run outside the list lock and may add or remove entries.
func (l *List[T]) NotifyAll(payload T) {
	l.mu.Lock()
	snapshot := make([]func(T), len(l.entries))
	for i, e := range l.entries {
		snapshot[i] = e.fn
	}
	l.mu.Unlock()

	for _, fn := range snapshot {
		fn(payload)
	}
}

// Len returns the number of registered callbacks.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops every registration.
func (l *List[T]) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
