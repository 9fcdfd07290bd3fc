package wallet

import (
	"log/slog"
	"sync"
)

// Registry fans values out to subscribers in registration order.
type Registry[T any] struct {
	logger *slog.Logger

	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any](logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{logger: logger}
}

// Subscribe registers fn and returns a function that removes exactly this
// registration. Calling the returned function more than once is harmless.
func (r *Registry[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscriber[T]{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

// Len returns the number of active subscriptions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Notify delivers v to every subscriber synchronously. A subscriber that
// panics is logged and skipped; the rest still run.
func (r *Registry[T]) Notify(v T) {
	// Deliver to a copy so callbacks may unsubscribe while we iterate
	r.mu.Lock()
	subs := make([]subscriber[T], len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, s := range subs {
		r.deliver(s, v)
	}
}

func (r *Registry[T]) deliver(s subscriber[T], v T) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("subscriber panicked", "subscriber", s.id, "panic", rec)
		}
	}()
	s.fn(v)
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}
