// Package session keeps short-lived, per-visitor state machines in memory and
// evicts the ones nobody has touched for a while.
package session

import (
	"context"
	"sync"
	"time"
)

// Disposable is implemented by instances that own scheduled work.
type Disposable interface {
	Dispose()
}

type entry[T Disposable] struct {
	value    T
	lastSeen time.Time
}

// Registry maps keys to instances. It is safe for concurrent use.
type Registry[T Disposable] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewRegistry creates a registry evicting entries idle for longer than ttl.
func NewRegistry[T Disposable](ttl time.Duration, opts ...Option) *Registry[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[T]{
		entries: make(map[string]*entry[T]),
		ttl:     ttl,
		now:     o.now,
	}
}

// Get returns the instance for key and refreshes its idle timer.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	e.lastSeen = r.now()
	return e.value, true
}

// GetOrCreate returns the instance for key, creating it with create when absent.
// The bool reports whether a new instance was created.
func (r *Registry[T]) GetOrCreate(key string, create func() T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		e.lastSeen = r.now()
		return e.value, false
	}
	v := create()
	r.entries[key] = &entry[T]{value: v, lastSeen: r.now()}
	return v, true
}

// Put stores value under key, disposing any instance it replaces.
func (r *Registry[T]) Put(key string, value T) {
	r.mu.Lock()
	old, existed := r.entries[key]
	r.entries[key] = &entry[T]{value: value, lastSeen: r.now()}
	r.mu.Unlock()
	if existed {
		old.value.Dispose()
	}
}

// Delete removes and disposes the instance for key.
func (r *Registry[T]) Delete(key string) bool {
	r.mu.Lock()
	e, ok := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()
	if ok {
		e.value.Dispose()
	}
	return ok
}

// Len reports the number of live instances.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep disposes every instance idle for longer than the ttl and returns how many were evicted.
func (r *Registry[T]) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var evicted []T
	r.mu.Lock()
	for k, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.value)
			delete(r.entries, k)
		}
	}
	r.mu.Unlock()
	for _, v := range evicted {
		v.Dispose()
	}
	return len(evicted)
}

// Close disposes all instances.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry[T])
	r.mu.Unlock()
	for _, e := range all {
		e.value.Dispose()
	}
}

// Janitor sweeps a registry on an interval until ctx is cancelled.
type Janitor struct {
	sweep    func() int
	interval time.Duration
	onSweep  func(evicted, remaining int)
	size     func() int
}

// NewJanitor builds a janitor for r. onSweep may be nil.
func NewJanitor[T Disposable](r *Registry[T], interval time.Duration, onSweep func(evicted, remaining int)) *Janitor {
	return &Janitor{sweep: r.Sweep, size: r.Len, interval: interval, onSweep: onSweep}
}

// Run blocks until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			evicted := j.sweep()
			if j.onSweep != nil {
				j.onSweep(evicted, j.size())
			}
		}
	}
}
