package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInstance struct {
	disposed atomic.Bool
}

func (f *fakeInstance) Dispose() { f.disposed.Store(true) }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry[*fakeInstance](time.Minute)

	first, created := r.GetOrCreate("visitor-1", func() *fakeInstance { return &fakeInstance{} })
	require.True(t, created)

	again, created := r.GetOrCreate("visitor-1", func() *fakeInstance { return &fakeInstance{} })
	assert.False(t, created)
	assert.Same(t, first, again)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryDeleteDisposes(t *testing.T) {
	r := NewRegistry[*fakeInstance](time.Minute)
	inst := &fakeInstance{}
	r.Put("form-1", inst)

	assert.True(t, r.Delete("form-1"))
	assert.True(t, inst.disposed.Load())
	assert.False(t, r.Delete("form-1"))

	_, ok := r.Get("form-1")
	assert.False(t, ok)
}

func TestRegistryPutReplacesAndDisposes(t *testing.T) {
	r := NewRegistry[*fakeInstance](time.Minute)
	old := &fakeInstance{}
	r.Put("k", old)
	r.Put("k", &fakeInstance{})

	assert.True(t, old.disposed.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry[*fakeInstance](10*time.Minute, WithClock(clock.Now))

	stale := &fakeInstance{}
	fresh := &fakeInstance{}
	r.Put("stale", stale)
	clock.now = clock.now.Add(8 * time.Minute)
	r.Put("fresh", fresh)
	clock.now = clock.now.Add(5 * time.Minute)

	evicted := r.Sweep()

	assert.Equal(t, 1, evicted)
	assert.True(t, stale.disposed.Load())
	assert.False(t, fresh.disposed.Load())
	_, ok := r.Get("fresh")
	assert.True(t, ok)
}

func TestRegistryGetRefreshesIdleTimer(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry[*fakeInstance](10*time.Minute, WithClock(clock.Now))
	r.Put("k", &fakeInstance{})

	clock.now = clock.now.Add(9 * time.Minute)
	_, ok := r.Get("k")
	require.True(t, ok)
	clock.now = clock.now.Add(9 * time.Minute)

	assert.Equal(t, 0, r.Sweep())
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry[*fakeInstance](time.Minute)
	a, b := &fakeInstance{}, &fakeInstance{}
	r.Put("a", a)
	r.Put("b", b)

	r.Close()

	assert.True(t, a.disposed.Load())
	assert.True(t, b.disposed.Load())
	assert.Equal(t, 0, r.Len())
}

func TestJanitorStopsOnCancel(t *testing.T) {
	r := NewRegistry[*fakeInstance](time.Nanosecond)
	r.Put("k", &fakeInstance{})

	var sweeps atomic.Int32
	j := NewJanitor(r, time.Millisecond, func(evicted, remaining int) { sweeps.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool { return sweeps.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, r.Len())
}
