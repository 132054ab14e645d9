package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeEntry struct {
	mu         sync.Mutex
	lastActive time.Time
	busy       bool
}

func (f *fakeEntry) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

func (f *fakeEntry) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

var t0 = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestRegistry() (*Registry[string, *fakeEntry], *int) {
	created := 0
	r := NewRegistry("test", func(key string) *fakeEntry {
		created++
		return &fakeEntry{lastActive: t0}
	})
	return r, &created
}

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r, created := newTestRegistry()

	a := r.Get("a")
	assert.Same(t, a, r.Get("a"))
	assert.NotSame(t, a, r.Get("b"))
	assert.Equal(t, 2, *created)
	assert.Equal(t, 2, r.Len())

	_, ok := r.Lookup("c")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len(), "Lookup does not create")
}

func TestRegistry_PeekDoesNotStore(t *testing.T) {
	r, created := newTestRegistry()

	fresh := r.Peek("a")
	assert.NotNil(t, fresh)
	assert.Equal(t, 0, r.Len())
	assert.NotSame(t, fresh, r.Peek("a"))

	a := r.Get("a")
	assert.Same(t, a, r.Peek("a"))
	assert.Equal(t, 3, *created)
}

func TestRegistry_SweepEvictsIdleButNotBusy(t *testing.T) {
	r, _ := newTestRegistry()
	var evictedKeys []string
	r.OnEvict(func(key string, _ *fakeEntry) { evictedKeys = append(evictedKeys, key) })

	r.Get("idle")
	r.Get("busy").busy = true
	r.Get("fresh").lastActive = t0.Add(90 * time.Minute)

	n := r.Sweep(t0.Add(2*time.Hour+time.Second), 2*time.Hour)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"idle"}, evictedKeys)
	_, ok := r.Lookup("busy")
	assert.True(t, ok)
	_, ok = r.Lookup("fresh")
	assert.True(t, ok)
}

func TestRegistry_Close(t *testing.T) {
	r, _ := newTestRegistry()
	evicted := 0
	r.OnEvict(func(string, *fakeEntry) { evicted++ })
	r.Get("a")
	r.Get("b")

	r.Close()

	assert.Equal(t, 2, evicted)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_JanitorStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, _ := newTestRegistry()
	r.Get("old")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunJanitor(ctx, time.Millisecond, time.Minute)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
