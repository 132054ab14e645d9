package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Entry is per-key state kept by a Registry.
type Entry interface {
	LastActive() time.Time
	// Busy entries are never evicted.
	Busy() bool
}

// Registry lazily creates one entry per key and evicts entries that have
// been idle too long.
type Registry[K comparable, T Entry] struct {
	name    string
	create  func(K) T
	onEvict func(K, T)

	mu      sync.Mutex
	entries map[K]T
}

// NewRegistry creates a registry. name is used in log lines only.
func NewRegistry[K comparable, T Entry](name string, create func(K) T) *Registry[K, T] {
	return &Registry[K, T]{
		name:    name,
		create:  create,
		entries: make(map[K]T),
	}
}

// OnEvict registers a callback run for every entry removed by Sweep or
// Close. It runs without the registry lock held.
func (r *Registry[K, T]) OnEvict(fn func(K, T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = fn
}

// Get returns the entry for key, creating it on first use.
func (r *Registry[K, T]) Get(key K) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[key]; ok {
		return entry
	}
	entry := r.create(key)
	r.entries[key] = entry
	log.Debug().Str("registry", r.name).Interface("key", key).Msg("session created")
	return entry
}

// Lookup returns the entry for key without creating it.
func (r *Registry[K, T]) Lookup(key K) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	return entry, ok
}

// Peek returns the entry for key, or a new entry that is not stored when
// key is unknown.
func (r *Registry[K, T]) Peek(key K) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[key]; ok {
		return entry
	}
	return r.create(key)
}

func (r *Registry[K, T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type evicted[K comparable, T Entry] struct {
	key   K
	entry T
}

// Sweep removes entries idle for longer than maxIdle at now and returns
// how many were removed.
func (r *Registry[K, T]) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	var removed []evicted[K, T]
	for key, entry := range r.entries {
		if entry.Busy() || now.Sub(entry.LastActive()) <= maxIdle {
			continue
		}
		delete(r.entries, key)
		removed = append(removed, evicted[K, T]{key, entry})
	}
	onEvict := r.onEvict
	r.mu.Unlock()

	if onEvict != nil {
		for _, e := range removed {
			onEvict(e.key, e.entry)
		}
	}
	if len(removed) > 0 {
		log.Info().Str("registry", r.name).Int("count", len(removed)).Msg("evicted idle sessions")
	}
	return len(removed)
}

// RunJanitor sweeps on every tick until ctx is cancelled.
func (r *Registry[K, T]) RunJanitor(ctx context.Context, every, maxIdle time.Duration) {
	log.Info().Str("registry", r.name).Dur("interval", every).Dur("maxIdle", maxIdle).Msg("starting session janitor")

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("registry", r.name).Msg("session janitor stopped")
			return
		case now := <-ticker.C:
			r.Sweep(now, maxIdle)
		}
	}
}

// Close removes every entry, running the eviction callback for each.
func (r *Registry[K, T]) Close() {
	r.mu.Lock()
	removed := make([]evicted[K, T], 0, len(r.entries))
	for key, entry := range r.entries {
		removed = append(removed, evicted[K, T]{key, entry})
	}
	r.entries = make(map[K]T)
	onEvict := r.onEvict
	r.mu.Unlock()

	if onEvict != nil {
		for _, e := range removed {
			onEvict(e.key, e.entry)
		}
	}
	log.Info().Str("registry", r.name).Int("count", len(removed)).Msg("closed all sessions")
}
