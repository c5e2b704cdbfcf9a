package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Closer is anything that must release resources when it leaves the repository.
type Closer interface {
	Close()
}

// SessionRepository keeps one live value per user and closes it once it has been
// idle for the configured TTL or is deleted.
type SessionRepository[T Closer] struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository[T Closer](idleTTL time.Duration) *SessionRepository[T] {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	cleanup := idleTTL / 6
	if cleanup < time.Second {
		cleanup = time.Second
	}

	c := cache.New(idleTTL, cleanup)
	c.OnEvicted(func(_ string, v interface{}) {
		if closer, ok := v.(T); ok {
			go closer.Close()
		}
	})
	return &SessionRepository[T]{cache: c}
}

// GetOrCreate returns the user's value, building it with create when absent.
// Every call renews the idle TTL.
func (r *SessionRepository[T]) GetOrCreate(userID uuid.UUID, create func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.touchLocked(userID.String()); ok {
		return existing
	}
	// An expired entry the janitor has not reached yet still needs closing.
	r.cache.Delete(userID.String())
	fresh := create()
	r.cache.Set(userID.String(), fresh, cache.DefaultExpiration)
	return fresh
}

// Get returns the user's value and renews its idle TTL.
func (r *SessionRepository[T]) Get(userID uuid.UUID) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touchLocked(userID.String())
}

func (r *SessionRepository[T]) touchLocked(key string) (T, bool) {
	x, found := r.cache.Get(key)
	if !found {
		var zero T
		return zero, false
	}
	r.cache.Set(key, x, cache.DefaultExpiration)
	return x.(T), true
}

// Delete removes and closes the user's value.
func (r *SessionRepository[T]) Delete(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(userID.String())
}

func (r *SessionRepository[T]) Count() int {
	return r.cache.ItemCount()
}

// Close removes every value and waits until all of them are closed.
func (r *SessionRepository[T]) Close() {
	r.mu.Lock()
	items := r.cache.Items()
	r.cache.Flush()
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, item := range items {
		closer, ok := item.Object.(T)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			closer.Close()
		}()
	}
	wg.Wait()
}
