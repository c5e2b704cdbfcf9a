package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closable struct {
	closed atomic.Int32
	done   chan struct{}
}

func newClosable() *closable {
	return &closable{done: make(chan struct{})}
}

func (c *closable) Close() {
	if c.closed.Add(1) == 1 {
		close(c.done)
	}
}

func TestSessionRepository_GetOrCreate(t *testing.T) {
	repo := NewSessionRepository[*closable](time.Minute)
	user := uuid.New()

	created := 0
	first := repo.GetOrCreate(user, func() *closable { created++; return newClosable() })
	second := repo.GetOrCreate(user, func() *closable { created++; return newClosable() })

	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepository_ConcurrentCreateKeepsOne(t *testing.T) {
	repo := NewSessionRepository[*closable](time.Minute)
	user := uuid.New()

	var wg sync.WaitGroup
	results := make([]*closable, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.GetOrCreate(user, newClosable)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Zero(t, results[0].closed.Load())
}

func TestSessionRepository_DeleteCloses(t *testing.T) {
	repo := NewSessionRepository[*closable](time.Minute)
	user := uuid.New()
	v := repo.GetOrCreate(user, newClosable)

	repo.Delete(user)

	select {
	case <-v.done:
	case <-time.After(time.Second):
		t.Fatal("value was not closed on delete")
	}
	_, ok := repo.Get(user)
	assert.False(t, ok)
}

func TestSessionRepository_IdleExpiryCloses(t *testing.T) {
	repo := NewSessionRepository[*closable](50 * time.Millisecond)
	v := repo.GetOrCreate(uuid.New(), newClosable)

	select {
	case <-v.done:
	case <-time.After(3 * time.Second):
		t.Fatal("idle value was not closed")
	}
}

func TestTokenDenylist_LocalOnly(t *testing.T) {
	d := NewTokenDenylist(nil, nil)
	ctx := context.Background()

	assert.False(t, d.IsRevoked(ctx, "tok"))

	d.Revoke(ctx, "tok", time.Now().Add(time.Hour))
	assert.True(t, d.IsRevoked(ctx, "tok"))
	assert.False(t, d.IsRevoked(ctx, "other"))

	d.Revoke(ctx, "already-expired", time.Now().Add(-time.Second))
	assert.False(t, d.IsRevoked(ctx, "already-expired"))
}

func TestDenylistKey_HidesToken(t *testing.T) {
	key := denylistKey("secret.jwt.value")
	require.True(t, len(key) > len(denylistPrefix))
	assert.NotContains(t, key, "secret")
}

func TestSessionRepository_CloseWaits(t *testing.T) {
	repo := NewSessionRepository[*closable](time.Minute)
	a := repo.GetOrCreate(uuid.New(), newClosable)
	b := repo.GetOrCreate(uuid.New(), newClosable)

	repo.Close()

	assert.EqualValues(t, 1, a.closed.Load())
	assert.EqualValues(t, 1, b.closed.Load())
	assert.Zero(t, repo.Count())
}
