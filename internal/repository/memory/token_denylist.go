package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"glowgirl-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "revoked_token:"

// TokenDenylist remembers signed-out tokens until they would have expired anyway.
// Redis shares the list across instances; the local cache keeps working when
// Redis is unavailable.
type TokenDenylist struct {
	rdb    *redis.Client
	local  *cache.Cache
	logger logger.ILogger
}

func NewTokenDenylist(rdb *redis.Client, log logger.ILogger) *TokenDenylist {
	return &TokenDenylist{
		rdb:    rdb,
		local:  cache.New(time.Hour, 10*time.Minute),
		logger: logger.OrNop(log),
	}
}

func (d *TokenDenylist) Revoke(ctx context.Context, token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if token == "" || ttl <= 0 {
		return
	}
	key := denylistKey(token)
	d.local.Set(key, true, ttl)

	if d.rdb != nil {
		if err := d.rdb.Set(ctx, key, 1, ttl).Err(); err != nil {
			d.logger.Warn("DENYLIST", "Failed to share revoked token via redis", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, token string) bool {
	key := denylistKey(token)
	if _, found := d.local.Get(key); found {
		return true
	}
	if d.rdb == nil {
		return false
	}

	n, err := d.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func denylistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return denylistPrefix + hex.EncodeToString(sum[:])
}
