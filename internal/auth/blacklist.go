package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist tracks revoked access tokens until they expire on
// their own.
type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Tokens are long and carry credentials, so only a digest is stored.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "albedo:revoked:" + hex.EncodeToString(sum[:])
}

// RedisBlacklist stores revoked token digests in Redis with a TTL
// matching the token's remaining lifetime.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, tokenKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, tokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}

// MemoryBlacklist is the single-process fallback used when Redis is
// not configured. Entries are pruned lazily on access.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{revoked: make(map[string]time.Time)}
}

func (b *MemoryBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[tokenKey(token)] = time.Now().Add(ttl)
	b.prune()
	return nil
}

func (b *MemoryBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	b.mu.RLock()
	expires, ok := b.revoked[tokenKey(token)]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expires) {
		b.mu.Lock()
		delete(b.revoked, tokenKey(token))
		b.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// prune drops expired entries; callers hold the write lock.
func (b *MemoryBlacklist) prune() {
	now := time.Now()
	for key, expires := range b.revoked {
		if now.After(expires) {
			delete(b.revoked, key)
		}
	}
}
