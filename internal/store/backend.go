package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tbourn/go-intake-backend/internal/repo"
)

// Backend is a namespaced string key/value store.
//
// Get reports ok=false for a missing key; that is not an error. Delete
// ignores keys that do not exist.
type Backend interface {
	Get(ctx context.Context, namespace, key string) (value string, ok bool, err error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace string, keys ...string) error
}

// GormBackend keeps drafts in the draft_entries table.
type GormBackend struct {
	DB *gorm.DB
}

// NewGormBackend returns a Backend over db. The schema must be migrated.
func NewGormBackend(db *gorm.DB) *GormBackend { return &GormBackend{DB: db} }

func (b *GormBackend) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	v, err := repo.GetDraft(ctx, b.DB, namespace, key)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *GormBackend) Set(ctx context.Context, namespace, key, value string) error {
	return repo.PutDraft(ctx, b.DB, namespace, key, value)
}

func (b *GormBackend) Delete(ctx context.Context, namespace string, keys ...string) error {
	return repo.DeleteDrafts(ctx, b.DB, namespace, keys...)
}

// RedisBackend keeps drafts under "intake:<namespace>:<key>". A positive TTL
// is applied on every write so abandoned drafts expire on their own.
type RedisBackend struct {
	Client redis.Cmdable
	TTL    time.Duration
}

// NewRedisBackend returns a Backend over client.
func NewRedisBackend(client redis.Cmdable, ttl time.Duration) *RedisBackend {
	return &RedisBackend{Client: client, TTL: ttl}
}

func redisKey(namespace, key string) string {
	return fmt.Sprintf("intake:%s:%s", namespace, key)
}

func (b *RedisBackend) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	v, err := b.Client.Get(ctx, redisKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, namespace, key, value string) error {
	ttl := b.TTL
	if ttl < 0 {
		ttl = 0
	}
	return b.Client.Set(ctx, redisKey(namespace, key), value, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = redisKey(namespace, k)
	}
	return b.Client.Del(ctx, full...).Err()
}

// MemoryBackend is a process-local Backend. It loses everything on restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string]string)}
}

func (b *MemoryBackend) Get(_ context.Context, namespace, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[namespace][key]
	return v, ok, nil
}

func (b *MemoryBackend) Set(_ context.Context, namespace, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns, ok := b.data[namespace]
	if !ok {
		ns = make(map[string]string)
		b.data[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, namespace string, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns := b.data[namespace]
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(b.data, namespace)
	}
	return nil
}
