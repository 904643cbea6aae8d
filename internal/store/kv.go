package store

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Fixed keys for the durable store. Each holds one serialized list or map;
// every mutation is a full read-modify-write of the value under its key.
const (
	KeyConnections    = "connections"
	KeyScheduledPosts = "scheduled_posts"
	KeyPublishHistory = "published_posts"
)

// KV is the namespaced key-value capability backing all durable state.
// Load returns (nil, nil) when the key is absent. Concurrent writers from
// separate processes are not coordinated; last writer wins.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// RedisKV stores values under a namespace prefix in Redis.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisKV(rdb *redis.Client, namespace string) *RedisKV {
	return &RedisKV{rdb: rdb, prefix: namespace + ":"}
}

func (kv *RedisKV) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := kv.rdb.Get(ctx, kv.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (kv *RedisKV) Save(ctx context.Context, key string, value []byte) error {
	return kv.rdb.Set(ctx, kv.prefix+key, value, 0).Err()
}

func (kv *RedisKV) Delete(ctx context.Context, key string) error {
	return kv.rdb.Del(ctx, kv.prefix+key).Err()
}

// MemoryKV is an in-memory KV used by tests and available as a fallback
// when no Redis is configured.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (kv *MemoryKV) Load(ctx context.Context, key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	val, ok := kv.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (kv *MemoryKV) Save(ctx context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	kv.data[key] = stored
	return nil
}

func (kv *MemoryKV) Delete(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}
