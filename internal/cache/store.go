package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonjun/stiky/pkg/database"
)

// ErrMiss is returned when a key is absent or has expired.
var ErrMiss = errors.New("cache miss")

// Store is a key-value store with per-key TTL.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	// GetDel reads and removes a key in one atomic step.
	GetDel(ctx context.Context, key string) (string, error)
	// CompareAndSet replaces the value of key with value only while it still
	// holds expected. It reports whether the swap happened.
	CompareAndSet(ctx context.Context, key, expected, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

var compareAndSet = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// RedisStore implements Store on a shared go-redis client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) (err error) {
	ctx, end := database.TraceCache(ctx, "SET", namespace(key))
	defer func() { end(err) }()

	if err = s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (val string, err error) {
	ctx, end := database.TraceCache(ctx, "GET", namespace(key))
	defer func() { end(err) }()

	val, err = s.client.Get(ctx, key).Result()
	return val, missOrWrap("redis get", err)
}

func (s *RedisStore) GetDel(ctx context.Context, key string) (val string, err error) {
	ctx, end := database.TraceCache(ctx, "GETDEL", namespace(key))
	defer func() { end(err) }()

	val, err = s.client.GetDel(ctx, key).Result()
	return val, missOrWrap("redis getdel", err)
}

func (s *RedisStore) CompareAndSet(ctx context.Context, key, expected, value string, ttl time.Duration) (swapped bool, err error) {
	ctx, end := database.TraceCache(ctx, "CAS", namespace(key))
	defer func() { end(err) }()

	n, err := compareAndSet.Run(ctx, s.client, []string{key}, expected, value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-set: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) (err error) {
	if len(keys) == 0 {
		return nil
	}
	ctx, end := database.TraceCache(ctx, "DEL", namespace(keys[0]))
	defer func() { end(err) }()

	if err = s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func missOrWrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return ErrMiss
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// namespace returns the key prefix up to the first colon. Full keys embed
// emails and one-time codes and must not reach traces.
func namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "default"
}
