// internal/common/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

// RedisStore keeps entries under "<prefix><group>:<key>" so a group can be
// dropped with a prefix SCAN without tracking member keys.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  Clock
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

func WithStoreClock(clock Clock) RedisOption {
	return func(s *RedisStore) { s.clock = clock }
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "grant:",
		clock:  SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) fullKey(key, group string) string {
	return s.prefix + group + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key, group string) (Entry, error) {
	data, err := s.client.Get(ctx, s.fullKey(key, group)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return Entry{Key: key, Group: group, Value: data}, nil
}

func (s *RedisStore) Set(ctx context.Context, entry Entry) error {
	ttl := entry.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.fullKey(entry.Key, entry.Group), entry.Value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, entry.Key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key, group string) error {
	if err := s.client.Del(ctx, s.fullKey(key, group)).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *RedisStore) DeleteGroup(ctx context.Context, group string) (int, error) {
	match := escapeGlob(s.prefix+group+":") + "*"
	deleted := 0
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("%w: scan group %s: %v", ErrUnavailable, group, err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("%w: del group %s: %v", ErrUnavailable, group, err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Ping reports whether the backing redis answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
