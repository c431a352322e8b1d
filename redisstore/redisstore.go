// Package redisstore provides a redis backed hubx.Store.
//
// Values are stored without a TTL under a key prefix, so several
// clients can share one redis instance without clashing.
package redisstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is prepended to every key.
const DefaultPrefix = "hubx:"

// RedisStore is a redis backed key-value store.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// New creates and returns a new RedisStore using DefaultPrefix.
func New(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: DefaultPrefix}
}

// NewWithPrefix creates a RedisStore namespacing keys with prefix.
func NewWithPrefix(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get retrieves the data stored under key. Returns the data, a boolean
// indicating whether the key was found, and an error.
func (s *RedisStore) Get(key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(context.Background(), s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []byte{}, false, nil
		}
		return []byte{}, false, err
	}

	return data, true, nil
}

// Set stores data under key with no expiration, overwriting any previous
// value.
func (s *RedisStore) Set(key string, data []byte) error {
	return s.rdb.Set(context.Background(), s.key(key), data, 0).Err()
}

// Delete removes the value stored under key. If the key does not exist,
// this is a no-op.
func (s *RedisStore) Delete(key string) error {
	return s.rdb.Del(context.Background(), s.key(key)).Err()
}
