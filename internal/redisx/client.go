package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Store adapts the redis client to the key-value snapshot contract the cart
// and checkout stores persist through. A missing key yields (nil, nil); a
// zero TTL means keys never expire.
type Store struct {
	RDB *redis.Client
	TTL time.Duration
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.RDB.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return b, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.RDB.Set(ctx, key, value, s.TTL).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.RDB.Del(ctx, key).Err()
}
