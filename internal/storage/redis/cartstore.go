// Package redis keeps cart documents in Redis string keys.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store on Redis. Each save rewrites the whole
// document and refreshes the expiry.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore wraps client. A zero ttl keeps documents forever.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Open connects to the Redis server at url and verifies the connection.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

// Load implements cart.Store.
func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, errors.Wrapf(err, "get %s", key)
	}
	return doc, nil
}

// Save implements cart.Store.
func (s *CartStore) Save(ctx context.Context, key string, doc []byte) error {
	if err := s.client.Set(ctx, key, doc, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}

// Ping checks the connection to Redis.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
