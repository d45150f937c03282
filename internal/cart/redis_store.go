package cart

import (
	"context"
	"errors"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

// RedisStore keeps the cart snapshot under sf:cart:<name> without expiry.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, name string) *RedisStore {
	return &RedisStore{client: client, key: client.CartKey(name)}
}

// Load reads the snapshot. A missing key yields an empty cart.
func (s *RedisStore) Load(ctx context.Context) (Cart, error) {
	payload, err := s.client.Get(ctx, s.key)
	if errors.Is(err, redis.Nil) {
		return Cart{Lines: []Line{}}, nil
	}
	if err != nil {
		return Cart{Lines: []Line{}}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}
	return decodeCart(payload)
}

// Save writes the snapshot. An empty cart deletes the key.
func (s *RedisStore) Save(ctx context.Context, c Cart) error {
	if len(c.Lines) == 0 {
		if err := s.client.Del(ctx, s.key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart snapshot")
		}
		return nil
	}
	payload, err := encodeCart(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart snapshot")
	}
	return nil
}
