package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL keeps an idle session's cart identifier for a week, comfortably
// longer than the backend keeps the cart itself.
const DefaultTTL = 7 * 24 * time.Hour

// Redis stores cart identifiers in Redis, one key per session.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis builds a Redis store. A non-positive ttl falls back to DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: client,
		prefix: "storefront:cart:",
		ttl:    ttl,
	}
}

func (r *Redis) key(session string) string {
	return r.prefix + session
}

func (r *Redis) Load(ctx context.Context, session string) (string, error) {
	cartID, err := r.client.Get(ctx, r.key(session)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "load cart id")
	}
	return cartID, nil
}

func (r *Redis) Save(ctx context.Context, session, cartID string) error {
	if err := r.client.Set(ctx, r.key(session), cartID, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "save cart id")
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, session string) error {
	if err := r.client.Del(ctx, r.key(session)).Err(); err != nil {
		return errors.Wrap(err, "clear cart id")
	}
	return nil
}
