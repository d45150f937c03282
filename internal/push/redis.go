package push

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

// RedisTransport receives stock update frames published on a redis channel.
type RedisTransport struct {
	client  *redis.Client
	channel string
	logg    *logger.Logger
}

func NewRedisTransport(client *redis.Client, channel string, logg *logger.Logger) (*RedisTransport, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, fmt.Errorf("redis channel required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &RedisTransport{client: client, channel: channel, logg: logg}, nil
}

func (t *RedisTransport) Name() string {
	return "redis"
}

func (t *RedisTransport) Stream(ctx context.Context, emit func(catalog.Event)) error {
	sub := t.client.Subscribe(ctx, t.channel)
	if sub == nil {
		return errors.New("redis pub/sub unavailable")
	}
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", t.channel, err)
	}
	t.logg.Info(t.logg.WithField(ctx, "channel", t.channel), "subscribed to stock updates")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			handleRaw(ctx, t.logg, []byte(msg.Payload), emit)
		}
	}
}
