package messaging

import (
	"context"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// GoRedisClient adapts a go-redis client to the RedisClient interface
// used by RedisEventBus.
type GoRedisClient struct {
	client *goredis.Client

	mu   sync.Mutex
	subs []*goredis.PubSub
}

// NewGoRedisClient wraps an existing go-redis client.
func NewGoRedisClient(client *goredis.Client) *GoRedisClient {
	return &GoRedisClient{client: client}
}

// Publish sends a message to a channel.
func (c *GoRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.client.Publish(ctx, channel, message).Err()
}

// Subscribe opens a subscription and converts its messages to RedisMessage.
// The returned channel closes when ctx is cancelled or the client closes.
func (c *GoRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	sub := c.client.Subscribe(ctx, channels...)

	// Force the subscription handshake so a broken connection surfaces
	// here instead of as a silent dead channel.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes all open subscriptions. The underlying client is owned by
// the caller and stays open.
func (c *GoRedisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, sub := range c.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.subs = nil
	return firstErr
}
