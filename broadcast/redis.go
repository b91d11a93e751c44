package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisChannel is a Channel over Redis pub/sub.
type RedisChannel struct {
	redis    redis.UniversalClient
	name     string
	pubsub   *redis.PubSub
	handlers handlerSet

	wg        sync.WaitGroup
	closeOnce sync.Once
	closedMu  sync.RWMutex
	closed    bool
}

// NewRedisChannel subscribes to name and starts the receive loop. It returns
// once Redis has confirmed the subscription.
func NewRedisChannel(ctx context.Context, client redis.UniversalClient, name string) (*RedisChannel, error) {
	ps := client.Subscribe(ctx, name)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	c := &RedisChannel{
		redis:  client,
		name:   name,
		pubsub: ps,
	}
	c.wg.Add(1)
	go c.run(ps.Channel())
	return c, nil
}

func (c *RedisChannel) run(ch <-chan *redis.Message) {
	defer c.wg.Done()

	for msg := range ch {
		m, err := Decode([]byte(msg.Payload))
		if err != nil {
			continue
		}
		c.closedMu.RLock()
		closed := c.closed
		c.closedMu.RUnlock()
		if closed {
			return
		}
		c.handlers.dispatch(m)
	}
}

func (c *RedisChannel) Post(ctx context.Context, m Message) error {
	c.closedMu.RLock()
	closed := c.closed
	c.closedMu.RUnlock()
	if closed {
		return ErrClosed
	}

	payload, err := Encode(m)
	if err != nil {
		return err
	}
	if err := c.redis.Publish(ctx, c.name, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (c *RedisChannel) Subscribe(fn func(Message)) func() {
	return c.handlers.add(fn)
}

// Close unsubscribes and waits for the receive loop to exit.
func (c *RedisChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		err = c.pubsub.Close()
		c.wg.Wait()
		c.handlers.clear()
	})
	return err
}
