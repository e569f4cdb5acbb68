// Package pushredis implements domain.PushChannel over Redis pub/sub.
//
// Inbound frames are read from "<prefix>:events" and outbound frames are
// published to "<prefix>:client". Frames use the same envelope as the
// WebSocket transport.
package pushredis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/infra/pushcodec"
)

const (
	logCategory  = "push"
	retryDelay   = time.Second
	channelSize  = 100
	eventsSuffix = ":events"
	clientSuffix = ":client"
)

var errSubscriptionClosed = errors.New("pubsub channel closed")

// Channel bridges a Redis pub/sub pair to a domain.PushHandler.
// Fields are ordered to minimize memory padding.
type Channel struct {
	rdb       *redis.Client
	log       domain.Logger
	prefix    string
	connected atomic.Bool
}

// New creates a Channel using rdb and the given channel prefix.
func New(rdb *redis.Client, prefix string, log domain.Logger) *Channel {
	if log == nil {
		log = domain.NopLogger{}
	}
	if prefix == "" {
		prefix = domain.DefaultRedisPrefix
	}
	return &Channel{rdb: rdb, log: log, prefix: prefix}
}

// EventsChannel is the channel inbound frames are read from.
func (c *Channel) EventsChannel() string {
	return c.prefix + eventsSuffix
}

// ClientChannel is the channel outbound frames are published to.
func (c *Channel) ClientChannel() string {
	return c.prefix + clientSuffix
}

// Run subscribes and dispatches frames to h until ctx is done.
// Every (re)subscription confirmed by the server is reported as OnConnected.
func (c *Channel) Run(ctx context.Context, h domain.PushHandler) error {
	for {
		sub := c.rdb.Subscribe(ctx, c.EventsChannel())
		err := c.consume(ctx, sub, h)
		_ = sub.Close()
		c.connected.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Error(logCategory, fmt.Sprintf("%v, resubscribing", err))
		h.OnDisconnected(err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

func (c *Channel) consume(ctx context.Context, sub *redis.PubSub, h domain.PushHandler) error {
	ch := sub.ChannelWithSubscriptions(redis.WithChannelSize(channelSize))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			switch m := msg.(type) {
			case *redis.Subscription:
				if m.Kind == "subscribe" {
					c.connected.Store(true)
					c.log.Info(logCategory, "subscribed to "+m.Channel)
					h.OnConnected(ctx)
				}
			case *redis.Message:
				ev, err := pushcodec.Decode([]byte(m.Payload))
				if err != nil {
					c.log.Warn(logCategory, err.Error())
					continue
				}
				h.OnEvent(ctx, ev)
			}
		}
	}
}

// Emit publishes ev on the client channel.
func (c *Channel) Emit(ctx context.Context, ev domain.PushEvent) error {
	if !c.connected.Load() {
		return domain.ErrNotConnected
	}
	frame, err := pushcodec.Encode(ev)
	if err != nil {
		return err
	}
	if err := c.rdb.Publish(ctx, c.ClientChannel(), frame).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}

// Ensure Channel implements domain.PushChannel.
var _ domain.PushChannel = (*Channel)(nil)
