// Package redisbus relays store change notices between server instances over
// Redis pub/sub.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// Ensure Bus implements domain.ChangeNotifier.
var _ domain.ChangeNotifier = (*Bus)(nil)

// Notice is the pub/sub payload.
type Notice struct {
	Origin string            `json:"origin"`
	Kind   domain.ChangeKind `json:"kind"`
}

// Bus publishes and receives change notices on one channel. Notices published
// by the same Bus are not delivered back to it.
// Fields are ordered to minimize memory padding.
type Bus struct {
	client       *redis.Client
	logger       domain.Logger
	channel      string
	origin       string
	retryBackoff time.Duration
}

// New creates a Bus on client. logger may be nil.
func New(client *redis.Client, channel string, logger domain.Logger) *Bus {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	if channel == "" {
		channel = domain.DefaultRedisChannel
	}
	return &Bus{
		client:       client,
		logger:       logger,
		channel:      channel,
		origin:       uuid.NewString(),
		retryBackoff: time.Second,
	}
}

// Dial connects to addr and checks the connection with PING.
func Dial(ctx context.Context, addr, channel string, logger domain.Logger) (*Bus, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return New(client, channel, logger), nil
}

// Origin returns the id stamped on this bus's notices.
func (b *Bus) Origin() string {
	return b.origin
}

// Close closes the underlying client.
func (b *Bus) Close() error {
	return b.client.Close()
}

// Notify publishes a change notice.
func (b *Bus) Notify(ctx context.Context, kind domain.ChangeKind) error {
	data, err := json.Marshal(Notice{Origin: b.origin, Kind: kind})
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

// Subscribe calls fn for every notice from another origin until ctx is done.
// A dropped subscription is re-established after a pause.
func (b *Bus) Subscribe(ctx context.Context, fn func(domain.ChangeKind)) {
	for {
		b.receive(ctx, fn)
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("redis", "pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryBackoff):
		}
	}
}

func (b *Bus) receive(ctx context.Context, fn func(domain.ChangeKind)) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var n Notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.logger.Error("redis", fmt.Sprintf("unable to parse notice: %v", err))
				continue
			}
			if n.Origin == b.origin {
				continue
			}
			fn(n.Kind)
		}
	}
}
