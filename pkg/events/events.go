package events

import (
	"context"
	"encoding/json"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// Domain event names published on the shared bus.
const (
	CourseCreated         = "course.created"
	CoursePublished       = "course.published"
	CourseUnpublished     = "course.unpublished"
	CourseDeleted         = "course.deleted"
	SubscriptionCreated   = "subscription.created"
	SubscriptionCancelled = "subscription.cancelled"
	SubscriptionResumed   = "subscription.resumed"
	SubscriptionUpdated   = "subscription.updated"
	SubscriptionDeleted   = "subscription.deleted"
	PaymentSucceeded      = "payment.succeeded"
	PaymentFailed         = "payment.failed"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// Envelope is the wire shape of every published event.
type Envelope struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEnvelope stamps an event with a sortable id and the current time.
func NewEnvelope(event string, data interface{}) Envelope {
	now := time.Now().UTC()
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy).String()
	entropyMu.Unlock()
	return Envelope{ID: id, Event: event, Data: data, Timestamp: now}
}

// RedisPublisher publishes envelopes with Redis PUBLISH.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher returns a publisher bound to a channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "events"
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Publish serialises the envelope and sends it on the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", env.Event, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", env.Event, err)
	}
	return nil
}

// Channel returns the channel name.
func (p *RedisPublisher) Channel() string {
	return p.channel
}
