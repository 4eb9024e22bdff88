// Package broker fans domain events out to NATS and Redis pub/sub.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/classroom-api/internal/observability"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher sends events to whichever transports are configured. Both may be nil.
type Publisher struct {
	nats   *nats.Conn
	redis  *redis.Client
	prefix string
	now    func() time.Time
}

// NewPublisher constructs a Publisher. prefix namespaces NATS subjects and Redis channels.
func NewPublisher(natsConn *nats.Conn, redisClient *redis.Client, prefix string) *Publisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".:")
	if prefix == "" {
		prefix = "classroom"
	}

	return &Publisher{
		nats:   natsConn,
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

// Subject returns the NATS subject used for topic.
func (p *Publisher) Subject(topic string) string {
	return p.prefix + "." + topic
}

// Channel returns the Redis channel used for topic.
func (p *Publisher) Channel(topic string) string {
	return p.prefix + ":" + strings.ReplaceAll(topic, ".", ":")
}

// Publish encodes data in an Envelope and hands it to every transport.
// Each transport is attempted even when another one fails.
func (p *Publisher) Publish(ctx context.Context, topic string, data any) error {
	if p == nil || (p.nats == nil && p.redis == nil) {
		return nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Topic:      topic,
		Data:       body,
		OccurredAt: p.now().UTC(),
	})
	if err != nil {
		return err
	}

	var errs []error
	if p.nats != nil {
		errs = append(errs, record("nats", p.nats.Publish(p.Subject(topic), payload)))
	}
	if p.redis != nil {
		errs = append(errs, record("redis", p.redis.Publish(ctx, p.Channel(topic), payload).Err()))
	}

	return errors.Join(errs...)
}

func record(transport string, err error) error {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.EventsPublished().WithLabelValues(transport, outcome).Inc()
	return err
}
