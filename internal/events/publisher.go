// Package events emits domain events for downstream consumers (analytics,
// notification fan-out). The feed is fire-and-forget: core writes never fail
// because the broker is down, and a circuit breaker keeps a dead broker from
// adding latency to every send.
package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	TypeProfileSynced       = "profile.synced"
	TypeConversationCreated = "conversation.created"
	TypeMessageSent         = "message.sent"
)

// Emitter is the sink writers publish domain events through. A nil
// *Publisher is a valid no-op Emitter.
type Emitter interface {
	Publish(ctx context.Context, eventType string, payload any)
}

type Publisher struct {
	writer *kafkago.Writer
	cb     *gobreaker.CircuitBreaker
	log    *zap.SugaredLogger
}

// NewPublisher returns nil when no brokers are configured; a nil Publisher
// is a no-op, so callers never guard their publish calls.
func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-events",
		Timeout: 30 * time.Second,
	})
	return &Publisher{writer: w, cb: cb, log: log}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) {
	if p == nil {
		return
	}
	b, err := json.Marshal(map[string]any{
		"type":        eventType,
		"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
		"payload":     payload,
	})
	if err != nil {
		p.log.Warnw("event marshal failed", "type", eventType, "err", err)
		return
	}
	_, err = p.cb.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, kafkago.Message{
			Key:   []byte(eventType),
			Value: b,
			Time:  time.Now(),
		})
	})
	if err != nil {
		p.log.Warnw("event publish failed", "type", eventType, "err", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
