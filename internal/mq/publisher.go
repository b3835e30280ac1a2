// Package mq publishes booking lifecycle events to RabbitMQ.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	KeyBookingCreated   = "booking.created"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingRefunded  = "booking.refunded"
)

// Publisher sends JSON events to a topic exchange. A closed channel or
// connection is redialed once on the next publish.
type Publisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect replaces the connection and channel. Callers hold p.mu or own p exclusively.
func (p *Publisher) connect() error {
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// PublishJSON is safe for concurrent use; amqp channels are not.
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", key, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
	}
	err = p.publish(ctx, key, b)
	if errors.Is(err, amqp.ErrClosed) {
		log.Ctx(ctx).Warn().Err(err).Str("routing_key", key).Msg("RabbitMQ channel closed, reconnecting")
		if rerr := p.connect(); rerr != nil {
			return fmt.Errorf("publish %s: %w", key, rerr)
		}
		err = p.publish(ctx, key, b)
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, key string, body []byte) error {
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if !p.conn.IsClosed() {
			err = p.conn.Close()
		}
		p.conn = nil
	}
	return err
}

// Noop drops every event. Used when events are disabled.
type Noop struct{}

func (Noop) PublishJSON(context.Context, string, any) error { return nil }

func (Noop) Close() error { return nil }
