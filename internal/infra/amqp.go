package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// EventPublisher publishes order lifecycle events to a durable topic exchange
// with publisher confirms. Kitchen displays bind their own queues to it.
type EventPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex // serializes Publish; confirms arrive in order
	conn *amqp.Connection
	ch   *amqp.Channel
	acks <-chan amqp.Confirmation
}

// NewEventPublisher dials lazily: the broker may come up after the API.
func NewEventPublisher(url, exchange string) *EventPublisher {
	return &EventPublisher{url: url, exchange: exchange}
}

// connect must be called under lock.
func (p *EventPublisher) connect() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn = conn
	p.ch = ch
	p.acks = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	log.Info().Str("exchange", p.exchange).Msg("amqp: connected")
	return nil
}

// Publish sends body with routingKey and waits for the broker's ack.
func (p *EventPublisher) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return err
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"x-source": "kioskpos"},
		Body:         body,
	}); err != nil {
		p.closeLocked()
		return err
	}

	select {
	case conf, ok := <-p.acks:
		if !ok {
			p.closeLocked()
			return errors.New("amqp: channel closed before confirm")
		}
		if !conf.Ack {
			return errors.New("amqp: publish NACK from broker")
		}
		return nil
	case <-ctx.Done():
		// the pending confirm would be read by the next Publish
		p.closeLocked()
		return ctx.Err()
	}
}

func (p *EventPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.acks = nil
}

func (p *EventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}
