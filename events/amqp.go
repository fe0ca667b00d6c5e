package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher publishes events as persistent JSON messages to a durable
// RabbitMQ queue through the default exchange. The connection is opened
// lazily and re-dialed after it drops.
type AMQPPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, queue string, log *zap.Logger) *AMQPPublisher {
	if queue == "" {
		queue = "hotel.booking.events"
	}
	return &AMQPPublisher{url: url, queue: queue, log: log}
}

// NewPublisher returns a no-op publisher when no broker URL is configured.
func NewPublisher(url, queue string, log *zap.Logger) Publisher {
	if url == "" {
		log.Info("rabbitmq not configured; booking events disabled")
		return NoopPublisher{}
	}
	return NewAMQPPublisher(url, queue, log)
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, err
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel unavailable", zap.Error(err))
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return ch.PublishWithContext(pubCtx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Type:         ev.Type,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
