package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	amqp "github.com/streadway/amqp"
)

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpDialer opens a connection and a channel with the exchange declared.
type amqpDialer func() (io.Closer, amqpChannel, error)

// AMQPPublisher publishes events to a RabbitMQ topic exchange using the event
// type as routing key. A publish that fails on a dead connection reconnects
// and is retried once.
type AMQPPublisher struct {
	mu       sync.Mutex
	dial     amqpDialer
	conn     io.Closer
	channel  amqpChannel
	exchange string
}

// NewAMQPPublisher connects to url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{dial: dialAMQP(url, exchange), exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialAMQP(url, exchange string) amqpDialer {
	return func() (io.Closer, amqpChannel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("open channel: %w", err)
		}
		err = ch.ExchangeDeclare(
			exchange,
			amqp.ExchangeTopic,
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		return conn, ch, nil
	}
}

// connect replaces the current connection. Callers hold mu or own p.
func (p *AMQPPublisher) connect() error {
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	p.closeLocked()
	p.conn, p.channel = conn, ch
	return nil
}

func (p *AMQPPublisher) Publish(_ context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("amqp: marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		err = p.channel.Publish(p.exchange, string(event.Type), false, false, msg)
		if err == nil {
			return nil
		}
		var amqpErr *amqp.Error
		if !errors.Is(err, amqp.ErrClosed) && !errors.As(err, &amqpErr) {
			return fmt.Errorf("amqp: publish %s: %w", event.Type, err)
		}
	}
	if p.dial == nil {
		return fmt.Errorf("amqp: publish %s: %w", event.Type, amqp.ErrClosed)
	}
	if err := p.connect(); err != nil {
		return fmt.Errorf("amqp: reconnect for %s: %w", event.Type, err)
	}
	if err := p.channel.Publish(p.exchange, string(event.Type), false, false, msg); err != nil {
		return fmt.Errorf("amqp: publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dial = nil
	return p.closeLocked()
}

func (p *AMQPPublisher) closeLocked() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	p.conn, p.channel = nil, nil
	if len(errs) > 0 {
		return fmt.Errorf("close RabbitMQ publisher: %w", errors.Join(errs...))
	}
	return nil
}
