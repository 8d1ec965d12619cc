// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer hands transactional emails to the mail delivery service.

The identity service never talks SMTP. It publishes one JSON message per email
to a topic exchange on RabbitMQ; the mail service renders templates in the
requested language and delivers them.

Routing keys:

  - email.verification: New account or resend verification links.
  - email.approval: Administrative registration invitations.
  - email.recovery: Password recovery links.

When no broker is configured the [LogDispatcher] records the intent instead.
*/
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys, also used as queue names.
const (
	RouteVerification = "email.verification"
	RouteApproval     = "email.approval"
	RouteRecovery     = "email.recovery"
)

// routes lists every queue bound to the exchange.
var routes = []string{RouteVerification, RouteApproval, RouteRecovery}

// Broker owns the AMQP connection and the publishing channel.
type Broker struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	once     sync.Once
}

// Dial connects to RabbitMQ and declares the exchange and mail queues.
func Dial(url, exchange string, logger *slog.Logger) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to connect: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mailer: failed to open channel: %w", err)
	}

	if err := declareTopology(channel, exchange); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, err
	}

	logger.Info("amqp broker connected",
		slog.String("exchange", exchange),
		slog.Int("queues", len(routes)),
	)

	return &Broker{conn: conn, channel: channel, exchange: exchange}, nil
}

// declareTopology makes the exchange and queues exist and binds them.
func declareTopology(channel *amqp.Channel, exchange string) error {
	err := channel.ExchangeDeclare(
		exchange, // exchange name
		"topic",  // exchange type
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("mailer: failed to declare exchange: %w", err)
	}

	for _, route := range routes {
		queue, err := channel.QueueDeclare(
			route, // queue name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("mailer: failed to declare queue %s: %w", route, err)
		}

		if err := channel.QueueBind(queue.Name, route, exchange, false, nil); err != nil {
			return fmt.Errorf("mailer: failed to bind queue %s: %w", route, err)
		}
	}

	return nil
}

// Channel returns the publishing channel.
func (broker *Broker) Channel() *amqp.Channel {
	return broker.channel
}

// Exchange returns the declared exchange name.
func (broker *Broker) Exchange() string {
	return broker.exchange
}

// IsConnected reports whether the connection is still open.
func (broker *Broker) IsConnected() bool {
	return broker.conn != nil && !broker.conn.IsClosed()
}

// Ping reports an error when the broker connection has dropped.
func (broker *Broker) Ping(_ context.Context) error {
	if !broker.IsConnected() {
		return fmt.Errorf("mailer: amqp connection is closed")
	}
	return nil
}

// Close releases the channel and the connection. It is safe to call twice.
func (broker *Broker) Close() error {
	var err error
	broker.once.Do(func() {
		if broker.channel != nil {
			_ = broker.channel.Close()
		}
		if broker.conn != nil {
			err = broker.conn.Close()
		}
	})
	return err
}
